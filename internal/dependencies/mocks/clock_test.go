package mocks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMockTickerFiresOnAdvance(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	ticker := c.NewTicker(time.Second)

	c.Advance(500 * time.Millisecond)
	select {
	case <-ticker.C():
		t.Fatal("ticked before the interval elapsed")
	default:
	}

	c.Advance(500 * time.Millisecond)
	select {
	case got := <-ticker.C():
		assert.Equal(t, start.Add(time.Second), got)
	default:
		t.Fatal("expected a tick")
	}

	// Several intervals at once still deliver a single tick
	c.Advance(5 * time.Second)
	assert.Len(t, ticker.C(), 1)
	<-ticker.C()

	c.Advance(500 * time.Millisecond)
	assert.Empty(t, ticker.C())
}

func TestMockTickerStop(t *testing.T) {
	c := NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	ticker := c.NewTicker(time.Second)
	assert.Equal(t, 1, c.Tickers())

	ticker.Stop()
	assert.Equal(t, 0, c.Tickers())

	c.Advance(time.Minute)
	assert.Empty(t, ticker.C())
}

func TestMockClockSet(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	ticker := c.NewTicker(time.Minute)

	c.Set(start.Add(time.Hour))
	assert.Equal(t, start.Add(time.Hour), c.Now())
	assert.Len(t, ticker.C(), 1)
}
