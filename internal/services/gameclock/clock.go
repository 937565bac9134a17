package gameclock

import (
	"time"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
)

// NewClock creates a stopped clock with full time for both sides
func NewClock(id model.SessionID, cfg model.ClockConfig, now time.Time) *model.Clock {
	side := model.PlayerClock{MainLeft: cfg.MainTime}
	if cfg.Discipline != model.DisciplineIncrement {
		side.PeriodsLeft = cfg.Periods
		side.PeriodLeft = cfg.PeriodTime
	}
	return &model.Clock{
		SessionID:  id,
		Config:     cfg,
		Turn:       model.Black,
		Black:      side,
		White:      side,
		LastUpdate: now,
	}
}

// Start runs the clock with turn to move
func Start(c *model.Clock, turn model.Color, now time.Time) {
	c.Turn = turn
	c.Running = true
	c.LastUpdate = now
}

// Stop charges time up to now and halts the clock
func Stop(c *model.Clock, now time.Time) {
	Advance(c, now)
	c.Running = false
}

// Advance charges the side to move for the time since the last update.
// It returns true if that side ran out of time.
func Advance(c *model.Clock, now time.Time) bool {
	if !c.Running || c.Expired != model.Empty {
		return false
	}
	if c.Paused() {
		if c.ResumeAt.IsZero() || now.Before(c.ResumeAt) {
			return false
		}
		// The reveal window elapsed without a matching resume
		c.PauseDepth = 0
		c.LastUpdate = c.ResumeAt
		c.ResumeAt = time.Time{}
	}

	elapsed := now.Sub(c.LastUpdate)
	if elapsed <= 0 {
		return false
	}
	c.LastUpdate = now
	return charge(c, c.Turn, elapsed)
}

func charge(c *model.Clock, color model.Color, d time.Duration) bool {
	p := c.For(color)

	use := min(d, p.MainLeft)
	p.MainLeft -= use
	p.MainUsed += use
	p.Spent += use
	d -= use
	if p.MainLeft > 0 {
		return false
	}

	if c.Config.Discipline == model.DisciplineIncrement || p.PeriodsLeft <= 0 {
		return expire(c, color)
	}

	for d > 0 {
		use = min(d, p.PeriodLeft)
		p.PeriodLeft -= use
		p.OvertimeUsed += use
		p.Spent += use
		d -= use

		if p.PeriodLeft > 0 {
			continue
		}
		p.PeriodsLeft--
		if p.PeriodsLeft <= 0 {
			return expire(c, color)
		}
		p.PeriodLeft = c.Config.PeriodTime
	}
	return false
}

func expire(c *model.Clock, color model.Color) bool {
	c.Expired = color
	c.Running = false
	return true
}

// SwitchTurn completes the current side's move and hands the turn over.
// It returns true if the mover had already run out of time.
func SwitchTurn(c *model.Clock, now time.Time) bool {
	if Advance(c, now) || c.Expired != model.Empty {
		return true
	}

	p := c.For(c.Turn)
	p.Moves++
	switch c.Config.Discipline {
	case model.DisciplineIncrement:
		p.MainLeft += c.Config.Increment
	default:
		if p.InOvertime() && p.PeriodsLeft > 0 {
			p.PeriodLeft = c.Config.PeriodTime
		}
	}
	c.Turn = c.Turn.Opponent()
	return false
}

// Pause stops charging time. Pauses nest; a positive window schedules an
// automatic resume.
func Pause(c *model.Clock, now time.Time, window time.Duration) {
	Advance(c, now)
	c.PauseDepth++
	if window > 0 {
		if at := now.Add(window); at.After(c.ResumeAt) {
			c.ResumeAt = at
		}
	}
}

// Resume releases one pause. Charging restarts from now once all pauses are
// released.
func Resume(c *model.Clock, now time.Time) {
	if !c.Paused() {
		return
	}
	Advance(c, now)
	if !c.Paused() {
		return
	}
	c.PauseDepth--
	if c.PauseDepth == 0 {
		c.LastUpdate = now
		c.ResumeAt = time.Time{}
	}
}

// Remaining returns the total time a side has left, overtime included
func Remaining(c *model.Clock, color model.Color) time.Duration {
	p := c.For(color)
	if c.Config.Discipline == model.DisciplineIncrement {
		return p.MainLeft
	}
	if !p.InOvertime() {
		return p.MainLeft + time.Duration(p.PeriodsLeft)*c.Config.PeriodTime
	}
	if p.PeriodsLeft <= 0 {
		return 0
	}
	return p.PeriodLeft + time.Duration(p.PeriodsLeft-1)*c.Config.PeriodTime
}
