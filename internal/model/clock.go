package model

import "time"

// ClockDiscipline selects how time is granted
type ClockDiscipline string

const (
	DisciplineByoyomi   ClockDiscipline = "byoyomi"   // main time then overtime periods
	DisciplineIncrement ClockDiscipline = "increment" // time credited per completed move
)

// ClockConfig describes the time control of a session
type ClockConfig struct {
	Discipline ClockDiscipline
	MainTime   time.Duration
	Periods    int
	PeriodTime time.Duration
	Increment  time.Duration
}

// DefaultClockConfig returns 10 minutes plus 3×30s overtime
func DefaultClockConfig() ClockConfig {
	return ClockConfig{
		Discipline: DisciplineByoyomi,
		MainTime:   10 * time.Minute,
		Periods:    3,
		PeriodTime: 30 * time.Second,
	}
}

// PlayerClock is one side's remaining time
type PlayerClock struct {
	MainLeft     time.Duration
	PeriodsLeft  int
	PeriodLeft   time.Duration
	Spent        time.Duration // total time charged to this side
	MainUsed     time.Duration
	OvertimeUsed time.Duration
	Moves        int
}

// InOvertime returns true once main time has run out
func (p PlayerClock) InOvertime() bool {
	return p.MainLeft <= 0
}

// Clock is the authoritative time and turn state of a session
type Clock struct {
	SessionID  SessionID
	Config     ClockConfig
	Turn       Color
	Black      PlayerClock
	White      PlayerClock
	Running    bool
	PauseDepth int
	ResumeAt   time.Time
	LastUpdate time.Time
	Expired    Color // side that ran out of time
	Version    int64
}

// For returns the clock of a color
func (c *Clock) For(color Color) *PlayerClock {
	if color == White {
		return &c.White
	}
	return &c.Black
}

// Paused returns true while a pause is outstanding
func (c *Clock) Paused() bool {
	return c.PauseDepth > 0
}
