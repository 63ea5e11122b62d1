package core

import "time"

// Clock abstracts "now" so that due-date dependent logic is testable.
// Anything that compares against the current time must go through a Clock.
type Clock interface {
	Now() time.Time
	Today() time.Time // midnight UTC of the current day
}

type realClock struct{}

func NewClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now().UTC() }

func (c realClock) Today() time.Time {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// FixedClock always reports the same instant; for tests.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

func (c FixedClock) Today() time.Time {
	return time.Date(c.T.Year(), c.T.Month(), c.T.Day(), 0, 0, 0, 0, time.UTC)
}
