// Package clock abstracts time so business rules can be driven by a fixed clock in tests.
package clock

import "time"

// Clocker reports the current time.
type Clocker interface {
	Now() time.Time
}

// TimeClocker is the production clock backed by time.Now.
type TimeClocker struct{}

func New() *TimeClocker {
	return &TimeClocker{}
}

func (*TimeClocker) Now() time.Time {
	return time.Now()
}

// Fixed is a Clocker whose time only moves when told to.
type Fixed struct {
	t time.Time
}

func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

func (f *Fixed) Now() time.Time { return f.t }

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) { f.t = f.t.Add(d) }
