package rtc

import (
	"time"

	"github.com/sweeney/chime-clock/internal/logic"
)

// FakeClock is a test double. Each call to Now returns Current and then
// advances it by Step.
type FakeClock struct {
	Current logic.ClockSnapshot
	Step    time.Duration

	// Running is returned by IsRunning.
	Running bool

	// Adjusted records every Adjust call.
	Adjusted []logic.ClockSnapshot

	// NowError, if set, will be returned by Now.
	NowError error

	// AdjustError, if set, will be returned by Adjust and the time is kept.
	AdjustError error
}

// NewFakeClock creates a running FakeClock that reads start.
func NewFakeClock(start time.Time, step time.Duration) *FakeClock {
	return &FakeClock{Current: logic.SnapshotOf(start), Step: step, Running: true}
}

// Now returns the current reading.
func (f *FakeClock) Now() (logic.ClockSnapshot, error) {
	if f.NowError != nil {
		return logic.ClockSnapshot{}, f.NowError
	}
	c := f.Current
	f.Current = logic.SnapshotOf(c.Time().Add(f.Step))
	return c, nil
}

// IsRunning returns Running.
func (f *FakeClock) IsRunning() (bool, error) {
	return f.Running, nil
}

// Adjust records the new time and starts the clock.
func (f *FakeClock) Adjust(c logic.ClockSnapshot) error {
	if f.AdjustError != nil {
		return f.AdjustError
	}
	f.Adjusted = append(f.Adjusted, c)
	f.Current = c
	f.Running = true
	return nil
}
