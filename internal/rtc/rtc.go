// Package rtc reads and sets the battery-backed real-time clock.
package rtc

import "github.com/sweeney/chime-clock/internal/logic"

// Clock is a wall-clock source.
type Clock interface {
	// Now returns the current reading.
	Now() (logic.ClockSnapshot, error)

	// IsRunning reports whether the oscillator is running. A stopped clock
	// has lost power or was never set.
	IsRunning() (bool, error)

	// Adjust sets the clock and starts it.
	Adjust(logic.ClockSnapshot) error
}
