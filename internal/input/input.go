// Package input samples the clock's button lines as a single byte.
// Real implementations read a PCF8574 expander over I²C or Linux GPIO lines.
// The fake implementation allows testing without hardware.
package input

import (
	"errors"

	"github.com/sweeney/chime-clock/internal/logic"
)

// ErrNoData is returned when there is nothing to sample.
var ErrNoData = errors.New("input: no data")

// Sampler reads all input lines at once.
type Sampler interface {
	// Sample returns one bit per line, 0 = active. On error the caller
	// must treat the lines as idle (logic.Idle).
	Sample() (logic.InputSample, error)

	// Close releases hardware resources.
	Close() error
}
