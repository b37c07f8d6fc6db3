//go:build !linux

package input

import (
	"errors"

	"github.com/sweeney/chime-clock/internal/logic"
)

// LineSampler is not available on non-Linux platforms.
type LineSampler struct{}

// NewLineSampler returns an error on non-Linux platforms.
func NewLineSampler(chipName string, offsets []int) (*LineSampler, error) {
	return nil, errors.New("input: gpio lines not supported on this platform (requires Linux)")
}

// Sample is not implemented on non-Linux platforms.
func (s *LineSampler) Sample() (logic.InputSample, error) {
	return logic.Idle, errors.New("input: not supported")
}

// Close is not implemented on non-Linux platforms.
func (s *LineSampler) Close() error {
	return nil
}
