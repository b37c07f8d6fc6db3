//go:build linux

package input

import (
	"fmt"

	"github.com/sweeney/chime-clock/internal/logic"
	"github.com/warthog618/go-gpiocdev"
)

// LineSampler reads buttons wired straight to host GPIO lines using the
// Linux GPIO character device. offsets[i] becomes bit i of the sample, and
// bits without a line read as idle.
type LineSampler struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
	n     int
}

// NewLineSampler requests up to eight lines as inputs with pull-ups, so an
// open button reads 1 like the expander does.
func NewLineSampler(chipName string, offsets []int) (*LineSampler, error) {
	if len(offsets) == 0 || len(offsets) > 8 {
		return nil, fmt.Errorf("input: need 1-8 gpio lines, got %d", len(offsets))
	}
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	lines, err := chip.RequestLines(offsets, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request gpio lines %v: %w", offsets, err)
	}

	return &LineSampler{
		chip:  chip,
		lines: lines,
		n:     len(offsets),
	}, nil
}

// Sample packs the line values into a byte.
func (s *LineSampler) Sample() (logic.InputSample, error) {
	vals := make([]int, s.n)
	if err := s.lines.Values(vals); err != nil {
		return logic.Idle, fmt.Errorf("read gpio lines: %w", err)
	}
	return pack(vals), nil
}

// Close reconfigures the lines to plain inputs with pull-down (matching Pi
// boot defaults) before releasing them.
func (s *LineSampler) Close() error {
	var errs []error

	if s.lines != nil {
		if err := s.lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure lines: %w", err))
		}
		if err := s.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close lines: %w", err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
