package logic

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SettingLayout is the operator time-set format, "yyyy/mm/dd hh:mm:ss".
const SettingLayout = "2006/01/02 15:04:05"

var (
	// ErrBadSetting is returned for a malformed time-set line.
	ErrBadSetting = errors.New("logic: malformed time setting")
	// ErrNotInSettings is returned when a time-set line arrives outside settings mode.
	ErrNotInSettings = errors.New("logic: not in settings mode")
)

// ParseSetting parses an operator line into a clock reading.
func ParseSetting(line string) (ClockSnapshot, error) {
	t, err := time.Parse(SettingLayout, strings.TrimSpace(line))
	if err != nil {
		return ClockSnapshot{}, fmt.Errorf("%w: %q", ErrBadSetting, line)
	}
	return SnapshotOf(t), nil
}

// holdTracker watches one line for a long press.
type holdTracker struct {
	holding bool
	since   time.Time
	fired   bool
}

// update returns true exactly once per hold, when the line has been active
// for at least d.
func (h *holdTracker) update(active bool, now time.Time, d time.Duration) bool {
	if !active {
		h.holding = false
		h.fired = false
		return false
	}
	if !h.holding {
		h.holding = true
		h.since = now
	}
	if h.fired || now.Sub(h.since) < d {
		return false
	}
	h.fired = true
	return true
}
