// Package logic contains the pure control logic of the clock: edge detection,
// playback session tracking, the hourly chime and settings mode.
// This package has NO external dependencies (no I2C, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"fmt"
	"time"
)

// InputSample is one byte read from the input expander, one bit per line.
// A bit of 0 means the line is active (pulled low), 1 means idle.
type InputSample uint8

// Idle is the all-inactive sample. It is also what callers substitute when
// the bus yields no data, so a failed read can never look like a press.
const Idle InputSample = 0xFF

// Active reports whether line is pulled low in s.
func (s InputSample) Active(line int) bool {
	if line < 0 || line > 7 {
		return false
	}
	return s&(1<<uint(line)) == 0
}

// EdgeKind is the direction of a line transition.
type EdgeKind string

const (
	Pressed  EdgeKind = "PRESSED"
	Released EdgeKind = "RELEASED"
)

// ButtonEvent is a transition of a single input line between two polls.
type ButtonEvent struct {
	Line int
	Kind EdgeKind
}

// PlayCommand asks the audio module to play a 1-based track.
// Folder 0 plays from the card root.
type PlayCommand struct {
	Track  int
	Folder int
}

// ClockSnapshot is one reading of the wall clock.
type ClockSnapshot struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// SnapshotOf converts a time.Time into a ClockSnapshot.
func SnapshotOf(t time.Time) ClockSnapshot {
	return ClockSnapshot{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// Time returns the snapshot as a UTC time.Time.
func (c ClockSnapshot) Time() time.Time {
	return time.Date(c.Year, time.Month(c.Month), c.Day, c.Hour, c.Minute, c.Second, 0, time.UTC)
}

// String formats the snapshot as "yyyy/mm/dd hh:mm:ss".
func (c ClockSnapshot) String() string {
	return fmt.Sprintf("%04d/%02d/%02d %02d:%02d:%02d", c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second)
}

// EventType identifies something the controller did or observed.
type EventType string

const (
	EventButtonPressed    EventType = "BUTTON_PRESSED"
	EventButtonReleased   EventType = "BUTTON_RELEASED"
	EventPlaybackStarted  EventType = "PLAYBACK_STARTED"
	EventPlaybackFinished EventType = "PLAYBACK_FINISHED"
	EventChime            EventType = "CHIME"
	EventChimeOn          EventType = "CHIME_ON"
	EventChimeOff         EventType = "CHIME_OFF"
	EventSettingsEntered  EventType = "SETTINGS_ENTERED"
	EventClockSet         EventType = "CLOCK_SET"
)

// Event is emitted by the controller for logging and publishing.
type Event struct {
	Timestamp       time.Time
	Type            EventType
	Line            int   // input line, for button events
	Track           int   // requested track, for button and chime events
	DurationSeconds int64 // whole seconds, for PLAYBACK_FINISHED
	ChimeEnabled    bool
	Clock           ClockSnapshot
}

// Input is a single poll of the hardware.
type Input struct {
	Sample  InputSample
	Clock   ClockSnapshot
	ClockOK bool // false if the clock read failed this poll
	Time    time.Time
}

// Result is everything a single poll produced.
type Result struct {
	Events   []Event
	Commands []PlayCommand
}

// EventCounts tracks activity since startup.
type EventCounts struct {
	Presses     int
	Chimes      int
	Plays       int
	BusyToggles int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
