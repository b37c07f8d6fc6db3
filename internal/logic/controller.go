package logic

import (
	"fmt"
	"time"
)

// NoLine disables an optional input line in Config.
const NoLine = -1

// Config selects which expander lines do what.
type Config struct {
	// ButtonLines are the track buttons, in priority (scan) order.
	ButtonLines []int
	// BusyLine is the audio module's busy output, or NoLine.
	BusyLine int
	// ChimeToggleLine flips the hourly chime on each press, or NoLine.
	ChimeToggleLine int
	// SettingsLine enters settings mode when held for SettingsHold, or NoLine.
	SettingsLine int
	SettingsHold time.Duration
	// ChimeWindow is the number of seconds past the hour a chime may fire.
	ChimeWindow  int
	ChimeFolder  int
	ChimeEnabled bool
	// ClipLength closes a playback session when there is no busy line.
	ClipLength time.Duration
}

// DefaultConfig matches the reference wiring: three track buttons on lines
// 0-2, chime toggle on 3, settings on 4 and the player's BUSY pin on 7.
func DefaultConfig() Config {
	return Config{
		ButtonLines:     []int{0, 1, 2},
		BusyLine:        7,
		ChimeToggleLine: 3,
		SettingsLine:    4,
		SettingsHold:    2 * time.Second,
		ChimeWindow:     DefaultChimeWindow,
		ChimeEnabled:    true,
		ClipLength:      5 * time.Second,
	}
}

// State is a point-in-time copy of the controller for presentation.
type State struct {
	Sample              InputSample
	Busy                bool
	Playing             bool
	PlayingSince        time.Time
	LastDurationSeconds int64
	ChimeEnabled        bool
	LastChimeHour       int
	Settings            bool
	Counts              EventCounts
}

// Controller owns all mutable state of the polling loop. Process is called
// once per poll; it never blocks and never touches hardware.
type Controller struct {
	cfg Config

	prev         InputSample
	busy         bool
	session      PlaybackSession
	lastDuration int64
	chime        *Chime
	hold         holdTracker
	settings     bool
	counts       EventCounts

	// Last good clock reading and the host time it was taken at.
	lastClock   ClockSnapshot
	lastClockAt time.Time

	startTime     time.Time
	lastHeartbeat time.Time
}

// NewController creates a controller. The startTime is used for calculating
// uptime in heartbeat events.
func NewController(cfg Config, startTime time.Time) *Controller {
	return &Controller{
		cfg:           cfg,
		prev:          Idle,
		chime:         NewChime(cfg.ChimeEnabled, cfg.ChimeWindow),
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Config returns the configuration the controller was built with.
func (c *Controller) Config() Config {
	return c.cfg
}

func (c *Controller) newEvent(in Input, t EventType) Event {
	return Event{
		Timestamp:    in.Time,
		Type:         t,
		ChimeEnabled: c.chime.Enabled,
		Clock:        in.Clock,
	}
}

// Process takes a new poll and returns the events it caused and the tracks
// to play. Play commands are fire-and-forget: nothing about their outcome
// flows back into the controller.
func (c *Controller) Process(in Input) Result {
	var res Result
	prev, curr := c.prev, in.Sample
	c.prev = curr
	if in.ClockOK {
		c.lastClock, c.lastClockAt = in.Clock, in.Time
	}

	honoured, play := Arbitrate(prev, curr, c.cfg.ButtonLines)

	for _, be := range Detect(prev, curr, c.cfg.ButtonLines) {
		if be.Kind == Released {
			ev := c.newEvent(in, EventButtonReleased)
			ev.Line = be.Line
			res.Events = append(res.Events, ev)
			continue
		}
		c.counts.Presses++
		ev := c.newEvent(in, EventButtonPressed)
		ev.Line = be.Line
		if play && be.Line == honoured {
			ev.Track = ButtonTrack(be.Line).Track
		}
		res.Events = append(res.Events, ev)
	}

	if c.cfg.ChimeToggleLine != NoLine && !prev.Active(c.cfg.ChimeToggleLine) && curr.Active(c.cfg.ChimeToggleLine) {
		t := EventChimeOff
		clock, ok := c.estimateClock(in)
		if c.chime.Toggle(clock, ok) {
			t = EventChimeOn
		}
		res.Events = append(res.Events, c.newEvent(in, t))
	}

	if c.cfg.SettingsLine != NoLine {
		if c.hold.update(curr.Active(c.cfg.SettingsLine), in.Time, c.cfg.SettingsHold) && !c.settings {
			c.settings = true
			res.Events = append(res.Events, c.newEvent(in, EventSettingsEntered))
		}
	}

	if play {
		c.play(&res, in, ButtonTrack(honoured))
	}

	if in.ClockOK {
		if hour, ok := c.chime.Check(in.Clock); ok {
			cmd := ChimeTrack(hour, c.cfg.ChimeFolder)
			c.counts.Chimes++
			ev := c.newEvent(in, EventChime)
			ev.Track = cmd.Track
			res.Events = append(res.Events, ev)
			c.play(&res, in, cmd)
		}
	}

	c.trackBusy(&res, in)
	return res
}

// estimateClock returns the clock for in, or when the read failed, the last
// good reading advanced by the host time elapsed since.
func (c *Controller) estimateClock(in Input) (ClockSnapshot, bool) {
	if in.ClockOK {
		return in.Clock, true
	}
	if c.lastClockAt.IsZero() {
		return ClockSnapshot{}, false
	}
	return SnapshotOf(c.lastClock.Time().Add(in.Time.Sub(c.lastClockAt))), true
}

func (c *Controller) play(res *Result, in Input, cmd PlayCommand) {
	res.Commands = append(res.Commands, cmd)
	c.counts.Plays++
	if c.cfg.BusyLine != NoLine {
		// The busy line opens the session.
		return
	}
	if c.session.Active {
		c.finish(res, in)
	}
	c.session.Start(in.Time)
	res.Events = append(res.Events, c.newEvent(in, EventPlaybackStarted))
}

func (c *Controller) trackBusy(res *Result, in Input) {
	if c.cfg.BusyLine == NoLine {
		if c.session.Active && c.cfg.ClipLength > 0 && c.session.Elapsed(in.Time) >= c.cfg.ClipLength {
			c.finish(res, in)
		}
		return
	}

	busy := in.Sample.Active(c.cfg.BusyLine)
	if busy == c.busy {
		return
	}
	c.busy = busy
	c.counts.BusyToggles++
	if busy {
		c.session.Start(in.Time)
		res.Events = append(res.Events, c.newEvent(in, EventPlaybackStarted))
		return
	}
	c.finish(res, in)
}

func (c *Controller) finish(res *Result, in Input) {
	c.lastDuration = c.session.Stop(in.Time)
	ev := c.newEvent(in, EventPlaybackFinished)
	ev.DurationSeconds = c.lastDuration
	res.Events = append(res.Events, ev)
}

// ApplySetting handles an operator time-set line by passing the parsed time
// to adjust. It only succeeds in settings mode. Settings mode ends only once
// adjust succeeds; a malformed line or a failed adjust leaves it unchanged.
func (c *Controller) ApplySetting(line string, now time.Time, adjust func(ClockSnapshot) error) (Event, error) {
	if !c.settings {
		return Event{}, ErrNotInSettings
	}
	snap, err := ParseSetting(line)
	if err != nil {
		return Event{}, err
	}
	if err := adjust(snap); err != nil {
		return Event{}, fmt.Errorf("adjust clock: %w", err)
	}
	c.settings = false
	ev := Event{
		Timestamp:    now,
		Type:         EventClockSet,
		ChimeEnabled: c.chime.Enabled,
		Clock:        snap,
	}
	return ev, nil
}

// InSettings reports whether settings mode is active.
func (c *Controller) InSettings() bool {
	return c.settings
}

// BusyToggles returns how many times the busy line has changed.
func (c *Controller) BusyToggles() int {
	return c.counts.BusyToggles
}

// State returns a copy of the controller state.
func (c *Controller) State() State {
	s := State{
		Sample:              c.prev,
		Busy:                c.busy,
		Playing:             c.session.Active,
		LastDurationSeconds: c.lastDuration,
		ChimeEnabled:        c.chime.Enabled,
		LastChimeHour:       c.chime.LastFiredHour(),
		Settings:            c.settings,
		Counts:              c.counts,
	}
	if c.session.Active {
		s.PlayingSince = c.session.StartedAt
	}
	return s
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (c *Controller) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(c.lastHeartbeat) < interval {
		return nil
	}
	c.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(c.startTime),
		Counts:    c.counts,
	}
}
