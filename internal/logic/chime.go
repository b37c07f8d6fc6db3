package logic

// ChimeState is the state of the hourly chime for a given hour.
type ChimeState string

const (
	ChimeArmed ChimeState = "ARMED"
	ChimeFired ChimeState = "FIRED"
)

// DefaultChimeWindow is how many seconds past the hour a chime may still fire.
// It must be longer than one poll period or the hour can be missed.
const DefaultChimeWindow = 5

// Chime fires once per calendar hour in the first seconds of minute zero.
type Chime struct {
	Enabled bool
	window  int

	// fired is the hour (minute and second zeroed) that has been announced
	// or consumed; armed is true while there is none.
	fired         ClockSnapshot
	armed         bool
	lastFiredHour int
}

// NewChime creates a chime that has not fired yet.
func NewChime(enabled bool, window int) *Chime {
	if window <= 0 {
		window = DefaultChimeWindow
	}
	return &Chime{Enabled: enabled, window: window, armed: true, lastFiredHour: -1}
}

func hourOf(now ClockSnapshot) ClockSnapshot {
	now.Minute, now.Second = 0, 0
	return now
}

func (c *Chime) inWindow(now ClockSnapshot) bool {
	return now.Minute == 0 && now.Second < c.window
}

// rearm moves from Fired back to Armed once now is past the fired hour.
func (c *Chime) rearm(now ClockSnapshot) {
	if !c.armed && hourOf(now) != c.fired {
		c.armed = true
	}
}

func (c *Chime) consume(now ClockSnapshot) {
	c.fired = hourOf(now)
	c.armed = false
}

// Check returns the hour to announce if the chime fires at now.
func (c *Chime) Check(now ClockSnapshot) (int, bool) {
	c.rearm(now)
	if !c.Enabled || !c.inWindow(now) || !c.armed {
		return 0, false
	}
	c.consume(now)
	c.lastFiredHour = now.Hour
	return now.Hour, true
}

// Toggle flips Enabled and returns the new value. A toggle inside the trigger
// window consumes that hour, so re-enabling cannot fire it late. Without a
// clock reading the hour is left armed.
func (c *Chime) Toggle(now ClockSnapshot, clockOK bool) bool {
	c.Enabled = !c.Enabled
	if clockOK {
		c.rearm(now)
		if c.inWindow(now) {
			c.consume(now)
		}
	}
	return c.Enabled
}

// State reports Fired if the hour containing now has already chimed (or
// was consumed by a toggle), Armed otherwise.
func (c *Chime) State(now ClockSnapshot) ChimeState {
	if !c.armed && hourOf(now) == c.fired {
		return ChimeFired
	}
	return ChimeArmed
}

// LastFiredHour returns the hour of the most recent chime, or -1 if nothing
// has fired.
func (c *Chime) LastFiredHour() int {
	return c.lastFiredHour
}
