package input

import (
	"fmt"

	"github.com/sweeney/chime-clock/internal/logic"
	"periph.io/x/conn/v3/i2c"
)

// DefaultExpanderAddress is a PCF8574 with all address pins low.
const DefaultExpanderAddress uint16 = 0x20

// Expander reads eight quasi-bidirectional lines from a PCF8574.
//
// The chip has no direction register: a line reads as input only after a 1
// has been written to it, which enables the weak pull-up. Pressing a button
// shorts the line to ground and it reads 0.
type Expander struct {
	d *i2c.Dev
}

// NewExpander releases all lines and returns the expander. A failure here
// means the device did not acknowledge its address.
func NewExpander(bus i2c.Bus, addr uint16) (*Expander, error) {
	e := &Expander{d: &i2c.Dev{Bus: bus, Addr: addr}}
	if err := e.d.Tx([]byte{byte(logic.Idle)}, nil); err != nil {
		return nil, fmt.Errorf("input: release pcf8574 lines at 0x%02x: %w", addr, err)
	}
	return e, nil
}

// Sample reads the line byte.
func (e *Expander) Sample() (logic.InputSample, error) {
	r := make([]byte, 1)
	if err := e.d.Tx(nil, r); err != nil {
		return logic.Idle, fmt.Errorf("input: read pcf8574: %w", err)
	}
	return logic.InputSample(r[0]), nil
}

// Close leaves the lines released. The bus belongs to the caller.
func (e *Expander) Close() error {
	return e.d.Tx([]byte{byte(logic.Idle)}, nil)
}

func (e *Expander) String() string {
	return fmt.Sprintf("PCF8574_%x", e.d.Addr)
}
