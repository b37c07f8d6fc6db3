package rtc

import (
	"errors"
	"fmt"

	"github.com/sweeney/chime-clock/internal/logic"
	"periph.io/x/conn/v3/i2c"
)

// DefaultAddress is the fixed I²C address of the DS1307.
const DefaultAddress uint16 = 0x68

// century is added to the two-digit year register. The DS1307 does not store
// a century, so only 2000-2099 can be represented.
const century = 2000

const (
	regSeconds = 0x00
	regControl = 0x07

	clockHalt = 0x80 // seconds register, 1 = oscillator stopped
	hour12    = 0x40 // hours register, 1 = 12-hour mode
	pm        = 0x20 // hours register in 12-hour mode
)

// ErrYearRange is returned when asked to store a year the chip cannot hold.
var ErrYearRange = errors.New("rtc: year out of range")

// DS1307 is a Maxim DS1307 real-time clock.
//
// Datasheet: https://datasheets.maximintegrated.com/en/ds/DS1307.pdf
type DS1307 struct {
	d *i2c.Dev
}

// NewDS1307 probes the chip and disables its square-wave output. An error
// means the clock is absent.
func NewDS1307(bus i2c.Bus, addr uint16) (*DS1307, error) {
	d := &DS1307{d: &i2c.Dev{Bus: bus, Addr: addr}}
	if err := d.d.Tx([]byte{regControl, 0x00}, nil); err != nil {
		return nil, fmt.Errorf("rtc: ds1307 at 0x%02x: %w", addr, err)
	}
	return d, nil
}

// IsRunning reads the clock-halt bit.
func (d *DS1307) IsRunning() (bool, error) {
	var b [1]byte
	if err := d.d.Tx([]byte{regSeconds}, b[:]); err != nil {
		return false, fmt.Errorf("rtc: read seconds: %w", err)
	}
	return b[0]&clockHalt == 0, nil
}

// Now reads the seven time registers in one transaction so the fields are
// consistent with each other.
func (d *DS1307) Now() (logic.ClockSnapshot, error) {
	var buf [7]byte
	if err := d.d.Tx([]byte{regSeconds}, buf[:]); err != nil {
		return logic.ClockSnapshot{}, fmt.Errorf("rtc: read time: %w", err)
	}
	return logic.ClockSnapshot{
		Second: bcdToDec(buf[0] &^ clockHalt),
		Minute: bcdToDec(buf[1] & 0x7F),
		Hour:   decodeHour(buf[2]),
		Day:    bcdToDec(buf[4] & 0x3F),
		Month:  bcdToDec(buf[5] & 0x1F),
		Year:   bcdToDec(buf[6]) + century,
	}, nil
}

// Adjust writes all time registers. Clearing the clock-halt bit starts the
// oscillator; the hour is always stored in 24-hour mode.
func (d *DS1307) Adjust(c logic.ClockSnapshot) error {
	if c.Year < century || c.Year >= century+100 {
		return ErrYearRange
	}
	weekday := int(c.Time().Weekday()) + 1
	w := []byte{
		regSeconds,
		decToBCD(c.Second),
		decToBCD(c.Minute),
		decToBCD(c.Hour),
		decToBCD(weekday),
		decToBCD(c.Day),
		decToBCD(c.Month),
		decToBCD(c.Year - century),
	}
	if err := d.d.Tx(w, nil); err != nil {
		return fmt.Errorf("rtc: write time: %w", err)
	}
	return nil
}

func (d *DS1307) String() string {
	return fmt.Sprintf("DS1307_%x", d.d.Addr)
}

func decodeHour(b byte) int {
	if b&hour12 == 0 {
		return bcdToDec(b & 0x3F)
	}
	h := bcdToDec(b & 0x1F)
	if h == 12 {
		h = 0
	}
	if b&pm != 0 {
		h += 12
	}
	return h
}

func bcdToDec(x byte) int {
	return int(x) - 6*(int(x)>>4)
}

func decToBCD(x int) byte {
	return byte((x / 10 * 16) + (x % 10))
}
