package rtc

import (
	"errors"
	"testing"
	"time"

	"github.com/sweeney/chime-clock/internal/logic"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

var opProbe = i2ctest.IO{Addr: DefaultAddress, W: []byte{0x07, 0x00}}

func TestDS1307Now(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			opProbe,
			// 2026/10/19 07:08:09, Monday
			{Addr: DefaultAddress, W: []byte{0x00}, R: []byte{0x09, 0x08, 0x07, 0x02, 0x19, 0x10, 0x26}},
		},
	}
	d, err := NewDS1307(&bus, DefaultAddress)
	if err != nil {
		t.Fatalf("NewDS1307: %v", err)
	}

	got, err := d.Now()
	if err != nil {
		t.Fatalf("Now: %v", err)
	}
	want := logic.ClockSnapshot{Year: 2026, Month: 10, Day: 19, Hour: 7, Minute: 8, Second: 9}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestDS1307IsRunning(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			opProbe,
			{Addr: DefaultAddress, W: []byte{0x00}, R: []byte{0x80}},
			{Addr: DefaultAddress, W: []byte{0x00}, R: []byte{0x59}},
		},
	}
	d, err := NewDS1307(&bus, DefaultAddress)
	if err != nil {
		t.Fatalf("NewDS1307: %v", err)
	}

	if running, err := d.IsRunning(); err != nil || running {
		t.Errorf("halted clock: got (%v, %v), want (false, nil)", running, err)
	}
	if running, err := d.IsRunning(); err != nil || !running {
		t.Errorf("running clock: got (%v, %v), want (true, nil)", running, err)
	}
}

func TestDS1307Adjust(t *testing.T) {
	bus := i2ctest.Playback{
		Ops: []i2ctest.IO{
			opProbe,
			{Addr: DefaultAddress, W: []byte{0x00, 0x09, 0x08, 0x07, 0x02, 0x19, 0x10, 0x26}},
		},
	}
	d, err := NewDS1307(&bus, DefaultAddress)
	if err != nil {
		t.Fatalf("NewDS1307: %v", err)
	}
	if err := d.Adjust(logic.ClockSnapshot{Year: 2026, Month: 10, Day: 19, Hour: 7, Minute: 8, Second: 9}); err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestDS1307AdjustYearRange(t *testing.T) {
	bus := i2ctest.Playback{Ops: []i2ctest.IO{opProbe}}
	d, err := NewDS1307(&bus, DefaultAddress)
	if err != nil {
		t.Fatalf("NewDS1307: %v", err)
	}
	for _, year := range []int{1999, 2100} {
		if err := d.Adjust(logic.ClockSnapshot{Year: year, Month: 1, Day: 1}); !errors.Is(err, ErrYearRange) {
			t.Errorf("year %d: expected ErrYearRange, got %v", year, err)
		}
	}
}

func TestDecodeHour(t *testing.T) {
	tests := []struct {
		reg  byte
		want int
	}{
		{0x00, 0},
		{0x23, 23},
		{0x40 | 0x12, 0},         // 12 AM
		{0x40 | 0x20 | 0x12, 12}, // 12 PM
		{0x40 | 0x20 | 0x07, 19},
		{0x40 | 0x11, 11},
	}
	for _, tt := range tests {
		if got := decodeHour(tt.reg); got != tt.want {
			t.Errorf("decodeHour(%#x) = %d, want %d", tt.reg, got, tt.want)
		}
	}
}

func TestBCD(t *testing.T) {
	for i := 0; i < 100; i++ {
		if got := bcdToDec(decToBCD(i)); got != i {
			t.Errorf("round trip %d: got %d", i, got)
		}
	}
	if decToBCD(59) != 0x59 {
		t.Errorf("decToBCD(59) = %#x", decToBCD(59))
	}
}

func TestFakeClock(t *testing.T) {
	start := time.Date(2026, 1, 1, 9, 59, 59, 0, time.UTC)
	f := NewFakeClock(start, time.Second)

	c, _ := f.Now()
	if c.Hour != 9 || c.Second != 59 {
		t.Errorf("first read: got %s", c)
	}
	c, _ = f.Now()
	if c.Hour != 10 || c.Minute != 0 || c.Second != 0 {
		t.Errorf("second read: got %s", c)
	}

	set := logic.ClockSnapshot{Year: 2026, Month: 5, Day: 5, Hour: 5, Minute: 5, Second: 5}
	f.Running = false
	if err := f.Adjust(set); err != nil {
		t.Fatal(err)
	}
	if running, _ := f.IsRunning(); !running {
		t.Error("Adjust should start the clock")
	}
	if c, _ := f.Now(); c != set {
		t.Errorf("after adjust: got %s, want %s", c, set)
	}

	f.NowError = errors.New("bus timeout")
	if _, err := f.Now(); err == nil {
		t.Error("expected error")
	}
}
