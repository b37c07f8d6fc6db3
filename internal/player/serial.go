package player

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

const (
	baudRate    = 9600
	readTimeout = 3 * time.Second
	resetDelay  = 1500 * time.Millisecond
)

// Open opens the DFPlayer on a serial device such as /dev/serial0.
func Open(port string) (*DFPlayer, error) {
	sp, err := serial.Open(port, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", port, err)
	}
	if err := sp.SetReadTimeout(readTimeout); err != nil {
		sp.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", port, err)
	}
	p := New(sp)
	p.closer = sp
	p.resetDelay = resetDelay
	return p, nil
}
