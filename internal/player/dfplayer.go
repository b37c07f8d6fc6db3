package player

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"
)

// DFPlayer Mini serial protocol. Every frame is ten bytes:
//
//	7E FF 06 cmd feedback paramH paramL sumH sumL EF
//
// where sum is the two's complement of the bytes from FF to paramL.
const (
	frameLen  = 10
	startByte = 0x7E
	version   = 0xFF
	length    = 0x06
	endByte   = 0xEF

	cmdPlay       = 0x03
	cmdVolume     = 0x06
	cmdSource     = 0x09
	cmdReset      = 0x0C
	cmdPlayFolder = 0x0F
	cmdError      = 0x40
	cmdInitDone   = 0x3F

	sourceTF = 0x02

	maxTrack       = 2999
	maxFolder      = 99
	maxFolderTrack = 255
)

var (
	errTimeout  = errors.New("player: timed out waiting for module")
	errChecksum = errors.New("player: bad frame checksum")
)

// DFPlayer talks to a DFPlayer Mini over a 9600 baud UART.
type DFPlayer struct {
	rw         io.ReadWriter
	closer     io.Closer
	resetDelay time.Duration
}

// New wraps an already-open transport. Reads must return (0, nil) or an
// error on timeout, as serial ports do.
func New(rw io.ReadWriter) *DFPlayer {
	return &DFPlayer{rw: rw}
}

// Begin resets the module and selects the SD card. With wait set it blocks
// until the module reports that initialisation finished.
func (p *DFPlayer) Begin(wait bool) error {
	if err := p.send(cmdReset, 0, wait); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if wait {
		if err := p.awaitInit(); err != nil {
			return err
		}
	} else if p.resetDelay > 0 {
		time.Sleep(p.resetDelay)
	}
	if err := p.send(cmdSource, sourceTF, false); err != nil {
		return fmt.Errorf("select card: %w", err)
	}
	return nil
}

func (p *DFPlayer) awaitInit() error {
	// The module may echo an ACK before the init report.
	for i := 0; i < 3; i++ {
		cmd, param, err := p.readFrame()
		if err != nil {
			return fmt.Errorf("await init: %w", err)
		}
		switch cmd {
		case cmdInitDone:
			return nil
		case cmdError:
			return fmt.Errorf("player: module reported error %d", param)
		}
	}
	return errTimeout
}

// SetVolume sets the output level.
func (p *DFPlayer) SetVolume(level int) error {
	if level < 0 || level > MaxVolume {
		return fmt.Errorf("%w: volume %d", ErrRange, level)
	}
	return p.send(cmdVolume, uint16(level), false)
}

// Play starts a track by its index on the card.
func (p *DFPlayer) Play(track int) error {
	if track < 1 || track > maxTrack {
		return fmt.Errorf("%w: track %d", ErrRange, track)
	}
	return p.send(cmdPlay, uint16(track), false)
}

// PlayFolder starts track NNN in folder NN (e.g. /02/024.mp3).
func (p *DFPlayer) PlayFolder(folder, track int) error {
	if folder < 1 || folder > maxFolder || track < 1 || track > maxFolderTrack {
		return fmt.Errorf("%w: folder %d track %d", ErrRange, folder, track)
	}
	return p.send(cmdPlayFolder, uint16(folder)<<8|uint16(track), false)
}

// Close closes the transport if New was given one that owns it.
func (p *DFPlayer) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

func (p *DFPlayer) send(cmd byte, param uint16, feedback bool) error {
	if _, err := p.rw.Write(frame(cmd, param, feedback)); err != nil {
		return fmt.Errorf("player: write: %w", err)
	}
	return nil
}

func frame(cmd byte, param uint16, feedback bool) []byte {
	f := []byte{startByte, version, length, cmd, 0, byte(param >> 8), byte(param), 0, 0, endByte}
	if feedback {
		f[4] = 1
	}
	sum := checksum(f[1:7])
	f[7] = byte(sum >> 8)
	f[8] = byte(sum)
	return f
}

func checksum(b []byte) uint16 {
	var s uint16
	for _, c := range b {
		s += uint16(c)
	}
	return -s
}

// readFrame reads one frame, skipping noise before the start byte.
func (p *DFPlayer) readFrame() (byte, uint16, error) {
	var buf [frameLen]byte
	n := 0
	for n < frameLen {
		m, err := p.rw.Read(buf[n:])
		if err != nil {
			return 0, 0, fmt.Errorf("player: read: %w", err)
		}
		if m == 0 {
			return 0, 0, errTimeout
		}
		n += m
		if i := bytes.IndexByte(buf[:n], startByte); i != 0 {
			if i < 0 {
				n = 0
				continue
			}
			n = copy(buf[:], buf[i:n])
		}
	}
	if buf[9] != endByte {
		return 0, 0, fmt.Errorf("player: bad frame end %#x", buf[9])
	}
	if checksum(buf[1:7]) != uint16(buf[7])<<8|uint16(buf[8]) {
		return 0, 0, errChecksum
	}
	return buf[3], uint16(buf[5])<<8 | uint16(buf[6]), nil
}
