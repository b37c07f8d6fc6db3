// Package player drives the audio module that plays the button clips and the
// hourly chime.
package player

import (
	"errors"

	"github.com/sweeney/chime-clock/internal/logic"
)

// MaxVolume is the loudest level the module accepts.
const MaxVolume = 30

// ErrRange is returned for a volume, folder or track the module cannot address.
var ErrRange = errors.New("player: argument out of range")

// Player plays numbered tracks from the module's card.
type Player interface {
	// SetVolume sets the output level, 0..MaxVolume.
	SetVolume(level int) error

	// Play starts a 1-based track from the card root.
	Play(track int) error

	// PlayFolder starts a track from a numbered folder.
	PlayFolder(folder, track int) error

	// Close releases the transport.
	Close() error
}

// Send issues cmd to p. The caller does not learn whether audio actually
// started; a returned error only means the command could not be written.
func Send(p Player, cmd logic.PlayCommand) error {
	if cmd.Folder > 0 {
		return p.PlayFolder(cmd.Folder, cmd.Track)
	}
	return p.Play(cmd.Track)
}
