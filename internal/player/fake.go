package player

import "github.com/sweeney/chime-clock/internal/logic"

// FakePlayer records commands for test assertions.
type FakePlayer struct {
	// Commands contains every track that was requested.
	Commands []logic.PlayCommand

	// Volume is the last level set.
	Volume int

	// PlayError, if set, will be returned by Play and PlayFolder.
	PlayError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePlayer creates a FakePlayer for testing.
func NewFakePlayer() *FakePlayer {
	return &FakePlayer{}
}

// SetVolume records the level.
func (f *FakePlayer) SetVolume(level int) error {
	f.Volume = level
	return nil
}

// Play records the track.
func (f *FakePlayer) Play(track int) error {
	if f.PlayError != nil {
		return f.PlayError
	}
	f.Commands = append(f.Commands, logic.PlayCommand{Track: track})
	return nil
}

// PlayFolder records the folder and track.
func (f *FakePlayer) PlayFolder(folder, track int) error {
	if f.PlayError != nil {
		return f.PlayError
	}
	f.Commands = append(f.Commands, logic.PlayCommand{Track: track, Folder: folder})
	return nil
}

// Close marks the player as closed.
func (f *FakePlayer) Close() error {
	f.Closed = true
	return nil
}
