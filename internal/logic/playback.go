package logic

import "time"

// PlaybackSession tracks whether the audio module is playing and since when.
type PlaybackSession struct {
	Active    bool
	StartedAt time.Time
}

// Start marks the session active. StartedAt is only written here.
func (s *PlaybackSession) Start(now time.Time) {
	s.Active = true
	s.StartedAt = now
}

// Stop ends the session and returns its length in whole seconds.
// Stopping an inactive session returns 0.
func (s *PlaybackSession) Stop(now time.Time) int64 {
	if !s.Active {
		return 0
	}
	s.Active = false
	d := now.Sub(s.StartedAt)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// Elapsed returns how long the current session has been running.
func (s *PlaybackSession) Elapsed(now time.Time) time.Duration {
	if !s.Active {
		return 0
	}
	return now.Sub(s.StartedAt)
}

// ButtonTrack maps an input line to the track it plays.
func ButtonTrack(line int) PlayCommand {
	return PlayCommand{Track: line + 1}
}

// ChimeTrack maps an hour to the track announcing it.
func ChimeTrack(hour, folder int) PlayCommand {
	return PlayCommand{Track: hour + 1, Folder: folder}
}
