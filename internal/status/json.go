package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Clock         string       `json:"clock"`
	ClockOK       bool         `json:"clock_ok"`
	ChimeEnabled  bool         `json:"chime_enabled"`
	LastChimeHour *int         `json:"last_chime_hour,omitempty"`
	Playback      PlaybackJSON `json:"playback"`
	Pressed       []int        `json:"pressed"`
	Settings      bool         `json:"settings"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	AudioOK       bool         `json:"audio_ok"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// PlaybackJSON reports the current or last playback session.
type PlaybackJSON struct {
	Playing             bool   `json:"playing"`
	Since               string `json:"since,omitempty"`
	LastDurationSeconds int64  `json:"last_duration_seconds"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Presses     int `json:"presses"`
	Chimes      int `json:"chimes"`
	Plays       int `json:"plays"`
	BusyToggles int `json:"busy_toggles"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	ButtonLines []int  `json:"button_lines"`
	BusyLine    int    `json:"busy_line"`
	ChimeWindow int    `json:"chime_window_seconds"`
	ChimeFolder int    `json:"chime_folder"`
	Broker      string `json:"broker"`
	HTTPPort    string `json:"http_port"`
	Audio       string `json:"audio"`
	Display     string `json:"display"`
}

// PressedLines returns the configured button lines that are active in the
// last sample, in scan order.
func PressedLines(snap Snapshot) []int {
	pressed := []int{}
	for _, l := range snap.Config.ButtonLines {
		if snap.State.Sample.Active(l) {
			pressed = append(pressed, l)
		}
	}
	return pressed
}

func buildInner(snap Snapshot) StatusInner {
	clock := "UNKNOWN"
	if snap.Clock.Year != 0 {
		clock = snap.Clock.String()
	}

	inner := StatusInner{
		Clock:         clock,
		ClockOK:       snap.ClockOK,
		ChimeEnabled:  snap.State.ChimeEnabled,
		Pressed:       PressedLines(snap),
		Settings:      snap.State.Settings,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		AudioOK:       snap.AudioOK,
		Playback: PlaybackJSON{
			Playing:             snap.State.Playing,
			LastDurationSeconds: snap.State.LastDurationSeconds,
		},
		Counts: CountsJSON{
			Presses:     snap.State.Counts.Presses,
			Chimes:      snap.State.Counts.Chimes,
			Plays:       snap.State.Counts.Plays,
			BusyToggles: snap.State.Counts.BusyToggles,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			ButtonLines: snap.Config.ButtonLines,
			BusyLine:    snap.Config.BusyLine,
			ChimeWindow: snap.Config.ChimeWindow,
			ChimeFolder: snap.Config.ChimeFolder,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
			Audio:       snap.Config.Audio,
			Display:     snap.Config.Display,
		},
	}
	if snap.State.Playing {
		inner.Playback.Since = snap.State.PlayingSince.UTC().Format(time.RFC3339)
	}
	if snap.State.LastChimeHour >= 0 {
		h := snap.State.LastChimeHour
		inner.LastChimeHour = &h
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
