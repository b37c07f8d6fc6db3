package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/chime-clock/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"onOff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Chime Clock</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
img.screen { image-rendering: pixelated; border: 1px solid #444; max-width: 100%; }
</style>
</head>
<body>
<h1>Chime Clock</h1>

{{if .Preview}}<p><img class="screen" src="/display.png" alt="display"></p>{{end}}

<h2>Clock</h2>
<table>
<tr><th>Time</th><td class="{{if .ClockOK}}on{{else}}unknown{{end}}">{{if .Clock.Year}}{{.Clock}}{{else}}UNKNOWN{{end}}</td></tr>
<tr><th>Chime</th><td class="{{if .State.ChimeEnabled}}on{{else}}off{{end}}">{{onOff .State.ChimeEnabled}}</td></tr>
<tr><th>Last chime</th><td>{{if ge .State.LastChimeHour 0}}{{printf "%02d:00" .State.LastChimeHour}}{{else}}-{{end}}</td></tr>
<tr><th>Settings mode</th><td>{{if .State.Settings}}waiting for time{{else}}no{{end}}</td></tr>
</table>

<h2>Playback</h2>
<table>
<tr><th>Buttons pressed</th><td>{{range .Pressed}}P{{.}} {{else}}none{{end}}</td></tr>
<tr><th>Playing</th><td class="{{if .State.Playing}}on{{else}}off{{end}}">{{if .State.Playing}}since {{.State.PlayingSince.UTC.Format "15:04:05"}}{{else}}no{{end}}</td></tr>
<tr><th>Last duration</th><td>{{.State.LastDurationSeconds}}s</td></tr>
<tr><th>Audio module</th><td class="{{if .AudioOK}}connected{{else}}disconnected{{end}}">{{if .AudioOK}}ready{{else}}not responding{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Presses</th><td>{{.State.Counts.Presses}}</td></tr>
<tr><th>Plays</th><td>{{.State.Counts.Plays}}</td></tr>
<tr><th>Chimes</th><td>{{.State.Counts.Chimes}}</td></tr>
<tr><th>Busy toggles</th><td>{{.State.Counts.BusyToggles}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Audio</th><td>{{.Config.Audio}}</td></tr>
<tr><th>Display</th><td>{{.Config.Display}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot, preview bool) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime  time.Duration
		Pressed []int
		Preview bool
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Pressed:  status.PressedLines(snap),
		Preview:  preview,
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render index: %v", err)
	}
}
