package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/chime-clock/internal/logic"
	"github.com/sweeney/chime-clock/internal/status"
)

var testClock = logic.ClockSnapshot{Year: 2026, Month: 10, Day: 19, Hour: 10, Minute: 0, Second: 2}

func newTestServer(t *testing.T, preview http.Handler) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		PollMs:      100,
		HeartbeatMs: 900000,
		ButtonLines: []int{0, 1, 2},
		BusyLine:    7,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPPort:    ":80",
		Audio:       "/dev/serial0",
		Display:     "ssd1306-i2c",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr, preview)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func getJSON(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t, nil)
	tr.Update(testClock, true, logic.State{
		Sample:       0xFE,
		ChimeEnabled: true,
		Counts:       logic.EventCounts{Presses: 5, Plays: 2},
	})
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if sj.Status.Clock != "2026/10/19 10:00:02" {
		t.Errorf("Clock: got %q", sj.Status.Clock)
	}
	if !sj.Status.ChimeEnabled {
		t.Error("expected ChimeEnabled=true")
	}
	if len(sj.Status.Pressed) != 1 || sj.Status.Pressed[0] != 0 {
		t.Errorf("Pressed: got %v, want [0]", sj.Status.Pressed)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q, want tcp://192.168.1.200:1883", sj.Status.MQTT.Broker)
	}
	if sj.Status.Counts.Presses != 5 {
		t.Errorf("Counts.Presses: got %d, want 5", sj.Status.Counts.Presses)
	}
	if sj.Status.Config.PollMs != 100 {
		t.Errorf("Config.PollMs: got %d, want 100", sj.Status.Config.PollMs)
	}
	if sj.Status.Config.BusyLine != 7 {
		t.Errorf("Config.BusyLine: got %d, want 7", sj.Status.Config.BusyLine)
	}
}

func TestJSONUnknownClockBeforeFirstRead(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.Clock != "UNKNOWN" {
		t.Errorf("Clock before first read: got %q, want UNKNOWN", sj.Status.Clock)
	}
	if sj.Status.ClockOK {
		t.Error("expected ClockOK=false before first read")
	}
}

func TestJSONNetworkInfo(t *testing.T) {
	ts, tr := newTestServer(t, nil)
	tr.SetNetwork(&status.NetworkInfo{
		Type:   "wifi",
		IP:     "192.168.1.42",
		Status: "connected",
		SSID:   "MyNet",
	})

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if sj.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", sj.Status.Network.IP)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t, nil)
	tr.Update(testClock, true, logic.State{ChimeEnabled: true, LastChimeHour: 10, Sample: 0xFD})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"2026/10/19 10:00:02", "10:00", "P1 ", "ssd1306-i2c"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %q in page", want)
		}
	}
	if strings.Contains(string(body), "/display.png") {
		t.Error("preview image should be absent without a display")
	}
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestDisplayPreview(t *testing.T) {
	preview := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png"))
	})
	ts, _ := newTestServer(t, preview)

	resp, err := http.Get(ts.URL + "/display.png")
	if err != nil {
		t.Fatalf("GET /display.png: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type: got %q, want image/png", ct)
	}

	page, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer page.Body.Close()
	body, _ := io.ReadAll(page.Body)
	if !strings.Contains(string(body), "/display.png") {
		t.Error("expected preview image in page")
	}
}

func TestDisplayPreviewAbsent(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/display.png")
	if err != nil {
		t.Fatalf("GET /display.png: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("expected default Go collector output")
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t, nil)

	sj1 := getJSON(t, ts.URL+"/index.json")
	if sj1.Status.Playback.Playing {
		t.Error("expected Playing=false initially")
	}

	tr.Update(testClock, true, logic.State{Playing: true, PlayingSince: time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)})
	tr.SetMQTTConnected(true)

	sj2 := getJSON(t, ts.URL+"/index.json")
	if !sj2.Status.Playback.Playing {
		t.Error("expected Playing=true after update")
	}
	if !sj2.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}
