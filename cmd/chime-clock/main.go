// Command chime-clock drives a desk clock: it polls buttons on an I2C expander,
// plays clips and an hourly chime on a DFPlayer, shows the time on a small
// display and publishes what happened to MQTT.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sweeney/chime-clock/internal/display"
	"github.com/sweeney/chime-clock/internal/input"
	"github.com/sweeney/chime-clock/internal/logic"
	"github.com/sweeney/chime-clock/internal/mqtt"
	"github.com/sweeney/chime-clock/internal/player"
	"github.com/sweeney/chime-clock/internal/rtc"
	"github.com/sweeney/chime-clock/internal/status"
	"github.com/sweeney/chime-clock/internal/web"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

// splashHold is how long the splash image stays up before the clock face.
const splashHold = 2 * time.Second

type options struct {
	poll         time.Duration
	i2cBus       string
	expanderAddr int
	rtcAddr      int
	gpioChip     string
	gpioLines    string
	buttons      string
	busyLine     int
	chimeLine    int
	settingsLine int
	settingsHold time.Duration
	chimeWindow  int
	chimeFolder  int
	chime        bool
	clipLength   time.Duration
	audio        string
	audioAck     bool
	volume       int
	display      string
	spiPort      string
	dcPin        string
	splash       string
	broker       string
	heartbeat    time.Duration
	httpAddr     string
}

func main() {
	var o options
	flag.DurationVar(&o.poll, "poll", 100*time.Millisecond, "Input polling interval")
	flag.StringVar(&o.i2cBus, "i2c", "", "I2C bus name (empty for the first bus)")
	flag.IntVar(&o.expanderAddr, "expander-addr", int(input.DefaultExpanderAddress), "PCF8574 input expander I2C address")
	flag.IntVar(&o.rtcAddr, "rtc-addr", int(rtc.DefaultAddress), "DS1307 clock I2C address")
	flag.StringVar(&o.gpioChip, "gpio-chip", "gpiochip0", "GPIO chip for -gpio-lines")
	flag.StringVar(&o.gpioLines, "gpio-lines", "", "Comma-separated GPIO offsets to read instead of the expander (bit i = offset i)")
	flag.StringVar(&o.buttons, "buttons", "0,1,2", "Comma-separated track button lines, in priority order")
	flag.IntVar(&o.busyLine, "busy-line", 7, "Audio module BUSY line (-1 to time clips with -clip-length)")
	flag.IntVar(&o.chimeLine, "chime-line", 3, "Chime on/off toggle line (-1 to disable)")
	flag.IntVar(&o.settingsLine, "settings-line", 4, "Settings mode line (-1 to disable)")
	flag.DurationVar(&o.settingsHold, "settings-hold", 2*time.Second, "How long to hold the settings line")
	flag.IntVar(&o.chimeWindow, "chime-window", logic.DefaultChimeWindow, "Seconds past the hour a chime may still fire")
	flag.IntVar(&o.chimeFolder, "chime-folder", 0, "Folder holding the hour clips (0 for the card root)")
	flag.BoolVar(&o.chime, "chime", true, "Enable the hourly chime at startup")
	flag.DurationVar(&o.clipLength, "clip-length", 5*time.Second, "Playback session length when there is no busy line")
	flag.StringVar(&o.audio, "audio", "/dev/serial0", "DFPlayer serial port (empty to disable)")
	flag.BoolVar(&o.audioAck, "audio-ack", false, "Wait for the DFPlayer to report ready at startup")
	flag.IntVar(&o.volume, "volume", 20, "Playback volume (0-30)")
	flag.StringVar(&o.display, "display", "ssd1306-i2c", `Display panel: "ssd1306-i2c", "ssd1306-spi" or "none"`)
	flag.StringVar(&o.spiPort, "spi", "", "SPI port for ssd1306-spi (empty for the first port)")
	flag.StringVar(&o.dcPin, "dc", "GPIO25", "Data/command pin for ssd1306-spi")
	flag.StringVar(&o.splash, "splash", "", "24-bit BMP shown at startup")
	flag.StringVar(&o.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&o.httpAddr, "http", ":80", "HTTP status address (empty to disable)")

	flag.Parse()

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func (o options) controllerConfig() (logic.Config, error) {
	buttons, err := parseLines(o.buttons)
	if err != nil {
		return logic.Config{}, fmt.Errorf("-buttons: %w", err)
	}
	for name, l := range map[string]int{"busy-line": o.busyLine, "chime-line": o.chimeLine, "settings-line": o.settingsLine} {
		if l < logic.NoLine || l > 7 {
			return logic.Config{}, fmt.Errorf("-%s: line %d out of range", name, l)
		}
	}
	owner := make(map[int]string)
	for _, l := range buttons {
		if prev, ok := owner[l]; ok {
			return logic.Config{}, fmt.Errorf("-buttons: line %d already used by -%s", l, prev)
		}
		owner[l] = "buttons"
	}
	for _, r := range []struct {
		name string
		line int
	}{{"busy-line", o.busyLine}, {"chime-line", o.chimeLine}, {"settings-line", o.settingsLine}} {
		if r.line == logic.NoLine {
			continue
		}
		if prev, ok := owner[r.line]; ok {
			return logic.Config{}, fmt.Errorf("-%s: line %d already used by -%s", r.name, r.line, prev)
		}
		owner[r.line] = r.name
	}
	if time.Duration(o.chimeWindow)*time.Second < o.poll {
		return logic.Config{}, fmt.Errorf("-chime-window: %ds is shorter than -poll %s", o.chimeWindow, o.poll)
	}
	if o.volume < 0 || o.volume > player.MaxVolume {
		return logic.Config{}, fmt.Errorf("-volume: %d out of range 0-%d", o.volume, player.MaxVolume)
	}
	return logic.Config{
		ButtonLines:     buttons,
		BusyLine:        o.busyLine,
		ChimeToggleLine: o.chimeLine,
		SettingsLine:    o.settingsLine,
		SettingsHold:    o.settingsHold,
		ChimeWindow:     o.chimeWindow,
		ChimeFolder:     o.chimeFolder,
		ChimeEnabled:    o.chime,
		ClipLength:      o.clipLength,
	}, nil
}

func run(o options) error {
	cfg, err := o.controllerConfig()
	if err != nil {
		return err
	}

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("init host: %w", err)
	}
	bus, err := i2creg.Open(o.i2cBus)
	if err != nil {
		return fmt.Errorf("open i2c bus: %w", err)
	}
	defer bus.Close()

	// Display first so later init failures can be shown on it.
	screen, closeDisplay, err := openDisplay(o, bus)
	if err != nil {
		return fmt.Errorf("init display: %w", err)
	}
	defer closeDisplay()
	defer screen.Halt()

	clock, err := rtc.NewDS1307(bus, uint16(o.rtcAddr))
	if err != nil {
		showFatal(screen, "RTC not found")
		return fmt.Errorf("init rtc: %w", err)
	}
	if running, err := clock.IsRunning(); err != nil {
		showFatal(screen, "RTC not found")
		return fmt.Errorf("read rtc: %w", err)
	} else if !running {
		now := logic.SnapshotOf(time.Now())
		log.Printf("rtc: clock halted, setting to host time %s", now)
		if err := clock.Adjust(now); err != nil {
			log.Printf("rtc: adjust: %v", err)
		}
	}

	sampler, err := openSampler(o, bus)
	if err != nil {
		showFatal(screen, "Input not found")
		return fmt.Errorf("init input: %w", err)
	}
	defer sampler.Close()

	var audio player.Player
	audioOK := false
	if o.audio != "" {
		audio, audioOK = openAudio(o)
		if audio != nil {
			defer audio.Close()
		}
	}

	if o.splash != "" {
		if img, err := display.LoadSplashFile(o.splash); err != nil {
			log.Printf("display: %v", err)
		} else {
			screen.Splash(img)
			if err := screen.Flush(); err != nil {
				log.Printf("display: %v", err)
			}
			time.Sleep(splashHold)
			screen.Clear()
		}
	}

	// Operator time-set lines arrive from stdin and the MQTT command topic.
	lines := make(chan string, 4)
	go readLines(os.Stdin, lines)

	hostname, _ := os.Hostname()
	publisher := mqtt.NewRealPublisher(o.broker, "chime-clock-"+hostname)
	defer publisher.Close()
	publisher.SubscribeCommands(lines)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      o.poll.Milliseconds(),
		HeartbeatMs: o.heartbeat.Milliseconds(),
		ButtonLines: cfg.ButtonLines,
		BusyLine:    cfg.BusyLine,
		ChimeWindow: cfg.ChimeWindow,
		ChimeFolder: cfg.ChimeFolder,
		Broker:      o.broker,
		HTTPPort:    o.httpAddr,
		Audio:       o.audio,
		Display:     o.display,
	})
	tracker.SetAudioOK(audioOK)
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker, screen)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	log.Printf("started: poll=%v buttons=%v busy=%d chime=%v broker=%s heartbeat=%v", o.poll, cfg.ButtonLines, cfg.BusyLine, cfg.ChimeEnabled, o.broker, o.heartbeat)

	ticker := time.NewTicker(o.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	l := &loop{
		sampler:    sampler,
		clock:      clock,
		player:     audio,
		screen:     screen,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		heartbeat:  o.heartbeat,
	}
	return runLoop(l, cfg, time.Now, ticker.C, sigCh, lines)
}

// openDisplay returns a presenter for the selected panel. "none" gives a
// canvas-only presenter, still visible at /display.png.
func openDisplay(o options, bus i2c.Bus) (*display.Presenter, func(), error) {
	nop := func() {}
	switch o.display {
	case "none", "":
		return display.New(nil, display.DefaultBounds), nop, nil
	case "ssd1306-i2c":
		opts := ssd1306.DefaultOpts
		dev, err := ssd1306.NewI2C(bus, &opts)
		if err != nil {
			return nil, nop, fmt.Errorf("ssd1306 on i2c: %w", err)
		}
		return display.New(dev, dev.Bounds()), nop, nil
	case "ssd1306-spi":
		port, err := spireg.Open(o.spiPort)
		if err != nil {
			return nil, nop, fmt.Errorf("open spi port: %w", err)
		}
		dc := gpioreg.ByName(o.dcPin)
		if dc == nil {
			port.Close()
			return nil, nop, fmt.Errorf("unknown dc pin %q", o.dcPin)
		}
		opts := ssd1306.DefaultOpts
		dev, err := ssd1306.NewSPI(port, dc, &opts)
		if err != nil {
			port.Close()
			return nil, nop, fmt.Errorf("ssd1306 on spi: %w", err)
		}
		return display.New(dev, dev.Bounds()), func() { port.Close() }, nil
	default:
		return nil, nop, fmt.Errorf("unknown display %q", o.display)
	}
}

func openSampler(o options, bus i2c.Bus) (input.Sampler, error) {
	if o.gpioLines == "" {
		return input.NewExpander(bus, uint16(o.expanderAddr))
	}
	offsets, err := parseLines(o.gpioLines)
	if err != nil {
		return nil, fmt.Errorf("-gpio-lines: %w", err)
	}
	return input.NewLineSampler(o.gpioChip, offsets)
}

// openAudio opens and initialises the DFPlayer. A module that does not answer
// is kept anyway; playback is fire-and-forget.
func openAudio(o options) (player.Player, bool) {
	p, err := player.Open(o.audio)
	if err != nil {
		log.Printf("audio: %v", err)
		return nil, false
	}
	ok := true
	if err := p.Begin(o.audioAck); err != nil {
		log.Printf("audio: init: %v", err)
		ok = false
	}
	if err := p.SetVolume(o.volume); err != nil {
		log.Printf("audio: set volume: %v", err)
		ok = false
	}
	return p, ok
}

func showFatal(screen *display.Presenter, msg string) {
	screen.Clear()
	screen.SetLine(0, msg)
	if err := screen.Flush(); err != nil {
		log.Printf("display: %v", err)
	}
}

// loop holds the devices runLoop drives. screen, player, tracker and
// mqttStatus may be nil.
type loop struct {
	sampler    input.Sampler
	clock      rtc.Clock
	player     player.Player
	screen     *display.Presenter
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	heartbeat  time.Duration

	ctrl        *logic.Controller
	sampleFails bool
	clockFails  bool
}

func runLoop(l *loop, cfg logic.Config, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal, lines <-chan string) error {
	l.ctrl = logic.NewController(cfg, now())

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if l.tracker != nil {
				if l.mqttStatus != nil {
					l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
				}
				snap := l.tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := l.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case line := <-lines:
			l.applySetting(line, now())

		case <-tick:
			l.poll(now())
		}
	}
}

func (l *loop) poll(t time.Time) {
	pollsCounter.Inc()

	sample, err := l.sampler.Sample()
	if err != nil {
		// A failed read must never look like a press.
		sample = logic.Idle
		busErrorsCounter.WithLabelValues("input").Inc()
		if !l.sampleFails {
			log.Printf("input read error: %v", err)
		}
	} else if l.sampleFails {
		log.Printf("input read recovered")
	}
	l.sampleFails = err != nil

	clock, err := l.clock.Now()
	clockOK := err == nil
	if !clockOK {
		busErrorsCounter.WithLabelValues("rtc").Inc()
		if !l.clockFails {
			log.Printf("rtc read error: %v", err)
		}
	} else if l.clockFails {
		log.Printf("rtc read recovered")
	}
	l.clockFails = !clockOK

	res := l.ctrl.Process(logic.Input{
		Sample:  sample,
		Clock:   clock,
		ClockOK: clockOK,
		Time:    t,
	})

	for _, cmd := range res.Commands {
		if l.player == nil {
			continue
		}
		if err := player.Send(l.player, cmd); err != nil {
			playErrorsCounter.Inc()
			log.Printf("audio: play %+v: %v", cmd, err)
		}
	}

	for _, event := range res.Events {
		l.record(event)
	}

	st := l.ctrl.State()
	busyTogglesGauge.Set(float64(st.Counts.BusyToggles))

	if l.screen != nil {
		l.screen.SetLines(display.StatusRows(clock, clockOK, st, l.ctrl.Config().ButtonLines))
		if err := l.screen.Flush(); err != nil {
			log.Printf("display: %v", err)
		}
	}

	// Check for heartbeat
	if hbData := l.ctrl.CheckHeartbeat(t, l.heartbeat); hbData != nil {
		log.Printf("heartbeat: uptime=%v presses=%d plays=%d chimes=%d busy_toggles=%d",
			hbData.Uptime, hbData.Counts.Presses, hbData.Counts.Plays, hbData.Counts.Chimes, hbData.Counts.BusyToggles)

		hbEvent := mqtt.SystemEvent{
			Timestamp: hbData.Timestamp,
			Event:     "HEARTBEAT",
		}
		if l.tracker != nil {
			if l.mqttStatus != nil {
				l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
			}
			// Refresh network info for heartbeat
			if net := readNetworkInfo(); net != nil {
				l.tracker.SetNetwork(net)
			}
			l.tracker.Update(clock, clockOK, st)
			hbEvent.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "HEARTBEAT", "")
		}
		if err := l.publisher.PublishSystem(hbEvent); err != nil {
			log.Printf("heartbeat publish error: %v", err)
		}
	}

	// Update status tracker for HTTP consumers
	if l.tracker != nil {
		l.tracker.Update(clock, clockOK, st)
		if l.mqttStatus != nil {
			l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
		}
	}
}

func (l *loop) record(event logic.Event) {
	switch event.Type {
	case logic.EventButtonPressed:
		pressesCounter.WithLabelValues(strconv.Itoa(event.Line)).Inc()
		log.Printf("event: %s line=%d track=%d", event.Type, event.Line, event.Track)
	case logic.EventButtonReleased:
		log.Printf("event: %s line=%d", event.Type, event.Line)
	case logic.EventChime:
		chimesCounter.Inc()
		log.Printf("event: %s %s track=%d", event.Type, event.Clock, event.Track)
	case logic.EventPlaybackFinished:
		playbackSeconds.Observe(float64(event.DurationSeconds))
		log.Printf("event: %s duration=%ds", event.Type, event.DurationSeconds)
	default:
		log.Printf("event: %s", event.Type)
	}
	if err := l.publisher.Publish(event); err != nil {
		log.Printf("publish error: %v", err)
		// Don't crash on publish failure
	}
}

// applySetting sets the clock from an operator line. Lines outside settings
// mode and malformed lines are logged and dropped.
func (l *loop) applySetting(line string, t time.Time) {
	event, err := l.ctrl.ApplySetting(line, t, l.clock.Adjust)
	if errors.Is(err, logic.ErrNotInSettings) {
		log.Printf("settings: ignoring %q, not in settings mode", strings.TrimSpace(line))
		return
	}
	if err != nil {
		log.Printf("settings: %v", err)
		return
	}
	l.record(event)
}

// readLines forwards each line of r to out until r is exhausted.
func readLines(r io.Reader, out chan<- string) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		out <- sc.Text()
	}
	if err := sc.Err(); err != nil {
		log.Printf("stdin: %v", err)
	}
}

// parseLines parses a comma-separated list of line numbers 0-7.
func parseLines(s string) ([]int, error) {
	var lines []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("bad line %q: %w", f, err)
		}
		if n < 0 || n > 7 {
			return nil, fmt.Errorf("line %d out of range 0-7", n)
		}
		lines = append(lines, n)
	}
	return lines, nil
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
