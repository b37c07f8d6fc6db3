package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chime_clock_polls_total",
		Help: "count of poll ticks processed",
	})

	busErrorsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chime_clock_bus_errors_total",
		Help: "count of failed reads, by device",
	}, []string{"device"})

	pressesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chime_clock_button_presses_total",
		Help: "count of button presses, by input line",
	}, []string{"line"})

	chimesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chime_clock_chimes_total",
		Help: "count of hourly chimes played",
	})

	playErrorsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chime_clock_play_errors_total",
		Help: "count of play commands the audio module did not accept",
	})

	playbackSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chime_clock_playback_seconds",
		Help:    "length of finished playback sessions, in whole seconds",
		Buckets: prometheus.LinearBuckets(0, 5, 12),
	})

	busyTogglesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chime_clock_busy_toggles",
		Help: "number of busy line transitions since startup",
	})
)
