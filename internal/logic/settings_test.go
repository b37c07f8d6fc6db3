package logic

import (
	"errors"
	"testing"
	"time"
)

func TestParseSetting(t *testing.T) {
	got, err := ParseSetting("2026/10/19 07:08:09\r\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := ClockSnapshot{Year: 2026, Month: 10, Day: 19, Hour: 7, Minute: 8, Second: 9}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got.String() != "2026/10/19 07:08:09" {
		t.Errorf("String: got %q", got.String())
	}
}

func TestParseSettingMalformed(t *testing.T) {
	for _, line := range []string{
		"",
		"hello",
		"2026-10-19 07:08:09",
		"2026/13/01 00:00:00",
		"2026/10/19 25:00:00",
		"2026/10/19",
	} {
		if _, err := ParseSetting(line); !errors.Is(err, ErrBadSetting) {
			t.Errorf("%q: expected ErrBadSetting, got %v", line, err)
		}
	}
}

func TestHoldTracker(t *testing.T) {
	var h holdTracker
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if h.update(true, now, 2*time.Second) {
		t.Error("fired on first active sample")
	}
	if h.update(true, now.Add(1900*time.Millisecond), 2*time.Second) {
		t.Error("fired before hold duration")
	}
	if !h.update(true, now.Add(2*time.Second), 2*time.Second) {
		t.Error("expected fire at hold duration")
	}
	if h.update(true, now.Add(5*time.Second), 2*time.Second) {
		t.Error("fired twice in one hold")
	}

	// Release and a short press must not fire.
	h.update(false, now.Add(6*time.Second), 2*time.Second)
	if h.update(true, now.Add(7*time.Second), 2*time.Second) {
		t.Error("fired on new press")
	}
	if h.update(false, now.Add(8*time.Second), 2*time.Second) {
		t.Error("fired on release")
	}
}
