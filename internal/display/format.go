package display

import (
	"fmt"
	"strings"

	"github.com/sweeney/chime-clock/internal/logic"
)

// PressedText lists the active lines, highest first, or says none are.
func PressedText(s logic.InputSample, lines []int) string {
	var b strings.Builder
	for i := len(lines) - 1; i >= 0; i-- {
		if s.Active(lines[i]) {
			fmt.Fprintf(&b, "P%d pressed ", lines[i])
		}
	}
	if b.Len() == 0 {
		return "No button pressed"
	}
	return strings.TrimSpace(b.String())
}

// StatusRows formats the four screen rows: date, time, buttons (or the
// settings prompt) and chime/playback.
func StatusRows(clock logic.ClockSnapshot, clockOK bool, st logic.State, lines []int) []string {
	date, tod := "----/--/--", "--:--:--"
	if clockOK {
		date = fmt.Sprintf("%04d/%02d/%02d", clock.Year, clock.Month, clock.Day)
		tod = fmt.Sprintf("%02d:%02d:%02d", clock.Hour, clock.Minute, clock.Second)
	}

	chime := "Chime OFF"
	if st.ChimeEnabled {
		chime = "Chime ON"
	}
	switch {
	case st.Playing:
		chime += "  PLAY"
	case st.LastDurationSeconds > 0:
		chime += fmt.Sprintf("  %ds", st.LastDurationSeconds)
	}

	buttons := PressedText(st.Sample, lines)
	if st.Settings {
		buttons = "SET: send time"
	}

	return []string{date, tod, buttons, chime}
}
