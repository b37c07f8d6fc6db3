package logic

// Detect compares two consecutive samples and returns the transitions of the
// given lines, in scan order. A line held low across polls produces nothing.
func Detect(prev, curr InputSample, lines []int) []ButtonEvent {
	var events []ButtonEvent
	for _, line := range lines {
		was, is := prev.Active(line), curr.Active(line)
		switch {
		case !was && is:
			events = append(events, ButtonEvent{Line: line, Kind: Pressed})
		case was && !is:
			events = append(events, ButtonEvent{Line: line, Kind: Released})
		}
	}
	return events
}

// Arbitrate picks the single button honoured this poll. The first line in
// scan order that is active in curr wins; it only counts if it was idle in
// prev. A newly pressed line behind a held higher-priority line is ignored.
func Arbitrate(prev, curr InputSample, lines []int) (int, bool) {
	for _, line := range lines {
		if !curr.Active(line) {
			continue
		}
		if prev.Active(line) {
			return 0, false
		}
		return line, true
	}
	return 0, false
}
