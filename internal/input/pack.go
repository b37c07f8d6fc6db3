package input

import "github.com/sweeney/chime-clock/internal/logic"

// pack turns raw line values into a sample. vals[i] is bit i; a non-zero
// value is idle (pulled high) and unused high bits stay idle.
func pack(vals []int) logic.InputSample {
	s := logic.Idle
	for i, v := range vals {
		if i > 7 {
			break
		}
		if v == 0 {
			s &^= 1 << uint(i)
		}
	}
	return s
}
