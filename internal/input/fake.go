package input

import "github.com/sweeney/chime-clock/internal/logic"

// FakeSampler is a test double that returns scripted samples.
type FakeSampler struct {
	// Samples contains scripted values to return.
	// Each call to Sample() consumes the next one.
	Samples []logic.InputSample

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// SampleError, if set, will be returned by Sample()
	SampleError error
}

// NewFakeSampler creates a FakeSampler with the given samples.
func NewFakeSampler(samples ...logic.InputSample) *FakeSampler {
	return &FakeSampler{Samples: samples}
}

// Sample returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeSampler) Sample() (logic.InputSample, error) {
	if f.SampleError != nil {
		return logic.Idle, f.SampleError
	}

	if len(f.Samples) == 0 {
		return logic.Idle, ErrNoData
	}

	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return s, nil
}

// Close marks the sampler as closed.
func (f *FakeSampler) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the sampler to the beginning of samples.
func (f *FakeSampler) Reset() {
	f.index = 0
	f.Closed = false
}
