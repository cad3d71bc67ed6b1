package dsp

import "errors"

// Construction-time errors. None of these are returned once an Engine or
// MultiChannel has been built — see §4.2 "Failure semantics": on the audio
// thread all operations are infallible by construction.
var (
	ErrEmptyImpulseResponse = errors.New("dsp: impulse response is empty")
	ErrInvalidBlockSize     = errors.New("dsp: max block size must be >= 1")
	ErrInvalidFFTSize       = errors.New("dsp: fft size must be a power of two >= 4")
	ErrChannelCountMismatch = errors.New("dsp: unsupported channel count")
)
