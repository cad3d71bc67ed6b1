package dsp

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// FFT is the real-to-complex / complex-to-real transform façade used by
// Engine. It owns a fixed-size plan and its scratch so the engine never
// allocates on the hot path. Construction is the only place an FFT may
// fail; Forward and Inverse are infallible-by-construction once built, so
// they panic on a size mismatch rather than returning an error — a size
// mismatch here is a programmer error, never a steady-state condition.
type FFT struct {
	size int
	plan *algofft.PlanRealT[float32, complex64]
}

// NewFFT builds an FFT façade for real buffers of length size (a power of
// two, >= 4). The complex spectrum produced by Forward and expected by
// Inverse has SpectrumLen() == size/2+1 elements (one-sided).
func NewFFT(size int) (*FFT, error) {
	if size < 4 || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidFFTSize, size)
	}

	plan, err := algofft.NewPlanReal32(size)
	if err != nil {
		return nil, fmt.Errorf("dsp: failed to create FFT plan for size %d: %w", size, err)
	}

	return &FFT{size: size, plan: plan}, nil
}

// Size returns the real-domain transform size F.
func (f *FFT) Size() int {
	return f.size
}

// SpectrumLen returns the length of the one-sided complex spectrum, F/2+1.
func (f *FFT) SpectrumLen() int {
	return f.size/2 + 1
}

// Forward writes the one-sided spectrum of in into out. in must have
// length Size(); out must have length SpectrumLen().
func (f *FFT) Forward(in []float32, out []complex64) {
	if len(in) != f.size || len(out) != f.SpectrumLen() {
		panic(fmt.Sprintf("dsp: FFT.Forward size mismatch: in=%d out=%d want in=%d out=%d",
			len(in), len(out), f.size, f.SpectrumLen()))
	}

	if err := f.plan.Forward(out, in); err != nil {
		panic(fmt.Sprintf("dsp: FFT.Forward failed: %v", err))
	}
}

// Inverse writes the real-domain signal for the one-sided spectrum in into
// out. The caller is responsible for the 1/Size() normalization; Inverse
// does not scale.
//
// algo-fft's real plan normalizes its inverse transform internally (the
// same convention its complex Plan documents). That convention conflicts
// with the façade contract above, which the engine's step-by-step
// normalization (applied once, after the inverse transform) depends on —
// so Inverse undoes the library's own 1/F scaling before returning,
// leaving out in the un-normalized state the façade promises.
func (f *FFT) Inverse(in []complex64, out []float32) {
	if len(in) != f.SpectrumLen() || len(out) != f.size {
		panic(fmt.Sprintf("dsp: FFT.Inverse size mismatch: in=%d out=%d want in=%d out=%d",
			len(in), len(out), f.SpectrumLen(), f.size))
	}

	if err := f.plan.Inverse(out, in); err != nil {
		panic(fmt.Sprintf("dsp: FFT.Inverse failed: %v", err))
	}

	scale := float32(f.size)
	for i := range out {
		out[i] *= scale
	}
}
