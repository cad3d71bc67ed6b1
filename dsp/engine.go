// Package dsp implements the uniform partitioned overlap-save convolution
// engine at the core of the convolution reverb: a per-channel frequency
// domain convolver (Engine), its FFT façade, and the MultiChannel wrapper
// that dispatches a convolver's channels during Process.
package dsp

import "fmt"

// Engine performs streaming linear convolution of one audio channel against
// one fixed impulse response, using uniform partitioned frequency-domain
// overlap-save.
//
// The segment geometry (B, F, S, Nimp, Nin, stride) is fixed at
// construction and never changes; replacing the impulse response means
// building a new Engine. Once built, Process never allocates, locks, or
// performs I/O.
type Engine struct {
	blockSize    int // B: input block size, a power of two
	fftSize      int // F: FFT size
	segmentSize  int // S: F - B, also the IR partition size
	numImpulse   int // Nimp: number of impulse segments
	numInput     int // Nin: size of the input segment ring
	stride       int // Nin / Nimp
	latency      int // == blockSize

	fft *FFT

	impulseSegments [][]complex64 // Nimp spectra, read-only after construction
	inputSegments   [][]complex64 // Nin-slot ring, mutated only by Process

	bufferInput      []float32   // length F
	bufferCOutput    []complex64 // length F/2+1
	bufferTempOutput []complex64 // length F/2+1, the deferred accumulator
	bufferROutput    []float32   // length F
	bufferOverlap    []float32   // length F

	inputPosition  int // in [0, B)
	currentSegment int // in [0, Nin)
}

// NewEngine constructs an Engine for the given impulse response and the
// host's maximum audio block size. All allocation, including the impulse
// response's forward FFT, happens here — never on the audio thread.
func NewEngine(ir []float32, maxBlockSize int) (*Engine, error) {
	if len(ir) == 0 {
		return nil, ErrEmptyImpulseResponse
	}
	if maxBlockSize < 1 {
		return nil, ErrInvalidBlockSize
	}

	blockSize := nextPowerOfTwo(maxBlockSize)
	fftSize := 2 * blockSize
	if blockSize <= 128 {
		fftSize = 4 * blockSize
	}
	segmentSize := fftSize - blockSize

	numImpulse := ceilDiv(len(ir), segmentSize)
	numInput := numImpulse
	if blockSize <= 128 {
		numInput = 3 * numImpulse
	}
	stride := numInput / numImpulse

	fft, err := NewFFT(fftSize)
	if err != nil {
		return nil, fmt.Errorf("dsp: building engine: %w", err)
	}

	e := &Engine{
		blockSize:   blockSize,
		fftSize:     fftSize,
		segmentSize: segmentSize,
		numImpulse:  numImpulse,
		numInput:    numInput,
		stride:      stride,
		latency:     blockSize,

		fft: fft,

		impulseSegments: make([][]complex64, numImpulse),
		inputSegments:   make([][]complex64, numInput),

		bufferInput:      make([]float32, fftSize),
		bufferCOutput:    make([]complex64, fft.SpectrumLen()),
		bufferTempOutput: make([]complex64, fft.SpectrumLen()),
		bufferROutput:    make([]float32, fftSize),
		bufferOverlap:    make([]float32, fftSize),
	}

	for i := range e.inputSegments {
		e.inputSegments[i] = make([]complex64, fft.SpectrumLen())
	}

	e.buildImpulseSegments(ir)

	return e, nil
}

// buildImpulseSegments splits the (zero-padded) impulse response into Nimp
// non-overlapping windows of length S, zero-pads each to F, and transforms
// each into the impulse segment table. Construction-time only.
func (e *Engine) buildImpulseSegments(ir []float32) {
	window := make([]float32, e.fftSize)

	for k := range e.numImpulse {
		clear(window)

		start := k * e.segmentSize
		end := min(start+e.segmentSize, len(ir))
		if start < len(ir) {
			copy(window[:e.segmentSize], ir[start:end])
		}

		spectrum := make([]complex64, e.fft.SpectrumLen())
		e.fft.Forward(window, spectrum)
		e.impulseSegments[k] = spectrum
	}
}

// Latency returns the engine's processing latency in samples, equal to the
// input block size B.
func (e *Engine) Latency() int {
	return e.latency
}

// BlockSize returns B, the segment-geometry input block size.
func (e *Engine) BlockSize() int {
	return e.blockSize
}

// FFTSize returns F, the transform size used by every segment.
func (e *Engine) FFTSize() int {
	return e.fftSize
}

// SegmentCount returns Nimp, the number of impulse-response segments.
func (e *Engine) SegmentCount() int {
	return e.numImpulse
}

// RingSize returns Nin, the size of the input segment ring.
func (e *Engine) RingSize() int {
	return e.numInput
}

// Process consumes len(input) samples and produces exactly that many
// output samples. input and output may alias the same backing array.
//
// Process never allocates, locks, or blocks: every buffer it touches was
// sized at construction. N == 0 is a no-op.
func (e *Engine) Process(input, output []float32) {
	if len(input) != len(output) {
		panic(fmt.Sprintf("dsp: Engine.Process length mismatch: input=%d output=%d", len(input), len(output)))
	}

	processed := 0
	total := len(input)

	for processed < total {
		take := min(total-processed, e.blockSize-e.inputPosition)

		copy(e.bufferInput[e.inputPosition:e.inputPosition+take], input[processed:processed+take])

		e.fft.Forward(e.bufferInput, e.inputSegments[e.currentSegment])

		if e.inputPosition == 0 {
			e.recomputeDeferredAccumulator()
		}

		copy(e.bufferCOutput, e.bufferTempOutput)
		multiplyAccumulate(e.bufferCOutput, e.inputSegments[e.currentSegment], e.impulseSegments[0])

		e.fft.Inverse(e.bufferCOutput, e.bufferROutput)
		scaleInPlace(e.bufferROutput, 1/float32(e.fftSize))

		for i := range take {
			output[processed+i] = e.bufferROutput[e.inputPosition+i] + e.bufferOverlap[e.inputPosition+i]
		}

		e.inputPosition += take
		processed += take

		if e.inputPosition == e.blockSize {
			clear(e.bufferInput)
			// Shift the pending tail down one block and add this block's
			// tail, so tails longer than B (F = 4B) carry over in full.
			copy(e.bufferOverlap, e.bufferOverlap[e.blockSize:])
			clear(e.bufferOverlap[e.fftSize-e.blockSize:])
			for i, v := range e.bufferROutput[e.blockSize:] {
				e.bufferOverlap[i] += v
			}
			e.inputPosition = 0
			e.currentSegment = (e.currentSegment + e.numInput - 1) % e.numInput
		}
	}
}

// recomputeDeferredAccumulator recomputes buffer_temp_output, the sum of
// every impulse partition i >= 1 crossed with the input segment captured
// i*stride blocks ago. Recomputed once per block, at the first sub-block.
func (e *Engine) recomputeDeferredAccumulator() {
	clear(e.bufferTempOutput)

	for i := 1; i < e.numImpulse; i++ {
		idx := (e.currentSegment + i*e.stride) % e.numInput
		multiplyAccumulate(e.bufferTempOutput, e.inputSegments[idx], e.impulseSegments[i])
	}
}

// Reset clears all mutable state, returning the engine to its
// just-constructed condition. The impulse segment table is untouched.
func (e *Engine) Reset() {
	clear(e.bufferInput)
	clear(e.bufferCOutput)
	clear(e.bufferTempOutput)
	clear(e.bufferROutput)
	clear(e.bufferOverlap)

	for _, seg := range e.inputSegments {
		clear(seg)
	}

	e.inputPosition = 0
	e.currentSegment = 0
}

// multiplyAccumulate performs dest[i] += a[i] * b[i] for complex spectra of
// equal length.
func multiplyAccumulate(dest, a, b []complex64) {
	for i := range dest {
		dest[i] += a[i] * b[i]
	}
}

// scaleInPlace multiplies every element of buf by factor.
func scaleInPlace(buf []float32, factor float32) {
	for i := range buf {
		buf[i] *= factor
	}
}

// nextPowerOfTwo returns the smallest power of two >= n.
func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// ceilDiv returns ceil(a/b) for positive a, b.
func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
