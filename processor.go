// Package convengine wires the dsp and hotswap packages into the audio
// thread contract of §6: a host calls NewProcessor once, then Process once
// per audio callback. Process never allocates, locks, or blocks.
package convengine

import (
	"convengine/dsp"
	"convengine/hotswap"
)

// Processor is the host/editor adapter's audio-thread object: it owns a
// hot-swap plane and dispatches each callback to whichever dsp.MultiChannel
// is currently installed. It performs no gain, mix, or bypass smoothing —
// that belongs to the host, not the core (§1's Non-goals).
type Processor struct {
	plane        *hotswap.Plane
	maxBlockSize int
	channels     int
	sampleRate   int
}

// NewProcessor implements the initialize contract of §6: it fixes the
// segment geometry's block size and the channel count the host will drive
// Process with. sampleRate is recorded for callers that need it to build an
// ingest.Config (the core itself does not resample).
func NewProcessor(maxBlockSize, channels, sampleRate, queueCapacity int) (*Processor, error) {
	if maxBlockSize < 1 {
		return nil, dsp.ErrInvalidBlockSize
	}
	if channels < 1 || channels > 2 {
		return nil, dsp.ErrChannelCountMismatch
	}

	return &Processor{
		plane:        hotswap.NewPlane(queueCapacity),
		maxBlockSize: maxBlockSize,
		channels:     channels,
		sampleRate:   sampleRate,
	}, nil
}

// Plane exposes the hot-swap plane so the worker domain can Publish newly
// built convolvers. The audio thread never calls Publish.
func (p *Processor) Plane() *hotswap.Plane {
	return p.plane
}

// MaxBlockSize returns the block size fixed at construction.
func (p *Processor) MaxBlockSize() int {
	return p.maxBlockSize
}

// Channels returns the channel count fixed at construction.
func (p *Processor) Channels() int {
	return p.channels
}

// SampleRate returns the sample rate recorded at construction.
func (p *Processor) SampleRate() int {
	return p.sampleRate
}

// Process implements §6's process contract: equal sample counts across
// every input and output plane, sample count at most MaxBlockSize, planes
// non-aliased with each other (input aliasing its own output is allowed).
//
// It first gives the hot-swap plane a chance to install a freshly built
// convolver — per §5, this happens once, at the start of the callback,
// before any samples are processed, so the callback's output is never a
// mix of the old and new convolver. It then dispatches to whichever
// convolver is current, or writes silence if none has ever been installed.
func (p *Processor) Process(inputs, outputs [][]float32) {
	p.plane.TryInstall()

	mc := p.plane.Current()
	if mc == nil {
		zeroPlanes(outputs)
		return
	}

	mc.Process(inputs, outputs)

	for k := mc.Channels(); k < len(outputs); k++ {
		clear(outputs[k])
	}
}

// Close tears down the processor's hot-swap plane. Per §6's exit behavior,
// call this only after the audio thread has stopped and the worker domain
// has finished publishing.
func (p *Processor) Close() {
	p.plane.Close()
}

func zeroPlanes(planes [][]float32) {
	for _, plane := range planes {
		clear(plane)
	}
}
