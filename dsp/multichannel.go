package dsp

// MultiChannel holds one per-channel Engine per audio channel (0–2) and
// dispatches Process across them. Channels are fully independent: there is
// no cross-channel state, and processing order between channels is
// unspecified and irrelevant.
type MultiChannel struct {
	engines []*Engine
}

// NewMultiChannel builds a MultiChannel from per-channel impulse responses
// (one IR per channel, 0–2 channels) and the host's maximum block size.
// Every engine shares the same max block size and therefore the same
// segment geometry, even if their IRs differ in length. Zero channels is a
// legal, callable "no IR loaded" convolver: Process then performs no writes
// (see Process's doc comment).
func NewMultiChannel(irs [][]float32, maxBlockSize int) (*MultiChannel, error) {
	if len(irs) > 2 {
		return nil, ErrChannelCountMismatch
	}

	engines := make([]*Engine, len(irs))
	for i, ir := range irs {
		e, err := NewEngine(ir, maxBlockSize)
		if err != nil {
			return nil, err
		}
		engines[i] = e
	}

	return &MultiChannel{engines: engines}, nil
}

// Channels returns the number of per-channel engines held.
func (m *MultiChannel) Channels() int {
	return len(m.engines)
}

// Latency returns the block latency common to every channel, or 0 if no
// engines are held.
func (m *MultiChannel) Latency() int {
	if len(m.engines) == 0 {
		return 0
	}
	return m.engines[0].Latency()
}

// Process dispatches inputs[k] to the k-th engine for
// k < min(len(inputs), len(outputs), Channels()). Channels beyond that
// range are left untouched — the spec mandates never writing uninitialized
// data, so callers must pre-zero any output channel they do not expect
// MultiChannel to fill (e.g. because no IR is loaded for it).
func (m *MultiChannel) Process(inputs, outputs [][]float32) {
	n := min(len(inputs), len(outputs), len(m.engines))
	for k := range n {
		m.engines[k].Process(inputs[k], outputs[k])
	}
}
