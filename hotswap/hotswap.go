// Package hotswap implements the real-time-safe handoff between an
// off-thread IR ingest worker and the audio thread: a bounded
// single-producer/single-consumer queue of freshly built convolvers, an
// atomic install operation, and a deferred-release graveyard for the
// convolver an install supersedes.
package hotswap

import (
	"log/slog"
	"sync/atomic"

	"convengine/dsp"
)

// defaultGraveyardFactor sizes the graveyard queue as a multiple of the
// incoming queue's capacity: under a burst of N pending installs, draining
// the incoming queue can release up to N convolvers in one TryInstall call.
const defaultGraveyardFactor = 4

// Plane is the hot-swap message plane. One Plane exists per live audio
// stream; the worker domain calls Publish, the audio thread calls
// TryInstall and Current.
//
// TryInstall and Current are the only methods meant to run on the audio
// thread; neither allocates, locks, or blocks. Publish and the graveyard drain loop run on
// the worker domain and may block or allocate freely.
type Plane struct {
	incoming  chan *dsp.MultiChannel
	graveyard chan *dsp.MultiChannel
	current   atomic.Pointer[dsp.MultiChannel]
	logger    *slog.Logger
	done      chan struct{}
}

// NewPlane builds a Plane with the given incoming-queue capacity (clamped
// to a minimum of 2, per §4.4) and starts its graveyard-draining goroutine.
// Close releases that goroutine at teardown.
func NewPlane(queueCapacity int) *Plane {
	if queueCapacity < 2 {
		queueCapacity = 2
	}

	p := &Plane{
		incoming:  make(chan *dsp.MultiChannel, queueCapacity),
		graveyard: make(chan *dsp.MultiChannel, queueCapacity*defaultGraveyardFactor),
		logger:    slog.Default(),
		done:      make(chan struct{}),
	}

	go p.drainGraveyard()

	return p
}

// Publish enqueues a freshly built convolver for later installation. It is
// called from the worker domain only and may block if the incoming queue
// is full — acceptable backpressure on that side, never on the audio
// thread.
func (p *Plane) Publish(mc *dsp.MultiChannel) {
	p.incoming <- mc
}

// TryInstall drains every pending message on the incoming queue without
// blocking, installs the newest one as current, and routes the previously
// current convolver — along with every superseded pending one — to the
// graveyard for release off the audio thread. It reports whether an
// install happened.
//
// Per §5, the install happens atomically with respect to Current: a
// concurrent caller either observes the convolver from strictly before
// this call or strictly after, never a partially-installed state.
func (p *Plane) TryInstall() bool {
	var latest *dsp.MultiChannel
	installed := false

drain:
	for {
		select {
		case mc := <-p.incoming:
			if installed {
				p.release(latest)
			}
			latest = mc
			installed = true
		default:
			break drain
		}
	}

	if !installed {
		return false
	}

	if old := p.current.Swap(latest); old != nil {
		p.release(old)
	}

	return true
}

// Current returns the convolver presently installed, or nil if none has
// ever been installed. Safe to call from the audio thread.
func (p *Plane) Current() *dsp.MultiChannel {
	return p.current.Load()
}

// release hands a superseded convolver to the graveyard without blocking.
// Go's allocator makes dropping the last reference to a value wait-free
// from the mutator's point of view — there is no explicit free() to defer —
// so this queue exists to give release a deterministic, testable point off
// the audio thread rather than to dodge a blocking deallocator. If the
// graveyard is saturated (it would have to absorb more simultaneous
// supersessions than its capacity allows), the reference is dropped here
// instead: the audio thread still never blocks, and the value is reclaimed
// by the ordinary garbage collector either way.
func (p *Plane) release(mc *dsp.MultiChannel) {
	select {
	case p.graveyard <- mc:
	default:
	}
}

func (p *Plane) drainGraveyard() {
	for {
		select {
		case <-p.graveyard:
			p.logger.Debug("hotswap: released superseded convolver")
		case <-p.done:
			return
		}
	}
}

// Close stops the graveyard-draining goroutine. Call after the audio
// thread has stopped and the worker domain has finished publishing, per
// §6's exit behavior.
func (p *Plane) Close() {
	close(p.done)
}
