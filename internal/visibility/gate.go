// Package visibility triggers one-shot actions when a region scrolls into view.
package visibility

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/opencode-ai/awaken/internal/logging"
)

// DefaultThreshold is the visible fraction that triggers a gate.
const DefaultThreshold = 0.5

// ErrAttached is returned when a gate is attached twice.
var ErrAttached = errors.New("gate already attached")

// Entry is one intersection observation.
type Entry struct {
	// Ratio is the visible fraction of the target, from 0 to 1.
	Ratio float64
}

// Source publishes intersection entries for a single target. Subscribe
// returns a function that releases the subscription; it may deliver the
// current entry before returning.
type Source interface {
	Subscribe(fn func(Entry)) (unsubscribe func())
}

// Gate fires once, the first time its target is at least Threshold visible.
// After firing it stops observing; later visibility changes are ignored.
// A Gate serves one mount: create a new one when the view is rebuilt.
type Gate struct {
	Threshold float64
	// Timeout fires the gate anyway after this long. Zero observes
	// indefinitely.
	Timeout time.Duration

	mu          sync.Mutex
	attached    bool
	fired       bool
	closed      bool
	entry       Entry
	timedOut    bool
	unsubscribe func()
	timer       *time.Timer
	fire        func()
	logger      zerolog.Logger
}

// NewGate creates a gate. A threshold outside (0, 1] uses DefaultThreshold.
func NewGate(threshold float64, timeout time.Duration) *Gate {
	return &Gate{Threshold: threshold, Timeout: timeout}
}

func (g *Gate) threshold() float64 {
	if g.Threshold <= 0 || g.Threshold > 1 {
		return DefaultThreshold
	}
	return g.Threshold
}

// Attach starts observing source. fire runs at most once, on whichever
// goroutine delivered the triggering entry (or the timeout).
func (g *Gate) Attach(source Source, fire func()) error {
	g.mu.Lock()
	if g.attached {
		g.mu.Unlock()
		return ErrAttached
	}
	g.attached = true
	g.fire = fire
	g.logger = logging.Component("visibility")
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	if g.Timeout > 0 {
		g.timer = time.AfterFunc(g.Timeout, func() { g.trigger("timeout", 0) })
	}
	g.mu.Unlock()

	unsubscribe := source.Subscribe(func(e Entry) {
		if e.Ratio >= g.threshold() {
			g.trigger("visible", e.Ratio)
		}
	})

	g.mu.Lock()
	if g.fired || g.closed {
		g.mu.Unlock()
		unsubscribe()
		return nil
	}
	g.unsubscribe = unsubscribe
	g.mu.Unlock()
	return nil
}

func (g *Gate) trigger(reason string, ratio float64) {
	g.mu.Lock()
	if g.fired || g.closed {
		g.mu.Unlock()
		return
	}
	g.fired = true
	g.entry = Entry{Ratio: ratio}
	g.timedOut = reason == "timeout"
	fire := g.fire
	g.mu.Unlock()

	g.release()
	g.logger.Debug().Str("reason", reason).Float64("ratio", ratio).Msg("gate triggered")
	if fire != nil {
		fire()
	}
}

// release drops the subscription and timer.
func (g *Gate) release() {
	g.mu.Lock()
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	timer := g.timer
	g.timer = nil
	g.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Fired reports whether the gate has fired.
func (g *Gate) Fired() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fired
}

// Outcome returns the entry that fired the gate and whether the timeout
// fired it instead.
func (g *Gate) Outcome() (Entry, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.entry, g.timedOut
}

// Close stops observing without firing. It is safe to call more than once
// and before Attach.
func (g *Gate) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	g.release()
}
