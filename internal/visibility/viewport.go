package visibility

import (
	"sync"

	"github.com/charmbracelet/bubbles/viewport"
)

// Viewport tracks how much of a line range is visible inside a scrolling
// viewport and publishes entries when that changes.
type Viewport struct {
	mu       sync.Mutex
	start    int
	end      int
	offset   int
	height   int
	known    bool
	last     float64
	nextID   int
	watchers map[int]func(Entry)
}

// NewViewport tracks lines [start, end) of the viewport content.
func NewViewport(start, end int) *Viewport {
	v := &Viewport{watchers: make(map[int]func(Entry))}
	v.start, v.end = normalizeRange(start, end)
	return v
}

func normalizeRange(start, end int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}
	return start, end
}

// Ratio returns the visible fraction of lines [start, end) for a window
// showing height lines from offset.
func Ratio(start, end, offset, height int) float64 {
	start, end = normalizeRange(start, end)
	if end == start || height <= 0 {
		return 0
	}
	top := max(start, offset)
	bottom := min(end, offset+height)
	if bottom <= top {
		return 0
	}
	return float64(bottom-top) / float64(end-start)
}

// Subscribe implements Source. The current entry is delivered immediately
// once the viewport has been measured.
func (v *Viewport) Subscribe(fn func(Entry)) func() {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.watchers[id] = fn
	known, ratio := v.known, v.last
	v.mu.Unlock()

	if known {
		fn(Entry{Ratio: ratio})
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.watchers, id)
			v.mu.Unlock()
		})
	}
}

// SetTarget moves the tracked line range, for example after a re-layout.
func (v *Viewport) SetTarget(start, end int) {
	v.mu.Lock()
	v.start, v.end = normalizeRange(start, end)
	v.mu.Unlock()
	v.publish()
}

// Update records the window position and publishes a changed ratio.
func (v *Viewport) Update(offset, height int) {
	v.mu.Lock()
	v.offset, v.height = offset, height
	v.mu.Unlock()
	v.publish()
}

// Observe reads the position of a bubbles viewport.
func (v *Viewport) Observe(m viewport.Model) {
	v.Update(m.YOffset, m.Height)
}

// Watchers returns the number of live subscriptions.
func (v *Viewport) Watchers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.watchers)
}

func (v *Viewport) publish() {
	v.mu.Lock()
	ratio := Ratio(v.start, v.end, v.offset, v.height)
	if v.known && ratio == v.last {
		v.mu.Unlock()
		return
	}
	v.known = true
	v.last = ratio
	fns := make([]func(Entry), 0, len(v.watchers))
	for _, fn := range v.watchers {
		fns = append(fns, fn)
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn(Entry{Ratio: ratio})
	}
}
