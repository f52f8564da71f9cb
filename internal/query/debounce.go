package query

import (
	"sync"
	"time"
)

// DefaultDebounceWindow is what the search boxes use.
const DefaultDebounceWindow = 600 * time.Millisecond

// Debouncer coalesces a fast stream of values into a slower stream of
// committed ones. Each Input restarts the window; only a value that survives
// the full window uninterrupted is emitted. The zero value of T is treated as
// an explicit clear and bypasses the window so downstream filters reset
// immediately.
type Debouncer[T comparable] struct {
	window time.Duration

	mu    sync.Mutex
	timer *time.Timer
	out   chan T
	done  chan struct{}
}

// NewDebouncer creates a debouncer with the given window. A non-positive
// window falls back to DefaultDebounceWindow.
func NewDebouncer[T comparable](window time.Duration) *Debouncer[T] {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer[T]{
		window: window,
		out:    make(chan T, 1),
		done:   make(chan struct{}),
	}
}

// Input feeds a new value. A pending emission for a superseded value is
// cancelled; it will never reach the output channel.
func (d *Debouncer[T]) Input(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	var zero T
	if v == zero {
		d.emit(v)
		return
	}

	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.timer = nil
		d.emit(v)
	})
}

// emit delivers v unless the debouncer is stopped. Called with mu held; the
// output channel is buffered so an attentive consumer never blocks us, and a
// stale buffered value is replaced rather than queued behind.
func (d *Debouncer[T]) emit(v T) {
	select {
	case <-d.done:
		return
	default:
	}
	select {
	case d.out <- v:
	default:
		select {
		case <-d.out:
		default:
		}
		d.out <- v
	}
}

// Out is the committed-value stream.
func (d *Debouncer[T]) Out() <-chan T {
	return d.out
}

// Stop cancels any pending emission. The output channel is not closed;
// readers simply stop receiving.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	select {
	case <-d.done:
	default:
		close(d.done)
	}
}
