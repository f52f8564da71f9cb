package query

import (
	"context"
	"sync"
	"time"

	"github.com/welearn/scholarquery/internal/models"
	"github.com/welearn/scholarquery/internal/source"
)

// State is the orchestrator's lifecycle position. There is no cancelled
// state: a newer query simply supersedes an older one, and the older result
// is discarded when it finally resolves.
type State string

const (
	StateIdle     State = "idle"
	StateFetching State = "fetching"
	StateReady    State = "ready"
	StateFailed   State = "failed"
)

// ResultWindow is the snapshot handed to the rendering layer.
type ResultWindow struct {
	All          []models.Scholarship `json:"all"`
	Visible      []models.Scholarship `json:"visible"`
	VisibleCount int                  `json:"visibleCount"`
	HasMore      bool                 `json:"hasMore"`
}

// Orchestrator coordinates one view's query pipeline: it owns the cached
// full collection, runs filter/sort/paginate for list queries and
// aggregate/summarize for analytics, and enforces last-request-wins so a
// slow stale response never clobbers a newer fast one.
type Orchestrator struct {
	src      source.Source
	pipeline *Pipeline
	now      func() time.Time

	mu      sync.Mutex
	seq     uint64
	state   State
	all     []models.Scholarship // full collection, fetched once per mount
	fetched bool
	window  *Window
	lastErr error
}

// Option tweaks orchestrator construction.
type Option func(*Orchestrator)

// WithPageSize overrides the reveal increment.
func WithPageSize(n int) Option {
	return func(o *Orchestrator) { o.window = NewWindow(n) }
}

// WithClock injects a reference clock, for tests and reproducible charts.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithRegionIndex overrides the embedded region table.
func WithRegionIndex(idx *RegionIndex) Option {
	return func(o *Orchestrator) { o.pipeline = NewPipeline(o.src, idx, o.now) }
}

// NewOrchestrator wires the pipeline around a source.
func NewOrchestrator(src source.Source, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		src:    src,
		now:    time.Now,
		state:  StateIdle,
		window: NewWindow(DefaultPageSize),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.pipeline == nil {
		o.pipeline = NewPipeline(src, nil, o.now)
	}
	return o
}

// RunQuery executes one filter/sort run and installs the result, unless a
// newer run started in the meantime. On an unrecoverable fetch failure the
// previous result set stays visible and the error is returned.
func (o *Orchestrator) RunQuery(ctx context.Context, spec FilterSpec) (ResultWindow, error) {
	o.mu.Lock()
	o.seq++
	mySeq := o.seq
	o.state = StateFetching
	all := o.all
	haveAll := o.fetched
	o.mu.Unlock()

	if !haveAll {
		fetched, err := o.src.FetchAll(ctx)
		if err != nil {
			o.mu.Lock()
			defer o.mu.Unlock()
			if mySeq == o.seq {
				o.state = StateFailed
				o.lastErr = err
			}
			return o.snapshot(), err
		}
		all = dedupeByID(fetched)
		o.mu.Lock()
		if !o.fetched {
			o.all = all
			o.fetched = true
		} else {
			all = o.all
		}
		o.mu.Unlock()
	}

	filtered := o.pipeline.Filter(ctx, all, spec)
	sorted := SortRecords(filtered, spec.SortKey, spec.Direction)

	o.mu.Lock()
	defer o.mu.Unlock()
	if mySeq != o.seq {
		// A newer run superseded this one while it was in flight; discard.
		return o.snapshot(), nil
	}
	o.window.SetRecords(sorted)
	o.state = StateReady
	o.lastErr = nil
	return o.snapshot(), nil
}

// ShowMore reveals one more page of the current result set.
func (o *Orchestrator) ShowMore() ResultWindow {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.window.ShowMore()
	return o.snapshot()
}

// Reset collapses the reveal back to the first page without re-querying.
func (o *Orchestrator) Reset() ResultWindow {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.window.SetRecords(o.window.All())
	return o.snapshot()
}

// AggregatedSeries produces the chart series over the full collection.
func (o *Orchestrator) AggregatedSeries(ctx context.Context, tf Timeframe, start, end *time.Time) ([]AggregatedPoint, error) {
	all, err := o.ensureAll(ctx)
	if err != nil {
		return nil, err
	}
	return Aggregate(all, tf, start, end, o.now()), nil
}

// SummaryStats computes the dashboard counters against the given reference
// instant.
func (o *Orchestrator) SummaryStats(ctx context.Context, now time.Time) (Summary, error) {
	all, err := o.ensureAll(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(all, now), nil
}

// HasVariedCreationDates reports whether the collection has real temporal
// variance, so callers can tell synthesized chart history from measured
// history.
func (o *Orchestrator) HasVariedCreationDates(ctx context.Context) (bool, error) {
	all, err := o.ensureAll(ctx)
	if err != nil {
		return false, err
	}
	return HasVariedDates(all), nil
}

// CurrentState reports where the query lifecycle stands.
func (o *Orchestrator) CurrentState() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastError returns the failure that put the orchestrator into StateFailed,
// or nil.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// InvalidateCache drops the cached full collection so the next operation
// re-fetches it. Called after writes behind the source (seeding, imports).
func (o *Orchestrator) InvalidateCache() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.all = nil
	o.fetched = false
}

// ensureAll fetches and caches the full collection on first use.
func (o *Orchestrator) ensureAll(ctx context.Context) ([]models.Scholarship, error) {
	o.mu.Lock()
	if o.fetched {
		all := o.all
		o.mu.Unlock()
		return all, nil
	}
	o.mu.Unlock()

	fetched, err := o.src.FetchAll(ctx)
	if err != nil {
		o.mu.Lock()
		o.state = StateFailed
		o.lastErr = err
		o.mu.Unlock()
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.fetched {
		o.all = dedupeByID(fetched)
		o.fetched = true
	}
	return o.all, nil
}

// snapshot builds a ResultWindow from the active window. Caller holds mu.
func (o *Orchestrator) snapshot() ResultWindow {
	return ResultWindow{
		All:          o.window.All(),
		Visible:      o.window.Visible(),
		VisibleCount: o.window.VisibleCount(),
		HasMore:      o.window.HasMore(),
	}
}

// SearchSession feeds keystroke-level spec edits through a debouncer into the
// query pipeline. Rapid edits coalesce; each spec that survives the window
// runs one query, and the zero spec (a cleared search box) resets the result
// set without waiting out the window.
type SearchSession struct {
	orch     *Orchestrator
	debounce *Debouncer[FilterSpec]
	results  chan ResultWindow
	cancel   context.CancelFunc
}

// NewSearchSession starts a session over the orchestrator's pipeline. A
// non-positive window falls back to DefaultDebounceWindow. Close the session
// when the view unmounts.
func (o *Orchestrator) NewSearchSession(ctx context.Context, window time.Duration) *SearchSession {
	ctx, cancel := context.WithCancel(ctx)
	s := &SearchSession{
		orch:     o,
		debounce: NewDebouncer[FilterSpec](window),
		results:  make(chan ResultWindow, 1),
		cancel:   cancel,
	}
	go s.run(ctx)
	return s
}

// Input records one edit of the search controls.
func (s *SearchSession) Input(spec FilterSpec) {
	s.debounce.Input(spec)
}

// Results is the stream of windows for committed specs. Like the debouncer's
// output, a stale unread window is replaced rather than queued behind.
func (s *SearchSession) Results() <-chan ResultWindow {
	return s.results
}

// Close stops the session; uncommitted input is dropped.
func (s *SearchSession) Close() {
	s.debounce.Stop()
	s.cancel()
}

func (s *SearchSession) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case spec := <-s.debounce.Out():
			window, err := s.orch.RunQuery(ctx, spec)
			if err != nil {
				// The orchestrator already recorded Failed and kept the
				// last-known-good window; nothing new to deliver.
				continue
			}
			select {
			case s.results <- window:
			default:
				select {
				case <-s.results:
				default:
				}
				s.results <- window
			}
		}
	}
}
