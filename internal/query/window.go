package query

import "github.com/welearn/scholarquery/internal/models"

// DefaultPageSize matches the browse page's "show more" increment.
const DefaultPageSize = 10

// Window reveals a sorted, filtered result set in fixed-size increments.
// Any change to the underlying records resets the reveal; between resets the
// visible count only grows.
type Window struct {
	all      []models.Scholarship
	visible  int
	pageSize int
}

// NewWindow creates an empty window. A non-positive page size falls back to
// DefaultPageSize.
func NewWindow(pageSize int) *Window {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Window{pageSize: pageSize}
}

// SetRecords replaces the underlying result set and resets the reveal to one
// page, regardless of how far the previous set was expanded.
func (w *Window) SetRecords(records []models.Scholarship) {
	w.all = records
	w.visible = min(w.pageSize, len(records))
}

// ShowMore reveals one more page, capped at the full length.
func (w *Window) ShowMore() {
	w.visible = min(w.visible+w.pageSize, len(w.all))
}

// Visible returns the currently revealed prefix.
func (w *Window) Visible() []models.Scholarship {
	return w.all[:w.visible]
}

// All returns the full post-filter, post-sort set.
func (w *Window) All() []models.Scholarship {
	return w.all
}

// VisibleCount reports how many records are revealed.
func (w *Window) VisibleCount() int {
	return w.visible
}

// HasMore reports whether another ShowMore would reveal anything.
func (w *Window) HasMore() bool {
	return w.visible < len(w.all)
}
