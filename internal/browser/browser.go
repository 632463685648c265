// Package browser holds one user's browsing session: the composed view,
// the current selection, and the filtered view derived from both.
package browser

import (
	"log/slog"
	"sync"

	"github.com/Dainanahan/drugtree/internal/filter"
	"github.com/Dainanahan/drugtree/internal/hierarchy"
	"github.com/Dainanahan/drugtree/pkg/core"
)

// DefaultPageSize is the table page size used when none is configured.
const DefaultPageSize = 10

// Result is the outcome of one selection event.
type Result struct {
	Seq       uint64
	Selection core.Selection
	View      *core.View
}

// Browser applies selection events to a composed view. Every event
// replaces the selection wholesale and recomputes the filtered view from
// scratch. Events are numbered; a result is only published if no newer
// event has been published first.
type Browser struct {
	mu       sync.RWMutex
	composed *core.View
	current  Result
	next     uint64
	pageSize int
	logger   *slog.Logger
}

// Option configures a Browser.
type Option func(*Browser)

// WithPageSize sets the page size used by Page when no size is given.
func WithPageSize(n int) Option {
	return func(b *Browser) {
		if n > 0 {
			b.pageSize = n
		}
	}
}

// WithLogger sets the logger used for event tracing.
func WithLogger(l *slog.Logger) Option {
	return func(b *Browser) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a Browser over a composed view in the Unconstrained state.
func New(composed *core.View, opts ...Option) *Browser {
	b := &Browser{
		composed: composed,
		pageSize: DefaultPageSize,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.current = Result{Selection: core.Selection{}, View: composed}
	return b
}

// Select handles one "hierarchy node selected" event.
func (b *Browser) Select(sel core.Selection) Result {
	b.mu.Lock()
	b.next++
	seq := b.next
	composed := b.composed
	b.mu.Unlock()

	sel = sel.Clone()
	res := Result{Seq: seq, Selection: sel, View: filter.Apply(composed, sel)}

	b.mu.Lock()
	defer b.mu.Unlock()
	if seq < b.current.Seq {
		b.logger.Debug("dropping stale selection", slog.Uint64("seq", seq), slog.Uint64("current", b.current.Seq))
		return b.current
	}
	if composed != b.composed {
		// data reloaded while filtering; recompute against the new view
		res.View = filter.Apply(b.composed, sel)
	}
	b.current = res
	b.logger.Debug("selection applied",
		slog.Uint64("seq", seq),
		slog.String("selection", sel.String()),
		slog.Int("rows", res.View.Len()))
	return res
}

// Reload swaps in a freshly composed view and re-applies the current
// selection to it. Reload is not an event and keeps the current sequence
// number, so a selection still in flight is published against the new view.
func (b *Browser) Reload(composed *core.View) Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.composed = composed
	b.current = Result{
		Seq:       b.current.Seq,
		Selection: b.current.Selection,
		View:      filter.Apply(composed, b.current.Selection),
	}
	b.logger.Debug("view reloaded", slog.Int("rows", composed.Len()), slog.Int("filtered", b.current.View.Len()))
	return b.current
}

// Current returns the last published result.
func (b *Browser) Current() Result {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Composed returns the unfiltered view.
func (b *Browser) Composed() *core.View {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.composed
}

// PageSize returns the configured page size.
func (b *Browser) PageSize() int {
	return b.pageSize
}

// Page returns page n of the current filtered view. A size of 0 uses the
// configured page size.
func (b *Browser) Page(n, size int) core.Page {
	if size <= 0 {
		size = b.pageSize
	}
	return b.Current().View.Page(n, size)
}

// Hierarchy builds the browsing tree over the composed view.
func (b *Browser) Hierarchy(levels []core.Level) ([]*hierarchy.Node, error) {
	return hierarchy.Build(b.Composed(), levels)
}
