package search

import (
	"sync"
	"time"

	"pokedex/internal/domain"
	"pokedex/internal/latest"
)

// DefaultWindow is the quiescence window applied after the last query change.
const DefaultWindow = 250 * time.Millisecond

// ResultFunc receives the settled query and its filtered entries.
type ResultFunc func(query string, entries []domain.ListEntry)

// Debouncer re-evaluates Filter once the query has been stable for the
// window. Superseded evaluations are dropped.
type Debouncer struct {
	window   time.Duration
	source   func() []domain.ListEntry
	onResult ResultFunc

	slot latest.Slot

	mu      sync.Mutex
	timer   *time.Timer
	pending string
}

// NewDebouncer builds a Debouncer reading entries from source on every
// evaluation. A non-positive window means DefaultWindow.
func NewDebouncer(window time.Duration, source func() []domain.ListEntry, onResult ResultFunc) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{
		window:   window,
		source:   source,
		onResult: onResult,
	}
}

// SetQuery records a new query and restarts the quiescence window.
func (d *Debouncer) SetQuery(query string) {
	tok := d.slot.Begin()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = query
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.evaluate(tok, query)
	})
}

// Flush evaluates the pending query now.
func (d *Debouncer) Flush() {
	tok := d.slot.Begin()

	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	query := d.pending
	d.mu.Unlock()

	d.evaluate(tok, query)
}

// Stop cancels any pending evaluation.
func (d *Debouncer) Stop() {
	d.slot.Invalidate()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Query returns the most recently set query.
func (d *Debouncer) Query() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer) evaluate(tok latest.Token, query string) {
	if !d.slot.Current(tok) {
		return
	}

	result := Filter(d.source(), query)

	if !d.slot.Current(tok) {
		return
	}
	d.onResult(query, result)
}
