package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"pokedex/internal/domain"
)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateLoadingMore
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateLoadingMore:
		return "loading_more"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshot is a copy of the list state handed to the renderer.
type Snapshot struct {
	Entries []domain.ListEntry
	State   State
	Err     string
	HasMore bool
	Total   int
}

func (s Snapshot) IsLoading() bool {
	return s.State == StateLoading
}

func (s Snapshot) IsLoadingMore() bool {
	return s.State == StateLoadingMore
}

// List accumulates pages fetched from a PageFetcher. The first page replaces
// the list, later pages append to it. At most one page request is in flight.
type List struct {
	fetcher PageFetcher
	logger  *slog.Logger

	mu       sync.Mutex
	state    State
	entries  []domain.ListEntry
	seen     map[int64]struct{}
	cursor   domain.Cursor
	total    int
	lastErr  string
	inFlight bool
	session  uint64
}

func NewList(fetcher PageFetcher, logger *slog.Logger) *List {
	return &List{
		fetcher: fetcher,
		logger:  logger.With("component", "catalog"),
		seen:    make(map[int64]struct{}),
	}
}

// Load fetches the first page and replaces the accumulated list. A page
// request from an earlier session that lands afterwards is discarded.
func (l *List) Load(ctx context.Context) error {
	l.mu.Lock()
	l.session++
	session := l.session
	l.state = StateLoading
	l.inFlight = true
	l.mu.Unlock()

	page, err := l.fetcher.FetchPage(ctx, l.fetcher.FirstCursor())

	l.mu.Lock()
	defer l.mu.Unlock()

	if session != l.session {
		l.logger.Debug("discarding superseded first page")
		return nil
	}
	l.inFlight = false

	if err != nil {
		l.fail(err)
		return fmt.Errorf("load first page: %w", err)
	}

	l.entries = nil
	l.seen = make(map[int64]struct{}, len(page.Entries))
	added := l.appendUnique(page.Entries)
	l.advance(page)

	l.logger.Debug("loaded first page",
		"entries", added,
		"total", l.total,
		"has_more", !l.cursor.Done(),
	)

	return nil
}

// Refresh reloads the list from the first page.
func (l *List) Refresh(ctx context.Context) error {
	return l.Load(ctx)
}

// LoadMore fetches the next page and appends it. It does nothing when there
// are no more pages or when a page request is already in flight.
func (l *List) LoadMore(ctx context.Context) error {
	l.mu.Lock()
	if l.inFlight || l.cursor.Done() {
		l.mu.Unlock()
		return nil
	}
	session := l.session
	cursor := l.cursor
	l.state = StateLoadingMore
	l.inFlight = true
	l.mu.Unlock()

	page, err := l.fetcher.FetchPage(ctx, cursor)

	l.mu.Lock()
	defer l.mu.Unlock()

	if session != l.session {
		l.logger.Debug("discarding page from previous session")
		return nil
	}
	l.inFlight = false

	if err != nil {
		l.fail(err)
		return fmt.Errorf("load more: %w", err)
	}

	added := l.appendUnique(page.Entries)
	if skipped := len(page.Entries) - added; skipped > 0 {
		l.logger.Warn("dropped duplicate entries", "count", skipped)
	}
	l.advance(page)

	l.logger.Debug("appended page",
		"entries", added,
		"accumulated", len(l.entries),
		"has_more", !l.cursor.Done(),
	)

	return nil
}

// Snapshot returns a copy of the current state.
func (l *List) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Snapshot{
		Entries: l.copyEntries(),
		State:   l.state,
		Err:     l.lastErr,
		HasMore: !l.cursor.Done(),
		Total:   l.total,
	}
}

// Entries returns a copy of the accumulated entries.
func (l *List) Entries() []domain.ListEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.copyEntries()
}

func (l *List) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *List) fail(err error) {
	l.state = StateError
	l.lastErr = err.Error()
	l.logger.Error("page fetch failed",
		"accumulated", len(l.entries),
		"error", err,
	)
}

func (l *List) advance(page *domain.Page) {
	l.cursor = page.Next
	if page.Total > 0 {
		l.total = page.Total
	}
	l.lastErr = ""
	l.state = StateReady
}

// appendUnique appends entries whose id is not present yet, keeping the first
// occurrence. It returns the number appended.
func (l *List) appendUnique(entries []domain.ListEntry) int {
	added := 0
	for _, e := range entries {
		if _, ok := l.seen[e.ID]; ok {
			continue
		}
		l.seen[e.ID] = struct{}{}
		l.entries = append(l.entries, e)
		added++
	}
	return added
}

func (l *List) copyEntries() []domain.ListEntry {
	if len(l.entries) == 0 {
		return nil
	}
	dup := make([]domain.ListEntry, len(l.entries))
	copy(dup, l.entries)
	return dup
}
