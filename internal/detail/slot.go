// Package detail holds the on-demand detail view state. Each Slot surfaces
// only the outcome of its most recent Show call.
package detail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"pokedex/internal/domain"
	"pokedex/internal/latest"
)

type Fetcher interface {
	FetchDetail(ctx context.Context, id int64) (*domain.DetailEntry, error)
}

// State is a copy of the slot handed to the renderer.
type State struct {
	ID       int64
	Entry    *domain.DetailEntry
	Loading  bool
	Err      string
	NotFound bool
}

type Slot struct {
	fetcher Fetcher
	logger  *slog.Logger
	gen     latest.Slot

	mu    sync.Mutex
	state State
}

func NewSlot(fetcher Fetcher, logger *slog.Logger) *Slot {
	return &Slot{
		fetcher: fetcher,
		logger:  logger.With("component", "detail"),
	}
}

// Show fetches id and, unless a newer Show started meanwhile, publishes the
// outcome to the slot. It returns the fetch outcome either way; callers that
// only render should read State instead.
func (s *Slot) Show(ctx context.Context, id int64) (*domain.DetailEntry, error) {
	s.mu.Lock()
	tok := s.gen.Begin()
	s.state = State{ID: id, Loading: true}
	s.mu.Unlock()

	entry, err := s.fetcher.FetchDetail(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.gen.Current(tok) {
		s.logger.Debug("discarding superseded detail", "id", id)
		return entry, err
	}

	if err != nil {
		s.state = State{
			ID:       id,
			Err:      Message(err),
			NotFound: domain.IsNotFound(err),
		}
		s.logger.Warn("detail fetch failed", "id", id, "error", err)
		return nil, err
	}

	s.state = State{ID: id, Entry: entry}
	return entry, nil
}

// Clear drops the current state and any outstanding request.
func (s *Slot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen.Invalidate()
	s.state = State{}
}

func (s *Slot) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Message renders err for display.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}

	var ne *domain.NetworkError
	if errors.As(err, &ne) && ne.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d", ne.StatusCode)
	}

	return err.Error()
}
