// Package favorites exposes one favorites contract over interchangeable
// backings. Which Backing is live is decided by the caller that builds the
// Store; nothing in this package branches on it.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pokedex/internal/domain"
)

// ErrToggleInFlight is returned by Toggle while another toggle for the same id
// has not finished.
var ErrToggleInFlight = errors.New("favorite toggle already in flight")

type Store struct {
	backing  Backing
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	snapshot []domain.FavoriteRecord
	inFlight map[int64]struct{}
}

// NewStore builds a Store over backing. notifier may be nil.
func NewStore(backing Backing, notifier Notifier, logger *slog.Logger) *Store {
	return &Store{
		backing:  backing,
		notifier: notifier,
		logger:   logger.With("component", "favorites"),
		now:      time.Now,
		inFlight: make(map[int64]struct{}),
	}
}

// List returns all favorites, newest first, and refreshes the snapshot.
func (s *Store) List(ctx context.Context) ([]domain.FavoriteRecord, error) {
	records, err := s.backing.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	s.mu.Lock()
	s.snapshot = cloneRecords(records)
	s.mu.Unlock()

	return records, nil
}

// Refresh reloads the snapshot from the backing.
func (s *Store) Refresh(ctx context.Context) error {
	records, err := s.List(ctx)
	if err != nil {
		return err
	}
	s.logger.Debug("favorites refreshed", "count", len(records))
	return nil
}

// Add favorites entry. Adding an id that is already favorited does nothing.
func (s *Store) Add(ctx context.Context, entry domain.ListEntry) error {
	rec := domain.NewFavoriteRecord(entry, s.now().UTC())

	added, err := s.backing.Add(ctx, rec)
	if err != nil {
		return fmt.Errorf("add favorite %d: %w", entry.ID, err)
	}
	if !added {
		s.logger.Debug("favorite already present", "id", entry.ID)
		return nil
	}

	s.mu.Lock()
	s.snapshot = append([]domain.FavoriteRecord{rec}, withoutID(s.snapshot, rec.ID)...)
	s.mu.Unlock()

	s.logger.Info("favorite added", "id", rec.ID, "name", rec.Name)
	s.publish(ctx, domain.FavoriteEvent{Action: domain.FavoriteAdded, Favorite: rec})

	return nil
}

// Remove unfavorites id. Removing an absent id does nothing.
func (s *Store) Remove(ctx context.Context, id int64) error {
	removed, err := s.backing.Remove(ctx, id)
	if err != nil {
		return fmt.Errorf("remove favorite %d: %w", id, err)
	}
	if !removed {
		s.logger.Debug("favorite already absent", "id", id)
		return nil
	}

	s.mu.Lock()
	rec := domain.FavoriteRecord{ID: id}
	for _, r := range s.snapshot {
		if r.ID == id {
			rec = r
			break
		}
	}
	s.snapshot = withoutID(s.snapshot, id)
	s.mu.Unlock()

	s.logger.Info("favorite removed", "id", id)
	s.publish(ctx, domain.FavoriteEvent{Action: domain.FavoriteRemoved, Favorite: rec})

	return nil
}

func (s *Store) IsFavorited(ctx context.Context, id int64) (bool, error) {
	ok, err := s.backing.IsFavorited(ctx, id)
	if err != nil {
		return false, fmt.Errorf("check favorite %d: %w", id, err)
	}
	return ok, nil
}

// Toggle flips the favorite state of entry and returns the new state.
// Toggles for the same id are serialized: a toggle issued while another one
// for that id is running fails with ErrToggleInFlight.
func (s *Store) Toggle(ctx context.Context, entry domain.ListEntry) (bool, error) {
	s.mu.Lock()
	if _, busy := s.inFlight[entry.ID]; busy {
		s.mu.Unlock()
		return false, ErrToggleInFlight
	}
	s.inFlight[entry.ID] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, entry.ID)
		s.mu.Unlock()
	}()

	favorited, err := s.IsFavorited(ctx, entry.ID)
	if err != nil {
		return false, err
	}

	if favorited {
		if err := s.Remove(ctx, entry.ID); err != nil {
			return true, err
		}
		return false, nil
	}

	if err := s.Add(ctx, entry); err != nil {
		return false, err
	}
	return true, nil
}

// Favorites returns the last known favorites without touching the backing.
func (s *Store) Favorites() []domain.FavoriteRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecords(s.snapshot)
}

// Has reports whether id is in the last known snapshot.
func (s *Store) Has(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.snapshot {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) publish(ctx context.Context, event domain.FavoriteEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishFavorite(ctx, event); err != nil {
		s.logger.Error("failed to publish favorite event",
			"id", event.Favorite.ID,
			"action", event.Action,
			"error", err,
		)
	}
}

func withoutID(records []domain.FavoriteRecord, id int64) []domain.FavoriteRecord {
	out := make([]domain.FavoriteRecord, 0, len(records))
	for _, r := range records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

func cloneRecords(records []domain.FavoriteRecord) []domain.FavoriteRecord {
	if len(records) == 0 {
		return nil
	}
	dup := make([]domain.FavoriteRecord, len(records))
	copy(dup, records)
	return dup
}
