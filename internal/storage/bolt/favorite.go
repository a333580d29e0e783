package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"pokedex/internal/domain"
)

const (
	bucketFavorites = "favorites"
	keyFavorites    = "favorites-storage" // key: single JSON record holding the whole list
)

// ErrNotLoaded is returned by every operation issued before Load.
var ErrNotLoaded = errors.New("favorites not loaded")

type persistedFavorites struct {
	Favorites []domain.FavoriteRecord `json:"favorites"`
}

// Open opens (creating if needed) the bbolt file at path.
func Open(path string) (*bbolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketFavorites))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return db, nil
}

// FavoriteStore keeps favorites in memory, newest first, and mirrors every
// change to one named bbolt record.
type FavoriteStore struct {
	db     *bbolt.DB
	logger *slog.Logger

	mu      sync.Mutex
	loaded  bool
	records []domain.FavoriteRecord
	index   map[int64]struct{}
}

func NewFavoriteStore(db *bbolt.DB, logger *slog.Logger) *FavoriteStore {
	return &FavoriteStore{
		db:     db,
		logger: logger.With("component", "favorites_local"),
		index:  make(map[int64]struct{}),
	}
}

// Load rehydrates the in-memory set from storage. Duplicate ids keep their
// first occurrence. An undecodable record resets the set to empty.
func (s *FavoriteStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketFavorites))
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(keyFavorites)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("read favorites: %w", err)
	}

	var stored persistedFavorites
	rewrite := false

	if raw != nil {
		if err := json.Unmarshal(raw, &stored); err != nil {
			corruption := &domain.StorageCorruptionError{Key: keyFavorites, Err: err}
			s.logger.Warn("resetting corrupted favorites", "error", corruption)
			stored = persistedFavorites{}
			rewrite = true
		}
	}

	records := make([]domain.FavoriteRecord, 0, len(stored.Favorites))
	index := make(map[int64]struct{}, len(stored.Favorites))
	for _, r := range stored.Favorites {
		if r.ID <= 0 {
			rewrite = true
			continue
		}
		if _, dup := index[r.ID]; dup {
			rewrite = true
			continue
		}
		index[r.ID] = struct{}{}
		records = append(records, r)
	}

	if dropped := len(stored.Favorites) - len(records); dropped > 0 {
		s.logger.Warn("dropped invalid or duplicate favorites", "count", dropped)
	}

	if rewrite {
		if err := s.persist(records); err != nil {
			return fmt.Errorf("rewrite favorites: %w", err)
		}
	}

	s.records = records
	s.index = index
	s.loaded = true

	s.logger.Debug("favorites rehydrated", "count", len(records))

	return nil
}

func (s *FavoriteStore) List(ctx context.Context) ([]domain.FavoriteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return nil, ErrNotLoaded
	}

	out := make([]domain.FavoriteRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *FavoriteStore) Add(ctx context.Context, rec domain.FavoriteRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return false, ErrNotLoaded
	}
	if _, ok := s.index[rec.ID]; ok {
		return false, nil
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	next := make([]domain.FavoriteRecord, 0, len(s.records)+1)
	next = append(next, rec)
	next = append(next, s.records...)

	if err := s.persist(next); err != nil {
		return false, err
	}

	s.records = next
	s.index[rec.ID] = struct{}{}
	return true, nil
}

func (s *FavoriteStore) Remove(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return false, ErrNotLoaded
	}
	if _, ok := s.index[id]; !ok {
		return false, nil
	}

	next := make([]domain.FavoriteRecord, 0, len(s.records))
	for _, r := range s.records {
		if r.ID != id {
			next = append(next, r)
		}
	}

	if err := s.persist(next); err != nil {
		return false, err
	}

	s.records = next
	delete(s.index, id)
	return true, nil
}

func (s *FavoriteStore) IsFavorited(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return false, ErrNotLoaded
	}
	_, ok := s.index[id]
	return ok, nil
}

func (s *FavoriteStore) persist(records []domain.FavoriteRecord) error {
	data, err := json.Marshal(persistedFavorites{Favorites: records})
	if err != nil {
		return fmt.Errorf("marshal favorites: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucketFavorites))
		if err != nil {
			return err
		}
		return b.Put([]byte(keyFavorites), data)
	})
}
