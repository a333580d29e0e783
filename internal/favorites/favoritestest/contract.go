// Package favoritestest holds the behavioral contract every favorites.Backing
// must satisfy.
package favoritestest

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pokedex/internal/domain"
	"pokedex/internal/favorites"
)

// BackingSuite runs the favorites contract against the backing returned by
// NewBacking, which is called once per test and must return an empty backing.
type BackingSuite struct {
	suite.Suite

	NewBacking func(t *testing.T) favorites.Backing

	ctx     context.Context
	backing favorites.Backing
	base    time.Time
}

func (s *BackingSuite) SetupTest() {
	s.Require().NotNil(s.NewBacking, "NewBacking must be set")
	s.ctx = context.Background()
	s.backing = s.NewBacking(s.T())
	s.base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (s *BackingSuite) record(id int64, name string, offset time.Duration) domain.FavoriteRecord {
	return domain.FavoriteRecord{
		ID:        id,
		Name:      name,
		ImageURL:  "https://img.test/" + name + ".png",
		CreatedAt: s.base.Add(offset),
	}
}

func (s *BackingSuite) ids() []int64 {
	records, err := s.backing.List(s.ctx)
	s.Require().NoError(err)

	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func (s *BackingSuite) TestContract_EmptyList() {
	records, err := s.backing.List(s.ctx)
	s.NoError(err)
	s.Empty(records)
}

func (s *BackingSuite) TestContract_AddIsIdempotent() {
	rec := s.record(1, "bulbasaur", 0)

	added, err := s.backing.Add(s.ctx, rec)
	s.Require().NoError(err)
	s.True(added)

	added, err = s.backing.Add(s.ctx, s.record(1, "bulbasaur-again", time.Minute))
	s.Require().NoError(err)
	s.False(added)

	records, err := s.backing.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(int64(1), records[0].ID)
	s.Equal("bulbasaur", records[0].Name)
	s.Equal(rec.ImageURL, records[0].ImageURL)
}

func (s *BackingSuite) TestContract_RemoveIsIdempotent() {
	_, err := s.backing.Add(s.ctx, s.record(1, "bulbasaur", 0))
	s.Require().NoError(err)

	removed, err := s.backing.Remove(s.ctx, 1)
	s.Require().NoError(err)
	s.True(removed)

	removed, err = s.backing.Remove(s.ctx, 1)
	s.Require().NoError(err)
	s.False(removed)

	removed, err = s.backing.Remove(s.ctx, 404)
	s.Require().NoError(err)
	s.False(removed)

	s.Empty(s.ids())
}

func (s *BackingSuite) TestContract_NewestFirst() {
	_, err := s.backing.Add(s.ctx, s.record(1, "a", 0))
	s.Require().NoError(err)
	_, err = s.backing.Add(s.ctx, s.record(2, "b", time.Second))
	s.Require().NoError(err)

	s.Equal([]int64{2, 1}, s.ids())
}

func (s *BackingSuite) TestContract_ReAddMovesToFront() {
	for i, id := range []int64{1, 2, 3} {
		_, err := s.backing.Add(s.ctx, s.record(id, "mon", time.Duration(i)*time.Second))
		s.Require().NoError(err)
	}

	_, err := s.backing.Remove(s.ctx, 1)
	s.Require().NoError(err)
	_, err = s.backing.Add(s.ctx, s.record(1, "mon", time.Minute))
	s.Require().NoError(err)

	s.Equal([]int64{1, 3, 2}, s.ids())
}

func (s *BackingSuite) TestContract_IsFavorited() {
	ok, err := s.backing.IsFavorited(s.ctx, 7)
	s.Require().NoError(err)
	s.False(ok)

	_, err = s.backing.Add(s.ctx, s.record(7, "squirtle", 0))
	s.Require().NoError(err)

	ok, err = s.backing.IsFavorited(s.ctx, 7)
	s.Require().NoError(err)
	s.True(ok)

	_, err = s.backing.Remove(s.ctx, 7)
	s.Require().NoError(err)

	ok, err = s.backing.IsFavorited(s.ctx, 7)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *BackingSuite) TestContract_ThroughStore() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := favorites.NewStore(s.backing, nil, logger)

	a := domain.ListEntry{ID: 10, Name: "a"}
	b := domain.ListEntry{ID: 20, Name: "b"}

	s.Require().NoError(store.Add(s.ctx, a))
	s.Require().NoError(store.Add(s.ctx, a))
	s.Require().NoError(store.Add(s.ctx, b))

	records, err := store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal(int64(20), records[0].ID)
	s.Equal(int64(10), records[1].ID)

	s.Require().NoError(store.Remove(s.ctx, 10))
	s.Require().NoError(store.Remove(s.ctx, 10))

	ok, err := store.IsFavorited(s.ctx, 10)
	s.Require().NoError(err)
	s.False(ok)
	s.Equal([]int64{20}, s.ids())
}
