package bolt

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.etcd.io/bbolt"

	"pokedex/internal/domain"
	"pokedex/internal/favorites"
	"pokedex/internal/favorites/favoritestest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestDB(t *testing.T) (*bbolt.DB, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "favorites.bolt")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db, path
}

func writeRaw(t *testing.T, db *bbolt.DB, value []byte) {
	t.Helper()

	err := db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketFavorites)).Put([]byte(keyFavorites), value)
	})
	require.NoError(t, err)
}

func readRaw(t *testing.T, db *bbolt.DB) persistedFavorites {
	t.Helper()

	var stored persistedFavorites
	err := db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketFavorites)).Get([]byte(keyFavorites))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &stored)
	})
	require.NoError(t, err)
	return stored
}

func TestFavoriteStore_Contract(t *testing.T) {
	suite.Run(t, &favoritestest.BackingSuite{
		NewBacking: func(t *testing.T) favorites.Backing {
			db, _ := openTestDB(t)
			store := NewFavoriteStore(db, discardLogger())
			require.NoError(t, store.Load(context.Background()))
			return store
		},
	})
}

func TestFavoriteStore_NotLoaded(t *testing.T) {
	db, _ := openTestDB(t)
	store := NewFavoriteStore(db, discardLogger())
	ctx := context.Background()

	_, err := store.List(ctx)
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, err = store.Add(ctx, domain.FavoriteRecord{ID: 1})
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, err = store.Remove(ctx, 1)
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, err = store.IsFavorited(ctx, 1)
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestFavoriteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "favorites.bolt")

	db, err := Open(path)
	require.NoError(t, err)

	store := NewFavoriteStore(db, discardLogger())
	require.NoError(t, store.Load(ctx))

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	_, err = store.Add(ctx, domain.FavoriteRecord{ID: 1, Name: "bulbasaur", ImageURL: "u1", CreatedAt: created})
	require.NoError(t, err)
	_, err = store.Add(ctx, domain.FavoriteRecord{ID: 4, Name: "charmander", ImageURL: "u4", CreatedAt: created.Add(time.Hour)})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	reopened := NewFavoriteStore(db, discardLogger())
	require.NoError(t, reopened.Load(ctx))

	records, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(4), records[0].ID)
	assert.Equal(t, "charmander", records[0].Name)
	assert.True(t, created.Add(time.Hour).Equal(records[0].CreatedAt))
	assert.Equal(t, int64(1), records[1].ID)
}

func TestFavoriteStore_RehydrationDedupKeepsFirst(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	writeRaw(t, db, []byte(`{"favorites":[
		{"id":25,"name":"pikachu","imageUrl":"first"},
		{"id":1,"name":"bulbasaur","imageUrl":"b"},
		{"id":25,"name":"pikachu","imageUrl":"second"}
	]}`))

	store := NewFavoriteStore(db, discardLogger())
	require.NoError(t, store.Load(ctx))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(25), records[0].ID)
	assert.Equal(t, "first", records[0].ImageURL)
	assert.Equal(t, int64(1), records[1].ID)

	stored := readRaw(t, db)
	assert.Len(t, stored.Favorites, 2)
}

func TestFavoriteStore_CorruptedRecordResetsToEmpty(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	writeRaw(t, db, []byte(`{"favorites": "not-a-list"`))

	store := NewFavoriteStore(db, discardLogger())
	require.NoError(t, store.Load(ctx))

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, readRaw(t, db).Favorites)

	added, err := store.Add(ctx, domain.FavoriteRecord{ID: 7, Name: "squirtle"})
	require.NoError(t, err)
	assert.True(t, added)
}

func TestFavoriteStore_DropsInvalidIDs(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	writeRaw(t, db, []byte(`{"favorites":[{"id":0,"name":"ghost"},{"id":7,"name":"squirtle"}]}`))

	store := NewFavoriteStore(db, discardLogger())
	require.NoError(t, store.Load(ctx))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(7), records[0].ID)
}

func TestFavoriteStore_StampsMissingCreatedAt(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	store := NewFavoriteStore(db, discardLogger())
	require.NoError(t, store.Load(ctx))

	_, err := store.Add(ctx, domain.FavoriteRecord{ID: 1, Name: "bulbasaur"})
	require.NoError(t, err)

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.False(t, records[0].CreatedAt.IsZero())
}

func TestFavoriteStore_FailedWriteLeavesStateUnchanged(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	store := NewFavoriteStore(db, discardLogger())
	require.NoError(t, store.Load(ctx))

	_, err := store.Add(ctx, domain.FavoriteRecord{ID: 1, Name: "bulbasaur"})
	require.NoError(t, err)

	require.NoError(t, db.Close())

	_, err = store.Add(ctx, domain.FavoriteRecord{ID: 2, Name: "ivysaur"})
	assert.Error(t, err)
	_, err = store.Remove(ctx, 1)
	assert.Error(t, err)

	ok, err := store.IsFavorited(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.IsFavorited(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}
