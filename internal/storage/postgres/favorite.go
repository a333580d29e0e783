package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"pokedex/internal/domain"
)

// FavoriteStore is the remote favorites backing. The favorites table carries a
// unique index on creature_id; inserts look the id up first and report the
// existing row instead of inserting a second one.
type FavoriteStore struct {
	db *sqlx.DB
	tm *TransactionManager
}

func NewFavoriteStore(db *sqlx.DB) *FavoriteStore {
	return &FavoriteStore{db: db, tm: NewTransactionManager(db)}
}

func (s *FavoriteStore) List(ctx context.Context) ([]domain.FavoriteRecord, error) {
	query := `
		SELECT creature_id, name, image_url, created_at
		FROM favorites
		ORDER BY created_at DESC, id DESC`

	records := []domain.FavoriteRecord{}
	if err := s.db.SelectContext(ctx, &records, query); err != nil {
		return nil, err
	}
	return records, nil
}

// InsertIfAbsent inserts rec unless its creature id is already stored. It
// returns the row id of the stored record and whether this call inserted it.
func (s *FavoriteStore) InsertIfAbsent(ctx context.Context, rec domain.FavoriteRecord) (int64, bool, error) {
	var (
		rowID    int64
		inserted bool
	)

	err := s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		exec := GetExecutor(ctx, s.db)

		existing, err := lookup(ctx, exec, rec.ID)
		if err != nil {
			return err
		}
		if existing != 0 {
			rowID = existing
			return nil
		}

		createdAt := sql.NullTime{Time: rec.CreatedAt, Valid: !rec.CreatedAt.IsZero()}

		query := `
			INSERT INTO favorites (creature_id, name, image_url, created_at)
			VALUES ($1, $2, $3, COALESCE($4, now()))
			ON CONFLICT (creature_id) DO NOTHING
			RETURNING id`

		err = exec.QueryRowxContext(ctx, query, rec.ID, rec.Name, rec.ImageURL, createdAt).Scan(&rowID)
		if errors.Is(err, sql.ErrNoRows) {
			// another writer inserted the same creature between lookup and insert
			rowID, err = lookup(ctx, exec, rec.ID)
			return err
		}
		if err != nil {
			return err
		}

		inserted = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}

	return rowID, inserted, nil
}

func (s *FavoriteStore) Add(ctx context.Context, rec domain.FavoriteRecord) (bool, error) {
	_, inserted, err := s.InsertIfAbsent(ctx, rec)
	return inserted, err
}

func (s *FavoriteStore) Remove(ctx context.Context, id int64) (bool, error) {
	var removed bool

	err := s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		exec := GetExecutor(ctx, s.db)

		rowID, err := lookup(ctx, exec, id)
		if err != nil || rowID == 0 {
			return err
		}

		res, err := exec.ExecContext(ctx, "DELETE FROM favorites WHERE id = $1", rowID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}

		removed = n > 0
		return nil
	})

	return removed, err
}

func (s *FavoriteStore) IsFavorited(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM favorites WHERE creature_id = $1)",
		id,
	)
	return exists, err
}

// lookup returns the row id stored for creatureID, or 0 when there is none.
func lookup(ctx context.Context, q sqlx.QueryerContext, creatureID int64) (int64, error) {
	var rowID int64
	err := sqlx.GetContext(ctx, q, &rowID,
		"SELECT id FROM favorites WHERE creature_id = $1",
		creatureID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return rowID, err
}
