package favorites

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"pokedex/internal/domain"
)

// Backing is a concrete favorites storage. Implementations keep at most one
// record per id and list records newest first.
type Backing interface {
	List(ctx context.Context) ([]domain.FavoriteRecord, error)
	// Add stores rec unless a record with the same id exists. It reports
	// whether a record was inserted.
	Add(ctx context.Context, rec domain.FavoriteRecord) (bool, error)
	// Remove deletes the record with id if present. It reports whether a
	// record was deleted.
	Remove(ctx context.Context, id int64) (bool, error)
	IsFavorited(ctx context.Context, id int64) (bool, error)
}

// Notifier is told about every change applied to the favorites set.
type Notifier interface {
	PublishFavorite(ctx context.Context, event domain.FavoriteEvent) error
}
