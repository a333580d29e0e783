package catalog

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"pokedex/internal/domain"
)

type PageFetcher interface {
	FirstCursor() domain.Cursor
	FetchPage(ctx context.Context, cursor domain.Cursor) (*domain.Page, error)
}
