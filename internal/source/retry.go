package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pokedex/internal/domain"
)

// PageFetcher fetches one page of a paginated resource.
type PageFetcher interface {
	FirstCursor() domain.Cursor
	FetchPage(ctx context.Context, cursor domain.Cursor) (*domain.Page, error)
}

// DetailFetcher fetches a single record by id.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, id int64) (*domain.DetailEntry, error)
}

// RetryPolicy configures exponential backoff.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Retrying wraps fetchers with a caller-side retry policy. Only errors that
// domain.IsRetryable accepts are retried.
type Retrying struct {
	pages   PageFetcher
	details DetailFetcher
	policy  RetryPolicy
	logger  *slog.Logger
}

func NewRetrying(pages PageFetcher, details DetailFetcher, policy RetryPolicy, logger *slog.Logger) *Retrying {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Retrying{
		pages:   pages,
		details: details,
		policy:  policy,
		logger:  logger.With("component", "retry"),
	}
}

func (r *Retrying) FirstCursor() domain.Cursor {
	return r.pages.FirstCursor()
}

func (r *Retrying) FetchPage(ctx context.Context, cursor domain.Cursor) (*domain.Page, error) {
	var page *domain.Page
	err := r.do(ctx, "fetch page", func(ctx context.Context) error {
		var err error
		page, err = r.pages.FetchPage(ctx, cursor)
		return err
	})
	return page, err
}

func (r *Retrying) FetchDetail(ctx context.Context, id int64) (*domain.DetailEntry, error) {
	var detail *domain.DetailEntry
	err := r.do(ctx, "fetch detail", func(ctx context.Context) error {
		var err error
		detail, err = r.details.FetchDetail(ctx, id)
		return err
	})
	return detail, err
}

func (r *Retrying) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var err error

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}

		if !domain.IsRetryable(err) {
			return err
		}

		if attempt == r.policy.MaxAttempts {
			break
		}

		backoff := r.calculateBackoff(attempt)
		r.logger.Warn("request failed, retrying",
			"op", op,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	if r.policy.MaxAttempts == 1 {
		return err
	}
	return fmt.Errorf("after %d attempts: %w", r.policy.MaxAttempts, err)
}

func (r *Retrying) calculateBackoff(attempt int) time.Duration {
	backoff := r.policy.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if r.policy.MaxBackoff > 0 && backoff > r.policy.MaxBackoff {
		backoff = r.policy.MaxBackoff
	}
	return backoff
}
