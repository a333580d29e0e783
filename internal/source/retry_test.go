package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokedex/internal/domain"
)

type scriptedFetcher struct {
	pageErrs   []error
	detailErrs []error
	pageCalls  int
	detailCall int
}

func (f *scriptedFetcher) FirstCursor() domain.Cursor {
	return "https://example.test/pokemon?limit=2"
}

func (f *scriptedFetcher) FetchPage(ctx context.Context, cursor domain.Cursor) (*domain.Page, error) {
	f.pageCalls++
	if f.pageCalls <= len(f.pageErrs) {
		return nil, f.pageErrs[f.pageCalls-1]
	}
	return &domain.Page{Entries: []domain.ListEntry{{ID: 1, Name: "bulbasaur"}}}, nil
}

func (f *scriptedFetcher) FetchDetail(ctx context.Context, id int64) (*domain.DetailEntry, error) {
	f.detailCall++
	if f.detailCall <= len(f.detailErrs) {
		return nil, f.detailErrs[f.detailCall-1]
	}
	return &domain.DetailEntry{ID: id}, nil
}

func newRetrying(f *scriptedFetcher, attempts int) *Retrying {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRetrying(f, f, RetryPolicy{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}, logger)
}

func TestRetrying_RetriesTransientFailures(t *testing.T) {
	f := &scriptedFetcher{pageErrs: []error{
		&domain.NetworkError{Op: "fetch page", StatusCode: http.StatusServiceUnavailable},
		&domain.NetworkError{Op: "fetch page", Err: errors.New("connection reset")},
	}}
	r := newRetrying(f, 3)

	page, err := r.FetchPage(context.Background(), r.FirstCursor())
	require.NoError(t, err)
	assert.Len(t, page.Entries, 1)
	assert.Equal(t, 3, f.pageCalls)
}

func TestRetrying_GivesUpAfterMaxAttempts(t *testing.T) {
	transient := &domain.NetworkError{Op: "fetch page", StatusCode: http.StatusBadGateway}
	f := &scriptedFetcher{pageErrs: []error{transient, transient, transient}}
	r := newRetrying(f, 2)

	_, err := r.FetchPage(context.Background(), r.FirstCursor())
	require.Error(t, err)
	assert.ErrorIs(t, err, transient)
	assert.Equal(t, 2, f.pageCalls)
}

func TestRetrying_DoesNotRetryNotFound(t *testing.T) {
	f := &scriptedFetcher{detailErrs: []error{&domain.NotFoundError{ID: 9999}}}
	r := newRetrying(f, 5)

	_, err := r.FetchDetail(context.Background(), 9999)
	assert.True(t, domain.IsNotFound(err))
	assert.Equal(t, 1, f.detailCall)
}

func TestRetrying_DoesNotRetryClientErrors(t *testing.T) {
	f := &scriptedFetcher{pageErrs: []error{&domain.NetworkError{Op: "fetch page", StatusCode: http.StatusBadRequest}}}
	r := newRetrying(f, 5)

	_, err := r.FetchPage(context.Background(), r.FirstCursor())
	assert.Error(t, err)
	assert.Equal(t, 1, f.pageCalls)
}

func TestRetrying_StopsOnContextCancel(t *testing.T) {
	transient := &domain.NetworkError{Op: "fetch page", StatusCode: http.StatusBadGateway}
	f := &scriptedFetcher{pageErrs: []error{transient, transient, transient}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewRetrying(f, f, RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Hour}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.FetchPage(ctx, r.FirstCursor())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.pageCalls)
}

func TestRetrying_CalculateBackoff(t *testing.T) {
	r := newRetrying(&scriptedFetcher{}, 5)
	r.policy.InitialBackoff = time.Second
	r.policy.MaxBackoff = 5 * time.Second

	assert.Equal(t, time.Second, r.calculateBackoff(1))
	assert.Equal(t, 2*time.Second, r.calculateBackoff(2))
	assert.Equal(t, 4*time.Second, r.calculateBackoff(3))
	assert.Equal(t, 5*time.Second, r.calculateBackoff(4))
}
