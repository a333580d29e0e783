package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pokedex/internal/domain"
)

const (
	SourceID   = "pokeapi"
	SourceName = "PokeAPI"

	DefaultBaseURL       = "https://pokeapi.co/api/v2"
	DefaultSpriteBaseURL = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon"

	resourcePath = "pokemon"
)

// Config holds PokeAPI client configuration.
type Config struct {
	BaseURL       string
	SpriteBaseURL string
	PageSize      int
	Timeout       time.Duration
}

// Client fetches list pages and detail records from PokeAPI.
// It never retries; see source.Retrying for a caller-side policy.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	spriteBaseURL string
	pageSize      int
	logger        *slog.Logger
}

// New creates a new PokeAPI client.
func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		spriteBaseURL: strings.TrimRight(cfg.SpriteBaseURL, "/"),
		pageSize:      cfg.PageSize,
		logger:        logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (c *Client) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (c *Client) Name() string {
	return SourceName
}

// FirstCursor returns the well-known cursor of the first page.
func (c *Client) FirstCursor() domain.Cursor {
	return domain.Cursor(fmt.Sprintf("%s/%s?limit=%d", c.baseURL, resourcePath, c.pageSize))
}

// FetchPage fetches the page addressed by cursor.
func (c *Client) FetchPage(ctx context.Context, cursor domain.Cursor) (*domain.Page, error) {
	if cursor.Done() {
		return nil, domain.ErrNoMorePages
	}

	pageURL, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}

	var resp ListResponse
	if err := c.doRequest(ctx, "fetch page", pageURL, &resp); err != nil {
		return nil, err
	}

	page := &domain.Page{
		Entries: c.transform(resp.Results),
		Total:   resp.Count,
	}
	if resp.Next != nil {
		page.Next = domain.Cursor(*resp.Next)
	}

	c.logger.Debug("fetched page",
		"entries", len(page.Entries),
		"total", page.Total,
		"has_next", !page.Next.Done(),
	)

	return page, nil
}

// FetchDetail fetches the full attribute set of one creature. Every call hits
// the network.
func (c *Client) FetchDetail(ctx context.Context, id int64) (*domain.DetailEntry, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid id: %d", id)
	}

	detailURL := fmt.Sprintf("%s/%s/%d", c.baseURL, resourcePath, id)

	var resp DetailResponse
	if err := c.doRequest(ctx, "fetch detail", detailURL, &resp); err != nil {
		var ne *domain.NetworkError
		if errors.As(err, &ne) && ne.StatusCode == http.StatusNotFound {
			return nil, &domain.NotFoundError{ID: id}
		}
		return nil, err
	}

	return c.transformDetail(resp), nil
}

// ImageURL returns the sprite URL for id.
func (c *Client) ImageURL(id int64) string {
	return fmt.Sprintf("%s/%d.png", c.spriteBaseURL, id)
}

func (c *Client) doRequest(ctx context.Context, op, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Pokedex/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.NetworkError{Op: op, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.NetworkError{Op: op, URL: url, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) transform(results []NamedResource) []domain.ListEntry {
	entries := make([]domain.ListEntry, 0, len(results))

	for _, r := range results {
		id, err := ExtractID(r.URL)
		if err != nil {
			c.logger.Warn("failed to extract id",
				"name", r.Name,
				"url", r.URL,
				"error", err,
			)
			continue
		}

		entries = append(entries, domain.ListEntry{
			ID:       id,
			Name:     r.Name,
			ImageURL: c.ImageURL(id),
		})
	}

	return entries
}

func (c *Client) transformDetail(resp DetailResponse) *domain.DetailEntry {
	detail := &domain.DetailEntry{
		ID:     resp.ID,
		Name:   resp.Name,
		Height: resp.Height,
		Weight: resp.Weight,
	}

	for _, t := range resp.Types {
		detail.Types = append(detail.Types, t.Type.Name)
	}
	for _, s := range resp.Stats {
		detail.Stats = append(detail.Stats, domain.Stat{
			Name: s.Stat.Name,
			Base: s.BaseStat,
		})
	}
	for _, a := range resp.Abilities {
		detail.Abilities = append(detail.Abilities, a.Ability.Name)
	}

	if resp.Sprites.FrontDefault != nil {
		detail.SpriteURL = *resp.Sprites.FrontDefault
	}
	if art := resp.Sprites.Other.OfficialArtwork.FrontDefault; art != nil && *art != "" {
		detail.ImageURL = *art
	} else {
		detail.ImageURL = detail.SpriteURL
	}
	if detail.SpriteURL == "" {
		detail.SpriteURL = c.ImageURL(resp.ID)
	}
	if detail.ImageURL == "" {
		detail.ImageURL = detail.SpriteURL
	}

	return detail
}

// ExtractID returns the trailing numeric path segment of a resource URL,
// ignoring a trailing slash.
func ExtractID(resourceURL string) (int64, error) {
	u, err := url.Parse(resourceURL)
	if err != nil {
		return 0, fmt.Errorf("parse url: %w", err)
	}

	path := strings.TrimRight(u.Path, "/")
	segment := path[strings.LastIndex(path, "/")+1:]

	id, err := strconv.ParseInt(segment, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("trailing segment %q is not numeric", segment)
	}
	if id <= 0 {
		return 0, fmt.Errorf("trailing segment %q is not a positive id", segment)
	}
	return id, nil
}

func parseCursor(cursor domain.Cursor) (string, error) {
	u, err := url.Parse(string(cursor))
	if err != nil {
		return "", fmt.Errorf("invalid cursor: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid cursor %q", cursor)
	}
	return u.String(), nil
}
