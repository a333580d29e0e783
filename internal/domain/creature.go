package domain

import "time"

// ListEntry is one row of the catalog grid.
type ListEntry struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

// StatNames lists the six base stat slots in display order.
var StatNames = [6]string{
	"hp",
	"attack",
	"defense",
	"special-attack",
	"special-defense",
	"speed",
}

type Stat struct {
	Name string
	Base int
}

// DetailEntry holds the full attribute set of a single creature.
type DetailEntry struct {
	ID        int64
	Name      string
	Height    int // decimetres
	Weight    int // hectograms
	Types     []string
	Stats     []Stat
	Abilities []string
	ImageURL  string
	SpriteURL string
}

// Stat returns the base value for the named stat and whether it was present.
func (d *DetailEntry) Stat(name string) (int, bool) {
	for _, s := range d.Stats {
		if s.Name == name {
			return s.Base, true
		}
	}
	return 0, false
}

func (d *DetailEntry) BaseStatTotal() int {
	total := 0
	for _, s := range d.Stats {
		total += s.Base
	}
	return total
}

// FavoriteRecord is a favorited entry. At most one record exists per ID.
type FavoriteRecord struct {
	ID        int64     `json:"id" db:"creature_id"`
	Name      string    `json:"name" db:"name"`
	ImageURL  string    `json:"imageUrl" db:"image_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// NewFavoriteRecord builds a record for entry stamped with now.
func NewFavoriteRecord(entry ListEntry, now time.Time) FavoriteRecord {
	return FavoriteRecord{
		ID:        entry.ID,
		Name:      entry.Name,
		ImageURL:  entry.ImageURL,
		CreatedAt: now,
	}
}

func (r FavoriteRecord) Entry() ListEntry {
	return ListEntry{ID: r.ID, Name: r.Name, ImageURL: r.ImageURL}
}

type FavoriteAction string

const (
	FavoriteAdded   FavoriteAction = "added"
	FavoriteRemoved FavoriteAction = "removed"
)

// FavoriteEvent describes one applied change to the favorites set.
type FavoriteEvent struct {
	Action   FavoriteAction
	Favorite FavoriteRecord
}
