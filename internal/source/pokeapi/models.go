package pokeapi

// ListResponse represents the PokeAPI named-resource list response.
type ListResponse struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  []NamedResource `json:"results"`
}

type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// DetailResponse is the subset of /pokemon/{id} the detail view needs.
type DetailResponse struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Height    int           `json:"height"`
	Weight    int           `json:"weight"`
	Types     []TypeSlot    `json:"types"`
	Stats     []StatSlot    `json:"stats"`
	Abilities []AbilitySlot `json:"abilities"`
	Sprites   Sprites       `json:"sprites"`
}

type TypeSlot struct {
	Slot int           `json:"slot"`
	Type NamedResource `json:"type"`
}

type StatSlot struct {
	BaseStat int           `json:"base_stat"`
	Effort   int           `json:"effort"`
	Stat     NamedResource `json:"stat"`
}

type AbilitySlot struct {
	IsHidden bool          `json:"is_hidden"`
	Slot     int           `json:"slot"`
	Ability  NamedResource `json:"ability"`
}

type Sprites struct {
	FrontDefault *string      `json:"front_default"`
	Other        OtherSprites `json:"other"`
}

type OtherSprites struct {
	OfficialArtwork Artwork `json:"official-artwork"`
}

type Artwork struct {
	FrontDefault *string `json:"front_default"`
}
