package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pokedex/internal/domain"
)

var catalog = []domain.ListEntry{
	{ID: 1, Name: "bulbasaur"},
	{ID: 4, Name: "charmander"},
	{ID: 7, Name: "squirtle"},
	{ID: 17, Name: "pidgeotto"},
	{ID: 25, Name: "pikachu"},
	{ID: 107, Name: "hitmonchan"},
}

func ids(entries []domain.ListEntry) []int64 {
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []int64
	}{
		{name: "name substring", query: "char", want: []int64{4}},
		{name: "case insensitive", query: "PIKA", want: []int64{25}},
		{name: "surrounding whitespace", query: "  squirt ", want: []int64{7}},
		{name: "raw id is exact", query: "7", want: []int64{7}},
		{name: "padded id", query: "004", want: []int64{4}},
		{name: "padded id three digits", query: "107", want: []int64{107}},
		{name: "leading zeros parse as id", query: "0025", want: []int64{25}},
		{name: "shared substring", query: "pi", want: []int64{17, 25}},
		{name: "no match", query: "mewtwo", want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(catalog, tt.query)))
		})
	}
}

func TestFilter_BlankQueryReturnsInput(t *testing.T) {
	for _, q := range []string{"", "   ", "\t"} {
		got := Filter(catalog, q)
		assert.Same(t, &catalog[0], &got[0])
		assert.Len(t, got, len(catalog))
	}
}

func TestFilter_DoesNotMutateSource(t *testing.T) {
	before := append([]domain.ListEntry(nil), catalog...)

	_ = Filter(catalog, "a")

	assert.Equal(t, before, catalog)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "#001", FormatNumber(1))
	assert.Equal(t, "#025", FormatNumber(25))
	assert.Equal(t, "#1025", FormatNumber(1025))
}
