package latest

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlot_LatestWins(t *testing.T) {
	var s Slot

	first := s.Begin()
	assert.True(t, s.Current(first))

	second := s.Begin()
	assert.False(t, s.Current(first))
	assert.True(t, s.Current(second))

	s.Invalidate()
	assert.False(t, s.Current(second))
}

func TestSlot_ConcurrentBegin(t *testing.T) {
	var s Slot
	var wg sync.WaitGroup

	tokens := make(chan Token, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens <- s.Begin()
		}()
	}
	wg.Wait()
	close(tokens)

	current := 0
	seen := make(map[Token]bool)
	for tok := range tokens {
		assert.False(t, seen[tok], "token issued twice")
		seen[tok] = true
		if s.Current(tok) {
			current++
		}
	}
	assert.Equal(t, 1, current)
}
