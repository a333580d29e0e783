// Package latest implements a single-slot "latest request wins" guard.
//
// Each logical operation owns a Slot. Starting a request takes a Token;
// results carrying a token that is no longer current are discarded.
package latest

import "sync/atomic"

type Token uint64

type Slot struct {
	gen atomic.Uint64
}

// Begin supersedes every outstanding token and returns a fresh one.
func (s *Slot) Begin() Token {
	return Token(s.gen.Add(1))
}

// Current reports whether tok is the most recently issued token.
func (s *Slot) Current(tok Token) bool {
	return s.gen.Load() == uint64(tok)
}

// Invalidate supersedes every outstanding token without issuing a new one.
func (s *Slot) Invalidate() {
	s.gen.Add(1)
}
