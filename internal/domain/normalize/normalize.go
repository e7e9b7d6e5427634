// Package normalize canonicalizes loosely typed profile values into token sets.
//
// Every function here is total: absent, blank or oddly shaped input yields
// the empty result, never an error.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Set is an ordered, duplicate-free collection of folded tokens.
type Set struct {
	tokens []string
	index  map[string]struct{}
}

// List folds values into a token list. Each value is split on commas, so a
// list of tags and a single comma-joined string normalize alike.
func List(values ...string) []string {
	return NewSet(values...).Tokens()
}

// Scalar folds a single value without splitting it.
func Scalar(value string) string {
	return fold(value)
}

// NewSet builds a Set from raw values.
func NewSet(values ...string) Set {
	s := Set{index: make(map[string]struct{})}
	for _, v := range values {
		// Fold before splitting: NFKC maps full-width and small commas to ",".
		for _, part := range strings.Split(fold(v), ",") {
			tok := strings.TrimSpace(part)
			if tok == "" {
				continue
			}
			if _, ok := s.index[tok]; ok {
				continue
			}
			s.index[tok] = struct{}{}
			s.tokens = append(s.tokens, tok)
		}
	}
	return s
}

// Tokens returns the tokens in first-seen order.
func (s Set) Tokens() []string {
	out := make([]string, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// Len is the set's cardinality.
func (s Set) Len() int { return len(s.tokens) }

// Empty reports whether the set has no tokens.
func (s Set) Empty() bool { return len(s.tokens) == 0 }

// Has reports membership of an already folded token.
func (s Set) Has(tok string) bool {
	_, ok := s.index[tok]
	return ok
}

// Overlap is the cardinality of the intersection with other.
func (s Set) Overlap(other Set) int {
	small, large := s, other
	if large.Len() < small.Len() {
		small, large = large, small
	}
	n := 0
	for _, tok := range small.tokens {
		if large.Has(tok) {
			n++
		}
	}
	return n
}

// fold applies compatibility normalization, lowercases and trims.
func fold(v string) string {
	return strings.TrimSpace(strings.ToLower(norm.NFKC.String(v)))
}
