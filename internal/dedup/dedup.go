// Package dedup decides whether a newly observed comment duplicates one
// already accepted in the current harvest scope.
package dedup

import "strings"

// Policy selects how two comments are compared.
type Policy int

const (
	// PolicyExact treats comments as duplicates only when their trimmed
	// text is byte-for-byte identical. The default everywhere.
	PolicyExact Policy = iota

	// PolicyPrefix treats comments as duplicates when their first
	// PrefixLength characters match. Only for sources whose lazy
	// rendering repeats cards with truncated tails; it can suppress
	// distinct long reviews that share an opening, so it is an explicit
	// configuration choice.
	PolicyPrefix
)

// PrefixLength is how many leading characters PolicyPrefix compares.
const PrefixLength = 100

func (p Policy) String() string {
	switch p {
	case PolicyExact:
		return "exact"
	case PolicyPrefix:
		return "prefix"
	default:
		return "unknown"
	}
}

// CommentSet tracks accepted comment texts for one harvest scope (one
// product's page set, or one product within a search run). State never
// outlives the run.
type CommentSet struct {
	policy Policy
	seen   map[string]struct{}
}

// NewCommentSet creates an empty set with the given policy.
func NewCommentSet(policy Policy) *CommentSet {
	return &CommentSet{
		policy: policy,
		seen:   make(map[string]struct{}),
	}
}

// Add records the comment and reports whether it was new. Duplicates are
// not recorded again.
func (s *CommentSet) Add(comment string) bool {
	key := s.key(comment)
	if _, dup := s.seen[key]; dup {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Seen reports whether the comment would be considered a duplicate.
func (s *CommentSet) Seen(comment string) bool {
	_, dup := s.seen[s.key(comment)]
	return dup
}

// Len returns the number of distinct comments recorded.
func (s *CommentSet) Len() int { return len(s.seen) }

// Reset discards all state, starting a fresh scope.
func (s *CommentSet) Reset() {
	s.seen = make(map[string]struct{})
}

func (s *CommentSet) key(comment string) string {
	key := strings.TrimSpace(comment)
	if s.policy == PolicyPrefix {
		// Cut on runes so a multi-byte character at the boundary cannot
		// split into an invalid key.
		runes := []rune(key)
		if len(runes) > PrefixLength {
			key = strings.TrimSpace(string(runes[:PrefixLength]))
		}
	}
	return key
}
