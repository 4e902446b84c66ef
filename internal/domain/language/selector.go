package language

import "strings"

// Selector is a document-matching predicate derived from a set of languages.
// It matches by file suffix, case-insensitively.
type Selector struct {
	suffixes map[string]string // suffix -> language ID
}

// NewSelector builds a selector from the given languages.
func NewSelector(langs []Resolved) *Selector {
	s := &Selector{suffixes: make(map[string]string)}
	for _, l := range langs {
		for _, suf := range l.Info.Suffixes {
			s.suffixes[suf] = l.Info.ID
		}
	}
	return s
}

// Match returns the language ID for a path, or "" when no enabled
// language claims its suffix.
func (s *Selector) Match(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 || idx == len(path)-1 {
		return ""
	}
	return s.suffixes[strings.ToLower(path[idx+1:])]
}

// Suffixes returns the distinct suffixes the selector matches.
func (s *Selector) Suffixes() []string {
	out := make([]string, 0, len(s.suffixes))
	for suf := range s.suffixes {
		out = append(out, suf)
	}
	return out
}
