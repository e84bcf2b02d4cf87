// Package templates collects macro definition pages from a dump stream into
// an in-memory store that is frozen before extraction starts and shared
// read-only by every worker.
package templates

import (
	"strings"
	"unicode"

	apperrors "github.com/amestead/wikiextract/pkg/errors"
)

// Store maps normalized template titles to their raw body lines. Writes are
// only legal during the collection pass; Freeze makes the store read-only
// for the lifetime of the run.
type Store struct {
	defs   map[string][]string
	frozen bool
}

// NewStore returns an empty, unfrozen Store.
func NewStore() *Store {
	return &Store{defs: make(map[string][]string)}
}

// Define inserts a template body under the normalized title. Bodies for
// repeated titles overwrite earlier ones, matching dump order semantics.
func (s *Store) Define(title string, body []string) error {
	if s.frozen {
		return apperrors.ErrStoreFrozen
	}
	s.defs[Normalize(title)] = body
	return nil
}

// Lookup returns the body lines stored under the normalized title.
func (s *Store) Lookup(title string) ([]string, bool) {
	body, ok := s.defs[Normalize(title)]
	return body, ok
}

// Len returns the number of stored definitions.
func (s *Store) Len() int {
	return len(s.defs)
}

// Freeze marks the store read-only. Any later Define fails.
func (s *Store) Freeze() {
	s.frozen = true
}

// Range calls fn for every stored definition until fn returns false.
func (s *Store) Range(fn func(title string, body []string) bool) {
	for title, body := range s.defs {
		if !fn(title, body) {
			return
		}
	}
}

// Normalize canonicalizes a template title: underscores become spaces,
// surrounding whitespace is trimmed, and the first letter of the page name
// (the part after the namespace prefix, if any) is uppercased.
func Normalize(title string) string {
	title = strings.TrimSpace(strings.ReplaceAll(title, "_", " "))
	name := title
	prefix := ""
	if colon := strings.Index(title, ":"); colon >= 0 {
		prefix = title[:colon+1]
		name = title[colon+1:]
	}
	if name == "" {
		return title
	}
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	return prefix + string(runes)
}
