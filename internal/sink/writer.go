// Package sink persists converted articles, one file per article, named
// after a sanitized form of the title.
package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// maxNameLength caps the sanitized title portion of a filename.
const maxNameLength = 200

var unsafeChars = regexp.MustCompile(`[/\\?%*:|"<>\s]`)

// SafeFilename derives a filesystem-safe name from an article title:
// path-hazard and whitespace characters become underscores and the name is
// capped at maxNameLength characters. Distinct titles can collapse to the
// same name; the writer overwrites, last writer wins.
func SafeFilename(title string) string {
	safe := unsafeChars.ReplaceAllString(title, "_")
	if runes := []rune(safe); len(runes) > maxNameLength {
		safe = string(runes[:maxNameLength])
	}
	return safe + ".md"
}

// PageWriter writes article files under a single output directory. It is
// only ever invoked from the pipeline's reducer, so it needs no locking.
type PageWriter struct {
	dir string
}

// NewPageWriter creates the output directory if needed and returns a writer
// for it.
func NewPageWriter(dir string) (*PageWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return &PageWriter{dir: dir}, nil
}

// Write persists text under the title-derived filename, overwriting any
// existing file, and returns the path written.
func (w *PageWriter) Write(id, title, text string) (string, error) {
	path := filepath.Join(w.dir, SafeFilename(title))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("writing article %s (id %s): %w", path, id, err)
	}
	return path, nil
}
