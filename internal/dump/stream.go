// Package dump handles the raw encyclopedia dump: opening plain or
// compressed streams, line-oriented scanning, the single-line tag scanner,
// and the siteinfo header reader.
package dump

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// maxLineSize bounds a single dump line. Article text lines can be very
// long, whole-paragraph affairs, but never anywhere near this.
const maxLineSize = 16 * 1024 * 1024

// Stream is a line-oriented, forward-only view of a dump. Replayable
// reports whether the same content can be opened again from the start,
// which is false for stdin.
type Stream struct {
	scanner    *bufio.Scanner
	closer     io.Closer
	replayable bool
}

// Open opens the dump at path, transparently decompressing .gz and .bz2
// files. The path "-" reads from stdin and yields a non-replayable stream.
func Open(path string) (*Stream, error) {
	if path == "-" {
		return NewStream(os.Stdin, false), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dump %s: %w", path, err)
	}
	switch filepath.Ext(path) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening gzip dump %s: %w", path, err)
		}
		s := NewStream(zr, true)
		s.closer = multiCloser{zr, f}
		return s, nil
	case ".bz2":
		s := NewStream(bzip2.NewReader(f), true)
		s.closer = f
		return s, nil
	default:
		s := NewStream(f, true)
		s.closer = f
		return s, nil
	}
}

// NewStream wraps an arbitrary reader as a dump stream.
func NewStream(r io.Reader, replayable bool) *Stream {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	s := &Stream{scanner: sc, replayable: replayable}
	if c, ok := r.(io.Closer); ok && s.closer == nil {
		s.closer = c
	}
	return s
}

// Next advances to the next line, returning false at end of stream.
func (s *Stream) Next() bool {
	return s.scanner.Scan()
}

// Line returns the current line without its trailing newline.
func (s *Stream) Line() string {
	return s.scanner.Text()
}

// Err returns the first error hit while reading, excluding io.EOF.
func (s *Stream) Err() error {
	return s.scanner.Err()
}

// Replayable reports whether the stream's source can be reopened.
func (s *Stream) Replayable() bool {
	return s.replayable
}

// Close releases the underlying file handles, if any.
func (s *Stream) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
