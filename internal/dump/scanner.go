package dump

import (
	"regexp"
	"strings"
)

// tagPattern matches one markup element on a line: optional leading text,
// an opening or closing tag, optional inline text, and an optional
// following tag. It is deliberately not a parser; dump lines carry at most
// one element of interest.
//
//	group 1: leading text
//	group 2: tag name, with "/" prefix for closing tags
//	group 3: inline text following the tag
//	group 4: trailing tag on the same line, if any
var tagPattern = regexp.MustCompile(`(.*?)<(/?\w+)[^>]*>(?:([^<]*)(<.*?>)?)?`)

// Event is the result of scanning a single line. It is ephemeral; callers
// copy out what they keep.
type Event struct {
	// Leading is the text preceding the tag.
	Leading string
	// Tag is the element name, prefixed with "/" for closing tags.
	Tag string
	// Text is the inline payload following the tag on the same line.
	Text string
	// HasTrailing reports whether another tag followed the payload, i.e.
	// the element opened and closed on one line.
	HasTrailing bool
}

// Scan matches one line against the tag pattern. Lines without an angle
// bracket are rejected before the pattern runs; lines that fail the pattern
// return ok=false and are skipped by every caller.
func Scan(line string) (Event, bool) {
	if !strings.Contains(line, "<") {
		return Event{}, false
	}
	m := tagPattern.FindStringSubmatchIndex(line)
	if m == nil {
		return Event{}, false
	}
	ev := Event{
		Leading: line[m[2]:m[3]],
		Tag:     line[m[4]:m[5]],
	}
	if m[6] >= 0 {
		ev.Text = line[m[6]:m[7]]
	}
	if m[8] >= 0 {
		ev.HasTrailing = true
	}
	return ev, true
}
