// Package convert turns raw wikitext article bodies into cleaned markdown.
// Template expansion runs against the frozen template store; everything a
// worker needs is captured at construction, so a single Converter is safe
// for concurrent use.
package convert

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/amestead/wikiextract/internal/pages"
	"github.com/amestead/wikiextract/internal/templates"
)

// maxExpandDepth bounds recursive template expansion. Real templates nest a
// handful of levels; anything deeper is a reference cycle.
const maxExpandDepth = 16

var (
	commentPattern   = regexp.MustCompile(`(?s)<!--.*?-->`)
	refPattern       = regexp.MustCompile(`(?s)<ref[^>]*?/>|<ref[^>]*>.*?</ref>`)
	noincludePattern = regexp.MustCompile(`(?s)<noinclude>.*?</noinclude>`)
	includeTagOnly   = regexp.MustCompile(`</?includeonly>`)
	htmlTagPattern   = regexp.MustCompile(`</?(?:div|span|center|small|big|sub|sup|table|tr|td|th|gallery|nowiki|code|pre|blockquote)[^>]*>`)
	paramPattern     = regexp.MustCompile(`\{\{\{([^{}|]+)(?:\|([^{}]*))?\}\}\}`)
	blankRunPattern  = regexp.MustCompile(`\n{3,}`)
)

// Converter converts one article body at a time. A nil store disables
// template expansion and leaves macro references in place.
type Converter struct {
	store *templates.Store
	// prefix is the "Template:" form used for store keys; references in
	// article bodies carry the bare name.
	prefix string
}

// New creates a Converter expanding against store under the given template
// namespace prefix. Pass a nil store to keep references raw.
func New(store *templates.Store, templatePrefix string) *Converter {
	return &Converter{store: store, prefix: templatePrefix}
}

// Convert produces the markdown artifact for one record: a title heading
// followed by the cleaned body.
func (c *Converter) Convert(rec *pages.Record, baseURL string) (string, error) {
	text := strings.Join(rec.Lines, "\n")
	text = commentPattern.ReplaceAllString(text, "")

	if c.store != nil {
		text = c.expand(text, nil, 0)
	}

	text = refPattern.ReplaceAllString(text, "")
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = convertHeadings(text)
	text = convertLinks(text, baseURL)
	text = convertEmphasis(text)
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	return fmt.Sprintf("# %s\n\n%s\n", rec.Title, text), nil
}

// expand substitutes {{...}} macro references left to right, recursing into
// expanded bodies up to maxExpandDepth. params carries the arguments of the
// enclosing template for {{{n}}} placeholder substitution.
func (c *Converter) expand(text string, params map[string]string, depth int) string {
	if depth > maxExpandDepth {
		return text
	}
	text = substituteParams(text, params)

	var out strings.Builder
	for {
		start, end := findReference(text)
		if start < 0 {
			out.WriteString(text)
			break
		}
		out.WriteString(text[:start])
		out.WriteString(c.expandOne(text[start+2:end-2], depth))
		text = text[end:]
	}
	return out.String()
}

// expandOne expands the inside of a single {{...}} reference. Unknown
// templates, parser functions ({{#if:...}}), and magic words all expand to
// nothing, as the dump renderer would for an uninstalled macro.
func (c *Converter) expandOne(inner string, depth int) string {
	parts := splitTopLevel(inner)
	name := strings.TrimSpace(parts[0])
	if name == "" || strings.HasPrefix(name, "#") {
		return ""
	}
	body, ok := c.lookup(name)
	if !ok {
		return ""
	}
	return c.expand(body, parseParams(parts[1:]), depth+1)
}

// lookup resolves a reference name against the store, preferring the
// namespace-qualified key the collector stored.
func (c *Converter) lookup(name string) (string, bool) {
	if c.prefix != "" {
		if lines, ok := c.store.Lookup(c.prefix + name); ok {
			return prepareBody(lines), true
		}
	}
	if lines, ok := c.store.Lookup(name); ok {
		return prepareBody(lines), true
	}
	return "", false
}

// prepareBody joins a stored body and strips the inclusion-control tags
// that only matter when the page is rendered standalone.
func prepareBody(lines []string) string {
	body := strings.Join(lines, "\n")
	body = noincludePattern.ReplaceAllString(body, "")
	body = includeTagOnly.ReplaceAllString(body, "")
	return body
}

// substituteParams replaces {{{name}}} and {{{name|default}}} placeholders.
// Placeholders without a value or default are left untouched.
func substituteParams(text string, params map[string]string) string {
	if !strings.Contains(text, "{{{") {
		return text
	}
	return paramPattern.ReplaceAllStringFunc(text, func(m string) string {
		groups := paramPattern.FindStringSubmatch(m)
		name := strings.TrimSpace(groups[1])
		if v, ok := params[name]; ok {
			return v
		}
		if strings.Contains(m, "|") {
			return groups[2]
		}
		return m
	})
}

// findReference locates the first balanced {{...}} in text, returning the
// start index and the index one past the closing braces, or (-1, -1).
// Triple braces are placeholders, not references, and are skipped.
func findReference(text string) (int, int) {
	for i := 0; i+1 < len(text); i++ {
		if text[i] != '{' || text[i+1] != '{' {
			continue
		}
		if i+2 < len(text) && text[i+2] == '{' {
			// A {{{param}}} placeholder; skip past it.
			i += 2
			continue
		}
		depth := 0
		for j := i; j+1 < len(text); j++ {
			if text[j] == '{' && text[j+1] == '{' {
				depth++
				j++
			} else if text[j] == '}' && text[j+1] == '}' {
				depth--
				j++
				if depth == 0 {
					return i, j + 1
				}
			}
		}
		return -1, -1 // unbalanced; leave the tail alone
	}
	return -1, -1
}

// splitTopLevel splits a reference body on pipes that are not nested inside
// further braces or links.
func splitTopLevel(inner string) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(inner); i++ {
		switch {
		case strings.HasPrefix(inner[i:], "{{") || strings.HasPrefix(inner[i:], "[["):
			depth++
			i++
		case strings.HasPrefix(inner[i:], "}}") || strings.HasPrefix(inner[i:], "]]"):
			depth--
			i++
		case inner[i] == '|' && depth == 0:
			parts = append(parts, inner[last:i])
			last = i + 1
		}
	}
	parts = append(parts, inner[last:])
	return parts
}

// parseParams builds the parameter map for a template invocation: name=value
// arguments keyed by name, the rest keyed by position starting at "1".
func parseParams(args []string) map[string]string {
	if len(args) == 0 {
		return nil
	}
	params := make(map[string]string, len(args))
	pos := 0
	for _, arg := range args {
		if eq := strings.Index(arg, "="); eq >= 0 && !strings.ContainsAny(arg[:eq], "{}[]") {
			params[strings.TrimSpace(arg[:eq])] = strings.TrimSpace(arg[eq+1:])
			continue
		}
		pos++
		params[fmt.Sprintf("%d", pos)] = arg
	}
	return params
}
