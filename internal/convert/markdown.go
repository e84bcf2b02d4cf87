package convert

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	headingPattern  = regexp.MustCompile(`(?m)^(={2,6})\s*(.*?)\s*=+\s*$`)
	wikiLinkPattern = regexp.MustCompile(`\[\[([^\[\]|]*)(?:\|([^\[\]]*))?\]\]`)
	extLinkPattern  = regexp.MustCompile(`\[(https?://[^\s\]]+)(?:\s+([^\]]*))?\]`)
	boldItalic      = regexp.MustCompile(`'''''(.+?)'''''`)
	bold            = regexp.MustCompile(`'''(.+?)'''`)
	italic          = regexp.MustCompile(`''(.+?)''`)
)

// convertHeadings rewrites == Section == wikitext headings as markdown. The
// = count maps directly: a level-2 wiki heading becomes ##.
func convertHeadings(text string) string {
	return headingPattern.ReplaceAllStringFunc(text, func(m string) string {
		groups := headingPattern.FindStringSubmatch(m)
		return strings.Repeat("#", len(groups[1])) + " " + groups[2]
	})
}

// convertLinks rewrites internal [[target|label]] and external [url label]
// links as markdown. Internal targets resolve against the site base URL;
// media links (File:, Image:, Category:) are dropped outright.
func convertLinks(text string, baseURL string) string {
	text = wikiLinkPattern.ReplaceAllStringFunc(text, func(m string) string {
		groups := wikiLinkPattern.FindStringSubmatch(m)
		target := strings.TrimSpace(groups[1])
		label := groups[2]
		if label == "" {
			label = target
		}
		if target == "" {
			return label
		}
		switch prefix, _, _ := strings.Cut(target, ":"); prefix {
		case "File", "Image", "Category":
			return ""
		}
		return "[" + label + "](" + articleURL(baseURL, target) + ")"
	})
	return extLinkPattern.ReplaceAllStringFunc(text, func(m string) string {
		groups := extLinkPattern.FindStringSubmatch(m)
		if groups[2] == "" {
			return groups[1]
		}
		return "[" + groups[2] + "](" + groups[1] + ")"
	})
}

// convertEmphasis rewrites wikitext quote runs as markdown emphasis, longest
// run first so bold-italic is not mangled by the bold pass.
func convertEmphasis(text string) string {
	text = boldItalic.ReplaceAllString(text, "***$1***")
	text = bold.ReplaceAllString(text, "**$1**")
	text = italic.ReplaceAllString(text, "*$1*")
	return text
}

// articleURL builds the canonical page URL for an internal link target.
func articleURL(baseURL, target string) string {
	path := url.PathEscape(strings.ReplaceAll(target, " ", "_"))
	if baseURL == "" {
		return path
	}
	return baseURL + "/" + path
}
