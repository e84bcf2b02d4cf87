package dump

import (
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/amestead/wikiextract/pkg/errors"
)

// Namespace keys assigned by the dump format to macro definition pages.
const (
	TemplateNamespaceKey = 10
	ModuleNamespaceKey   = 828
)

var namespaceKeyPattern = regexp.MustCompile(`key="(-?\d+)"`)

// SiteInfo holds everything harvested from the dump's siteinfo header
// block. It is built once per run, before any worker starts, and treated
// as read-only afterwards.
type SiteInfo struct {
	// BaseURL is the site URL up to the last path separator of <base>.
	BaseURL string
	// NamespaceByKey maps a numeric namespace key to its local name.
	NamespaceByKey map[int]string
	// Accepted is the set of namespace names whose pages qualify for
	// extraction. Populated from the header unless the caller overrides it.
	Accepted map[string]struct{}
	// TemplateNamespace is the local name bound to key 10, empty when the
	// header never declared it.
	TemplateNamespace string
	// ModuleNamespace is the local name bound to key 828.
	ModuleNamespace string

	acceptedOverridden bool
}

// NewSiteInfo returns an empty SiteInfo ready for the header reader.
func NewSiteInfo() *SiteInfo {
	return &SiteInfo{
		NamespaceByKey: make(map[int]string),
		Accepted:       make(map[string]struct{}),
	}
}

// OverrideAccepted replaces the accepted-namespace set with an explicit
// list, as given on the command line. Later header namespaces no longer
// widen the set.
func (si *SiteInfo) OverrideAccepted(names []string) {
	si.Accepted = make(map[string]struct{}, len(names))
	for _, n := range names {
		si.Accepted[n] = struct{}{}
	}
	si.acceptedOverridden = true
}

// Accepts reports whether a namespace name qualifies for extraction.
func (si *SiteInfo) Accepts(name string) bool {
	_, ok := si.Accepted[name]
	return ok
}

// TemplatePrefix returns "Name:" for the template namespace, or "" when the
// namespace is unknown. An empty prefix never matches a title.
func (si *SiteInfo) TemplatePrefix() string {
	if si.TemplateNamespace == "" {
		return ""
	}
	return si.TemplateNamespace + ":"
}

// ModulePrefix returns "Name:" for the module namespace, or ":" when
// unknown, matching the source behaviour of concatenating an empty name.
func (si *SiteInfo) ModulePrefix() string {
	return si.ModuleNamespace + ":"
}

// ReadSiteInfo consumes lines from the stream until the siteinfo block
// closes, harvesting the base URL and the namespace table. The stream is
// left positioned on the first line after </siteinfo> so page scanning can
// continue on the same cursor.
func ReadSiteInfo(s *Stream) (*SiteInfo, error) {
	si := NewSiteInfo()
	for s.Next() {
		line := s.Line()
		ev, ok := Scan(line)
		if !ok {
			continue
		}
		switch ev.Tag {
		case "base":
			// /mediawiki/siteinfo/base: keep the path up to the last '/'.
			if i := strings.LastIndex(ev.Text, "/"); i >= 0 {
				si.BaseURL = ev.Text[:i]
			} else {
				si.BaseURL = ev.Text
			}
		case "namespace":
			if !si.acceptedOverridden {
				si.Accepted[ev.Text] = struct{}{}
			}
			if m := namespaceKeyPattern.FindStringSubmatch(line); m != nil {
				key, err := strconv.Atoi(m[1])
				if err == nil {
					si.NamespaceByKey[key] = ev.Text
					switch key {
					case TemplateNamespaceKey:
						si.TemplateNamespace = ev.Text
					case ModuleNamespaceKey:
						si.ModuleNamespace = ev.Text
					}
				}
			}
		case "/siteinfo":
			return si, nil
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return nil, apperrors.ErrNoSiteInfo
}
