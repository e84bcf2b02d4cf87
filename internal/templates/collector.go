package templates

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/amestead/wikiextract/internal/dump"
	"github.com/amestead/wikiextract/pkg/logger"
	"github.com/amestead/wikiextract/pkg/metrics"
)

// progressInterval is how many pages pass between preprocessing log lines.
const progressInterval = 100_000

// Collector runs the single-threaded template collection pass.
type Collector struct {
	site    *dump.SiteInfo
	store   *Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewCollector creates a Collector feeding the given store. metrics may be
// nil.
func NewCollector(site *dump.SiteInfo, store *Store, m *metrics.Metrics) *Collector {
	return &Collector{
		site:    site,
		store:   store,
		metrics: m,
		logger:  logger.WithComponent("template-collector"),
	}
}

// Collect scans every page of the stream, storing pages whose title falls
// under the template namespace. When mirror is non-nil, template and module
// pages are additionally serialised to it for reuse as a template stream in
// a later run. Returns the number of template definitions loaded.
//
// When the template namespace is still unknown and no mirror is being
// written, it is inferred from the first title containing a colon past
// position one. This bootstrap is a best-effort heuristic against dumps
// with incomplete headers.
func (c *Collector) Collect(s *dump.Stream, mirror io.Writer) (int, error) {
	var (
		page      []string
		title     string
		inText    bool
		pages     int
		templates int
	)
	for s.Next() {
		line := s.Line()
		ev, ok := dump.Scan(line)
		if !ok {
			if inText {
				page = append(page, line)
			}
			continue
		}
		switch ev.Tag {
		case "page":
			page = nil
		case "title":
			title = ev.Text
			if mirror == nil && c.site.TemplateNamespace == "" {
				if colon := strings.Index(title, ":"); colon > 1 {
					c.site.TemplateNamespace = title[:colon]
					c.logger.Warn("template namespace inferred from title",
						"namespace", c.site.TemplateNamespace,
						"title", title,
					)
				}
			}
		case "text":
			inText = true
			page = append(page, ev.Text)
			if ev.HasTrailing {
				// The element opened and closed on this line.
				inText = false
			}
		case "/text":
			if ev.Leading != "" {
				page = append(page, ev.Leading)
			}
			inText = false
		case "/page":
			tplPrefix := c.site.TemplatePrefix()
			modPrefix := c.site.ModulePrefix()
			isTemplate := tplPrefix != "" && strings.HasPrefix(title, tplPrefix)
			isModule := modPrefix != "" && strings.HasPrefix(title, modPrefix)
			if isTemplate {
				if err := c.store.Define(title, page); err != nil {
					return templates, fmt.Errorf("storing template %q: %w", title, err)
				}
				templates++
			}
			if mirror != nil && (isTemplate || isModule) {
				if err := writeMirrorPage(mirror, title, page); err != nil {
					return templates, fmt.Errorf("mirroring page %q: %w", title, err)
				}
			}
			page = nil
			pages++
			if c.metrics != nil {
				c.metrics.PagesPreprocessed.Inc()
			}
			if pages%progressInterval == 0 {
				c.logger.Info("preprocessed pages", "pages", pages, "templates", templates)
			}
		default:
			if inText {
				page = append(page, line)
			}
		}
	}
	if err := s.Err(); err != nil {
		return templates, fmt.Errorf("reading template stream: %w", err)
	}
	if c.metrics != nil {
		c.metrics.TemplatesLoaded.Set(float64(c.store.Len()))
	}
	return templates, nil
}

// writeMirrorPage serialises one collected page as a minimal three-field
// record using the dump's own tagging convention, so the mirror file can be
// fed back through Collect. The closing text tag sits on its own line with
// no indentation so re-collection reproduces the body exactly.
func writeMirrorPage(w io.Writer, title string, body []string) error {
	if _, err := fmt.Fprintf(w, "<page>\n   <title>%s</title>\n   <ns>10</ns>\n   <text>", title); err != nil {
		return err
	}
	for _, line := range body {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</text>\n</page>\n")
	return err
}
