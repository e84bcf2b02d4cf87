// Package pages turns the main dump stream into a lazy sequence of
// qualifying article records.
package pages

import (
	"strings"

	"github.com/amestead/wikiextract/internal/dump"
	"github.com/amestead/wikiextract/pkg/metrics"
)

// Record is one qualifying article as read from the dump. It is handed to
// exactly one extraction worker and never shared.
type Record struct {
	ID         string
	RevisionID string
	Title      string
	// Lines is the raw article body, one entry per dump line.
	Lines []string
}

// Collector is a pull-based iterator over the main dump. It owns a
// forward-only stream cursor and is not restartable; state between Next
// calls is exactly the page scan state machine.
type Collector struct {
	stream  *dump.Stream
	site    *dump.SiteInfo
	metrics *metrics.Metrics

	// lastID is the id of the most recently yielded record. Duplicate
	// suppression compares against it only, so a duplicate id recurring
	// after an intervening different id is yielded again. That matches
	// the dump's adjacent-revision quirk and must not be widened to a
	// seen-set.
	lastID string
}

// NewCollector creates a Collector over the stream. metrics may be nil.
func NewCollector(s *dump.Stream, site *dump.SiteInfo, m *metrics.Metrics) *Collector {
	return &Collector{stream: s, site: site, metrics: m}
}

// Next scans forward to the next qualifying page and returns its record.
// It returns ok=false at end of stream; check Err afterwards. Pages that do
// not qualify are fully consumed and discarded.
func (c *Collector) Next() (*Record, bool) {
	var (
		page     []string
		id       string
		revID    string
		title    string
		inText   bool
		redirect bool
	)
	for c.stream.Next() {
		line := c.stream.Line()
		ev, ok := dump.Scan(line)
		if !ok {
			if inText {
				page = append(page, line)
			}
			continue
		}
		switch {
		case ev.Tag == "page":
			page = nil
			redirect = false
		case ev.Tag == "id" && id == "":
			id = ev.Text
		case ev.Tag == "id":
			// A second id inside the page is the nested revision id.
			revID = ev.Text
		case ev.Tag == "title":
			title = ev.Text
		case ev.Tag == "redirect":
			redirect = true
		case ev.Tag == "text":
			inText = true
			page = append(page, ev.Text)
			if ev.HasTrailing {
				inText = false
			}
		case ev.Tag == "/text":
			if ev.Leading != "" {
				page = append(page, ev.Leading)
			}
			inText = false
		case ev.Tag == "/page":
			if c.qualifies(id, title, redirect) {
				c.lastID = id
				if c.metrics != nil {
					c.metrics.PagesCollected.Inc()
				}
				return &Record{ID: id, RevisionID: revID, Title: title, Lines: page}, true
			}
			id = ""
			revID = ""
			page = nil
			inText = false
			redirect = false
		default:
			if inText {
				page = append(page, line)
			}
		}
	}
	return nil, false
}

// Err returns the first stream-level read error, if any.
func (c *Collector) Err() error {
	return c.stream.Err()
}

func (c *Collector) qualifies(id, title string, redirect bool) bool {
	if colon := strings.Index(title, ":"); colon >= 0 && !c.site.Accepts(title[:colon]) {
		c.skip("namespace")
		return false
	}
	if id == c.lastID {
		c.skip("duplicate_id")
		return false
	}
	if redirect {
		c.skip("redirect")
		return false
	}
	if prefix := c.site.TemplatePrefix(); prefix != "" && strings.HasPrefix(title, prefix) {
		c.skip("template")
		return false
	}
	return true
}

func (c *Collector) skip(reason string) {
	if c.metrics != nil {
		c.metrics.PagesSkipped.WithLabelValues(reason).Inc()
	}
}
