package pages

import (
	"fmt"
	"strings"
	"testing"

	"github.com/amestead/wikiextract/internal/dump"
)

func testSite() *dump.SiteInfo {
	si := dump.NewSiteInfo()
	si.TemplateNamespace = "Template"
	si.Accepted = map[string]struct{}{
		"Template": {},
		"Help":     {},
	}
	return si
}

func page(id, title, body string, redirect bool) string {
	var b strings.Builder
	b.WriteString("  <page>\n")
	fmt.Fprintf(&b, "    <title>%s</title>\n", title)
	if redirect {
		fmt.Fprintf(&b, "    <redirect title=\"Elsewhere\" />\n")
	}
	fmt.Fprintf(&b, "    <id>%s</id>\n", id)
	b.WriteString("    <revision>\n")
	fmt.Fprintf(&b, "      <id>%s01</id>\n", id)
	fmt.Fprintf(&b, "      <text xml:space=\"preserve\">%s</text>\n", body)
	b.WriteString("    </revision>\n")
	b.WriteString("  </page>\n")
	return b.String()
}

func collectAll(t *testing.T, dumpText string) []*Record {
	t.Helper()
	c := NewCollector(dump.NewStream(strings.NewReader(dumpText), true), testSite(), nil)
	var records []*Record
	for {
		rec, ok := c.Next()
		if !ok {
			break
		}
		records = append(records, rec)
	}
	if err := c.Err(); err != nil {
		t.Fatalf("collector error: %v", err)
	}
	return records
}

func TestCollectorYieldsQualifyingPages(t *testing.T) {
	records := collectAll(t, page("1", "Hello", "body text", false))
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.ID != "1" || rec.Title != "Hello" {
		t.Errorf("record = %+v", rec)
	}
	if rec.RevisionID != "101" {
		t.Errorf("RevisionID = %q, want the nested revision id", rec.RevisionID)
	}
	if len(rec.Lines) != 1 || rec.Lines[0] != "body text" {
		t.Errorf("Lines = %q", rec.Lines)
	}
}

func TestCollectorFiltersUnknownNamespace(t *testing.T) {
	text := page("1", "Secret:Hidden", "anything", false) +
		page("2", "Help:Known", "fine", false)
	records := collectAll(t, text)
	if len(records) != 1 || records[0].Title != "Help:Known" {
		t.Errorf("records = %+v, want only the accepted namespace", records)
	}
}

func TestCollectorFiltersRedirects(t *testing.T) {
	records := collectAll(t, page("1", "Moved", "#REDIRECT", true))
	if len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
}

func TestCollectorFiltersTemplatePages(t *testing.T) {
	records := collectAll(t, page("1", "Template:Box", "{{{1}}}", false))
	if len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
}

// TestCollectorAdjacentDuplicateIDs locks in the adjacent-only dedup rule:
// consecutive identical ids collapse to the first occurrence, but an id
// recurring after an intervening different id is yielded again.
func TestCollectorAdjacentDuplicateIDs(t *testing.T) {
	text := page("7", "First", "a", false) +
		page("7", "First again", "b", false) +
		page("8", "Interloper", "c", false) +
		page("7", "First returns", "d", false)
	records := collectAll(t, text)

	var ids []string
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	want := []string{"7", "8", "7"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
	if records[0].Title != "First" {
		t.Errorf("kept %q, want the first of the adjacent duplicates", records[0].Title)
	}
}

func TestCollectorMultiLineBody(t *testing.T) {
	text := "  <page>\n" +
		"    <title>Long</title>\n" +
		"    <id>5</id>\n" +
		"    <text xml:space=\"preserve\">first\n" +
		"middle has no markup\n" +
		"last</text>\n" +
		"  </page>\n"
	records := collectAll(t, text)
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	want := []string{"first", "middle has no markup", "last"}
	if len(records[0].Lines) != 3 {
		t.Fatalf("Lines = %q, want %q", records[0].Lines, want)
	}
	for i := range want {
		if records[0].Lines[i] != want[i] {
			t.Errorf("Lines[%d] = %q, want %q", i, records[0].Lines[i], want[i])
		}
	}
}
