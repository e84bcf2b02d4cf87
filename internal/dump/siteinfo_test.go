package dump

import (
	"errors"
	"strings"
	"testing"

	apperrors "github.com/amestead/wikiextract/pkg/errors"
)

const headerFixture = `<mediawiki xml:lang="en">
  <siteinfo>
    <sitename>Testwiki</sitename>
    <base>https://test.example.org/wiki/Main_Page</base>
    <namespaces>
      <namespace key="-1">Special</namespace>
      <namespace key="0" />
      <namespace key="10" case="first-letter">Template</namespace>
      <namespace key="828">Module</namespace>
    </namespaces>
  </siteinfo>
  <page>
    <title>First</title>
  </page>
`

func TestReadSiteInfo(t *testing.T) {
	s := NewStream(strings.NewReader(headerFixture), true)
	si, err := ReadSiteInfo(s)
	if err != nil {
		t.Fatalf("ReadSiteInfo: %v", err)
	}
	if si.BaseURL != "https://test.example.org/wiki" {
		t.Errorf("BaseURL = %q, want path up to the last slash", si.BaseURL)
	}
	if si.TemplateNamespace != "Template" {
		t.Errorf("TemplateNamespace = %q, want Template", si.TemplateNamespace)
	}
	if si.ModuleNamespace != "Module" {
		t.Errorf("ModuleNamespace = %q, want Module", si.ModuleNamespace)
	}
	if si.TemplatePrefix() != "Template:" {
		t.Errorf("TemplatePrefix = %q, want Template:", si.TemplatePrefix())
	}
	if got := si.NamespaceByKey[-1]; got != "Special" {
		t.Errorf("NamespaceByKey[-1] = %q, want Special", got)
	}
	if !si.Accepts("Template") || !si.Accepts("Special") {
		t.Error("header namespaces missing from accepted set")
	}
}

// TestReadSiteInfoStopsAtClose verifies the reader does not consume page
// content past </siteinfo>.
func TestReadSiteInfoStopsAtClose(t *testing.T) {
	s := NewStream(strings.NewReader(headerFixture), true)
	if _, err := ReadSiteInfo(s); err != nil {
		t.Fatalf("ReadSiteInfo: %v", err)
	}
	if !s.Next() {
		t.Fatal("stream exhausted, want page content remaining")
	}
	if got := strings.TrimSpace(s.Line()); got != "<page>" {
		t.Errorf("next line = %q, want <page>", got)
	}
}

func TestReadSiteInfoOverrideAccepted(t *testing.T) {
	s := NewStream(strings.NewReader(headerFixture), true)
	si, err := ReadSiteInfo(s)
	if err != nil {
		t.Fatalf("ReadSiteInfo: %v", err)
	}
	si.OverrideAccepted([]string{"Help"})
	if si.Accepts("Template") {
		t.Error("override kept a header namespace")
	}
	if !si.Accepts("Help") {
		t.Error("override lost the explicit namespace")
	}
}

func TestReadSiteInfoTruncatedHeader(t *testing.T) {
	s := NewStream(strings.NewReader("<mediawiki>\n  <siteinfo>\n"), true)
	_, err := ReadSiteInfo(s)
	if !errors.Is(err, apperrors.ErrNoSiteInfo) {
		t.Errorf("err = %v, want ErrNoSiteInfo", err)
	}
}
