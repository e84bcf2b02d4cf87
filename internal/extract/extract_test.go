package extract

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amestead/wikiextract/pkg/config"
)

const dumpFixture = `<mediawiki xmlns="http://www.mediawiki.org/xml/export-0.10/">
  <siteinfo>
    <sitename>Testwiki</sitename>
    <base>https://test.example.org/wiki/Main_Page</base>
    <namespaces>
      <namespace key="0" />
      <namespace key="10" case="first-letter">Template</namespace>
    </namespaces>
  </siteinfo>
  <page>
    <title>Template:Foo</title>
    <ns>10</ns>
    <id>1</id>
    <revision>
      <id>11</id>
      <text xml:space="preserve">bar</text>
    </revision>
  </page>
  <page>
    <title>Hello</title>
    <ns>0</ns>
    <id>2</id>
    <revision>
      <id>12</id>
      <text xml:space="preserve">Say {{Foo}} loudly.</text>
    </revision>
  </page>
</mediawiki>
`

func writeDump(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "dump.xml")
	if err := os.WriteFile(path, []byte(dumpFixture), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readArticle(t *testing.T, outDir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(outDir, name))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	return string(data)
}

// TestRunExpandsTemplates is the end-to-end happy path: the template pass
// collects Template:Foo from the main dump, then the pipeline writes Hello
// with the reference expanded.
func TestRunExpandsTemplates(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	cfg := config.ExtractConfig{
		Input:           writeDump(t, dir),
		OutputDir:       outDir,
		ExpandTemplates: true,
		Processes:       2,
	}

	summary, err := Run(context.Background(), cfg, Deps{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Articles != 1 {
		t.Errorf("Articles = %d, want 1", summary.Articles)
	}
	if summary.Templates != 1 {
		t.Errorf("Templates = %d, want 1", summary.Templates)
	}

	out := readArticle(t, outDir, "Hello.md")
	if !strings.Contains(out, "Say bar loudly.") {
		t.Errorf("output = %q, want the expanded reference", out)
	}
	if !strings.HasPrefix(out, "# Hello") {
		t.Errorf("output = %q, want the title heading", out)
	}
	// The template page itself must not become an artifact.
	if _, err := os.Stat(filepath.Join(outDir, "Template_Foo.md")); err == nil {
		t.Error("template page was written as an article")
	}
}

// TestRunWithoutExpansion verifies the disable switch leaves the raw
// reference in the artifact and skips the preprocessing pass.
func TestRunWithoutExpansion(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	cfg := config.ExtractConfig{
		Input:           writeDump(t, dir),
		OutputDir:       outDir,
		ExpandTemplates: false,
		Processes:       2,
	}

	summary, err := Run(context.Background(), cfg, Deps{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Templates != 0 {
		t.Errorf("Templates = %d, want 0", summary.Templates)
	}
	out := readArticle(t, outDir, "Hello.md")
	if !strings.Contains(out, "{{Foo}}") {
		t.Errorf("output = %q, want the raw unexpanded reference", out)
	}
}

// TestRunCreatesAndReusesTemplateMirror runs twice with the same template
// file path: the first run mirrors collected templates into it, the second
// loads them from it instead of rescanning the dump.
func TestRunCreatesAndReusesTemplateMirror(t *testing.T) {
	dir := t.TempDir()
	tplFile := filepath.Join(dir, "templates.txt")
	cfg := config.ExtractConfig{
		Input:           writeDump(t, dir),
		OutputDir:       filepath.Join(dir, "out1"),
		TemplateFile:    tplFile,
		ExpandTemplates: true,
		Processes:       1,
	}

	if _, err := Run(context.Background(), cfg, Deps{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	mirror, err := os.ReadFile(tplFile)
	if err != nil {
		t.Fatalf("mirror not created: %v", err)
	}
	if !strings.Contains(string(mirror), "<title>Template:Foo</title>") {
		t.Errorf("mirror = %q, want the template page serialised", mirror)
	}

	cfg.OutputDir = filepath.Join(dir, "out2")
	summary, err := Run(context.Background(), cfg, Deps{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if summary.Templates != 1 {
		t.Errorf("Templates = %d, want 1 loaded from the mirror", summary.Templates)
	}
	out := readArticle(t, cfg.OutputDir, "Hello.md")
	if !strings.Contains(out, "Say bar loudly.") {
		t.Errorf("output = %q, want expansion from mirrored templates", out)
	}
}

func TestRunGzipDump(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.xml.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(dumpFixture)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	outDir := filepath.Join(dir, "out")
	cfg := config.ExtractConfig{
		Input:           path,
		OutputDir:       outDir,
		ExpandTemplates: true,
		Processes:       2,
	}
	if _, err := Run(context.Background(), cfg, Deps{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(readArticle(t, outDir, "Hello.md"), "Say bar loudly.") {
		t.Error("gzip dump did not produce the expanded article")
	}
}

// TestRunExplicitNamespaceFilter verifies the command-line namespace
// override suppresses articles outside the accepted set.
func TestRunExplicitNamespaceFilter(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	cfg := config.ExtractConfig{
		Input:           writeDump(t, dir),
		OutputDir:       outDir,
		Namespaces:      []string{"Help"},
		ExpandTemplates: false,
		Processes:       1,
	}
	summary, err := Run(context.Background(), cfg, Deps{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Hello has no namespace prefix and still qualifies; the template page
	// does not. With expansion off the template title check still applies.
	if summary.Articles != 1 {
		t.Errorf("Articles = %d, want 1", summary.Articles)
	}
}
