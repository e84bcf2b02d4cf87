package templates

import (
	"errors"
	"testing"

	apperrors "github.com/amestead/wikiextract/pkg/errors"
)

func TestStoreDefineAndLookup(t *testing.T) {
	s := NewStore()
	if err := s.Define("Template:Foo", []string{"bar"}); err != nil {
		t.Fatalf("Define: %v", err)
	}
	body, ok := s.Lookup("Template:Foo")
	if !ok {
		t.Fatal("Lookup missed a defined template")
	}
	if len(body) != 1 || body[0] != "bar" {
		t.Errorf("body = %v", body)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

// TestStoreNormalization verifies that underscore and case variants of the
// same title resolve to one definition.
func TestStoreNormalization(t *testing.T) {
	s := NewStore()
	if err := s.Define("Template:foo_bar", []string{"x"}); err != nil {
		t.Fatal(err)
	}
	for _, title := range []string{"Template:Foo bar", "Template:foo bar", "Template:Foo_bar"} {
		if _, ok := s.Lookup(title); !ok {
			t.Errorf("Lookup(%q) missed", title)
		}
	}
}

func TestStoreFreeze(t *testing.T) {
	s := NewStore()
	if err := s.Define("Template:A", []string{"a"}); err != nil {
		t.Fatal(err)
	}
	s.Freeze()
	err := s.Define("Template:B", []string{"b"})
	if !errors.Is(err, apperrors.ErrStoreFrozen) {
		t.Errorf("Define after Freeze = %v, want ErrStoreFrozen", err)
	}
	if _, ok := s.Lookup("Template:A"); !ok {
		t.Error("freeze lost an existing definition")
	}
}
