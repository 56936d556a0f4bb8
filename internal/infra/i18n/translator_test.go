//go:build !integration

package i18n

import (
	"testing"
	"testing/fstest"
)

func TestTranslator(t *testing.T) {
	contentBytes := []byte("greeting: नमस्ते\nwelcome_user: नमस्ते %s\ncourses_unlocked_one: one course\ncourses_unlocked_other: \"%d courses\"")

	translator, err := newTranslatorFromBytes(contentBytes)
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	t.Run("should translate a simple key", func(t *testing.T) {
		got := translator.T("greeting")
		want := "नमस्ते"
		if got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		got := translator.T("nonexistent_key")
		want := "nonexistent_key"
		if got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		got := translator.T("welcome_user", "Priya")
		want := "नमस्ते Priya"
		if got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should pick plural form", func(t *testing.T) {
		if got := translator.N("courses_unlocked", 1); got != "one course" {
			t.Errorf("got %q", got)
		}
		if got := translator.N("courses_unlocked", 3); got != "3 courses" {
			t.Errorf("got %q", got)
		}
	})
}

func TestBundle_NegotiatesAndFallsBack(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en.yaml": {Data: []byte("hello: hello\nonly_en: english only\n")},
		"locales/hi.yaml": {Data: []byte("hello: namaste\n")},
	}
	b, err := NewBundle(fsys, "en", "hi")
	if err != nil {
		t.Fatal(err)
	}

	if got := b.For("hi-IN,hi;q=0.9,en;q=0.8").T("hello"); got != "namaste" {
		t.Errorf("hindi: got %q", got)
	}
	if got := b.For("hi").T("only_en"); got != "english only" {
		t.Errorf("missing key should fall back to en, got %q", got)
	}
	if got := b.For("").T("hello"); got != "hello" {
		t.Errorf("empty header: got %q", got)
	}
	if got := b.For("fr-FR").Lang(); got != "en" {
		t.Errorf("unsupported language should use fallback, got %q", got)
	}
}

func TestEmbeddedLocales(t *testing.T) {
	b := MustDefault()
	if got := b.For("en").N("courses_unlocked", 3); got != "3 courses unlocked" {
		t.Errorf("got %q", got)
	}
	if got := b.For("en").N("courses_unlocked", 1); got != "1 course unlocked" {
		t.Errorf("got %q", got)
	}
}
