package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/readlog/internal/apperr"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\nauthor: Someone\n---\n\nBody text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter["title"] != "Hello" || r.Frontmatter["author"] != "Someone" {
		t.Errorf("frontmatter = %v", r.Frontmatter)
	}
	if r.Body != "Body text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Body != string(input) {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_EmptyFrontmatter(t *testing.T) {
	r, err := Parse([]byte("---\n---\nbody\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Frontmatter) != 0 || r.Body != "body\n" {
		t.Errorf("result = %+v", r)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("---\n: invalid: yaml: {{{\n---\nBody\n"))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestParse_Unclosed(t *testing.T) {
	_, err := Parse([]byte("---\ntitle: x\nbody without end"))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestParse_NumericTitleKeepsSourceText(t *testing.T) {
	cases := map[string]string{
		"1984":  "1984",
		"007":   "007",
		"1.10":  "1.10",
		"0x1F":  "0x1F",
		"1_000": "1_000",
		"3.0":   "3.0",
	}
	for raw, want := range cases {
		r, err := Parse([]byte("---\ntitle: " + raw + "\nauthor: 42\nyear: 1949\n---\n"))
		if err != nil {
			t.Fatalf("Parse(%s): %v", raw, err)
		}
		if got, ok := r.Frontmatter["title"].(string); !ok || got != want {
			t.Errorf("title %s = %#v, want %q", raw, r.Frontmatter["title"], want)
		}
		if r.Frontmatter["author"] != "42" {
			t.Errorf("author = %#v, want \"42\"", r.Frontmatter["author"])
		}
		if _, ok := r.Frontmatter["year"].(int); !ok {
			t.Errorf("unknown keys keep their YAML type, year = %T", r.Frontmatter["year"])
		}
	}
}

func TestParse_NonMappingFrontmatter(t *testing.T) {
	_, err := Parse([]byte("---\n- a\n- b\n---\n"))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestRender_KeyOrder(t *testing.T) {
	fm := map[string]any{
		"favorite":   true,
		"zeta":       "z",
		"title":      "Dune",
		"alpha":      1,
		"finished":   nil,
		"author":     "Frank Herbert",
		"coverImage": "/images/readings/dune.jpg",
	}
	out, err := Render(fm, "")
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"---",
		"title: Dune",
		"author: Frank Herbert",
		"finished: null",
		"coverImage: /images/readings/dune.jpg",
		"favorite: true",
		"alpha: 1",
		"zeta: z",
		"---",
		"",
	}, "\n")
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Errorf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_QuotesAmbiguousStrings(t *testing.T) {
	fm := map[string]any{"title": "1984", "finished": "2023-01-15T00:00:00.000Z"}
	out, err := Render(fm, "Notes.")
	if err != nil {
		t.Fatal(err)
	}
	r, err := Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(fm, r.Frontmatter); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if r.Body != "Notes.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestRender_Deterministic(t *testing.T) {
	fm := map[string]any{"b": 1, "a": 2, "title": "x", "c": 3}
	first, _ := Render(fm, "body")
	for i := 0; i < 10; i++ {
		again, _ := Render(fm, "body")
		if string(again) != string(first) {
			t.Fatalf("render is not deterministic:\n%s\n%s", first, again)
		}
	}
}
