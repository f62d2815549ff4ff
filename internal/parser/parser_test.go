package parser

import (
	"strings"
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\nparents: [3, 5]\ntags:\n  - go\n  - zettel\n---\n# Hello\nBody text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if len(r.Tags) != 2 || r.Tags[0] != "go" || r.Tags[1] != "zettel" {
		t.Errorf("tags = %v, want [go zettel]", r.Tags)
	}
	if len(r.Parents) != 2 || r.Parents[0] != 3 || r.Parents[1] != 5 {
		t.Errorf("parents = %v, want [3 5]", r.Parents)
	}
	if r.Body != "# Hello\nBody text.\n" {
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

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
	if r.Body != string(input) {
		t.Errorf("invalid YAML should keep the whole file as body")
	}
}

func TestExtractParents_Citations(t *testing.T) {
	fm := map[string]any{"parents": []any{7, "9"}}
	body := "Builds on [[12]] and [[7|the earlier one]]; see also [[Some Page]] and [[ 15 ]]."
	got := extractParents(body, fm)
	want := []int64{7, 9, 12, 15}
	if len(got) != len(want) {
		t.Fatalf("parents = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("parents = %v, want %v", got, want)
			break
		}
	}
}

func TestExtractParents_IgnoresInvalid(t *testing.T) {
	got := extractParents("[[0]] [[-4]] [[]] [[x1]]", nil)
	if len(got) != 0 {
		t.Errorf("parents = %v, want none", got)
	}
}

func TestExtractTags_InlineAndFrontmatter(t *testing.T) {
	fm := map[string]any{
		"tags": []any{"alpha"},
	}
	body := "Some text #beta and #alpha again."
	tags := extractTags(body, fm)
	if len(tags) != 2 || tags[0] != "alpha" || tags[1] != "beta" {
		t.Errorf("tags = %v, want [alpha beta]", tags)
	}
}

func TestDeriveTitle_FrontmatterOverH1(t *testing.T) {
	fm := map[string]any{"title": "FM Title"}
	if title := deriveTitle(fm, "# H1 Title\ntext"); title != "FM Title" {
		t.Errorf("title = %q, want %q", title, "FM Title")
	}
}

func TestDeriveTitle_Fallbacks(t *testing.T) {
	if got := DeriveTitle("some text\n# My Heading\nmore"); got != "My Heading" {
		t.Errorf("title = %q, want My Heading", got)
	}
	if got := DeriveTitle("\n\n  first line  \nsecond"); got != "first line" {
		t.Errorf("title = %q, want first line", got)
	}
	long := DeriveTitle(strings.Repeat("x", 200))
	if n := len([]rune(long)); n != maxTitleRunes {
		t.Errorf("long title has %d runes, want %d", n, maxTitleRunes)
	}
	if got := DeriveTitle(""); got != "" {
		t.Errorf("empty content title = %q", got)
	}
}
