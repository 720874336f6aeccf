package parser

import (
	"testing"
)

func TestParseMetadataAndBody(t *testing.T) {
	input := []byte("---\ntitle: \"Plan\"\ntags: [go, raido]\n---\n# Plan\nBody text.\n")
	r := Parse(input)
	if r.Title != "Plan" {
		t.Errorf("title = %q, want %q", r.Title, "Plan")
	}
	if len(r.Tags) != 2 || r.Tags[0] != "go" || r.Tags[1] != "raido" {
		t.Errorf("tags = %v, want [go raido]", r.Tags)
	}
	if r.Body != "# Plan\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
	if r.Meta["title"] != "Plan" {
		t.Errorf("meta = %v", r.Meta)
	}
}

func TestParseNoMetadata(t *testing.T) {
	r := Parse([]byte("# Just a heading\nSome text.\n"))
	if r.Meta != nil {
		t.Errorf("expected nil meta, got %v", r.Meta)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
}

func TestParseInvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	r := Parse(input)
	if r.Meta != nil {
		t.Errorf("expected nil meta on invalid YAML, got %v", r.Meta)
	}
	if r.Body != string(input) {
		t.Errorf("body should keep the whole content, got %q", r.Body)
	}
}

func TestExtractLinks(t *testing.T) {
	body := "See [[Note A]] and [[Note B|alias]].\nAlso [[Note A#Section]] again and ![[banner.png]]."
	links := extractLinks(body)
	want := []string{"Note A", "Note B", "banner.png"}
	if len(links) != len(want) {
		t.Fatalf("links = %v, want %v", links, want)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("links[%d] = %q, want %q", i, links[i], want[i])
		}
	}
}

func TestExtractLinksSkipsEmptyTargets(t *testing.T) {
	links := extractLinks("see [[ ]] and [[|alias]] and [[#In Page]]")
	if len(links) != 0 {
		t.Errorf("expected no links, got %v", links)
	}
}

func TestExtractTagsMetadataAndInline(t *testing.T) {
	meta := map[string]any{
		"tags": []any{"alpha"},
	}
	body := "Some text #beta and #alpha again."
	tags := extractTags(body, meta)
	// alpha from the block, beta inline; alpha not duplicated.
	if len(tags) != 2 || tags[0] != "alpha" || tags[1] != "beta" {
		t.Errorf("tags = %v, want [alpha beta]", tags)
	}
}

func TestDeriveTitleMetadataOverH1(t *testing.T) {
	meta := map[string]any{"title": "Block Title"}
	title := deriveTitle(meta, "# H1 Title\ntext")
	if title != "Block Title" {
		t.Errorf("title = %q, want %q", title, "Block Title")
	}
}

func TestDeriveTitleH1Fallback(t *testing.T) {
	title := deriveTitle(nil, "some text\n# My Heading\nmore")
	if title != "My Heading" {
		t.Errorf("title = %q, want %q", title, "My Heading")
	}
}
