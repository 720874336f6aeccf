// Package parser extracts what a note contributes to the index: its
// metadata, title, wikilink targets, and tags.
package parser

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/raido/internal/frontmatter"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Result holds the output of parsing one note.
type Result struct {
	Meta  map[string]any // decoded metadata block, nil when absent
	Body  string
	Title string   // metadata title, else first H1, else empty
	Links []string // wikilink targets reduced to titles, deduplicated
	Tags  []string // metadata tags then inline #tags, deduplicated
}

// Parse reads raw note content. The metadata block is delimited the same
// way the migration writes it; a block that fails to decode is kept as
// body text so a broken note still indexes.
func Parse(data []byte) *Result {
	block, body, ok := frontmatter.Split(data)
	var meta map[string]any
	if ok {
		if err := yaml.Unmarshal(block, &meta); err != nil {
			meta = nil
			body = data
		}
	}
	b := string(body)
	return &Result{
		Meta:  meta,
		Body:  b,
		Title: deriveTitle(meta, b),
		Links: extractLinks(b),
		Tags:  extractTags(b, meta),
	}
}

// extractLinks returns the titles a body links to. Aliases and anchors are
// dropped because both point at the same note; in-page anchors have no
// target note at all and are skipped. Embeds carry their target like any
// other link.
func extractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target := m[1]
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		if i := strings.Index(target, "#"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// extractTags collects tags from the metadata block, then inline #tags.
func extractTags(body string, meta map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string

	if meta != nil {
		if raw, ok := meta["tags"]; ok {
			if list, ok := raw.([]any); ok {
				for _, item := range list {
					s, ok := item.(string)
					if !ok {
						continue
					}
					s = strings.TrimSpace(s)
					if s == "" {
						continue
					}
					if _, dup := seen[s]; dup {
						continue
					}
					seen[s] = struct{}{}
					out = append(out, s)
				}
			}
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		t := m[1]
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	return out
}

// deriveTitle returns the metadata title if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(meta map[string]any, body string) string {
	if meta != nil {
		if t, ok := meta["title"]; ok {
			if s, ok := t.(string); ok && s != "" {
				return s
			}
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
