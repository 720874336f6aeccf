package frontmatter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Render serializes a Record into a delimited metadata block. Field order
// is fixed (title, tags, aliases, notion-id, folder, banner, the inline
// fields, public-url, published, then foreign keys) so output is
// deterministic and golden-testable. If YAML serialization fails the
// function falls back to a minimal hand-built block; it never returns an
// error, because losing a file over metadata is worse than degraded
// metadata.
func Render(r Record) []byte {
	root := &yaml.Node{Kind: yaml.MappingNode}
	put := func(key string, val *yaml.Node) {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key}, val)
	}

	if r.Title != "" {
		put("title", quoted(r.Title))
	}
	if len(r.Tags) > 0 {
		put("tags", flowSeq(r.Tags, 0))
	}
	if len(r.Aliases) > 0 {
		put("aliases", flowSeq(r.Aliases, yaml.DoubleQuotedStyle))
	}
	if r.NotionID != "" {
		put("notion-id", quoted(r.NotionID))
	}
	if r.Folder != "" {
		put("folder", quoted(r.Folder))
	}
	if r.Banner != "" {
		put("banner", quoted(r.Banner))
	}
	if r.Status != "" {
		put("status", quoted(r.Status))
	}
	if r.Owner != "" {
		put("owner", quoted(r.Owner))
	}
	if r.Dates != "" {
		put("dates", quoted(r.Dates))
	}
	if r.Priority != "" {
		put("priority", quoted(r.Priority))
	}
	if r.Completion != nil {
		put("completion", &yaml.Node{
			Kind:  yaml.ScalarNode,
			Value: strconv.FormatFloat(*r.Completion, 'g', -1, 64),
		})
	}
	if r.Summary != "" {
		put("summary", quoted(r.Summary))
	}
	if r.PublicURL != "" {
		put("public-url", quoted(r.PublicURL))
	}
	if r.Published != nil {
		put("published", &yaml.Node{
			Kind:  yaml.ScalarNode,
			Value: strconv.FormatBool(*r.Published),
		})
	}

	for _, key := range sortedKeys(r.Extra) {
		var val yaml.Node
		if err := val.Encode(r.Extra[key]); err != nil {
			return renderFallback(r)
		}
		put(key, &val)
	}

	out, err := yaml.Marshal(root)
	if err != nil {
		return renderFallback(r)
	}
	var b strings.Builder
	b.Grow(len(out) + 2*len(delimiter) + 2)
	b.WriteString(delimiter)
	b.WriteByte('\n')
	b.Write(out)
	b.WriteString(delimiter)
	b.WriteByte('\n')
	return []byte(b.String())
}

func quoted(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: s, Style: yaml.DoubleQuotedStyle}
}

func flowSeq(items []string, style yaml.Style) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, item := range items {
		seq.Content = append(seq.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Value: item,
			Style: style,
		})
	}
	return seq
}

func sortedKeys(m map[string]any) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// renderFallback hand-builds a minimal block carrying only the identity
// fields. The body of the note must survive even when metadata cannot be
// serialized properly.
func renderFallback(r Record) []byte {
	var b strings.Builder
	b.WriteString(delimiter)
	b.WriteByte('\n')
	if r.Title != "" {
		fmt.Fprintf(&b, "title: %q\n", r.Title)
	}
	if len(r.Aliases) > 0 {
		fmt.Fprintf(&b, "aliases: [%q]\n", r.Aliases[0])
	}
	if r.NotionID != "" {
		fmt.Fprintf(&b, "notion-id: %q\n", r.NotionID)
	}
	if r.Folder != "" {
		fmt.Fprintf(&b, "folder: %q\n", r.Folder)
	}
	published := r.Published != nil && *r.Published
	fmt.Fprintf(&b, "published: %v\n", published)
	b.WriteString(delimiter)
	b.WriteByte('\n')
	return []byte(b.String())
}
