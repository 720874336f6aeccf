package frontmatter

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Split separates a recognized leading metadata block from the body.
// A block is recognized only when the content begins, after an optional
// byte-order mark, with a line consisting of exactly three hyphens;
// alternative delimiters are rejected on purpose, since the target
// renderer accepts only this form. The returned block excludes both
// delimiter lines.
func Split(data []byte) (block, body []byte, ok bool) {
	rest := bytes.TrimPrefix(data, []byte("\uFEFF"))
	line, tail, found := bytes.Cut(rest, []byte("\n"))
	if !found || string(bytes.TrimSuffix(line, []byte("\r"))) != delimiter {
		return nil, data, false
	}
	// Find the closing delimiter line.
	offset := 0
	for offset <= len(tail) {
		end := bytes.IndexByte(tail[offset:], '\n')
		var lineEnd int
		if end < 0 {
			lineEnd = len(tail)
		} else {
			lineEnd = offset + end
		}
		candidate := bytes.TrimSuffix(tail[offset:lineEnd], []byte("\r"))
		if string(candidate) == delimiter {
			block = tail[:offset]
			if end < 0 {
				body = nil
			} else {
				body = tail[lineEnd+1:]
			}
			return block, bytes.TrimLeft(body, "\r\n"), true
		}
		if end < 0 {
			break
		}
		offset = lineEnd + 1
	}
	return nil, data, false
}

// Parse decodes a metadata block (delimiters excluded) into a Record.
// Unrecognized keys are retained in Extra so later renders do not lose them.
func Parse(block []byte) (Record, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(block, &raw); err != nil {
		return Record{}, fmt.Errorf("frontmatter: parse: %w", err)
	}
	var r Record
	for key, val := range raw {
		switch key {
		case "title":
			r.Title = asString(val)
		case "tags":
			r.Tags = asStringList(val)
		case "aliases":
			r.Aliases = asStringList(val)
		case "notion-id":
			r.NotionID = asString(val)
		case "folder":
			r.Folder = asString(val)
		case "banner":
			r.Banner = asString(val)
		case "status":
			r.Status = asString(val)
		case "owner":
			r.Owner = asString(val)
		case "dates":
			r.Dates = asString(val)
		case "priority":
			r.Priority = asString(val)
		case "completion":
			if f, ok := asFloat(val); ok {
				r.Completion = &f
			}
		case "summary":
			r.Summary = asString(val)
		case "public-url":
			r.PublicURL = asString(val)
		case "published":
			if b, ok := val.(bool); ok {
				r.Published = &b
			}
		default:
			if r.Extra == nil {
				r.Extra = make(map[string]any)
			}
			r.Extra[key] = val
		}
	}
	return r, nil
}

// Compose assembles a full note: rendered metadata block, one blank line,
// then the body.
func Compose(r Record, body []byte) []byte {
	block := Render(r)
	out := make([]byte, 0, len(block)+1+len(body))
	out = append(out, block...)
	out = append(out, '\n')
	return append(out, body...)
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func asStringList(v any) []string {
	switch list := v.(type) {
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if list == "" {
			return nil
		}
		return []string{list}
	default:
		return nil
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// PathTags derives one tag per path segment of a vault-relative directory:
// lower-cased, non-alphanumeric runs collapsed to a single hyphen, duplicates
// removed while preserving first occurrence.
func PathTags(relDir string) []string {
	if relDir == "" || relDir == "." {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, seg := range strings.Split(relDir, "/") {
		tag := slugify(seg)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func slugify(input string) string {
	input = strings.ToLower(input)
	var b strings.Builder
	lastDash := false
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
