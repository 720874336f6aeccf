// Package callout translates exported <aside> blocks into callout quotes.
// The exporter renders page callouts as an aside whose content starts with
// the callout's icon emoji; the target renderer wants a typed block quote.
package callout

import "strings"

// emojiTypes maps leading icon emojis to callout types. Variation-selector
// forms are listed before their bare base so the longest form matches first.
var emojiTypes = []struct {
	prefix string
	typ    string
}{
	{"💡", "tip"},
	{"⚠️", "warning"},
	{"⚠", "warning"},
	{"ℹ️", "info"},
	{"ℹ", "info"},
	{"📝", "note"},
	{"❗", "important"},
	{"🔥", "danger"},
	{"🚨", "danger"},
	{"✅", "success"},
	{"❓", "question"},
	{"🐛", "bug"},
	{"💭", "quote"},
	{"📌", "note"},
}

const (
	openTag  = "<aside>"
	closeTag = "</aside>"
)

// Translate rewrites every aside block in a note body into a callout quote
// and reports how many it translated. Blocks inside code fences and asides
// that never close are left untouched.
func Translate(body []byte) ([]byte, int) {
	lines := strings.Split(string(body), "\n")
	var out []string
	count := 0
	fenced := false

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			fenced = !fenced
			out = append(out, line)
			continue
		}
		if fenced || !strings.HasPrefix(trimmed, openTag) {
			out = append(out, line)
			continue
		}

		// Single-line form: <aside>emoji text</aside>
		if strings.HasSuffix(trimmed, closeTag) && len(trimmed) > len(openTag)+len(closeTag)-1 {
			inner := strings.TrimSpace(trimmed[len(openTag) : len(trimmed)-len(closeTag)])
			out = append(out, quote([]string{inner})...)
			count++
			continue
		}

		// Multi-line form: collect until the closing tag.
		end := -1
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == closeTag {
				end = j
				break
			}
		}
		if end < 0 {
			out = append(out, line)
			continue
		}
		content := lines[i+1 : end]
		if rest := strings.TrimSpace(trimmed[len(openTag):]); rest != "" {
			content = append([]string{rest}, content...)
		}
		out = append(out, quote(content)...)
		count++
		i = end
	}
	return []byte(strings.Join(out, "\n")), count
}

// quote renders aside content as a typed callout. The type comes from the
// leading emoji, which is dropped from the text; content without a known
// icon becomes a plain note callout.
func quote(content []string) []string {
	typ := "note"
	if len(content) > 0 {
		first := strings.TrimSpace(content[0])
		for _, e := range emojiTypes {
			if strings.HasPrefix(first, e.prefix) {
				typ = e.typ
				content[0] = strings.TrimLeft(strings.TrimPrefix(first, e.prefix), " \t")
				break
			}
		}
	}

	out := []string{"> [!" + typ + "]"}
	for _, line := range content {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			out = append(out, ">")
			continue
		}
		out = append(out, "> "+line)
	}
	// A callout whose only line was the icon needs no empty quote line.
	if len(out) == 2 && out[1] == ">" {
		out = out[:1]
	}
	return out
}
