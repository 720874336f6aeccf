// Package linkrewrite converts exported markdown links into wiki links
// using a completed rename plan. Rewriting is line oriented and purely
// textual: fenced code, inline code, and anything it cannot classify pass
// through byte for byte, so a rewrite can never make a note worse.
package linkrewrite

import (
	"net/url"
	"path"
	"strings"

	"github.com/starford/raido/internal/namecanon"
	"github.com/starford/raido/internal/vaultindex"
)

// Result counts what a rewrite changed.
type Result struct {
	Converted     int // markdown note links turned into wiki links
	AssetsUpdated int // asset links whose target path changed
}

// Rewriter rewrites note bodies against one rename plan.
type Rewriter struct {
	plan *vaultindex.Index
}

// New returns a Rewriter over a completed plan.
func New(plan *vaultindex.Index) *Rewriter {
	return &Rewriter{plan: plan}
}

// RewriteBody rewrites every link in a note body. The host entry locates
// the note so relative targets resolve against its original directory and
// rebuilt asset paths are relative to its migrated directory. The body must
// not include a metadata block.
func (rw *Rewriter) RewriteBody(host *vaultindex.Entry, body []byte) ([]byte, Result) {
	var res Result
	var out strings.Builder
	out.Grow(len(body))

	fenced := false
	rest := string(body)
	for rest != "" {
		line := rest
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			line, rest = rest[:i+1], rest[i+1:]
		} else {
			rest = ""
		}
		bare := strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(strings.TrimSpace(bare), "```") {
			fenced = !fenced
			out.WriteString(line)
			continue
		}
		if fenced {
			out.WriteString(line)
			continue
		}
		out.WriteString(rw.rewriteLine(host, bare, &res))
		out.WriteString(line[len(bare):])
	}
	return []byte(out.String()), res
}

// rewriteLine walks one line, copying inline code spans and existing wiki
// links verbatim and rewriting markdown links as it finds them.
func (rw *Rewriter) rewriteLine(host *vaultindex.Entry, line string, res *Result) string {
	var b strings.Builder
	i := 0
	for i < len(line) {
		switch line[i] {
		case '`':
			end := strings.IndexByte(line[i+1:], '`')
			if end < 0 {
				b.WriteString(line[i:])
				return b.String()
			}
			b.WriteString(line[i : i+end+2])
			i += end + 2
		case '[':
			if i+1 < len(line) && line[i+1] == '[' {
				// Existing wiki link: already in target form.
				if end := strings.Index(line[i+2:], "]]"); end >= 0 {
					b.WriteString(line[i : i+end+4])
					i += end + 4
				} else {
					b.WriteString("[[")
					i += 2
				}
				continue
			}
			if raw, consumed, ok := rw.rewriteLinkAt(host, line[i:], false, res); ok {
				b.WriteString(raw)
				i += consumed
				continue
			}
			b.WriteByte(line[i])
			i++
		case '!':
			if i+1 < len(line) && line[i+1] == '[' {
				if raw, consumed, ok := rw.rewriteLinkAt(host, line[i+1:], true, res); ok {
					b.WriteString(raw)
					i += consumed + 1
					continue
				}
			}
			b.WriteByte(line[i])
			i++
		default:
			b.WriteByte(line[i])
			i++
		}
	}
	return b.String()
}

// rewriteLinkAt parses a markdown link starting at s[0] == '[' and returns
// its replacement and the number of bytes consumed. ok is false when s does
// not hold a complete markdown link.
func (rw *Rewriter) rewriteLinkAt(host *vaultindex.Entry, s string, embed bool, res *Result) (string, int, bool) {
	mid := strings.Index(s, "](")
	if mid < 0 {
		return "", 0, false
	}
	close := strings.IndexByte(s[mid+2:], ')')
	if close < 0 {
		return "", 0, false
	}
	close = mid + 2 + close
	text := s[1:mid]
	target := strings.TrimSpace(s[mid+2 : close])
	return rw.rewriteLink(host, text, target, embed, res), close + 1, true
}

func (rw *Rewriter) rewriteLink(host *vaultindex.Entry, text, target string, embed bool, res *Result) string {
	original := markdownLink(text, target, embed)
	if target == "" || strings.HasPrefix(target, "#") || isExternal(target) {
		return original
	}

	pathPart, frag := splitFragment(target)
	decoded, err := url.PathUnescape(pathPart)
	if err != nil {
		decoded = pathPart
	}
	if decoded == "" {
		return original
	}

	if strings.HasSuffix(strings.ToLower(decoded), ".md") {
		link := rw.noteLink(host, text, decoded, frag, embed)
		res.Converted++
		return link
	}

	newTarget := rw.assetTarget(host, decoded)
	if frag != "" {
		newTarget += frag
	}
	if newTarget == target {
		return original
	}
	res.AssetsUpdated++
	return markdownLink(text, newTarget, embed)
}

// noteLink builds the wiki link for a markdown link to a note. Resolvable
// targets take the planned title, including any collision demotion; targets
// outside the plan degrade to a cleaned basename so the link text still
// points at the right note once it exists.
func (rw *Rewriter) noteLink(host *vaultindex.Entry, text, decoded, frag string, embed bool) string {
	title := ""
	joined := path.Join(host.RelDir, decoded)
	if e, ok := rw.plan.Lookup(joined); ok && e.Kind == vaultindex.KindNote {
		title = e.Title
	} else {
		clean, _ := namecanon.CleanName(path.Base(decoded), rw.plan.MaxName())
		title = strings.TrimSuffix(clean, ".md")
	}

	anchor := ""
	if frag != "" {
		anchor = strings.TrimPrefix(frag, "#")
		if dec, err := url.PathUnescape(anchor); err == nil {
			anchor = dec
		}
	}

	inner := title
	if anchor != "" {
		inner += "#" + anchor
	}
	if aliasNeeded(text, title, anchor) {
		inner += "|" + text
	}
	link := "[[" + inner + "]]"
	if embed {
		return "!" + link
	}
	return link
}

// assetTarget rebuilds an asset path for the migrated tree. Targets the
// plan knows are re-derived from the planned locations of the host and the
// asset; unknown targets fall back to cleaning each path segment in place.
// Every rebuilt segment is percent-encoded so spaces and parentheses cannot
// break the markdown form.
func (rw *Rewriter) assetTarget(host *vaultindex.Entry, decoded string) string {
	if e, ok := rw.plan.Lookup(path.Join(host.RelDir, decoded)); ok && e.Kind != vaultindex.KindDir {
		return encodeSegments(relPath(host.CleanRelDir, e.CleanPath()))
	}

	segs := strings.Split(decoded, "/")
	for i, seg := range segs {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		if i == len(segs)-1 {
			segs[i], _ = namecanon.CleanName(seg, rw.plan.MaxName())
		} else {
			segs[i], _ = namecanon.CleanDirName(seg, rw.plan.MaxName())
		}
	}
	return encodeSegments(strings.Join(segs, "/"))
}

// aliasNeeded reports whether the display text carries information the wiki
// link target would not already render.
func aliasNeeded(display, title, anchor string) bool {
	if display == "" || display == title {
		return false
	}
	if t := strings.TrimSuffix(display, ".md"); t != display && t == title {
		return false
	}
	if anchor != "" && display == title+"#"+anchor {
		return false
	}
	return true
}

func markdownLink(text, target string, embed bool) string {
	link := "[" + text + "](" + target + ")"
	if embed {
		return "!" + link
	}
	return link
}

// isExternal reports whether a target leaves the vault. Anything carrying a
// scheme is left alone, not just the web schemes the exporter emits.
func isExternal(target string) bool {
	if strings.HasPrefix(target, "mailto:") {
		return true
	}
	return strings.Contains(target, "://")
}

func splitFragment(target string) (string, string) {
	if i := strings.IndexByte(target, '#'); i >= 0 {
		return target[:i], target[i:]
	}
	return target, ""
}

// relPath computes the slash path from a directory to a file within the
// same tree. Both arguments use cleaned names; "" is the vault root.
func relPath(fromDir, to string) string {
	if fromDir == "" {
		return to
	}
	from := strings.Split(fromDir, "/")
	segs := strings.Split(to, "/")
	common := 0
	for common < len(from) && common < len(segs)-1 && from[common] == segs[common] {
		common++
	}
	out := make([]string, 0, len(from)-common+len(segs)-common)
	for range from[common:] {
		out = append(out, "..")
	}
	out = append(out, segs[common:]...)
	return strings.Join(out, "/")
}

func encodeSegments(p string) string {
	segs := strings.Split(p, "/")
	for i, seg := range segs {
		if seg == "." || seg == ".." {
			continue
		}
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}
