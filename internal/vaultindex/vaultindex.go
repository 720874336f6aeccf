// Package vaultindex walks an exported vault and computes the rename plan:
// every file and directory, its cleaned name, and the collision and
// duplicate outcomes. The plan is built completely before any write
// happens, so later phases always see the full rename picture.
package vaultindex

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/raido/internal/namecanon"
)

// Kind classifies a walked entry.
type Kind int

const (
	KindDir Kind = iota
	KindNote
	KindTable
	KindAsset
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindNote:
		return "note"
	case KindTable:
		return "table"
	default:
		return "asset"
	}
}

// Entry is one file or directory in the rename plan. Paths are vault
// relative, slash separated, "" meaning the vault root.
type Entry struct {
	Kind         Kind
	OriginalName string // base name as exported
	CleanName    string // final name, collision resolution applied
	Title        string // CleanName without extension
	RawTitle     string // original name with the identifier stripped, nothing else
	NotionID     string // extracted identifier, "" when the name carried none
	RelDir       string // parent directory, original names
	CleanRelDir  string // parent directory, cleaned names
	Demoted      bool   // collision fallback kept the identifier
}

// OriginalPath is the vault-relative path the entry was exported under.
func (e *Entry) OriginalPath() string {
	return path.Join(e.RelDir, e.OriginalName)
}

// CleanPath is the vault-relative path the entry migrates to.
func (e *Entry) CleanPath() string {
	return path.Join(e.CleanRelDir, e.CleanName)
}

// Renamed reports whether migration moves the entry at all.
func (e *Entry) Renamed() bool {
	return e.OriginalPath() != e.CleanPath()
}

// Stats summarizes a built plan.
type Stats struct {
	Dirs           int
	Notes          int
	Tables         int
	Assets         int
	Stripped       int // entries that carried an identifier token
	Demoted        int // same-directory collisions resolved by demotion
	Symlinks       int // skipped, never followed
	UnreadableDirs int // skipped subtrees
}

// DuplicateGroup lists notes in different directories that share a cleaned
// title. The group is advisory: migration proceeds and the report lets the
// vault owner decide what to merge.
type DuplicateGroup struct {
	Title   string
	Entries []*Entry
}

// Index is the immutable rename plan for one vault.
type Index struct {
	root    string
	maxName int
	entries []*Entry
	byOrig  map[string]*Entry
	stats   Stats
}

// Build walks root and returns the completed plan. The walk never follows
// symlinks; unreadable directories are logged and skipped rather than
// failing the whole run. Entries whose names begin with a dot are ignored.
func Build(root string, maxName int, log *slog.Logger) (*Index, error) {
	if log == nil {
		log = slog.Default()
	}
	if maxName <= 0 {
		maxName = namecanon.DefaultMaxLength
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("vaultindex: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vaultindex: %s is not a directory", root)
	}

	x := &Index{root: root, maxName: maxName, byOrig: make(map[string]*Entry)}
	if err := x.walk("", "", log); err != nil {
		return nil, err
	}
	return x, nil
}

// Root returns the absolute vault root the plan was built from.
func (x *Index) Root() string { return x.root }

// MaxName returns the name length bound the plan was built with.
func (x *Index) MaxName() int { return x.maxName }

// Entries returns every planned entry, parents before children, siblings in
// name order.
func (x *Index) Entries() []*Entry { return x.entries }

// Stats returns the plan counters.
func (x *Index) Stats() Stats { return x.stats }

// Lookup resolves a vault-relative path in original names to its entry.
func (x *Index) Lookup(rel string) (*Entry, bool) {
	e, ok := x.byOrig[path.Clean(rel)]
	return e, ok
}

// Notes returns the planned markdown notes in walk order.
func (x *Index) Notes() []*Entry {
	var out []*Entry
	for _, e := range x.entries {
		if e.Kind == KindNote {
			out = append(out, e)
		}
	}
	return out
}

// Duplicates groups notes that end up with the same title in different
// directories. Titles compare case-insensitively because common target
// filesystems do.
func (x *Index) Duplicates() []DuplicateGroup {
	byTitle := make(map[string][]*Entry)
	for _, e := range x.entries {
		if e.Kind != KindNote {
			continue
		}
		key := strings.ToLower(e.Title)
		byTitle[key] = append(byTitle[key], e)
	}
	var out []DuplicateGroup
	for _, list := range byTitle {
		if len(list) < 2 {
			continue
		}
		sort.Slice(list, func(i, j int) bool {
			return list[i].CleanPath() < list[j].CleanPath()
		})
		out = append(out, DuplicateGroup{Title: list[0].Title, Entries: list})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

func (x *Index) walk(origRel, cleanRel string, log *slog.Logger) error {
	dirents, err := os.ReadDir(filepath.Join(x.root, filepath.FromSlash(origRel)))
	if err != nil {
		if origRel == "" {
			return fmt.Errorf("vaultindex: read root: %w", err)
		}
		x.stats.UnreadableDirs++
		log.Warn("skipping unreadable directory", "path", origRel, "error", err)
		return nil
	}

	// os.ReadDir sorts by name, which makes collision resolution and the
	// final entry order deterministic.
	var siblings []*Entry
	for _, d := range dirents {
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if d.Type()&fs.ModeSymlink != 0 {
			x.stats.Symlinks++
			log.Warn("skipping symlink", "path", path.Join(origRel, name))
			continue
		}
		if !d.IsDir() && !d.Type().IsRegular() {
			continue
		}

		e := &Entry{
			Kind:         classify(d),
			OriginalName: name,
			RelDir:       origRel,
			CleanRelDir:  cleanRel,
		}
		if e.Kind == KindDir {
			e.CleanName, e.NotionID = namecanon.CleanDirName(name, x.maxName)
			e.RawTitle, _ = namecanon.StripID(name)
		} else {
			ext := filepath.Ext(name)
			e.CleanName, e.NotionID = namecanon.CleanName(name, x.maxName)
			e.RawTitle, _ = namecanon.StripID(strings.TrimSuffix(name, ext))
		}
		siblings = append(siblings, e)
	}

	used := make(map[string]bool, len(siblings))
	for _, e := range siblings {
		if used[fold(e.CleanName)] {
			e.CleanName = x.demote(e, used)
			e.Demoted = true
			x.stats.Demoted++
		}
		used[fold(e.CleanName)] = true
		if e.Kind == KindDir {
			e.Title = e.CleanName
		} else {
			e.Title = strings.TrimSuffix(e.CleanName, filepath.Ext(e.CleanName))
		}

		x.entries = append(x.entries, e)
		x.byOrig[e.OriginalPath()] = e
		x.count(e)
	}

	for _, e := range siblings {
		if e.Kind == KindDir {
			if err := x.walk(e.OriginalPath(), e.CleanPath(), log); err != nil {
				return err
			}
		}
	}
	return nil
}

// demote finds a unique sibling name for a colliding entry. Entries that
// carried an identifier get it back; entries that never had one (or whose
// decorated form is somehow taken too) receive a numeric suffix.
func (x *Index) demote(e *Entry, used map[string]bool) string {
	candidate := e.CleanName
	if e.NotionID != "" {
		candidate = x.sanitize(e, e.OriginalName)
		if !used[fold(candidate)] {
			return candidate
		}
	}
	ext := ""
	if e.Kind != KindDir {
		ext = filepath.Ext(candidate)
	}
	stem := strings.TrimSuffix(candidate, ext)
	for n := 2; ; n++ {
		next := x.sanitize(e, fmt.Sprintf("%s %d%s", stem, n, ext))
		if !used[fold(next)] {
			return next
		}
	}
}

func (x *Index) sanitize(e *Entry, name string) string {
	if e.Kind == KindDir {
		return namecanon.SanitizeDir(name, x.maxName)
	}
	return namecanon.Sanitize(name, x.maxName)
}

func (x *Index) count(e *Entry) {
	switch e.Kind {
	case KindDir:
		x.stats.Dirs++
	case KindNote:
		x.stats.Notes++
	case KindTable:
		x.stats.Tables++
	default:
		x.stats.Assets++
	}
	if e.NotionID != "" {
		x.stats.Stripped++
	}
}

func classify(d fs.DirEntry) Kind {
	if d.IsDir() {
		return KindDir
	}
	switch strings.ToLower(filepath.Ext(d.Name())) {
	case ".md":
		return KindNote
	case ".csv":
		return KindTable
	default:
		return KindAsset
	}
}

func fold(name string) string { return strings.ToLower(name) }
