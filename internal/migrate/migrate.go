// Package migrate orchestrates the vault migration pipeline: optional
// archive extraction, tabular-data page generation, the rename plan, the
// concurrent note rewrite, the on-disk renames, and optional remote
// enrichment. The plan is completed before the first byte is written.
package migrate

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/callout"
	"github.com/starford/raido/internal/csvpages"
	"github.com/starford/raido/internal/enrich"
	"github.com/starford/raido/internal/extract"
	"github.com/starford/raido/internal/frontmatter"
	"github.com/starford/raido/internal/linkrewrite"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/vaultindex"
)

const lockName = ".raido.lock"

// Options configure a migration run.
type Options struct {
	Root        string // vault root holding the exported tree; required
	Source      string // optional export archive, extracted into Root first
	MaxNameLen  int    // cleaned-name length bound; namecanon default when 0
	Concurrency int    // rewrite workers; 4 when 0
	ScanWindow  int    // leading body lines scanned for inline metadata

	Enricher *enrich.Enricher // optional post-rename metadata fetch
	Log      *slog.Logger
}

// Failure records one path that could not be fully migrated.
type Failure struct {
	Path string
	Err  error
}

// Result carries the counters reported after a run.
type Result struct {
	Extracted       int // files unpacked from the source archive
	Tables          int // csv tables that produced pages
	TablePages      int // row pages generated from those tables
	Notes           int
	Dirs            int
	Renamed         int // files and directories moved on disk
	LinksConverted  int
	AssetsUpdated   int
	Callouts        int
	FrontMatterNew  int // notes that had no recognized metadata block
	FrontMatterKept int // notes whose existing block was merged
	DuplicateGroups int
	EmptyDirs       int // directories removed after the renames
	Failures        []Failure
	Enrich          *enrich.Result
	Duration        time.Duration
}

// Run executes the pipeline against opts.Root. A missing or unreadable root
// is fatal; everything else is captured per file in Result.Failures.
func Run(ctx context.Context, opts Options) (*Result, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("migrate: resolve root: %w", err)
	}

	start := time.Now()
	res := &Result{}

	if opts.Source != "" {
		n, err := extract.Archive(ctx, opts.Source, root)
		if err != nil {
			return nil, fmt.Errorf("migrate: extract %s: %w", opts.Source, err)
		}
		res.Extracted = n
		log.Info("archive extracted", slog.String("source", opts.Source), slog.Int("files", n))
	}

	if info, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("migrate: vault root: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("migrate: vault root is not a directory: %s", root)
	}

	lock := flock.New(filepath.Join(root, lockName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("migrate: lock vault: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("migrate: %s: %w", root, apperr.ErrLocked)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	if gen, err := csvpages.Generate(root, opts.MaxNameLen, log); err != nil {
		log.Warn("table page generation failed", slog.String("error", err.Error()))
	} else {
		res.Tables = gen.Tables
		res.TablePages = gen.Pages
	}

	// The plan is the barrier: nothing below runs until every entry,
	// collision, and duplicate is known.
	plan, err := vaultindex.Build(root, opts.MaxNameLen, log)
	if err != nil {
		return nil, err
	}
	stats := plan.Stats()
	res.Notes = stats.Notes
	res.Dirs = stats.Dirs

	dups := plan.Duplicates()
	res.DuplicateGroups = len(dups)
	for _, g := range dups {
		paths := make([]string, len(g.Entries))
		for i, e := range g.Entries {
			paths[i] = e.CleanPath()
		}
		log.Warn("duplicate title",
			slog.String("title", g.Title),
			slog.String("notes", strings.Join(paths, ", ")))
	}

	store, err := storage.NewFS(root)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if err := rewriteNotes(ctx, plan, store, opts, res, log); err != nil {
		return res, err
	}

	res.Renamed = applyRenames(plan, store, res, log)
	res.EmptyDirs = removeEmptyDirs(root, log)

	if opts.Enricher != nil {
		notes := plan.Notes()
		paths := make([]string, 0, len(notes))
		for _, e := range notes {
			paths = append(paths, e.CleanPath())
		}
		er, err := opts.Enricher.Run(ctx, paths)
		if err != nil {
			return res, err
		}
		res.Enrich = &er
	}

	res.Duration = time.Since(start)
	log.Info("migration complete",
		slog.Int("notes", res.Notes),
		slog.Int("dirs", res.Dirs),
		slog.Int("renamed", res.Renamed),
		slog.Int("links_converted", res.LinksConverted),
		slog.Int("assets_updated", res.AssetsUpdated),
		slog.Int("duplicate_groups", res.DuplicateGroups),
		slog.Int("failures", len(res.Failures)),
		slog.Duration("took", res.Duration))
	return res, nil
}

// rewriteNotes runs the content pass: every planned note is read, its
// metadata synthesized or merged, callouts translated, links rewritten, and
// the file atomically replaced when anything changed. Files keep their
// original paths here; renames come after.
func rewriteNotes(ctx context.Context, plan *vaultindex.Index, store storage.Provider, opts Options, res *Result, log *slog.Logger) error {
	rewriter := linkrewrite.New(plan)
	window := opts.ScanWindow
	if window <= 0 {
		window = frontmatter.DefaultScrapeWindow
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = 4
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, e := range plan.Notes() {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ch, err := transformNote(e, store, rewriter, window)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failures = append(res.Failures, Failure{Path: e.OriginalPath(), Err: err})
				log.Warn("note rewrite failed",
					slog.String("path", e.OriginalPath()),
					slog.String("error", err.Error()))
				return nil
			}
			res.LinksConverted += ch.links
			res.AssetsUpdated += ch.assets
			res.Callouts += ch.callouts
			if ch.newBlock {
				res.FrontMatterNew++
			} else {
				res.FrontMatterKept++
			}
			return nil
		})
	}
	return g.Wait()
}

type noteChanges struct {
	links    int
	assets   int
	callouts int
	newBlock bool
}

func transformNote(e *vaultindex.Entry, store storage.Provider, rewriter *linkrewrite.Rewriter, window int) (noteChanges, error) {
	var ch noteChanges

	rel := e.OriginalPath()
	data, err := store.Read(rel)
	if err != nil {
		return ch, err
	}

	block, body, hadBlock := frontmatter.Split(data)
	var existing frontmatter.Record
	if hadBlock {
		rec, err := frontmatter.Parse(block)
		if err != nil {
			// Unparseable metadata is kept as body text so nothing is lost.
			body = data
			hadBlock = false
		} else {
			existing = rec
		}
	}
	ch.newBlock = !hadBlock

	synth := frontmatter.Record{
		Title:    e.Title,
		Tags:     frontmatter.PathTags(e.CleanRelDir),
		NotionID: e.NotionID,
		Folder:   e.CleanRelDir,
	}
	if e.RawTitle != "" && e.RawTitle != e.Title {
		synth.Aliases = []string{e.RawTitle}
	}
	if !hadBlock {
		published := false
		synth.Published = &published
	}

	merged := frontmatter.Merge(existing, frontmatter.Scrape(string(body), window))
	merged = frontmatter.Merge(merged, synth)

	newBody, callouts := callout.Translate(body)
	ch.callouts = callouts

	newBody, rres := rewriter.RewriteBody(e, newBody)
	ch.links = rres.Converted
	ch.assets = rres.AssetsUpdated

	out := frontmatter.Compose(merged, newBody)
	if bytes.Equal(out, data) {
		return ch, nil
	}
	return ch, store.Write(rel, out)
}

// applyRenames moves planned entries to their cleaned names. Entries are
// processed deepest first, so every move stays inside its original parent
// directory and a demoted sibling vacates a contested name before the
// winner claims it. Blocked moves are retried until a pass makes no
// progress, then reported as failures.
func applyRenames(plan *vaultindex.Index, store storage.Provider, res *Result, log *slog.Logger) int {
	type move struct {
		from, to string
		err      error
	}

	entries := plan.Entries()
	var pending []move
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.CleanName == e.OriginalName {
			continue
		}
		pending = append(pending, move{
			from: e.OriginalPath(),
			to:   path.Join(e.RelDir, e.CleanName),
		})
	}

	renamed := 0
	for len(pending) > 0 {
		progressed := false
		var next []move
		for _, m := range pending {
			if err := store.Move(m.from, m.to); err != nil {
				m.err = err
				next = append(next, m)
				continue
			}
			renamed++
			progressed = true
		}
		if !progressed {
			for _, m := range next {
				res.Failures = append(res.Failures, Failure{Path: m.from, Err: m.err})
				log.Warn("rename blocked",
					slog.String("from", m.from),
					slog.String("to", m.to),
					slog.String("error", m.err.Error()))
			}
			break
		}
		pending = next
	}
	return renamed
}

// removeEmptyDirs prunes directories left empty under root, bottom-up.
// Dot directories are left alone, the root itself is never removed.
func removeEmptyDirs(root string, log *slog.Logger) int {
	removed := 0
	var prune func(dir string) bool
	prune = func(dir string) bool {
		ents, err := os.ReadDir(dir)
		if err != nil {
			return false
		}
		empty := true
		for _, d := range ents {
			name := d.Name()
			if strings.HasPrefix(name, ".") {
				empty = false
				continue
			}
			p := filepath.Join(dir, name)
			if d.IsDir() {
				if prune(p) {
					if err := os.Remove(p); err == nil {
						removed++
						log.Debug("removed empty directory", slog.String("path", p))
						continue
					}
				}
				empty = false
				continue
			}
			empty = false
		}
		return empty
	}
	prune(root)
	return removed
}
