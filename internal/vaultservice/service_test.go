package vaultservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/testutil"
)

// newTestService builds a service over a seeded, synced vault.
func newTestService(t *testing.T) *Service {
	t.Helper()
	vaultDir, store := testutil.TestVault(t)
	testutil.WriteNote(t, vaultDir, "Projects/Plan.md",
		"---\ntitle: \"Plan\"\ntags: [projects]\n---\n# Plan\nSee [[Tasks]] and [[Roadmap]]\n")
	testutil.WriteNote(t, vaultDir, "Projects/Tasks.md",
		"# Tasks\nBack to [[Plan]]\n")
	testutil.WriteNote(t, vaultDir, "a/Roadmap.md", "# Roadmap\nfirst\n")
	testutil.WriteNote(t, vaultDir, "b/Roadmap.md", "# Roadmap\nsecond\n")

	db := testutil.TestDB(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	if err := index.Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	return New(store, db)
}

func TestGetNote(t *testing.T) {
	svc := newTestService(t)

	note, err := svc.GetNote(context.Background(), "Projects/Plan.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if note.Title != "Plan" || note.Folder != "Projects" {
		t.Errorf("note = %+v", note)
	}
	if note.Frontmatter["title"] != "Plan" {
		t.Errorf("frontmatter = %v", note.Frontmatter)
	}
	if len(note.Tags) != 1 || note.Tags[0] != "projects" {
		t.Errorf("tags = %v", note.Tags)
	}
	if len(note.Backlinks) != 1 || note.Backlinks[0] != "Projects/Tasks.md" {
		t.Errorf("backlinks = %v", note.Backlinks)
	}
	if note.Checksum == "" || note.Content == "" {
		t.Error("checksum and content should be populated")
	}
}

func TestGetNoteNotFound(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.GetNote(context.Background(), "missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListNotes(t *testing.T) {
	svc := newTestService(t)

	items, total, err := svc.ListNotes(context.Background(), 10, 0, "", "")
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 4 || len(items) != 4 {
		t.Fatalf("total = %d, len = %d, want 4/4", total, len(items))
	}
	if items[0].Title != "Plan" {
		t.Errorf("first by title = %q, want Plan", items[0].Title)
	}

	items, total, err = svc.ListNotes(context.Background(), 10, 0, "projects", "")
	if err != nil {
		t.Fatalf("ListNotes tag: %v", err)
	}
	if total != 1 || items[0].Path != "Projects/Plan.md" {
		t.Errorf("tag filter: total = %d, items = %+v", total, items)
	}
}

func TestSearch(t *testing.T) {
	svc := newTestService(t)
	results, err := svc.Search(context.Background(), "second", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "b/Roadmap.md" {
		t.Errorf("results = %+v", results)
	}
}

func TestBacklinks(t *testing.T) {
	svc := newTestService(t)
	bl, err := svc.Backlinks(context.Background(), "plan")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 1 || bl[0] != "Projects/Tasks.md" {
		t.Errorf("backlinks = %v", bl)
	}
}

func TestGraph(t *testing.T) {
	svc := newTestService(t)
	nodes, links, err := svc.Graph(context.Background())
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if len(nodes) != 4 {
		t.Errorf("nodes = %d, want 4", len(nodes))
	}
	// Plan->Tasks, Plan->Roadmap (first path wins), Tasks->Plan.
	if len(links) != 3 {
		t.Errorf("links = %+v, want 3 resolved edges", links)
	}
}

func TestDuplicates(t *testing.T) {
	svc := newTestService(t)
	groups, err := svc.Duplicates(context.Background())
	if err != nil {
		t.Fatalf("Duplicates: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("groups = %+v, want 1", groups)
	}
	g := groups[0]
	if g.Title != "Roadmap" || len(g.Notes) != 2 {
		t.Errorf("group = %+v", g)
	}
	if !g.FoldersDistinct {
		t.Error("folders a and b are distinct")
	}
}

func TestStats(t *testing.T) {
	svc := newTestService(t)
	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Notes != 4 {
		t.Errorf("notes = %d, want 4", stats.Notes)
	}
	if stats.Links != 3 {
		t.Errorf("links = %d, want 3", stats.Links)
	}
	if stats.Tags != 1 {
		t.Errorf("tags = %d, want 1", stats.Tags)
	}
	if stats.DuplicateGroups != 1 {
		t.Errorf("duplicate groups = %d, want 1", stats.DuplicateGroups)
	}
}
