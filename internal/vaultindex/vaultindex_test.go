package vaultindex

import (
	"os"
	"path/filepath"
	"testing"
)

const (
	id1 = "0123456789abcdef0123456789abcdef"
	id2 = "fedcba9876543210fedcba9876543210"
	id3 = "aaaabbbbccccddddeeeeffff00001111"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuildPlan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Projects "+id1+"/Plan "+id2+".md")
	writeFile(t, root, "Projects "+id1+"/image 1.png")
	writeFile(t, root, "Tasks "+id3+".csv")

	x, err := Build(root, 0, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	note, ok := x.Lookup("Projects " + id1 + "/Plan " + id2 + ".md")
	if !ok {
		t.Fatal("note not indexed")
	}
	if note.Kind != KindNote {
		t.Errorf("Kind = %v", note.Kind)
	}
	if got := note.CleanPath(); got != "Projects/Plan.md" {
		t.Errorf("CleanPath = %q", got)
	}
	if note.Title != "Plan" || note.RawTitle != "Plan" {
		t.Errorf("Title = %q, RawTitle = %q", note.Title, note.RawTitle)
	}
	if note.NotionID != id2 {
		t.Errorf("NotionID = %q", note.NotionID)
	}

	asset, ok := x.Lookup("Projects " + id1 + "/image 1.png")
	if !ok {
		t.Fatal("asset not indexed")
	}
	if asset.Kind != KindAsset {
		t.Errorf("asset Kind = %v", asset.Kind)
	}
	if got := asset.CleanPath(); got != "Projects/image 1.png" {
		t.Errorf("asset CleanPath = %q", got)
	}

	table, ok := x.Lookup("Tasks " + id3 + ".csv")
	if !ok {
		t.Fatal("table not indexed")
	}
	if table.Kind != KindTable || table.CleanName != "Tasks.csv" {
		t.Errorf("table = %+v", table)
	}

	stats := x.Stats()
	want := Stats{Dirs: 1, Notes: 1, Tables: 1, Assets: 1, Stripped: 3}
	if stats != want {
		t.Errorf("Stats = %+v, want %+v", stats, want)
	}
}

func TestSameDirCollisionDemoted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Plan "+id1+".md")
	writeFile(t, root, "Plan "+id2+".md")

	x, err := Build(root, 0, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	first, _ := x.Lookup("Plan " + id1 + ".md")
	second, _ := x.Lookup("Plan " + id2 + ".md")
	if first == nil || second == nil {
		t.Fatal("entries missing")
	}
	if first.CleanName != "Plan.md" || first.Demoted {
		t.Errorf("first = %q demoted=%v", first.CleanName, first.Demoted)
	}
	if second.CleanName != "Plan "+id2+".md" || !second.Demoted {
		t.Errorf("second = %q demoted=%v", second.CleanName, second.Demoted)
	}
	if got := x.Stats().Demoted; got != 1 {
		t.Errorf("Demoted = %d", got)
	}
	// Demoted siblings no longer share a title, so they are not duplicates.
	if dups := x.Duplicates(); len(dups) != 0 {
		t.Errorf("Duplicates = %+v", dups)
	}
}

func TestCollisionWithoutIdentifier(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a?.md")
	writeFile(t, root, "a-.md")

	x, err := Build(root, 0, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	kept, _ := x.Lookup("a-.md")
	demoted, _ := x.Lookup("a?.md")
	if kept == nil || demoted == nil {
		t.Fatal("entries missing")
	}
	if kept.CleanName != "a-.md" {
		t.Errorf("kept = %q", kept.CleanName)
	}
	if demoted.CleanName != "a- 2.md" || !demoted.Demoted {
		t.Errorf("demoted = %q demoted=%v", demoted.CleanName, demoted.Demoted)
	}
}

func TestCaseInsensitiveCollision(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "PLAN "+id1+".md")
	writeFile(t, root, "plan "+id2+".md")

	x, err := Build(root, 0, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := x.Stats().Demoted; got != 1 {
		t.Errorf("Demoted = %d, want 1 (names collide on case-folding filesystems)", got)
	}
}

func TestDirCollisionRenamesChildren(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Area "+id1+"/first.md")
	writeFile(t, root, "Area "+id2+"/second.md")

	x, err := Build(root, 0, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	child, ok := x.Lookup("Area " + id2 + "/second.md")
	if !ok {
		t.Fatal("child of demoted directory not indexed")
	}
	if got := child.CleanPath(); got != "Area "+id2+"/second.md" {
		t.Errorf("child CleanPath = %q", got)
	}
	other, _ := x.Lookup("Area " + id1 + "/first.md")
	if got := other.CleanPath(); got != "Area/first.md" {
		t.Errorf("other CleanPath = %q", got)
	}
}

func TestCrossDirDuplicatesReported(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "A "+id1+"/Plan "+id2+".md")
	writeFile(t, root, "B "+id3+"/Plan "+id1+".md")

	x, err := Build(root, 0, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	dups := x.Duplicates()
	if len(dups) != 1 {
		t.Fatalf("Duplicates = %d groups, want 1", len(dups))
	}
	g := dups[0]
	if g.Title != "Plan" || len(g.Entries) != 2 {
		t.Fatalf("group = %+v", g)
	}
	if g.Entries[0].CleanPath() != "A/Plan.md" || g.Entries[1].CleanPath() != "B/Plan.md" {
		t.Errorf("paths = %q, %q", g.Entries[0].CleanPath(), g.Entries[1].CleanPath())
	}
}

func TestSymlinksSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "real.md")
	if err := os.Symlink(filepath.Join(root, "real.md"), filepath.Join(root, "link.md")); err != nil {
		t.Skipf("symlink: %v", err)
	}

	x, err := Build(root, 0, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := x.Lookup("link.md"); ok {
		t.Error("symlink was indexed")
	}
	if got := x.Stats().Symlinks; got != 1 {
		t.Errorf("Symlinks = %d", got)
	}
}

func TestDotEntriesIgnored(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".obsidian/app.json")
	writeFile(t, root, ".DS_Store")
	writeFile(t, root, "note.md")

	x, err := Build(root, 0, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := len(x.Entries()); got != 1 {
		t.Errorf("Entries = %d, want 1", got)
	}
}

func TestBuildRootMissing(t *testing.T) {
	if _, err := Build(filepath.Join(t.TempDir(), "nope"), 0, nil); err == nil {
		t.Fatal("expected error for missing root")
	}
}
