package linkrewrite

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/raido/internal/vaultindex"
)

const (
	idA = "0123456789abcdef0123456789abcdef"
	idB = "fedcba9876543210fedcba9876543210"
	idC = "aaaabbbbccccddddeeeeffff00001111"
	idD = "22223333444455556666777788889999"
)

func buildPlan(t *testing.T, files ...string) *vaultindex.Index {
	t.Helper()
	root := t.TempDir()
	for _, rel := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	x, err := vaultindex.Build(root, 0, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return x
}

func host(t *testing.T, x *vaultindex.Index, rel string) *vaultindex.Entry {
	t.Helper()
	e, ok := x.Lookup(rel)
	if !ok {
		t.Fatalf("host %q not in plan", rel)
	}
	return e
}

// projectPlan builds the tree most tests share: a note, a decorated asset,
// and an undecorated asset next to the host note.
func projectPlan(t *testing.T) (*Rewriter, *vaultindex.Entry) {
	t.Helper()
	x := buildPlan(t,
		"Projects "+idA+"/Plan ⭐ "+idB+".md",
		"Projects "+idA+"/Tasks "+idC+".md",
		"Projects "+idA+"/screenshot "+idD+".png",
		"Projects "+idA+"/image 1.png",
	)
	return New(x), host(t, x, "Projects "+idA+"/Tasks "+idC+".md")
}

func planTarget() string {
	return url.PathEscape("Plan ⭐ "+idB) + ".md"
}

func TestNoteLinksBecomeWikiLinks(t *testing.T) {
	rw, h := projectPlan(t)
	in := "[Plan ⭐](" + planTarget() + ")\n[the plan](" + planTarget() + ")\n"
	want := "[[Plan ⭐]]\n[[Plan ⭐|the plan]]\n"

	got, res := rw.RewriteBody(h, []byte(in))
	if string(got) != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if res.Converted != 2 || res.AssetsUpdated != 0 {
		t.Errorf("res = %+v", res)
	}
}

func TestAnchorsCarryOver(t *testing.T) {
	rw, h := projectPlan(t)
	tests := []struct{ in, want string }{
		{
			in:   "[Plan ⭐#Notes](" + planTarget() + "#Notes)",
			want: "[[Plan ⭐#Notes]]",
		},
		{
			in:   "[see](" + planTarget() + "#Some%20Heading)",
			want: "[[Plan ⭐#Some Heading|see]]",
		},
	}
	for _, tt := range tests {
		got, _ := rw.RewriteBody(h, []byte(tt.in))
		if string(got) != tt.want {
			t.Errorf("RewriteBody(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDisplayWithExtensionNeedsNoAlias(t *testing.T) {
	rw, h := projectPlan(t)
	in := "[Plan ⭐.md](" + planTarget() + ")"
	got, _ := rw.RewriteBody(h, []byte(in))
	if want := "[[Plan ⭐]]"; string(got) != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestExternalLinksUntouched(t *testing.T) {
	rw, h := projectPlan(t)
	in := "[a](https://example.com/x.md) [b](http://example.com) " +
		"[c](mailto:dana@example.com) [d](ftp://host/f.png) [e](#heading)\n"

	got, res := rw.RewriteBody(h, []byte(in))
	if string(got) != in {
		t.Errorf("body changed: %q", got)
	}
	if (res != Result{}) {
		t.Errorf("res = %+v, want zero", res)
	}
}

func TestAssetLinksKeepMarkdownForm(t *testing.T) {
	rw, h := projectPlan(t)
	in := "![shot](" + url.PathEscape("screenshot "+idD+".png") + ")\n" +
		"![ok](image%201.png)\n"
	want := "![shot](screenshot.png)\n![ok](image%201.png)\n"

	got, res := rw.RewriteBody(h, []byte(in))
	if string(got) != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if res.AssetsUpdated != 1 || res.Converted != 0 {
		t.Errorf("res = %+v", res)
	}
}

func TestEmbeddedNoteBecomesWikiEmbed(t *testing.T) {
	rw, h := projectPlan(t)
	got, res := rw.RewriteBody(h, []byte("![inline](" + planTarget() + ")"))
	if want := "![[Plan ⭐|inline]]"; string(got) != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if res.Converted != 1 {
		t.Errorf("res = %+v", res)
	}
}

func TestUnresolvedTargetsDegrade(t *testing.T) {
	rw, h := projectPlan(t)
	in := "[Missing](" + url.PathEscape("Missing Page "+idD) + ".md)\n" +
		"[f](../outside/" + url.PathEscape("Dir "+idD) + "/" + url.PathEscape("file "+idA+".png") + ")\n"
	want := "[[Missing Page|Missing]]\n[f](../outside/Dir/file.png)\n"

	got, res := rw.RewriteBody(h, []byte(in))
	if string(got) != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if res.Converted != 1 || res.AssetsUpdated != 1 {
		t.Errorf("res = %+v", res)
	}
}

func TestCodeRegionsUntouched(t *testing.T) {
	rw, h := projectPlan(t)
	in := "```\n[x](" + planTarget() + ")\n```\n" +
		"`[y](" + planTarget() + ")` stays\n"

	got, res := rw.RewriteBody(h, []byte(in))
	if string(got) != in {
		t.Errorf("body changed: %q", got)
	}
	if res.Converted != 0 {
		t.Errorf("res = %+v", res)
	}
}

func TestWikiLinksPassThrough(t *testing.T) {
	rw, h := projectPlan(t)
	in := "[[Already]] and [[Plan ⭐|alias]] here\n"
	got, res := rw.RewriteBody(h, []byte(in))
	if string(got) != in {
		t.Errorf("body changed: %q", got)
	}
	if (res != Result{}) {
		t.Errorf("res = %+v, want zero", res)
	}
}

func TestRewriteIsIdempotent(t *testing.T) {
	rw, h := projectPlan(t)
	in := "[Plan ⭐](" + planTarget() + ")\n" +
		"![shot](" + url.PathEscape("screenshot "+idD+".png") + ")\n" +
		"[docs](https://example.com/docs.md)\n"

	once, res1 := rw.RewriteBody(h, []byte(in))
	if res1.Converted != 1 || res1.AssetsUpdated != 1 {
		t.Fatalf("first pass res = %+v", res1)
	}
	twice, res2 := rw.RewriteBody(h, once)
	if string(twice) != string(once) {
		t.Errorf("second pass changed body:\n%q\n%q", once, twice)
	}
	if (res2 != Result{}) {
		t.Errorf("second pass res = %+v, want zero", res2)
	}
}

func TestDemotedTargetKeepsDecoratedTitle(t *testing.T) {
	x := buildPlan(t,
		"Plan "+idA+".md",
		"Plan "+idB+".md",
		"host.md",
	)
	rw := New(x)
	h := host(t, x, "host.md")

	in := "[y](" + url.PathEscape("Plan "+idA) + ".md) [x](" + url.PathEscape("Plan "+idB) + ".md)"
	want := "[[Plan|y]] [[Plan " + idB + "|x]]"
	got, _ := rw.RewriteBody(h, []byte(in))
	if string(got) != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestAssetInParentDirectory(t *testing.T) {
	x := buildPlan(t,
		"A "+idA+"/B "+idB+"/note.md",
		"A "+idA+"/shared "+idC+".png",
	)
	rw := New(x)
	h := host(t, x, "A "+idA+"/B "+idB+"/note.md")

	got, res := rw.RewriteBody(h, []byte("![s](../"+url.PathEscape("shared "+idC+".png")+")"))
	if want := "![s](../shared.png)"; string(got) != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if res.AssetsUpdated != 1 {
		t.Errorf("res = %+v", res)
	}
}
