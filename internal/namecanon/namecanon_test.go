package namecanon

import (
	"strings"
	"testing"
)

const sampleID = "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4"

func TestCleanName_StripsIdentifier(t *testing.T) {
	tests := []struct {
		name      string
		wantClean string
		wantID    string
	}{
		{"Project Alpha " + sampleID + ".md", "Project Alpha.md", sampleID},
		{"Project Alpha " + sampleID, "Project Alpha", sampleID},
		{"Meeting Notes  " + sampleID + ".md", "Meeting Notes.md", sampleID},
		{"budget " + sampleID + ".csv", "budget.csv", sampleID},
		{"Plain Note.md", "Plain Note.md", ""},
	}
	for _, tt := range tests {
		clean, id := CleanName(tt.name, 0)
		if clean != tt.wantClean {
			t.Errorf("CleanName(%q) = %q, want %q", tt.name, clean, tt.wantClean)
		}
		if id != tt.wantID {
			t.Errorf("CleanName(%q) id = %q, want %q", tt.name, id, tt.wantID)
		}
	}
}

func TestCleanName_RejectsLooseTokens(t *testing.T) {
	tests := []string{
		"Report 0123456789abcdef0123456789abcde.md",   // 31 hex chars
		"Report 0123456789abcdef0123456789abcdef0.md", // 33 hex chars
		"Report 0123456789abcdef0123456789abcdeg.md",  // non-hex char
		"Release 20250101.md",                         // short numeric suffix
		"v2 Plan.md",                                  // no trailing token
	}
	for _, name := range tests {
		clean, id := CleanName(name, 0)
		if clean != name {
			t.Errorf("CleanName(%q) = %q, want unchanged", name, clean)
		}
		if id != "" {
			t.Errorf("CleanName(%q) extracted id %q, want none", name, id)
		}
	}
}

func TestCleanName_IDOnlyNameKept(t *testing.T) {
	// A name that is nothing but the token has no whitespace delimiter;
	// stripping it would leave an empty name.
	clean, id := CleanName(sampleID+".md", 0)
	if clean != sampleID+".md" {
		t.Errorf("clean = %q, want %q", clean, sampleID+".md")
	}
	if id != "" {
		t.Errorf("id = %q, want none", id)
	}
}

func TestCleanName_SubstitutesForbiddenRunes(t *testing.T) {
	clean, _ := CleanName(`What? A "plan": yes|no.md`, 0)
	want := "What- A -plan-- yes-no.md"
	if clean != want {
		t.Errorf("clean = %q, want %q", clean, want)
	}
}

func TestCleanName_SubstitutesControlRunes(t *testing.T) {
	clean, _ := CleanName("tab\there.md", 0)
	if clean != "tab-here.md" {
		t.Errorf("clean = %q, want %q", clean, "tab-here.md")
	}
}

func TestCleanName_BoundsLengthKeepingTail(t *testing.T) {
	clean, _ := CleanName("This is a very long file name indeed.md", 20)
	want := "This...ame indeed.md"
	if clean != want {
		t.Errorf("clean = %q, want %q", clean, want)
	}
	if len(clean) != 20 {
		t.Errorf("len = %d, want 20", len(clean))
	}
}

func TestCleanName_ShortStemFallsBackToPrefix(t *testing.T) {
	clean, _ := CleanName("abcdefghijklmnop.md", 14)
	if clean != "abcdefghijk.md" {
		t.Errorf("clean = %q, want %q", clean, "abcdefghijk.md")
	}
}

func TestCleanName_ExtensionTooLongTruncatesHard(t *testing.T) {
	clean, _ := CleanName("ab.markdown", 3)
	if clean != "ab." {
		t.Errorf("clean = %q, want %q", clean, "ab.")
	}
}

func TestCleanName_WithinBoundUnchanged(t *testing.T) {
	clean, _ := CleanName("Short.md", 50)
	if clean != "Short.md" {
		t.Errorf("clean = %q, want %q", clean, "Short.md")
	}
}

func TestCleanDirName(t *testing.T) {
	clean, id := CleanDirName("Projects "+sampleID, 0)
	if clean != "Projects" {
		t.Errorf("clean = %q, want %q", clean, "Projects")
	}
	if id != sampleID {
		t.Errorf("id = %q, want %q", id, sampleID)
	}
}

func TestCleanDirName_TreatsDotsAsPlainText(t *testing.T) {
	// Directory names have no extension: everything after a dot is stem.
	clean, _ := CleanDirName("release v1.2 "+sampleID, 0)
	if clean != "release v1.2" {
		t.Errorf("clean = %q, want %q", clean, "release v1.2")
	}
}

func TestCleanName_Idempotent(t *testing.T) {
	names := []string{
		"Project Alpha " + sampleID + ".md",
		`bad:"name".md`,
		strings.Repeat("x", 80) + ".md",
	}
	for _, name := range names {
		once, _ := CleanName(name, 0)
		twice, _ := CleanName(once, 0)
		if once != twice {
			t.Errorf("CleanName not a fixed point: %q -> %q -> %q", name, once, twice)
		}
	}
}

func TestIsID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{sampleID, true},
		{strings.ToUpper(sampleID), true},
		{sampleID[:31], false},
		{sampleID + "0", false},
		{"g1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsID(tt.in); got != tt.want {
			t.Errorf("IsID(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
