// Package csvpages turns exported database tables into pages. Each CSV
// becomes an index note linking its rows, plus one stub note per row whose
// leading lines carry the row's columns as inline metadata. Generated files
// use the exporter's own naming (stem plus identifier), so the later rename
// and rewrite phases treat them like any exported page.
package csvpages

import (
	"encoding/csv"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/raido/internal/namecanon"
)

// Result counts what generation produced.
type Result struct {
	Tables int // CSVs turned into pages
	Pages  int // index and stub notes written
}

// Generate scans root for exported tables and writes their pages in place.
// Existing files are never overwritten: rows that already have an exported
// page keep it. The `_all` duplicate the exporter writes next to filtered
// views is skipped whenever its base table is present.
func Generate(root string, maxName int, log *slog.Logger) (Result, error) {
	if log == nil {
		log = slog.Default()
	}
	var res Result

	var tables []string
	stems := make(map[string]bool)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn("skipping during table scan", "path", p, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(d.Name()), ".csv") {
			return nil
		}
		tables = append(tables, p)
		stems[strings.TrimSuffix(p, filepath.Ext(p))] = true
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("csvpages: scan %s: %w", root, err)
	}

	for _, table := range tables {
		stem := strings.TrimSuffix(table, filepath.Ext(table))
		if base, found := strings.CutSuffix(stem, "_all"); found && stems[base] {
			continue
		}
		pages, err := generateTable(table, stem, maxName)
		if err != nil {
			log.Warn("skipping table", "path", table, "error", err)
			continue
		}
		res.Tables++
		res.Pages += pages
	}
	return res, nil
}

func generateTable(table, stem string, maxName int) (int, error) {
	f, err := os.Open(table)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	title, _ := namecanon.StripID(filepath.Base(stem))
	existing := existingRowPages(stem, maxName)
	written := 0

	var index strings.Builder
	fmt.Fprintf(&index, "# %s\n\n", title)
	for _, row := range records[1:] {
		if len(row) == 0 {
			continue
		}
		rowTitle := strings.TrimSpace(row[0])
		if rowTitle == "" {
			continue
		}
		cleanTitle := strings.TrimSuffix(namecanon.Sanitize(rowTitle+".md", maxName), ".md")
		fmt.Fprintf(&index, "- [[%s]]\n", cleanTitle)

		// Rows whose page already exists keep it; comparison runs on
		// cleaned names because exported row pages are still decorated.
		if existing[strings.ToLower(cleanTitle+".md")] {
			continue
		}
		if err := os.MkdirAll(stem, 0o755); err != nil {
			return written, err
		}
		stub := filepath.Join(stem, cleanTitle+".md")
		if err := os.WriteFile(stub, stubBody(rowTitle, header, row), 0o644); err != nil {
			return written, err
		}
		existing[strings.ToLower(cleanTitle+".md")] = true
		written++
	}

	indexPath := stem + ".md"
	if _, err := os.Stat(indexPath); err == nil {
		return written, nil
	}
	if err := os.WriteFile(indexPath, []byte(index.String()), 0o644); err != nil {
		return written, err
	}
	return written + 1, nil
}

// existingRowPages returns the cleaned, folded names of files already in
// the row-page directory. Generation must not shadow an exported row page
// with a stub sharing its cleaned name.
func existingRowPages(dir string, maxName int) map[string]bool {
	out := make(map[string]bool)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return out
	}
	for _, d := range entries {
		if d.IsDir() {
			continue
		}
		clean, _ := namecanon.CleanName(d.Name(), maxName)
		out[strings.ToLower(clean)] = true
	}
	return out
}

// stubBody renders a row page: the raw row title as heading, then each
// remaining column as a `Key: value` line for the inline-metadata scraper.
func stubBody(title string, header, row []string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	for i := 1; i < len(row) && i < len(header); i++ {
		key := strings.TrimSpace(header[i])
		val := strings.TrimSpace(row[i])
		if key == "" || val == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", key, val)
	}
	return []byte(b.String())
}
