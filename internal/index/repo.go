package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/raido/internal/apperr"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path      string
	Title     string
	Folder    string // vault-relative directory, empty at the root
	Checksum  string
	Tags      []string
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// GraphNode is one note in the vault graph.
type GraphNode struct {
	Path   string `json:"path"`
	Title  string `json:"title,omitempty"`
	Folder string `json:"folder,omitempty"`
}

// GraphLink is one resolved edge. Both ends are note paths.
type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Counts aggregates the index for the stats surface.
type Counts struct {
	Notes int
	Links int
	Tags  int // distinct tags across all notes
}

// UpsertNote inserts or replaces a note, its FTS entry, and links within a transaction.
func (db *DB) UpsertNote(n NoteRow, body string, links []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(n.Tags)

	// Upsert notes table (includes body for fallback search).
	_, err = tx.Exec(`
		INSERT INTO notes (path, title, folder, checksum, tags, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			folder     = excluded.folder,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, n.Path, n.Title, n.Folder, n.Checksum, string(tagsJSON), body, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, n.Path, n.Title, body, n.Tags); err != nil {
		return err
	}

	// Replace links: delete old then bulk insert. Targets are note titles,
	// not paths; resolution to paths happens at query time.
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, n.Path)
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target, type) VALUES (?, ?, 'inline')`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range links {
			if _, err := stmt.Exec(n.Path, target); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note, its FTS entry, and outgoing links.
func (db *DB) DeleteNote(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM notes WHERE path = ?`, path)

	return tx.Commit()
}

// GetNote returns one indexed note.
func (db *DB) GetNote(path string) (*NoteRow, error) {
	var n NoteRow
	var tagsJSON string
	err := db.conn.QueryRow(`
		SELECT path, title, folder, checksum, tags, updated_at
		FROM notes WHERE path = ?
	`, path).Scan(&n.Path, &n.Title, &n.Folder, &n.Checksum, &tagsJSON, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: note %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	_ = json.Unmarshal([]byte(tagsJSON), &n.Tags)
	return &n, nil
}

// ListNotes returns one page of notes plus the total matching count. A
// non-empty tag narrows to notes carrying it; sort is "title", "updated",
// or "path", defaulting to title.
func (db *DB) ListNotes(limit, offset int, tag, sortBy string) ([]NoteRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where := ""
	var args []any
	if tag != "" {
		// Tags are stored as a JSON array of strings.
		where = `WHERE tags LIKE ?`
		args = append(args, `%"`+tag+`"%`)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count notes: %w", err)
	}

	order := `title COLLATE NOCASE, path`
	switch sortBy {
	case "updated":
		order = `updated_at DESC, path`
	case "path":
		order = `path`
	}

	rows, err := db.conn.Query(`
		SELECT path, title, folder, checksum, tags, updated_at
		FROM notes `+where+` ORDER BY `+order+` LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	var out []NoteRow
	for rows.Next() {
		var n NoteRow
		var tagsJSON string
		if err := rows.Scan(&n.Path, &n.Title, &n.Folder, &n.Checksum, &tagsJSON, &n.UpdatedAt); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &n.Tags)
		out = append(out, n)
	}
	return out, total, rows.Err()
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllPaths returns every indexed note path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns the stored checksum for every indexed note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Backlinks returns the paths of notes whose links target the given title.
// Titles compare case-insensitively, the way wikilinks resolve on the
// common target file systems.
func (db *DB) Backlinks(title string) ([]string, error) {
	rows, err := db.conn.Query(`
		SELECT source FROM links WHERE lower(target) = lower(?) ORDER BY source
	`, title)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Graph returns every note as a node plus the edges whose link target
// resolves to an indexed title. Unresolved targets are dropped rather than
// rendered as dangling nodes. When two notes share a title the edge goes
// to the lexically first path.
func (db *DB) Graph() ([]GraphNode, []GraphLink, error) {
	rows, err := db.conn.Query(`SELECT path, title, folder FROM notes ORDER BY path`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph nodes: %w", err)
	}
	defer rows.Close()

	var nodes []GraphNode
	byTitle := make(map[string]string)
	for rows.Next() {
		var n GraphNode
		if err := rows.Scan(&n.Path, &n.Title, &n.Folder); err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, n)
		key := strings.ToLower(n.Title)
		if _, taken := byTitle[key]; !taken && key != "" {
			byTitle[key] = n.Path
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	lrows, err := db.conn.Query(`SELECT source, target FROM links ORDER BY source, target`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph links: %w", err)
	}
	defer lrows.Close()

	var links []GraphLink
	for lrows.Next() {
		var source, target string
		if err := lrows.Scan(&source, &target); err != nil {
			return nil, nil, err
		}
		if p, ok := byTitle[strings.ToLower(target)]; ok {
			links = append(links, GraphLink{Source: source, Target: p})
		}
	}
	return nodes, links, lrows.Err()
}

// Duplicates groups indexed notes sharing a title, case-insensitively.
// Groups come back ordered by title, members by path. Only path, title,
// and folder are populated.
func (db *DB) Duplicates() ([][]NoteRow, error) {
	rows, err := db.conn.Query(`
		SELECT path, title, folder FROM notes
		WHERE title != '' AND lower(title) IN (
			SELECT lower(title) FROM notes WHERE title != ''
			GROUP BY lower(title) HAVING count(*) > 1
		)
		ORDER BY lower(title), path
	`)
	if err != nil {
		return nil, fmt.Errorf("index: duplicates: %w", err)
	}
	defer rows.Close()

	var groups [][]NoteRow
	var current []NoteRow
	var currentKey string
	for rows.Next() {
		var n NoteRow
		if err := rows.Scan(&n.Path, &n.Title, &n.Folder); err != nil {
			return nil, err
		}
		key := strings.ToLower(n.Title)
		if key != currentKey && len(current) > 0 {
			groups = append(groups, current)
			current = nil
		}
		currentKey = key
		current = append(current, n)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups, rows.Err()
}

// Counts reports index totals.
func (db *DB) Counts() (Counts, error) {
	var c Counts
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&c.Notes); err != nil {
		return c, fmt.Errorf("index: count notes: %w", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&c.Links); err != nil {
		return c, fmt.Errorf("index: count links: %w", err)
	}

	rows, err := db.conn.Query(`SELECT tags FROM notes WHERE tags != '[]'`)
	if err != nil {
		return c, fmt.Errorf("index: count tags: %w", err)
	}
	defer rows.Close()
	seen := make(map[string]struct{})
	for rows.Next() {
		var tagsJSON string
		if err := rows.Scan(&tagsJSON); err != nil {
			return c, err
		}
		var tags []string
		if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
			continue
		}
		for _, t := range tags {
			seen[t] = struct{}{}
		}
	}
	c.Tags = len(seen)
	return c, rows.Err()
}
