// Package vaultservice serves read-only views of a migrated vault: note
// content, listings, full-text search, the link graph, duplicate-title
// reports, and vault statistics. Writes go through the editor owning the
// vault, never through this service.
package vaultservice

import (
	"context"
	"errors"
	"os"
	"path"
	"strings"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/parser"
	"github.com/starford/raido/internal/storage"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Folder      string         `json:"folder"`
	Content     string         `json:"content"`
	Checksum    string         `json:"checksum"`
	Tags        []string       `json:"tags"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Backlinks   []string       `json:"backlinks"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Folder    string    `json:"folder"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DuplicateNote is one member of a duplicate-title group.
type DuplicateNote struct {
	Path   string `json:"path"`
	Title  string `json:"title"`
	Folder string `json:"folder"`
}

// DuplicateGroup collects the notes sharing one title. FoldersDistinct is
// false when two of them sit in the same directory, which a migrated vault
// only reaches through conflicting metadata titles.
type DuplicateGroup struct {
	Title           string          `json:"title"`
	Notes           []DuplicateNote `json:"notes"`
	FoldersDistinct bool            `json:"folders_distinct"`
}

// VaultStats aggregates the index for the stats endpoint.
type VaultStats struct {
	Notes           int `json:"notes"`
	Links           int `json:"links"`
	Tags            int `json:"tags"`
	DuplicateGroups int `json:"duplicate_groups"`
}

// Service coordinates storage reads and index queries.
type Service struct {
	store storage.Provider
	db    index.NoteIndex
}

// New creates a vault service.
func New(store storage.Provider, db index.NoteIndex) *Service {
	return &Service{store: store, db: db}
}

// GetNote reads a note from storage, parses it, and enriches it with
// backlinks resolved through the note's title.
func (s *Service) GetNote(_ context.Context, p string) (*NoteDetail, error) {
	data, err := s.store.Read(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	res := parser.Parse(data)
	title := res.Title
	if title == "" {
		base := path.Base(p)
		title = strings.TrimSuffix(base, path.Ext(base))
	}
	folder := path.Dir(p)
	if folder == "." {
		folder = ""
	}

	bl, err := s.db.Backlinks(title)
	if err != nil {
		return nil, err
	}

	// Storage is the source of truth for content; the index supplies the
	// last-seen timestamp when it has one.
	updated := time.Now()
	if row, err := s.db.GetNote(p); err == nil {
		updated = row.UpdatedAt
	}

	return &NoteDetail{
		Path:        p,
		Title:       title,
		Folder:      folder,
		Content:     string(data),
		Checksum:    storage.Checksum(data),
		Tags:        nonNilSlice(res.Tags),
		Frontmatter: res.Meta,
		Backlinks:   nonNilSlice(bl),
		UpdatedAt:   updated,
	}, nil
}

// ListNotes returns paginated notes with optional tag filter.
func (s *Service) ListNotes(_ context.Context, limit, offset int, tag, sort string) ([]NoteListItem, int, error) {
	rows, total, err := s.db.ListNotes(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			Path:      r.Path,
			Title:     r.Title,
			Folder:    r.Folder,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Graph returns all nodes and resolved links for graph visualization.
func (s *Service) Graph(_ context.Context) ([]index.GraphNode, []index.GraphLink, error) {
	return s.db.Graph()
}

// Backlinks returns the paths of notes linking to the given title.
func (s *Service) Backlinks(_ context.Context, title string) ([]string, error) {
	return s.db.Backlinks(title)
}

// Duplicates reports the duplicate-title groups the migration warned
// about, so they can be reviewed and retitled from the wiki side.
func (s *Service) Duplicates(_ context.Context) ([]DuplicateGroup, error) {
	raw, err := s.db.Duplicates()
	if err != nil {
		return nil, err
	}
	out := make([]DuplicateGroup, 0, len(raw))
	for _, group := range raw {
		g := DuplicateGroup{Title: group[0].Title}
		folders := make(map[string]struct{}, len(group))
		for _, n := range group {
			g.Notes = append(g.Notes, DuplicateNote{Path: n.Path, Title: n.Title, Folder: n.Folder})
			folders[n.Folder] = struct{}{}
		}
		g.FoldersDistinct = len(folders) == len(group)
		out = append(out, g)
	}
	return out, nil
}

// Stats aggregates index counters for the stats endpoint.
func (s *Service) Stats(_ context.Context) (VaultStats, error) {
	c, err := s.db.Counts()
	if err != nil {
		return VaultStats{}, err
	}
	groups, err := s.db.Duplicates()
	if err != nil {
		return VaultStats{}, err
	}
	return VaultStats{
		Notes:           c.Notes,
		Links:           c.Links,
		Tags:            c.Tags,
		DuplicateGroups: len(groups),
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
