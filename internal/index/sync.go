package index

import (
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/raido/internal/parser"
	"github.com/starford/raido/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteNote(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses data and upserts it into the DB. A note without a
// metadata title or an H1 heading is titled after its file name, matching
// how the vault resolves wikilinks to it.
func indexFile(db *DB, p string, data []byte) error {
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

	row := NoteRow{
		Path:      p,
		Title:     title,
		Folder:    folder,
		Checksum:  storage.Checksum(data),
		Tags:      res.Tags,
		UpdatedAt: time.Now().UTC(),
	}
	return db.UpsertNote(row, res.Body, res.Links)
}
