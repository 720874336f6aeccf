package enrich

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/frontmatter"
	"github.com/starford/raido/internal/storage"
)

// Result summarizes one enrichment run.
type Result struct {
	Enriched  int // notes whose front matter gained remote metadata
	Unchanged int // notes already carrying everything the API returned
	Skipped   int // notes without an id, without front matter, or not visible to the token
	Failed    int // notes that errored (read, fetch, or write)
}

// Enricher walks migrated notes, resolves their page ids against the API,
// and merges the returned metadata into each note's front matter.
type Enricher struct {
	client *Client
	cache  *Cache
	store  storage.Provider
	log    *slog.Logger
	every  time.Duration
}

// New creates an Enricher. requestsPerSecond bounds API calls; cache hits
// are not throttled.
func New(client *Client, cache *Cache, store storage.Provider, requestsPerSecond int, log *slog.Logger) *Enricher {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 3
	}
	return &Enricher{
		client: client,
		cache:  cache,
		store:  store,
		log:    log,
		every:  time.Second / time.Duration(requestsPerSecond),
	}
}

type outcome int

const (
	outcomeEnriched outcome = iota
	outcomeUnchanged
	outcomeSkipped
)

// Run enriches the given notes (vault-relative paths) in order. Per-note
// failures are counted, not fatal; cancellation stops the run.
func (e *Enricher) Run(ctx context.Context, notes []string) (Result, error) {
	ticker := time.NewTicker(e.every)
	defer ticker.Stop()

	var res Result
	for _, path := range notes {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		out, err := e.enrichNote(ctx, path, ticker)
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return res, err
		case err != nil:
			res.Failed++
			e.log.Warn("enrich: note failed", slog.String("path", path), slog.String("error", err.Error()))
		case out == outcomeEnriched:
			res.Enriched++
		case out == outcomeUnchanged:
			res.Unchanged++
		default:
			res.Skipped++
		}
	}

	if err := e.cache.Save(); err != nil {
		e.log.Warn("enrich: cache save failed", slog.String("error", err.Error()))
	}
	return res, nil
}

func (e *Enricher) enrichNote(ctx context.Context, path string, ticker *time.Ticker) (outcome, error) {
	data, err := e.store.Read(path)
	if err != nil {
		return outcomeSkipped, err
	}

	block, body, ok := frontmatter.Split(data)
	if !ok {
		return outcomeSkipped, nil
	}
	rec, err := frontmatter.Parse(block)
	if err != nil || rec.NotionID == "" {
		return outcomeSkipped, nil
	}

	meta, hit := e.cache.Get(rec.NotionID)
	if !hit {
		select {
		case <-ctx.Done():
			return outcomeSkipped, ctx.Err()
		case <-ticker.C:
		}
		meta, err = e.client.Page(ctx, rec.NotionID)
		if errors.Is(err, apperr.ErrNotFound) {
			e.log.Debug("enrich: page not visible", slog.String("path", path), slog.String("id", rec.NotionID))
			return outcomeSkipped, nil
		}
		if err != nil {
			return outcomeSkipped, err
		}
		e.cache.Put(rec.NotionID, meta)
	}

	incoming := frontmatter.Record{
		Banner:    meta.Banner,
		PublicURL: meta.PublicURL,
	}
	if meta.Icon != "" || meta.LastEdited != "" {
		incoming.Extra = make(map[string]any, 2)
		if meta.Icon != "" {
			incoming.Extra["icon"] = meta.Icon
		}
		if meta.LastEdited != "" {
			incoming.Extra["updated"] = meta.LastEdited
		}
	}

	merged := frontmatter.Merge(rec, incoming)
	out := frontmatter.Compose(merged, body)
	if bytes.Equal(out, data) {
		return outcomeUnchanged, nil
	}
	if err := e.store.Write(path, out); err != nil {
		return outcomeSkipped, err
	}
	e.log.Debug("enrich: note updated", slog.String("path", path))
	return outcomeEnriched, nil
}
