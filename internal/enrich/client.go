// Package enrich fetches remote page metadata for migrated notes and
// merges it into their front matter.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/starford/raido/internal/apperr"
)

// PageMeta is the subset of remote page metadata raido cares about.
type PageMeta struct {
	Banner     string `json:"banner,omitempty"`
	Icon       string `json:"icon,omitempty"`
	PublicURL  string `json:"public_url,omitempty"`
	LastEdited string `json:"last_edited,omitempty"`
}

// Client talks to the Notion pages API.
type Client struct {
	base    string
	version string
	token   string
	http    *http.Client
}

// NewClient creates an API client. baseURL and version fall back to the
// current public endpoint when empty.
func NewClient(baseURL, version, token string) *Client {
	if baseURL == "" {
		baseURL = "https://api.notion.com"
	}
	if version == "" {
		version = "2022-06-28"
	}
	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		version: version,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// notionPage mirrors the fields of a pages API response we read.
type notionPage struct {
	Cover *struct {
		Type     string `json:"type"`
		External *struct {
			URL string `json:"url"`
		} `json:"external"`
		File *struct {
			URL string `json:"url"`
		} `json:"file"`
	} `json:"cover"`
	Icon *struct {
		Type  string `json:"type"`
		Emoji string `json:"emoji"`
	} `json:"icon"`
	PublicURL      string `json:"public_url"`
	LastEditedTime string `json:"last_edited_time"`
}

// Page fetches metadata for a page by its 32-hex identifier.
// A page the integration cannot see returns apperr.ErrNotFound.
func (c *Client) Page(ctx context.Context, id string) (PageMeta, error) {
	url := c.base + "/v1/pages/" + DashID(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return PageMeta{}, fmt.Errorf("enrich: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)

	resp, err := c.http.Do(req)
	if err != nil {
		return PageMeta{}, fmt.Errorf("enrich: fetch page %s: %w", id, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return PageMeta{}, fmt.Errorf("enrich: page %s: %w", id, apperr.ErrNotFound)
	default:
		return PageMeta{}, fmt.Errorf("enrich: page %s: unexpected status %d", id, resp.StatusCode)
	}

	var page notionPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return PageMeta{}, fmt.Errorf("enrich: decode page %s: %w", id, err)
	}

	meta := PageMeta{
		PublicURL:  page.PublicURL,
		LastEdited: page.LastEditedTime,
	}
	if page.Cover != nil {
		switch {
		case page.Cover.External != nil:
			meta.Banner = page.Cover.External.URL
		case page.Cover.File != nil:
			meta.Banner = page.Cover.File.URL
		}
	}
	if page.Icon != nil && page.Icon.Type == "emoji" {
		meta.Icon = page.Icon.Emoji
	}
	return meta, nil
}

// DashID converts a bare 32-hex page identifier into the dashed UUID form
// the API expects. Already-dashed or unexpected input passes through.
func DashID(id string) string {
	if len(id) != 32 || strings.Contains(id, "-") {
		return id
	}
	return id[:8] + "-" + id[8:12] + "-" + id[12:16] + "-" + id[16:20] + "-" + id[20:]
}
