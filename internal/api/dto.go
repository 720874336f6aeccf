package api

import (
	"github.com/starford/raido/internal/vaultservice"
)

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = vaultservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = vaultservice.NoteListItem

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"projects/plan.md" validate:"required"`
	Title   string `json:"title" example:"Plan" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// GraphNode is a node in the wiki link graph.
type GraphNode struct {
	Path   string `json:"path" example:"projects/plan.md" validate:"required"`
	Title  string `json:"title,omitempty" example:"Plan"`
	Folder string `json:"folder,omitempty" example:"projects"`
}

// GraphLink is an edge in the wiki link graph; both ends are note paths.
type GraphLink struct {
	Source string `json:"source" example:"projects/plan.md" validate:"required"`
	Target string `json:"target" example:"projects/tasks.md" validate:"required"`
}

// GraphResponse wraps the wiki link graph.
type GraphResponse struct {
	Nodes []GraphNode `json:"nodes" validate:"required"`
	Links []GraphLink `json:"links" validate:"required"`
}

// DuplicatesResponse wraps the duplicate-title report.
type DuplicatesResponse struct {
	Groups []vaultservice.DuplicateGroup `json:"groups" validate:"required"`
}
