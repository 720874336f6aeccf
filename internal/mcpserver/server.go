// Package mcpserver exposes a migrated vault to LLM clients over the
// Model Context Protocol via stdio transport. All tools are read-only:
// the vault is written by the migration and the editor owning it.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/vaultservice"
)

// listAll bounds unpaginated MCP listings. Migrated vaults stay well
// under this.
const listAll = 10000

// Server wraps the MCP server with vault inspection tools.
type Server struct {
	mcp *server.MCPServer
	svc *vaultservice.Service
}

// New creates an MCP server with all vault tools registered.
func New(svc *vaultservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note, front matter included."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List note paths, optionally restricted to a folder subtree."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for the whole vault)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes whose wikilinks point at the given title. "+
			"Wikilinks target titles, not paths."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title as it appears inside [[...]]")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("list_duplicates",
		mcp.WithDescription("List groups of notes sharing a title. Wikilinks resolve by title, "+
			"so duplicate titles make link targets ambiguous until retitled."),
	), s.listDuplicates)

	s.mcp.AddTool(mcp.NewTool("vault_stats",
		mcp.WithDescription("Vault statistics: note, link, tag and duplicate-group counts."),
	), s.vaultStats)

	s.mcp.AddTool(mcp.NewTool("get_vault_format",
		mcp.WithDescription("Returns the vault note format: the front matter the migration "+
			"synthesizes and the wikilink conventions it writes. Read this before "+
			"interpreting or editing migrated notes."),
	), s.getVaultFormat)

	// Resource: vault format description.
	s.mcp.AddResource(
		mcp.NewResource("raido://vault-format", "Vault Note Format",
			mcp.WithResourceDescription("Front matter schema and link conventions of a migrated vault."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readVaultFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = strings.Trim(f, "/")
	}

	items, _, err := s.svc.ListNotes(ctx, listAll, 0, "", "path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, item := range items {
		if folder != "" && !strings.HasPrefix(item.Path, folder+"/") {
			continue
		}
		paths = append(paths, item.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, title)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) listDuplicates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	groups, err := s.svc.Duplicates(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(groups) == 0 {
		return mcp.NewToolResultText("no duplicate titles"), nil
	}
	out, _ := json.MarshalIndent(groups, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) vaultStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.svc.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(stats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getVaultFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(VaultFormatContract), nil
}

func (s *Server) readVaultFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "raido://vault-format",
			MIMEType: "text/markdown",
			Text:     VaultFormatContract,
		},
	}, nil
}
