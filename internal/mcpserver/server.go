// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Figshare Desktop tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tobias-gill/Figshare-desktop/internal/articleservice"
)

// Queue is the slice of the upload worker the MCP tools consume.
type Queue interface {
	Enqueue(id string) error
	Pending() int
}

// Server wraps the MCP server with Figshare Desktop tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *articleservice.Service
	queue Queue
}

// New creates a new MCP server with all tools registered.
func New(svc *articleservice.Service, queue Queue) *Server {
	s := &Server{svc: svc, queue: queue}

	s.mcp = server.NewMCPServer(
		"Figshare Desktop",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_articles",
		mcp.WithDescription("Full-text search through article titles, descriptions and instrument metadata."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchArticles)

	s.mcp.AddTool(mcp.NewTool("get_article",
		mcp.WithDescription("Read the full metadata record of a tracked article."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Article record id")),
	), s.getArticle)

	s.mcp.AddTool(mcp.NewTool("list_articles",
		mcp.WithDescription("List tracked articles, optionally filtered by status (local, draft, public)."),
		mcp.WithString("status", mcp.Description("Optional status filter (empty for all)")),
	), s.listArticles)

	s.mcp.AddTool(mcp.NewTool("import_file",
		mcp.WithDescription("Import a data file from the library directory as a new article record. "+
			"The record's metadata follows the canonical format; read it first via the "+
			"get_metadata_contract tool or the figshare://metadata-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the data file, relative to the library root")),
	), s.importFile)

	s.mcp.AddTool(mcp.NewTool("upload_preview",
		mcp.WithDescription("Show the exact metadata payload an upload to Figshare would send, "+
			"including any normalization warnings."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Article record id")),
	), s.uploadPreview)

	s.mcp.AddTool(mcp.NewTool("queue_upload",
		mcp.WithDescription("Queue a tracked article for background upload to Figshare."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Article record id")),
	), s.queueUpload)

	s.mcp.AddTool(mcp.NewTool("list_collections",
		mcp.WithDescription("List the account's Figshare collections."),
	), s.listCollections)

	s.mcp.AddTool(mcp.NewTool("get_metadata_contract",
		mcp.WithDescription("Returns the canonical article metadata contract. "+
			"Call this before editing article records to ensure correct structure."),
	), s.getMetadataContract)

	// Resource: metadata format contract.
	s.mcp.AddResource(
		mcp.NewResource("figshare://metadata-format", "Article Metadata Contract",
			mcp.WithResourceDescription("Canonical article metadata format that all records follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readMetadataFormatResource,
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

func (s *Server) searchArticles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

func (s *Server) getArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, err := s.svc.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(a, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listArticles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := ""
	if v, err := req.RequireString("status"); err == nil {
		status = v
	}

	items := s.svc.List(ctx, status)
	var lines []string
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("%s\t%s\t%s\t%s", it.ID, it.Status, it.Kind, it.Title))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no articles tracked"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) importFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, warnings, err := s.svc.ImportLocal(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text := fmt.Sprintf("imported: %s as %s (%s)", path, a.ID, a.Kind)
	for _, w := range warnings {
		text += fmt.Sprintf("\nwarning: %s: %s", w.Field, w.Reason)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) uploadPreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	payload, warnings, err := s.svc.UploadPreview(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"payload":  payload,
		"warnings": warnings,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) queueUpload(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, getErr := s.svc.Get(ctx, id); getErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	if err := s.queue.Enqueue(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("queued: %s (%d pending)", id, s.queue.Pending())), nil
}

func (s *Server) listCollections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cols, err := s.svc.ListCollections(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(cols) == 0 {
		return mcp.NewToolResultText("no collections"), nil
	}
	var lines []string
	for _, c := range cols {
		lines = append(lines, fmt.Sprintf("%d\t%s\t%d articles", c.ID, c.Title, c.ArticlesCount))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getMetadataContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MetadataFormatContract), nil
}

func (s *Server) readMetadataFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "figshare://metadata-format",
			MIMEType: "text/markdown",
			Text:     MetadataFormatContract,
		},
	}, nil
}
