// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes mnemo tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/mnemo/internal/apperr"
	"github.com/starford/mnemo/internal/noteservice"
)

// NoteFormatURI is the resource URI of the note format contract.
const NoteFormatURI = "mnemo://note-format"

// Server wraps the MCP server with mnemo tools.
type Server struct {
	mcp      *server.MCPServer
	svc      *noteservice.Service
	dueLimit int
}

// New creates a new MCP server with all mnemo tools registered. dueLimit is
// the due_reviews default when the caller passes no limit.
func New(svc *noteservice.Service, dueLimit int) *Server {
	s := &Server{svc: svc, dueLimit: dueLimit}

	s.mcp = server.NewMCPServer(
		"mnemo",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search notes by a case-sensitive keyword in title or body and/or an exact tag name. "+
			"Both are optional; with neither, all notes are returned, most recently updated first."),
		mcp.WithString("query", mcp.Description("Keyword to look for in title or body")),
		mcp.WithString("tag", mcp.Description("Exact, case-sensitive tag name without the leading #")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note with its tags and review state."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note. Tags are taken from #words in the body. "+
			"Read the contract first via the get_note_contract tool or the "+NoteFormatURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Non-empty note title")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Note body following the mnemo note format contract")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every tag ever used, ordered by name."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("set_review",
		mcp.WithDescription("Schedule the next review of a note a number of days from now. Review history is kept."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithNumber("days", mcp.Required(), mcp.Description("Positive number of days")),
	), s.setReview)

	s.mcp.AddTool(mcp.NewTool("mark_reviewed",
		mcp.WithDescription("Record that a note was reviewed now. The next review is scheduled "+
			"1, 2, 4, 8, 16, then 30 days out as the review count grows."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.markReviewed)

	s.mcp.AddTool(mcp.NewTool("due_reviews",
		mcp.WithDescription("List notes whose review is due, most overdue first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of notes; 0 returns all")),
	), s.dueReviews)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the mnemo note format contract. "+
			"Call this before creating notes to ensure tags are written correctly."),
	), s.getNoteContract)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource(NoteFormatURI, "Note Format Contract",
			mcp.WithResourceDescription("How note titles, bodies and #tags are interpreted."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// toolError turns a service error into a tool-level error result.
func toolError(id string, err error) (*mcp.CallToolResult, error) {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return mcp.NewToolResultError(err.Error()), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := s.svc.Search(ctx, req.GetString("query", ""), req.GetString("tag", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(notes)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, id)
	if err != nil {
		return toolError(id, err)
	}
	return jsonResult(note)
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := req.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.CreateNote(ctx, title, body)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(note)
}

func (s *Server) listTags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.svc.ListTags(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tags)
}

func (s *Server) setReview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	days, err := req.RequireInt("days")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.SetReview(ctx, id, days)
	if err != nil {
		return toolError(id, err)
	}
	return jsonResult(note)
}

func (s *Server) markReviewed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.MarkReviewed(ctx, id)
	if err != nil {
		return toolError(id, err)
	}
	return jsonResult(note)
}

func (s *Server) dueReviews(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", s.dueLimit)
	if limit < 0 {
		return mcp.NewToolResultError("limit must not be negative"), nil
	}
	notes, total, err := s.svc.DueReviews(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"notes": notes, "total": total})
}

func (s *Server) getNoteContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      NoteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
