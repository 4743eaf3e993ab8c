// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes a user's voice notes to LLM agents via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vocanote/internal/apperr"
	"github.com/starford/vocanote/internal/models"
	"github.com/starford/vocanote/internal/noteservice"
	"github.com/starford/vocanote/internal/summarize"
)

// Summarizer produces a summary and keywords for a text.
type Summarizer interface {
	Summarize(ctx context.Context, req summarize.Request) (*summarize.Result, error)
}

// Server wraps the MCP server with note tools scoped to one user.
type Server struct {
	mcp        *server.MCPServer
	notes      *noteservice.Service
	summarizer Summarizer
	userID     int64
}

// New creates a new MCP server acting on behalf of userID.
func New(notes *noteservice.Service, summarizer Summarizer, userID int64) *Server {
	s := &Server{notes: notes, summarizer: summarizer, userID: userID}

	s.mcp = server.NewMCPServer(
		"VocaNote",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes, newest first."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_note",
		mcp.WithDescription("Read a single note with its summary and keywords."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.getNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("content", mcp.Description("Note body, usually a transcription")),
		mcp.WithString("summary", mcp.Description("Optional summary")),
		mcp.WithArray("keywords", mcp.WithStringItems(), mcp.Description("Optional keywords")),
		mcp.WithString("language", mcp.Description("Language of the note (default English)")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Overwrite every field of an existing note."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("content", mcp.Description("Note body")),
		mcp.WithString("summary", mcp.Description("Summary")),
		mcp.WithArray("keywords", mcp.WithStringItems(), mcp.Description("Keywords")),
		mcp.WithString("language", mcp.Description("Language of the note")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("summarize_text",
		mcp.WithDescription("Summarize a text and extract 5-7 keywords."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to summarize")),
		mcp.WithString("target_length", mcp.Description("brief, medium or detailed"), mcp.Enum("brief", "medium", "detailed")),
		mcp.WithString("language", mcp.Description("Output language (default English)")),
	), s.summarizeText)

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

func (s *Server) listNotes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := s.notes.ListNotes(ctx, s.userID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(notes), nil
}

func (s *Server) getNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.notes.GetNote(ctx, s.userID, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(note), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := noteInput(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.notes.CreateNote(ctx, s.userID, in)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(note), nil
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in, err := noteInput(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.notes.UpdateNote(ctx, s.userID, id, in)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(note), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.notes.DeleteNote(ctx, s.userID, id); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %d", id)), nil
}

func (s *Server) summarizeText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.summarizer.Summarize(ctx, summarize.Request{
		Text:         text,
		TargetLength: req.GetString("target_length", ""),
		Language:     req.GetString("language", ""),
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

func requireID(req mcp.CallToolRequest) (int64, error) {
	f, err := req.RequireFloat("id")
	if err != nil {
		return 0, err
	}
	if f <= 0 || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid note id: %v", f)
	}
	return int64(f), nil
}

func noteInput(req mcp.CallToolRequest) (models.NoteInput, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return models.NoteInput{}, err
	}
	return models.NoteInput{
		Title:    title,
		Content:  req.GetString("content", ""),
		Summary:  req.GetString("summary", ""),
		Keywords: req.GetStringSlice("keywords", nil),
		Language: req.GetString("language", ""),
	}, nil
}

// toolError turns a service error into a tool-level error result. Backend
// details of gateway failures stay out of the agent's view.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("note not found")
	case errors.Is(err, apperr.ErrValidation):
		return mcp.NewToolResultError(apperr.Message(err))
	case errors.Is(err, apperr.ErrSummarization):
		return mcp.NewToolResultError("failed to generate summary")
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}
