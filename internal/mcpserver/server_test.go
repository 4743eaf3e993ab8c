package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/vocanote/internal/models"
	"github.com/starford/vocanote/internal/noteservice"
	"github.com/starford/vocanote/internal/summarize"
	"github.com/starford/vocanote/internal/testutil"
)

type stubGenerator struct {
	err error
}

func (g stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	if strings.Contains(prompt, "Extract 5-7") {
		return "one\ntwo", nil
	}
	return "summary text", nil
}

// testServer returns servers for two users sharing one database.
func testServer(t *testing.T, gen stubGenerator) (alice, bob *Server) {
	t.Helper()
	db := testutil.TestDB(t)
	ctx := context.Background()

	a, err := db.CreateUser(ctx, "alice", "hash")
	if err != nil {
		t.Fatal(err)
	}
	b, err := db.CreateUser(ctx, "bob", "hash")
	if err != nil {
		t.Fatal(err)
	}

	notes := noteservice.NewService(db)
	sum := summarize.NewGateway(gen, nil)
	return New(notes, sum, a.ID), New(notes, sum, b.ID)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "get_note":
		result, err = srv.getNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "update_note":
		result, err = srv.updateNote(ctx, req)
	case "delete_note":
		result, err = srv.deleteNote(ctx, req)
	case "summarize_text":
		result, err = srv.summarizeText(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func createNote(t *testing.T, srv *Server, title string) models.Note {
	t.Helper()
	r := callTool(t, srv, "create_note", map[string]interface{}{
		"title":    title,
		"content":  "spoken words",
		"keywords": []interface{}{"a", "b"},
	})
	if r.IsError {
		t.Fatalf("create error: %s", resultText(r))
	}
	var n models.Note
	if err := json.Unmarshal([]byte(resultText(r)), &n); err != nil {
		t.Fatalf("decode note: %v", err)
	}
	return n
}

func TestCreateAndGetNote(t *testing.T) {
	srv, _ := testServer(t, stubGenerator{})
	n := createNote(t, srv, "Standup")

	if n.ID == 0 || n.Title != "Standup" {
		t.Fatalf("created = %+v", n)
	}
	if len(n.Keywords) != 2 || n.Language != models.DefaultLanguage {
		t.Errorf("keywords = %v, language = %q", n.Keywords, n.Language)
	}

	r := callTool(t, srv, "get_note", map[string]interface{}{"id": float64(n.ID)})
	if r.IsError {
		t.Fatalf("get error: %s", resultText(r))
	}
	var got models.Note
	_ = json.Unmarshal([]byte(resultText(r)), &got)
	if got.Content != "spoken words" {
		t.Errorf("content = %q", got.Content)
	}
}

func TestCreateNoteRequiresTitle(t *testing.T) {
	srv, _ := testServer(t, stubGenerator{})

	r := callTool(t, srv, "create_note", map[string]interface{}{"content": "x"})
	if !r.IsError {
		t.Error("expected error for missing title")
	}
	r = callTool(t, srv, "create_note", map[string]interface{}{"title": "  "})
	if !r.IsError {
		t.Error("expected error for blank title")
	}
}

func TestListNotes(t *testing.T) {
	srv, _ := testServer(t, stubGenerator{})

	r := callTool(t, srv, "list_notes", map[string]interface{}{})
	if text := resultText(r); text != "[]" {
		t.Errorf("empty list = %q", text)
	}

	createNote(t, srv, "first")
	createNote(t, srv, "second")

	r = callTool(t, srv, "list_notes", map[string]interface{}{})
	var notes []models.Note
	if err := json.Unmarshal([]byte(resultText(r)), &notes); err != nil {
		t.Fatal(err)
	}
	if len(notes) != 2 || notes[0].Title != "second" {
		t.Errorf("notes = %+v", notes)
	}
}

func TestUpdateAndDeleteNote(t *testing.T) {
	srv, _ := testServer(t, stubGenerator{})
	n := createNote(t, srv, "draft")

	r := callTool(t, srv, "update_note", map[string]interface{}{
		"id":    float64(n.ID),
		"title": "final",
	})
	if r.IsError {
		t.Fatalf("update error: %s", resultText(r))
	}
	var updated models.Note
	_ = json.Unmarshal([]byte(resultText(r)), &updated)
	if updated.Title != "final" || len(updated.Keywords) != 0 {
		t.Errorf("updated = %+v", updated)
	}

	r = callTool(t, srv, "delete_note", map[string]interface{}{"id": float64(n.ID)})
	if text := resultText(r); text != fmt.Sprintf("deleted: %d", n.ID) {
		t.Errorf("delete result = %q", text)
	}

	r = callTool(t, srv, "get_note", map[string]interface{}{"id": float64(n.ID)})
	if !r.IsError || resultText(r) != "note not found" {
		t.Errorf("get after delete = %q", resultText(r))
	}
}

func TestNotesScopedToUser(t *testing.T) {
	alice, bob := testServer(t, stubGenerator{})
	n := createNote(t, alice, "private")

	for _, tool := range []string{"get_note", "delete_note"} {
		r := callTool(t, bob, tool, map[string]interface{}{"id": float64(n.ID)})
		if !r.IsError {
			t.Errorf("%s on another user's note succeeded", tool)
		}
	}
	r := callTool(t, bob, "update_note", map[string]interface{}{"id": float64(n.ID), "title": "mine"})
	if !r.IsError {
		t.Error("update on another user's note succeeded")
	}
	r = callTool(t, bob, "list_notes", map[string]interface{}{})
	if text := resultText(r); text != "[]" {
		t.Errorf("bob list = %q", text)
	}
}

func TestInvalidID(t *testing.T) {
	srv, _ := testServer(t, stubGenerator{})
	for _, id := range []interface{}{float64(0), float64(1.5), "abc"} {
		r := callTool(t, srv, "get_note", map[string]interface{}{"id": id})
		if !r.IsError {
			t.Errorf("id %v accepted", id)
		}
	}
}

func TestSummarizeText(t *testing.T) {
	srv, _ := testServer(t, stubGenerator{})

	r := callTool(t, srv, "summarize_text", map[string]interface{}{
		"text":          "long transcript",
		"target_length": "detailed",
	})
	if r.IsError {
		t.Fatalf("summarize error: %s", resultText(r))
	}
	var res summarize.Result
	_ = json.Unmarshal([]byte(resultText(r)), &res)
	if res.Summary != "summary text" || len(res.Keywords) != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestSummarizeTextBackendFailure(t *testing.T) {
	srv, _ := testServer(t, stubGenerator{err: errors.New("api key invalid")})

	r := callTool(t, srv, "summarize_text", map[string]interface{}{"text": "x"})
	if !r.IsError {
		t.Fatal("expected error")
	}
	if text := resultText(r); text != "failed to generate summary" {
		t.Errorf("error text = %q", text)
	}
}
