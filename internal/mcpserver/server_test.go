package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/mnemo/internal/noteservice"
	"github.com/starford/mnemo/internal/testutil"
)

var start = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func testServer(t *testing.T) (*Server, *testutil.Clock) {
	t.Helper()
	clock := testutil.NewClock(start)
	return New(testutil.TestService(t, clock), 20), clock
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handlers are
	// invoked directly.
	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"search_notes":      srv.searchNotes,
		"read_note":         srv.readNote,
		"create_note":       srv.createNote,
		"list_tags":         srv.listTags,
		"set_review":        srv.setReview,
		"mark_reviewed":     srv.markReviewed,
		"due_reviews":       srv.dueReviews,
		"get_note_contract": srv.getNoteContract,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
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

func decodeNote(t *testing.T, r *mcp.CallToolResult) noteservice.NoteDetail {
	t.Helper()
	if r.IsError {
		t.Fatalf("tool error: %s", resultText(r))
	}
	var n noteservice.NoteDetail
	if err := json.Unmarshal([]byte(resultText(r)), &n); err != nil {
		t.Fatalf("decode note: %v", err)
	}
	return n
}

func TestCreateAndReadNote(t *testing.T) {
	srv, _ := testServer(t)

	created := decodeNote(t, callTool(t, srv, "create_note", map[string]interface{}{
		"title": "Test",
		"body":  "Hello #greeting",
	}))
	if created.ID == "" || created.Title != "Test" {
		t.Fatalf("created = %+v", created)
	}

	got := decodeNote(t, callTool(t, srv, "read_note", map[string]interface{}{"id": created.ID}))
	if got.Body != "Hello #greeting" {
		t.Errorf("body = %q", got.Body)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "greeting" {
		t.Errorf("tags = %v", got.Tags)
	}
}

func TestCreateNote_MissingTitle(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "create_note", map[string]interface{}{"body": "x"})
	if !r.IsError {
		t.Error("expected error without title")
	}
	r = callTool(t, srv, "create_note", map[string]interface{}{"title": " ", "body": "x"})
	if !r.IsError {
		t.Error("expected error for blank title")
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
	if !strings.Contains(resultText(r), "not found") {
		t.Errorf("error = %q", resultText(r))
	}
}

func TestSearchAndTags(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "create_note", map[string]interface{}{"title": "Flask", "body": "web #Python #Flask"})
	callTool(t, srv, "create_note", map[string]interface{}{"title": "SQL", "body": "select #SQL"})

	r := callTool(t, srv, "search_notes", map[string]interface{}{"tag": "Python"})
	var notes []noteservice.NoteDetail
	if err := json.Unmarshal([]byte(resultText(r)), &notes); err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Title != "Flask" {
		t.Errorf("tag search = %+v", notes)
	}

	r = callTool(t, srv, "search_notes", map[string]interface{}{})
	_ = json.Unmarshal([]byte(resultText(r)), &notes)
	if len(notes) != 2 {
		t.Errorf("empty search = %d notes, want 2", len(notes))
	}

	r = callTool(t, srv, "list_tags", map[string]interface{}{})
	for _, want := range []string{`"Flask"`, `"Python"`, `"SQL"`} {
		if !strings.Contains(resultText(r), want) {
			t.Errorf("list_tags missing %s: %s", want, resultText(r))
		}
	}
}

func TestReviewTools(t *testing.T) {
	srv, clock := testServer(t)
	created := decodeNote(t, callTool(t, srv, "create_note", map[string]interface{}{"title": "card", "body": ""}))

	// JSON numbers arrive as float64.
	n := decodeNote(t, callTool(t, srv, "set_review", map[string]interface{}{"id": created.ID, "days": float64(2)}))
	if n.NextReview == nil || !n.NextReview.Equal(start.Add(48*time.Hour)) {
		t.Errorf("next_review = %v", n.NextReview)
	}

	r := callTool(t, srv, "set_review", map[string]interface{}{"id": created.ID, "days": float64(0)})
	if !r.IsError {
		t.Error("expected error for zero days")
	}
	r = callTool(t, srv, "set_review", map[string]interface{}{"id": created.ID})
	if !r.IsError {
		t.Error("expected error without days")
	}

	clock.Advance(3 * 24 * time.Hour)
	r = callTool(t, srv, "due_reviews", map[string]interface{}{})
	var due struct {
		Notes []noteservice.NoteDetail `json:"notes"`
		Total int                      `json:"total"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &due); err != nil {
		t.Fatal(err)
	}
	if due.Total != 1 || due.Notes[0].ID != created.ID {
		t.Errorf("due = %+v", due)
	}

	n = decodeNote(t, callTool(t, srv, "mark_reviewed", map[string]interface{}{"id": created.ID}))
	if n.ReviewCount != 1 || n.LastReviewed == nil {
		t.Errorf("after review = %+v", n)
	}

	r = callTool(t, srv, "mark_reviewed", map[string]interface{}{"id": "ghost"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}

	r = callTool(t, srv, "due_reviews", map[string]interface{}{"limit": float64(-1)})
	if !r.IsError {
		t.Error("expected error for negative limit")
	}
}

func TestNoteContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_note_contract", map[string]interface{}{})
	if !strings.Contains(resultText(r), "case-sensitive") {
		t.Error("contract should describe tag case sensitivity")
	}

	contents, err := srv.readNoteFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != NoteFormatURI {
		t.Errorf("resource = %+v", contents[0])
	}
}
