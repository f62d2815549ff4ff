// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Zettel tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/zettel/internal/apperr"
	"github.com/starford/zettel/internal/noteservice"
)

const (
	inboxFormatURI     = "zettel://inbox-format"
	defaultRecentLimit = 20
)

// Server wraps the MCP server with Zettel tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all Zettel tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Zettel",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Semantic search: returns the notes whose meaning is closest to the query, nearest first."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Free text to embed and compare")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("recent_notes",
		mcp.WithDescription("List the newest leaf notes (notes no other note cites yet)."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of notes (default 20)"), mcp.Min(1), mcp.Max(1000)),
	), s.recentNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note with its parents, children and tags."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note. Notes are immutable: to refine an idea, create a new note "+
			"citing the original as a parent. Saving a single parent's content unchanged creates nothing."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note text (Markdown)")),
		mcp.WithArray("parents", mcp.Description("Ids of the notes this note cites"),
			mcp.Items(map[string]any{"type": "integer"})),
		mcp.WithArray("tags", mcp.Description("Tags to attach after creation"),
			mcp.Items(map[string]any{"type": "string"})),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("tag_note",
		mcp.WithDescription("Attach a tag to a note. Tagging twice is harmless."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag text")),
	), s.tagNote)

	s.mcp.AddTool(mcp.NewTool("untag_note",
		mcp.WithDescription("Remove a tag from a note. Removing an absent tag is harmless."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag text")),
	), s.untagNote)

	s.mcp.AddTool(mcp.NewTool("find_tags",
		mcp.WithDescription("Find existing tags containing a substring (case-insensitive)."),
		mcp.WithString("query", mcp.Description("Substring; empty lists every tag")),
	), s.findTags)

	s.mcp.AddTool(mcp.NewTool("notes_by_tags",
		mcp.WithDescription("List notes carrying any of the given tags, newest first."),
		mcp.WithArray("tags", mcp.Required(), mcp.Description("Tags to match"),
			mcp.Items(map[string]any{"type": "string"})),
	), s.notesByTags)

	s.mcp.AddTool(mcp.NewTool("promote_note",
		mcp.WithDescription("Promote a note to an article snapshot. The title defaults to the note's heading."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("title", mcp.Description("Article title")),
	), s.promoteNote)

	s.mcp.AddTool(mcp.NewTool("get_inbox_contract",
		mcp.WithDescription("Returns the format of capture files dropped into the Zettel inbox directory."),
	), s.getInboxContract)

	s.mcp.AddResource(
		mcp.NewResource(inboxFormatURI, "Inbox Format Contract",
			mcp.WithResourceDescription("Format of Markdown capture files imported from the inbox."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readInboxFormatResource,
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

// toolError converts a service error into a tool error result.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found: " + err.Error())
	case errors.Is(err, apperr.ErrNoChange):
		return mcp.NewToolResultError("nothing to save: content is empty or identical to its parent")
	case errors.Is(err, apperr.ErrEmbeddingUnavailable):
		return mcp.NewToolResultError("embedding service unavailable, try again later")
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

func requireID(req mcp.CallToolRequest) (int64, error) {
	id := req.GetInt("id", 0)
	if id <= 0 {
		return 0, fmt.Errorf("id must be a positive integer")
	}
	return int64(id), nil
}

// argList reads an array argument. JSON numbers arrive as float64.
func argList(req mcp.CallToolRequest, key string) []any {
	args := req.GetArguments()
	if args == nil {
		return nil
	}
	switch v := args[key].(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []int:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out
	}
	return nil
}

func idList(req mcp.CallToolRequest, key string) ([]int64, error) {
	var ids []int64
	for _, v := range argList(req, key) {
		var id int64
		switch n := v.(type) {
		case float64:
			id = int64(n)
			if float64(id) != n {
				return nil, fmt.Errorf("%s: %v is not an integer", key, n)
			}
		case int:
			id = int64(n)
		case int64:
			id = n
		case string:
			parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: %q is not an integer", key, n)
			}
			id = parsed
		default:
			return nil, fmt.Errorf("%s: unsupported value %v", key, v)
		}
		if id <= 0 {
			return nil, fmt.Errorf("%s: ids must be positive", key)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func stringList(req mcp.CallToolRequest, key string) []string {
	var out []string
	for _, v := range argList(req, key) {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, err := s.svc.Search(ctx, query)
	if err != nil {
		return toolError(err), nil
	}
	if len(notes) == 0 {
		return mcp.NewToolResultText("no matching notes"), nil
	}
	return jsonResult(notes), nil
}

func (s *Server) recentNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", defaultRecentLimit)
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	notes, err := s.svc.Recent(ctx, limit)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(notes), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.Note(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(note), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	parents, err := idList(req, "parents")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.CreateNote(ctx, content, parents)
	if err != nil {
		return toolError(err), nil
	}
	for _, tag := range stringList(req, "tags") {
		if _, err := s.svc.AddTag(ctx, note.ID, tag); err != nil {
			return toolError(err), nil
		}
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: note %d", note.ID)), nil
}

func (s *Server) tagNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, err := s.svc.AddTag(ctx, id, tag)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("tagged: note %d #%s", id, t.Tag)), nil
}

func (s *Server) untagNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.RemoveTag(ctx, id, tag); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("untagged: note %d #%s", id, tag)), nil
}

func (s *Server) findTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.svc.SearchTags(ctx, req.GetString("query", ""))
	if err != nil {
		return toolError(err), nil
	}
	if len(tags) == 0 {
		return mcp.NewToolResultText("no tags found"), nil
	}
	return mcp.NewToolResultText(strings.Join(tags, "\n")), nil
}

func (s *Server) notesByTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := s.svc.FilterByTags(ctx, stringList(req, "tags"))
	if err != nil {
		return toolError(err), nil
	}
	if len(notes) == 0 {
		return mcp.NewToolResultText("no matching notes"), nil
	}
	return jsonResult(notes), nil
}

func (s *Server) promoteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.Promote(ctx, id, req.GetString("title", ""))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("promoted: article %d %q (%s)", p.ID, p.Title, noteservice.ArticleFilename(p))), nil
}

func (s *Server) getInboxContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(InboxFormatContract), nil
}

func (s *Server) readInboxFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      inboxFormatURI,
			MIMEType: "text/markdown",
			Text:     InboxFormatContract,
		},
	}, nil
}
