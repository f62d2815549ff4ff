package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/starford/zettel/internal/models"
	"github.com/starford/zettel/internal/noteservice"
	"github.com/starford/zettel/internal/testutil"
)

// testEnv sets up a temp SQLite store, service, and router for testing.
// A non-empty authToken enables token mode.
func testEnv(t *testing.T, authToken string) (*noteservice.Service, http.Handler, *testutil.Embedder) {
	t.Helper()
	return testEnvFull(t, authToken, nil)
}

func testEnvFull(t *testing.T, authToken string, sseHandler http.Handler) (*noteservice.Service, http.Handler, *testutil.Embedder) {
	t.Helper()
	_, articles := testutil.TestDir(t)
	emb := testutil.NewEmbedder()
	svc := noteservice.NewService(testutil.TestStore(t), emb, noteservice.WithArticles(articles))
	router := NewRouter(svc, authToken != "", authToken, sseHandler)
	return svc, router, emb
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return doAuth(t, h, method, path, body, "")
}

func doAuth(t *testing.T, h http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func createNote(t *testing.T, h http.Handler, content string, parents ...int64) models.Note {
	t.Helper()
	w := do(t, h, http.MethodPost, "/notes", CreateNoteRequest{Content: content, Parents: parents})
	if w.Code != http.StatusCreated {
		t.Fatalf("create %q status = %d, body = %s", content, w.Code, w.Body.String())
	}
	return decode[models.Note](t, w)
}

func TestCreateAndGetNote(t *testing.T) {
	_, router, _ := testEnv(t, "")

	idea := createNote(t, router, "idea")
	if idea.ID != 1 || idea.Content != "idea" {
		t.Fatalf("created = %+v", idea)
	}
	ext := createNote(t, router, "idea extended", idea.ID)

	w := do(t, router, http.MethodGet, "/notes/2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	detail := decode[NoteDetail](t, w)
	if detail.ID != ext.ID || len(detail.Parents) != 1 || detail.Parents[0].ID != idea.ID {
		t.Errorf("detail = %+v", detail)
	}

	detail = decode[NoteDetail](t, do(t, router, http.MethodGet, "/notes/1", nil))
	if len(detail.Children) != 1 || detail.Children[0].ID != ext.ID {
		t.Errorf("children = %+v", detail.Children)
	}
	if detail.Parents == nil || detail.Tags == nil {
		t.Errorf("empty lineage should encode as arrays: %s", w.Body.String())
	}
}

func TestGetNote_Errors(t *testing.T) {
	_, router, _ := testEnv(t, "")

	if w := do(t, router, http.MethodGet, "/notes/42", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing note = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/notes/abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d, want 400", w.Code)
	}
}

func TestCreateNote_Validation(t *testing.T) {
	_, router, _ := testEnv(t, "")

	cases := []struct {
		name string
		body any
	}{
		{"empty content", CreateNoteRequest{}},
		{"non-positive parent", CreateNoteRequest{Content: "x", Parents: []int64{0}}},
		{"invalid json", "{"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := do(t, router, http.MethodPost, "/notes", tc.body); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestCreateNote_NoOpSave(t *testing.T) {
	_, router, _ := testEnv(t, "")
	createNote(t, router, "idea")

	w := do(t, router, http.MethodPost, "/notes", CreateNoteRequest{Content: "idea", Parents: []int64{1}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("no-op save = %d, want 400", w.Code)
	}
	list := decode[NoteListResponse](t, do(t, router, http.MethodGet, "/notes/recent", nil))
	if len(list.Notes) != 1 {
		t.Errorf("notes after no-op = %d, want 1", len(list.Notes))
	}
}

func TestCreateNote_MissingParent(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/notes", CreateNoteRequest{Content: "orphan", Parents: []int64{7}})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing parent = %d, want 404", w.Code)
	}
}

func TestCreateNote_EmbeddingUnavailable(t *testing.T) {
	_, router, emb := testEnv(t, "")
	emb.SetFail(true)

	w := do(t, router, http.MethodPost, "/notes", CreateNoteRequest{Content: "idea"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestRecentLeaves(t *testing.T) {
	_, router, _ := testEnv(t, "")
	createNote(t, router, "idea")
	createNote(t, router, "idea extended", 1)

	list := decode[NoteListResponse](t, do(t, router, http.MethodGet, "/notes/recent?limit=10", nil))
	if len(list.Notes) != 1 || list.Notes[0].ID != 2 {
		t.Errorf("recent = %+v, want [2]", list.Notes)
	}
	if w := do(t, router, http.MethodGet, "/notes/recent?limit=-1", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit = %d, want 400", w.Code)
	}
}

func TestSearch(t *testing.T) {
	_, router, emb := testEnv(t, "")
	emb.Vectors["idea"] = []float32{1, 0, 0}
	emb.Vectors["idea extended"] = []float32{0, 1, 0}
	emb.Vectors["extended"] = []float32{0.1, 1, 0}
	createNote(t, router, "idea")
	createNote(t, router, "idea extended", 1)

	if w := do(t, router, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing q = %d, want 400", w.Code)
	}

	res := decode[SearchResponse](t, do(t, router, http.MethodGet, "/search?q=extended", nil))
	if len(res.Results) != 2 || res.Results[0].ID != 2 || res.Results[1].ID != 1 {
		t.Errorf("results = %+v, want [2 1]", res.Results)
	}

	emb.SetFail(true)
	w := do(t, router, http.MethodGet, "/search?q=extended", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search during outage = %d, want 200", w.Code)
	}
	if res := decode[SearchResponse](t, w); len(res.Results) != 0 {
		t.Errorf("outage results = %+v, want empty", res.Results)
	}
}

func TestTags(t *testing.T) {
	_, router, _ := testEnv(t, "")
	createNote(t, router, "P")
	createNote(t, router, "Q")

	for i := 0; i < 2; i++ {
		if w := do(t, router, http.MethodPost, "/notes/1/tags", AddTagRequest{Tag: "Golang"}); w.Code != http.StatusOK {
			t.Fatalf("add tag = %d, body = %s", w.Code, w.Body.String())
		}
	}
	do(t, router, http.MethodPost, "/notes/2/tags", AddTagRequest{Tag: "rust"})

	tags := decode[NoteTagsResponse](t, do(t, router, http.MethodGet, "/notes/1/tags", nil))
	if len(tags.Tags) != 1 || tags.Tags[0].Tag != "Golang" {
		t.Errorf("note tags = %+v", tags.Tags)
	}

	found := decode[TagSearchResponse](t, do(t, router, http.MethodGet, "/tags?q=GO", nil))
	if len(found.Tags) != 1 || found.Tags[0] != "Golang" {
		t.Errorf("tag search = %v", found.Tags)
	}

	list := decode[NoteListResponse](t, do(t, router, http.MethodGet, "/notes?tags=Golang,rust", nil))
	if len(list.Notes) != 2 {
		t.Errorf("filter = %+v, want 2 notes", list.Notes)
	}
	list = decode[NoteListResponse](t, do(t, router, http.MethodGet, "/notes?tags=", nil))
	if list.Notes == nil || len(list.Notes) != 0 {
		t.Errorf("empty filter = %+v, want []", list.Notes)
	}

	for i := 0; i < 2; i++ {
		if w := do(t, router, http.MethodDelete, "/notes/1/tags/Golang", nil); w.Code != http.StatusNoContent {
			t.Errorf("remove tag #%d = %d", i, w.Code)
		}
	}
	tags = decode[NoteTagsResponse](t, do(t, router, http.MethodGet, "/notes/1/tags", nil))
	if len(tags.Tags) != 0 {
		t.Errorf("tags after remove = %+v", tags.Tags)
	}
}

func TestTags_Errors(t *testing.T) {
	_, router, _ := testEnv(t, "")
	createNote(t, router, "P")

	if w := do(t, router, http.MethodPost, "/notes/9/tags", AddTagRequest{Tag: "x"}); w.Code != http.StatusNotFound {
		t.Errorf("tag missing note = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/notes/1/tags", AddTagRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("empty tag = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/notes/1/tags", AddTagRequest{Tag: "   "}); w.Code != http.StatusBadRequest {
		t.Errorf("blank tag = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/notes/9/tags", nil); w.Code != http.StatusNotFound {
		t.Errorf("tags of missing note = %d, want 404", w.Code)
	}
}

func TestPromote(t *testing.T) {
	_, router, _ := testEnv(t, "")
	createNote(t, router, "# Lineage\n\nNotes cite parents.")

	w := do(t, router, http.MethodPost, "/notes/1/promote", PromoteRequest{Title: "On lineage"})
	if w.Code != http.StatusCreated {
		t.Fatalf("promote = %d, body = %s", w.Code, w.Body.String())
	}
	if p := decode[models.Promotion](t, w); p.Title != "On lineage" || p.NoteID != 1 {
		t.Errorf("promotion = %+v", p)
	}

	w = do(t, router, http.MethodPost, "/notes/1/promote", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("promote without body = %d", w.Code)
	}
	if p := decode[models.Promotion](t, w); p.Title != "Lineage" {
		t.Errorf("derived title = %q, want Lineage", p.Title)
	}

	list := decode[ArticleListResponse](t, do(t, router, http.MethodGet, "/articles", nil))
	if len(list.Articles) != 2 || list.Articles[0].Title != "Lineage" {
		t.Errorf("articles = %+v", list.Articles)
	}

	if w := do(t, router, http.MethodPost, "/notes/5/promote", nil); w.Code != http.StatusNotFound {
		t.Errorf("promote missing = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, router, _ := testEnv(t, "secret")

	if w := do(t, router, http.MethodGet, "/notes/recent", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}
	if w := doAuth(t, router, http.MethodGet, "/notes/recent", nil, "wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
	if w := doAuth(t, router, http.MethodGet, "/notes/recent", nil, "secret"); w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

func TestEventsMountedBehindAuth(t *testing.T) {
	sse := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	_, router, _ := testEnvFull(t, "secret", sse)

	if w := do(t, router, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("events without token = %d, want 401", w.Code)
	}
	if w := doAuth(t, router, http.MethodGet, "/events", nil, "secret"); w.Code != http.StatusTeapot {
		t.Errorf("events = %d, want handler status", w.Code)
	}
}
