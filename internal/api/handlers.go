package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/zettel/internal/noteservice"
)

const (
	defaultRecentLimit = 100
	maxRecentLimit     = 1000
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// noteID extracts a positive note id from the {id} URL parameter.
func noteID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return 0, false
	}
	return id, true
}

// Recent handles GET /api/notes/recent.
//
//	@Summary		List the newest leaf notes
//	@Tags			notes
//	@Produce		json
//	@Param			limit	query		int	false	"Max notes"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes/recent [get]
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be a positive integer"))
			return
		}
		limit = min(n, maxRecentLimit)
	}
	notes, err := h.svc.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, "recent notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: nonNil(notes)})
}

// FilterByTags handles GET /api/notes?tags=a,b.
//
//	@Summary		List notes carrying any of the given tags
//	@Tags			notes
//	@Produce		json
//	@Param			tags	query		string	false	"Comma-separated tags"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) FilterByTags(w http.ResponseWriter, r *http.Request) {
	var tags []string
	for _, t := range strings.Split(r.URL.Query().Get("tags"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	notes, err := h.svc.FilterByTags(r.Context(), tags)
	if err != nil {
		writeError(w, "filter notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: nonNil(notes)})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a note with its lineage and tags
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	note, err := h.svc.Note(r.Context(), id)
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	note.Parents = nonNil(note.Parents)
	note.Children = nonNil(note.Children)
	note.Tags = nonNil(note.Tags)
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a note citing optional parents
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	note, err := h.svc.CreateNote(r.Context(), req.Content, req.Parents)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// Search handles GET /api/search.
//
//	@Summary		Semantic search across notes
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	true	"Search query"
//	@Success		200	{object}	SearchResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	results, err := h.svc.Search(r.Context(), q)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: nonNil(results)})
}

// SearchTags handles GET /api/tags.
//
//	@Summary		Find tags containing a substring (case-insensitive)
//	@Tags			tags
//	@Produce		json
//	@Param			q	query		string	false	"Substring"
//	@Success		200	{object}	TagSearchResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) SearchTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.SearchTags(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, "search tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TagSearchResponse{Tags: nonNil(tags)})
}

// NoteTags handles GET /api/notes/{id}/tags.
//
//	@Summary		List the tags of a note
//	@Tags			tags
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	NoteTagsResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/tags [get]
func (h *Handler) NoteTags(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	if _, err := h.svc.Note(r.Context(), id); err != nil {
		writeError(w, "note tags", err)
		return
	}
	tags, err := h.svc.Tags(r.Context(), id)
	if err != nil {
		writeError(w, "note tags", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteTagsResponse{Tags: nonNil(tags)})
}

// AddTag handles POST /api/notes/{id}/tags.
//
//	@Summary		Tag a note (idempotent)
//	@Tags			tags
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int				true	"Note id"
//	@Param			body	body		AddTagRequest	true	"Tag"
//	@Success		200		{object}	models.Tag
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/tags [post]
func (h *Handler) AddTag(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	var req AddTagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	tag, err := h.svc.AddTag(r.Context(), id, req.Tag)
	if err != nil {
		writeError(w, "add tag", err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// RemoveTag handles DELETE /api/notes/{id}/tags/{tag}.
//
//	@Summary		Remove a tag from a note; absent tags are ignored
//	@Tags			tags
//	@Param			id	path	int		true	"Note id"
//	@Param			tag	path	string	true	"Tag"
//	@Success		204	"Tag removed"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/tags/{tag} [delete]
func (h *Handler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	tag := chi.URLParam(r, "tag")
	if decoded, err := url.PathUnescape(tag); err == nil {
		tag = decoded
	}
	if err := h.svc.RemoveTag(r.Context(), id, tag); err != nil {
		writeError(w, "remove tag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Promote handles POST /api/notes/{id}/promote.
//
//	@Summary		Promote a note to an article
//	@Tags			articles
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int				true	"Note id"
//	@Param			body	body		PromoteRequest	false	"Article title"
//	@Success		201		{object}	models.Promotion
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/promote [post]
func (h *Handler) Promote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	var req PromoteRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	p, err := h.svc.Promote(r.Context(), id, req.Title)
	if err != nil {
		writeError(w, "promote", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Articles handles GET /api/articles.
//
//	@Summary		List promoted articles, newest first
//	@Tags			articles
//	@Produce		json
//	@Param			limit	query		int	false	"Max articles"
//	@Success		200		{object}	ArticleListResponse
//	@Security		BearerAuth
//	@Router			/articles [get]
func (h *Handler) Articles(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	articles, err := h.svc.Promotions(r.Context(), limit)
	if err != nil {
		writeError(w, "list articles", err)
		return
	}
	writeJSON(w, http.StatusOK, ArticleListResponse{Articles: nonNil(articles)})
}
