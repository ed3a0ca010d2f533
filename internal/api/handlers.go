package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tobias-gill/Figshare-desktop/internal/apperr"
	"github.com/tobias-gill/Figshare-desktop/internal/articleservice"
	"github.com/tobias-gill/Figshare-desktop/internal/figshare"
	"github.com/tobias-gill/Figshare-desktop/internal/metadata"
	"github.com/tobias-gill/Figshare-desktop/internal/uploader"
)

// Directory serves the remote vocabulary and project listings.
type Directory interface {
	Categories(ctx context.Context) (map[int64]string, error)
	Licenses(ctx context.Context) (map[string]string, error)
	Projects(ctx context.Context) ([]figshare.Project, error)
}

// Queue is the slice of the upload worker the API consumes.
type Queue interface {
	Enqueue(id string) error
	Pending() int
}

// Handler holds API route handlers.
type Handler struct {
	svc   *articleservice.Service
	queue Queue
	dir   Directory
}

// NewHandler creates a new Handler.
func NewHandler(svc *articleservice.Service, queue Queue, dir Directory) *Handler {
	return &Handler{svc: svc, queue: queue, dir: dir}
}

// nonNilWarnings keeps the warnings array present in responses even
// when empty.
func nonNilWarnings(ws metadata.Warnings) []metadata.Warning {
	if ws == nil {
		return []metadata.Warning{}
	}
	return ws
}

// ListArticles handles GET /api/articles.
//
//	@Summary		List tracked articles with optional status filter
//	@Tags			articles
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status"	Enums(local, draft, public)
//	@Success		200		{object}	ArticleListResponse
//	@Security		BearerAuth
//	@Router			/articles [get]
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	items := h.svc.List(r.Context(), r.URL.Query().Get("status"))
	writeJSON(w, http.StatusOK, ArticleListResponse{Articles: items, Total: len(items)})
}

// GetArticle handles GET /api/articles/{id}.
//
//	@Summary		Get a single article record
//	@Tags			articles
//	@Produce		json
//	@Param			id	path		string	true	"Article id"
//	@Success		200	{object}	models.Article
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/articles/{id} [get]
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get article failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ImportArticle handles POST /api/articles/import.
//
//	@Summary		Import a library data file as a new article record
//	@Tags			articles
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportRequest	true	"File to import"
//	@Success		201		{object}	ArticleResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/articles/import [post]
func (h *Handler) ImportArticle(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	a, warnings, err := h.svc.ImportLocal(r.Context(), req.Path)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrAlreadyExists):
			writeJSON(w, http.StatusConflict, errorBody("file already imported"))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("file not found"))
		default:
			slog.Error("import failed", slog.String("path", req.Path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, ArticleResponse{Article: a, Warnings: nonNilWarnings(warnings)})
}

// UpdateArticle handles PATCH /api/articles/{id}.
//
//	@Summary		Merge partial metadata into an article record
//	@Tags			articles
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Article id"
//	@Param			body	body		UpdateArticleRequest	true	"Partial fields"
//	@Success		200		{object}	ArticleResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/articles/{id} [patch]
func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	a, warnings, err := h.svc.UpdateMetadata(r.Context(), id, req.Meta, req.Custom)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("update failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, ArticleResponse{Article: a, Warnings: nonNilWarnings(warnings)})
}

// DeleteArticle handles DELETE /api/articles/{id}.
//
//	@Summary		Delete an article record (the data file stays)
//	@Tags			articles
//	@Param			id	path	string	true	"Article id"
//	@Success		204	"Record deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/articles/{id} [delete]
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("delete failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadPreview handles GET /api/articles/{id}/upload-preview.
//
//	@Summary		Show the exact payload an upload would send
//	@Tags			uploads
//	@Produce		json
//	@Param			id	path		string	true	"Article id"
//	@Success		200	{object}	UploadPreviewResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/articles/{id}/upload-preview [get]
func (h *Handler) UploadPreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	payload, warnings, err := h.svc.UploadPreview(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("upload preview failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, UploadPreviewResponse{Payload: payload, Warnings: nonNilWarnings(warnings)})
}

// QueueUpload handles POST /api/articles/{id}/upload.
//
//	@Summary		Queue an article for background upload to Figshare
//	@Tags			uploads
//	@Produce		json
//	@Param			id	path		string	true	"Article id"
//	@Success		202	{object}	QueueResponse
//	@Failure		404	{object}	errResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/articles/{id}/upload [post]
func (h *Handler) QueueUpload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.Get(r.Context(), id); err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	if err := h.queue.Enqueue(id); err != nil {
		if errors.Is(err, uploader.ErrQueueFull) {
			writeJSON(w, http.StatusServiceUnavailable, errorBody("upload queue full"))
			return
		}
		slog.Error("enqueue failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusAccepted, QueueResponse{ID: id, Pending: h.queue.Pending()})
}

// RefreshArticle handles POST /api/articles/{id}/refresh.
//
//	@Summary		Re-read the article's server-side record and up-to-date flag
//	@Tags			articles
//	@Produce		json
//	@Param			id	path		string	true	"Article id"
//	@Success		200	{object}	models.Article
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/articles/{id}/refresh [post]
func (h *Handler) RefreshArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := h.svc.RefreshRemote(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrNoRemote):
			writeJSON(w, http.StatusConflict, errorBody("article has no remote copy"))
		default:
			slog.Error("refresh failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadGateway, errorBody("figshare unavailable"))
		}
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across article records
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// ListCollections handles GET /api/collections.
//
//	@Summary		List the account's Figshare collections
//	@Tags			collections
//	@Produce		json
//	@Success		200	{array}		figshare.Collection
//	@Security		BearerAuth
//	@Router			/collections [get]
func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := h.svc.ListCollections(r.Context())
	if err != nil {
		slog.Error("list collections failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("figshare unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

// CreateCollection handles POST /api/collections.
//
//	@Summary		Create a private collection on the account
//	@Tags			collections
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateCollectionRequest	true	"Collection metadata"
//	@Success		201		{object}	CollectionResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/collections [post]
func (h *Handler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req CreateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	id, warnings, err := h.svc.CreateCollection(r.Context(), req.Fields)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalid) {
			writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
			return
		}
		slog.Error("create collection failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("figshare unavailable"))
		return
	}
	writeJSON(w, http.StatusCreated, CollectionResponse{ID: id, Warnings: nonNilWarnings(warnings)})
}

// AddCollectionArticles handles POST /api/collections/{id}/articles.
//
//	@Summary		Add uploaded articles to a collection
//	@Tags			collections
//	@Accept			json
//	@Param			id		path	int							true	"Collection id"
//	@Param			body	body	CollectionArticlesRequest	true	"Local record ids"
//	@Success		204		"Articles added"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/collections/{id}/articles [post]
func (h *Handler) AddCollectionArticles(w http.ResponseWriter, r *http.Request) {
	collectionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid collection id"))
		return
	}
	var req CollectionArticlesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.svc.AddToCollection(r.Context(), collectionID, req.IDs); err != nil {
		switch {
		case errors.Is(err, apperr.ErrInvalid):
			writeJSON(w, http.StatusBadRequest, errorBody("ids are required"))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrNoRemote):
			writeJSON(w, http.StatusConflict, errorBody("article has no remote copy"))
		default:
			slog.Error("add to collection failed",
				slog.Int64("collection", collectionID), slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadGateway, errorBody("figshare unavailable"))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Categories handles GET /api/vocab/categories.
//
//	@Summary		The server's category allow-list
//	@Tags			vocab
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Security		BearerAuth
//	@Router			/vocab/categories [get]
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.dir.Categories(r.Context())
	if err != nil {
		slog.Error("categories failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("figshare unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

// Licenses handles GET /api/vocab/licenses.
//
//	@Summary		The account license allow-list
//	@Tags			vocab
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Security		BearerAuth
//	@Router			/vocab/licenses [get]
func (h *Handler) Licenses(w http.ResponseWriter, r *http.Request) {
	lics, err := h.dir.Licenses(r.Context())
	if err != nil {
		slog.Error("licenses failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("figshare unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, lics)
}

// Projects handles GET /api/projects.
//
//	@Summary		List the account's Figshare projects
//	@Tags			vocab
//	@Produce		json
//	@Success		200	{array}		figshare.Project
//	@Security		BearerAuth
//	@Router			/projects [get]
func (h *Handler) Projects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.dir.Projects(r.Context())
	if err != nil {
		slog.Error("projects failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("figshare unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, projects)
}
