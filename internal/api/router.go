package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tobias-gill/Figshare-desktop/internal/articleservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// libraryRoot is used to resolve the thumbnails directory.
func NewRouter(svc *articleservice.Service, queue Queue, dir Directory,
	authEnabled bool, token string, sseHandler http.Handler, libraryRoot string) chi.Router {
	h := NewHandler(svc, queue, dir)
	th := NewThumbnailHandler(svc, libraryRoot)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Article records.
	r.Get("/articles", h.ListArticles)
	r.Post("/articles/import", h.ImportArticle)
	r.Get("/articles/{id}", h.GetArticle)
	r.Patch("/articles/{id}", h.UpdateArticle)
	r.Delete("/articles/{id}", h.DeleteArticle)

	// Upload pipeline.
	r.Get("/articles/{id}/upload-preview", h.UploadPreview)
	r.Post("/articles/{id}/upload", h.QueueUpload)
	r.Post("/articles/{id}/refresh", h.RefreshArticle)

	// Search.
	r.Get("/search", h.Search)

	// Remote directory.
	r.Get("/vocab/categories", h.Categories)
	r.Get("/vocab/licenses", h.Licenses)
	r.Get("/projects", h.Projects)

	// Collections.
	r.Get("/collections", h.ListCollections)
	r.Post("/collections", h.CreateCollection)
	r.Post("/collections/{id}/articles", h.AddCollectionArticles)

	// Thumbnails (auth-protected upload, open read).
	r.Post("/articles/{id}/thumbnail", th.Upload)
	r.Get("/thumbnails/{filename}", th.ServeFile)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
