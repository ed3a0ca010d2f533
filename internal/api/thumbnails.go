package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tobias-gill/Figshare-desktop/internal/apperr"
	"github.com/tobias-gill/Figshare-desktop/internal/articleservice"
)

const (
	thumbDir       = ".figshare-desktop/thumbnails"
	maxUploadBytes = 10 << 20 // 10 MB
)

// ThumbnailHandler serves and accepts article preview images. Uploads
// are bound to an article record so the stored file stays reachable
// from the record's desktop sidecar.
type ThumbnailHandler struct {
	svc         *articleservice.Service
	libraryRoot string
}

// NewThumbnailHandler creates a handler rooted at the library directory.
func NewThumbnailHandler(svc *articleservice.Service, libraryRoot string) *ThumbnailHandler {
	return &ThumbnailHandler{svc: svc, libraryRoot: libraryRoot}
}

// thumbPath returns the absolute path to the thumbnails directory.
func (h *ThumbnailHandler) thumbPath() string {
	return filepath.Join(h.libraryRoot, thumbDir)
}

// safeName validates that the filename is a plain name (no path separators,
// no traversal) and returns the absolute path under the thumbnails dir.
func (h *ThumbnailHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	// Reject anything with path separators or traversal.
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	abs := filepath.Join(h.thumbPath(), cleaned)
	// Double-check the resolved path is under the thumbnails dir.
	if !strings.HasPrefix(abs, h.thumbPath()+string(os.PathSeparator)) && abs != h.thumbPath() {
		return "", fmt.Errorf("path escapes thumbnails directory")
	}
	return abs, nil
}

// ServeFile handles GET /api/thumbnails/{filename}.
//
//	@Summary		Serve a stored thumbnail image
//	@Tags			thumbnails
//	@Param			filename	path	string	true	"Thumbnail filename"
//	@Success		200	{file}		binary
//	@Failure		400	{string}	string
//	@Failure		404	{string}	string
//	@Security		BearerAuth
//	@Router			/thumbnails/{filename} [get]
func (h *ThumbnailHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	abs, err := h.safeName(filename)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// Upload handles POST /api/articles/{id}/thumbnail (multipart/form-data,
// field "file"). The stored filename is recorded on the article record.
//
//	@Summary		Attach a preview image to an article record
//	@Tags			articles
//	@Accept			mpfd
//	@Produce		json
//	@Param			id		path		string	true	"Article id"
//	@Param			file	formData	file	true	"Image file"
//	@Success		201		{object}	ThumbnailUploadResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/articles/{id}/thumbnail [post]
func (h *ThumbnailHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.Get(r.Context(), id); err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	abs, err := h.safeName(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	// Ensure the thumbnails directory exists.
	if err := os.MkdirAll(h.thumbPath(), 0o755); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create thumbnails dir"))
		return
	}

	dst, err := os.Create(abs)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create file"))
		return
	}
	defer dst.Close()

	written, err := io.Copy(dst, file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to write file"))
		return
	}

	if _, err := h.svc.SetThumbnail(r.Context(), id, header.Filename); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to record thumbnail"))
		return
	}

	writeJSON(w, http.StatusCreated, ThumbnailUploadResponse{
		ArticleID: id,
		Filename:  header.Filename,
		Size:      written,
		URL:       "/thumbnails/" + header.Filename,
	})
}
