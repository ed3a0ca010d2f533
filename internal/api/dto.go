package api

import (
	"github.com/tobias-gill/Figshare-desktop/internal/metadata"
	"github.com/tobias-gill/Figshare-desktop/internal/models"
)

// ImportRequest is the request body for importing a local data file.
type ImportRequest struct {
	Path string `json:"path" example:"stm/scan_001.Z_flat" validate:"required"`
}

// UpdateArticleRequest is the request body for a partial metadata edit.
// Both sections are optional; absent fields are left untouched.
type UpdateArticleRequest struct {
	Meta   models.Fields `json:"meta,omitempty"`
	Custom models.Fields `json:"custom,omitempty"`
}

// ArticleResponse pairs a record with the warnings its normalization
// produced.
type ArticleResponse struct {
	Article  *models.Article    `json:"article" validate:"required"`
	Warnings []metadata.Warning `json:"warnings"`
}

// ArticleListResponse wraps article listings.
type ArticleListResponse struct {
	Articles []models.ArticleSummary `json:"articles" validate:"required"`
	Total    int                     `json:"total" example:"42" validate:"required"`
}

// UploadPreviewResponse is the payload an upload would send.
type UploadPreviewResponse struct {
	Payload  map[string]any     `json:"payload" validate:"required"`
	Warnings []metadata.Warning `json:"warnings"`
}

// QueueResponse reports the upload backlog after an enqueue.
type QueueResponse struct {
	ID      string `json:"id" validate:"required"`
	Pending int    `json:"pending" example:"3"`
}

// ThumbnailUploadResponse is returned after a successful thumbnail upload.
type ThumbnailUploadResponse struct {
	ArticleID string `json:"article_id" validate:"required"`
	Filename  string `json:"filename" example:"scan_001.png" validate:"required"`
	Size      int64  `json:"size" example:"12345" validate:"required"`
	URL       string `json:"url" example:"/thumbnails/scan_001.png" validate:"required"`
}

// CreateCollectionRequest carries the metadata for a new Figshare
// collection. The same normalization rules as article metadata apply.
type CreateCollectionRequest struct {
	Fields models.Fields `json:"fields" validate:"required"`
}

// CollectionResponse reports a created collection.
type CollectionResponse struct {
	ID       int64              `json:"id" example:"4412" validate:"required"`
	Warnings []metadata.Warning `json:"warnings"`
}

// CollectionArticlesRequest lists local record ids to append to a
// collection.
type CollectionArticlesRequest struct {
	IDs []string `json:"ids" validate:"required"`
}
