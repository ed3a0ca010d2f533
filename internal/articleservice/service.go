// Package articleservice coordinates the library, the search index,
// the metadata normalizer, and the Figshare API for article records.
package articleservice

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tobias-gill/Figshare-desktop/internal/apperr"
	"github.com/tobias-gill/Figshare-desktop/internal/figshare"
	"github.com/tobias-gill/Figshare-desktop/internal/index"
	"github.com/tobias-gill/Figshare-desktop/internal/library"
	"github.com/tobias-gill/Figshare-desktop/internal/metadata"
	"github.com/tobias-gill/Figshare-desktop/internal/models"
	"github.com/tobias-gill/Figshare-desktop/internal/scan"
)

// Remote is the slice of the Figshare client the service consumes.
type Remote interface {
	Article(ctx context.Context, articleID int64) (*figshare.ArticleRecord, error)
	PublicModifiedDate(ctx context.Context, articleID int64) (string, error)
	Collections(ctx context.Context) ([]figshare.Collection, error)
	CreateCollection(ctx context.Context, payload map[string]any) (int64, error)
	AddCollectionArticles(ctx context.Context, collectionID int64, articleIDs []int64) error
}

// EventCallback is called after a record mutation. kind is one of the
// sse article event types.
type EventCallback func(kind, id string)

// Service owns the article lifecycle: import from local files, metadata
// edits, search, and reconciliation against the remote account.
type Service struct {
	store  *library.Store
	coll   *library.Collection
	db     index.ArticleIndex
	norm   *metadata.Normalizer
	remote Remote
	logger *slog.Logger
	notify EventCallback
}

// NewService creates the article service. notify may be nil.
func NewService(store *library.Store, coll *library.Collection, db index.ArticleIndex,
	norm *metadata.Normalizer, remote Remote, logger *slog.Logger, notify EventCallback) *Service {
	if notify == nil {
		notify = func(string, string) {}
	}
	return &Service{
		store:  store,
		coll:   coll,
		db:     db,
		norm:   norm,
		remote: remote,
		logger: logger,
		notify: notify,
	}
}

// Load restores the persisted records into the collection and brings
// the index up to date with them.
func (s *Service) Load(ctx context.Context) error {
	articles, err := s.store.LoadArticles()
	if err != nil {
		return err
	}
	s.coll.Load(articles)

	indexed, err := s.db.AllIDs()
	if err != nil {
		return err
	}
	for _, a := range articles {
		cs, err := s.db.GetChecksum(a.ID)
		if err != nil {
			return err
		}
		delete(indexed, a.ID)
		if cs == a.Checksum && cs != "" {
			continue
		}
		row, body := index.RowFor(a)
		if err := s.db.UpsertArticle(row, body); err != nil {
			return err
		}
	}
	// Index entries without a record are stale.
	for id := range indexed {
		if err := s.db.DeleteArticle(id); err != nil {
			s.logger.Warn("load: stale index delete failed",
				slog.String("id", id), slog.String("error", err.Error()))
		}
	}
	s.logger.Info("library loaded", slog.Int("articles", len(articles)))
	return nil
}

// ImportLocal creates a record for a data file in the library. The file
// is inspected for kind-specific metadata and the record starts in the
// local status. Importing an already-tracked file is a conflict.
func (s *Service) ImportLocal(ctx context.Context, relPath string) (*models.Article, metadata.Warnings, error) {
	if _, ok := s.coll.GetByLocation(relPath); ok {
		return nil, nil, fmt.Errorf("articleservice: %s: %w", relPath, apperr.ErrAlreadyExists)
	}

	meta, err := s.store.ListData(relPath)
	if err != nil {
		return nil, nil, err
	}
	if len(meta) != 1 {
		return nil, nil, fmt.Errorf("articleservice: %s: %w", relPath, apperr.ErrNotFound)
	}

	res, err := scan.File(s.absPath(relPath))
	if err != nil {
		return nil, nil, err
	}

	a := &models.Article{
		ID:        uuid.NewString(),
		Kind:      res.Kind,
		Meta:      res.Meta,
		Custom:    res.Custom,
		Desktop:   models.Desktop{Location: relPath},
		Checksum:  meta[0].Checksum,
		UpdatedAt: time.Now().UTC(),
	}

	warnings, err := s.norm.Validate(ctx, a.Meta)
	if err != nil {
		return nil, nil, err
	}

	if err := s.persist(a); err != nil {
		return nil, nil, err
	}
	s.logger.Info("article imported",
		slog.String("id", a.ID),
		slog.String("kind", string(a.Kind)),
		slog.String("location", relPath))
	s.notify("article.imported", a.ID)
	return a, warnings, nil
}

// Get returns one record.
func (s *Service) Get(_ context.Context, id string) (*models.Article, error) {
	return s.coll.Get(id)
}

// List returns summaries, optionally filtered by status.
func (s *Service) List(_ context.Context, status string) []models.ArticleSummary {
	var articles []*models.Article
	if status == "" {
		articles = s.coll.All()
	} else {
		articles = s.coll.ByStatus(status)
	}
	out := make([]models.ArticleSummary, len(articles))
	for i, a := range articles {
		out[i] = a.Summary()
	}
	return out
}

// UpdateMetadata merges partial base and custom fields into a record,
// normalizes the result, and persists it. Dubious values surface as
// warnings rather than failing the edit.
func (s *Service) UpdateMetadata(ctx context.Context, id string, meta, custom models.Fields) (*models.Article, metadata.Warnings, error) {
	a, err := s.coll.Get(id)
	if err != nil {
		return nil, nil, err
	}

	metadata.Merge(a.Meta, meta)
	if custom != nil {
		if a.Custom == nil {
			a.Custom = models.Fields{}
		}
		metadata.MergeCustom(a.Kind, a.Custom, custom)
	}

	warnings, err := s.norm.Validate(ctx, a.Meta)
	if err != nil {
		return nil, nil, err
	}

	a.UpdatedAt = time.Now().UTC()
	if err := s.persist(a); err != nil {
		return nil, nil, err
	}
	s.notify("article.updated", a.ID)
	return a, warnings, nil
}

// Delete removes a record from the collection, the store, and the
// index. The data file itself is left alone.
func (s *Service) Delete(_ context.Context, id string) error {
	if err := s.coll.Delete(id); err != nil {
		return err
	}
	if err := s.store.DeleteArticle(id); err != nil {
		s.logger.Warn("delete: record file removal failed",
			slog.String("id", id), slog.String("error", err.Error()))
	}
	if err := s.db.DeleteArticle(id); err != nil {
		return err
	}
	s.notify("article.deleted", id)
	return nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// UploadPreview returns the exact payload an upload would send for the
// record, plus any normalization warnings.
func (s *Service) UploadPreview(ctx context.Context, id string) (map[string]any, metadata.Warnings, error) {
	a, err := s.coll.Get(id)
	if err != nil {
		return nil, nil, err
	}
	return s.norm.UploadDict(ctx, a)
}

// RefreshRemote re-reads the article's server-side record, folds it
// into the local metadata, and recomputes the up-to-date flag.
func (s *Service) RefreshRemote(ctx context.Context, id string) (*models.Article, error) {
	a, err := s.coll.Get(id)
	if err != nil {
		return nil, err
	}
	remoteID := a.RemoteID()
	if remoteID == 0 {
		return nil, fmt.Errorf("articleservice: article %s: %w", id, apperr.ErrNoRemote)
	}

	rec, err := s.remote.Article(ctx, remoteID)
	if err != nil {
		return nil, err
	}

	metadata.Merge(a.Meta, recordFields(rec))
	if allowed := metadata.CustomFieldNames(a.Kind); allowed != nil {
		if a.Custom == nil {
			a.Custom = models.Fields{}
		}
		for _, cf := range rec.CustomFields {
			if _, ok := allowed[cf.Name]; ok && cf.Value != nil {
				a.Custom[cf.Name] = fmt.Sprint(cf.Value)
			}
		}
	}

	if _, err := s.norm.Validate(ctx, a.Meta); err != nil {
		return nil, err
	}
	if err := metadata.CheckUpToDate(ctx, s.remote, a); err != nil {
		return nil, err
	}

	a.UpdatedAt = time.Now().UTC()
	if err := s.persist(a); err != nil {
		return nil, err
	}
	s.notify("article.updated", a.ID)
	return a, nil
}

// SetThumbnail records the thumbnail filename on an article's sidecar
// metadata.
func (s *Service) SetThumbnail(_ context.Context, id, filename string) (*models.Article, error) {
	a, err := s.coll.Get(id)
	if err != nil {
		return nil, err
	}
	a.Desktop.Thumb = filename
	a.UpdatedAt = time.Now().UTC()
	if err := s.persist(a); err != nil {
		return nil, err
	}
	s.notify("article.updated", a.ID)
	return a, nil
}

// Persist writes an externally mutated record back through the store,
// the collection, and the index, announcing the update. The upload
// worker uses this after stamping remote ids.
func (s *Service) Persist(a *models.Article) error {
	if err := s.persist(a); err != nil {
		return err
	}
	s.notify("article.updated", a.ID)
	return nil
}

// persist writes the record to the store, the collection, and the
// index.
func (s *Service) persist(a *models.Article) error {
	if err := s.store.SaveArticle(a); err != nil {
		return err
	}
	s.coll.Put(a.Clone())
	row, body := index.RowFor(a)
	return s.db.UpsertArticle(row, body)
}

func (s *Service) absPath(rel string) string {
	return filepath.Join(s.store.Root(), rel)
}

// recordFields flattens a remote article record into the loose field
// mapping the normalizer consumes. Absent values stay nil so the merge
// skips them.
func recordFields(rec *figshare.ArticleRecord) models.Fields {
	f := models.Fields{"id": rec.ID}
	if rec.Status != "" {
		f["status"] = rec.Status
	}
	if rec.Title != "" {
		f["title"] = rec.Title
	}
	if rec.Description != "" {
		f["description"] = rec.Description
	}
	if len(rec.Tags) > 0 {
		f["tags"] = rec.Tags
	}
	if len(rec.References) > 0 {
		f["references"] = rec.References
	}
	if len(rec.Categories) > 0 {
		ids := make([]int64, len(rec.Categories))
		for i, c := range rec.Categories {
			ids[i] = c.ID
		}
		f["categories"] = ids
	}
	if len(rec.Authors) > 0 {
		authors := make([]any, len(rec.Authors))
		for i, a := range rec.Authors {
			authors[i] = map[string]any(a)
		}
		f["authors"] = authors
	}
	if rec.DefinedType != "" {
		f["defined_type"] = rec.DefinedType
	}
	if rec.Funding != "" {
		f["funding"] = rec.Funding
	}
	if rec.License != nil {
		f["license"] = strconv.FormatInt(rec.License.Value, 10)
	}
	if rec.Size != 0 {
		f["size"] = rec.Size
	}
	if rec.Version != 0 {
		f["version"] = rec.Version
	}
	if rec.CreatedDate != "" {
		f["created_date"] = rec.CreatedDate
	}
	if rec.ModifiedDate != "" {
		f["modified_date"] = rec.ModifiedDate
	}
	if rec.PublishedDate != "" {
		f["published_date"] = rec.PublishedDate
	}
	if rec.GroupID != 0 {
		f["group_id"] = rec.GroupID
	}
	return f
}
