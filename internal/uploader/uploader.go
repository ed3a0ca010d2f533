// Package uploader pushes article records to Figshare in the
// background. Uploads are queued by id and processed one at a time so
// the API rate limit and the upload service are never hit
// concurrently.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/tobias-gill/Figshare-desktop/internal/library"
	"github.com/tobias-gill/Figshare-desktop/internal/metadata"
	"github.com/tobias-gill/Figshare-desktop/internal/models"
	"github.com/tobias-gill/Figshare-desktop/internal/sse"
)

// ErrQueueFull is returned by Enqueue when the backlog is saturated.
var ErrQueueFull = errors.New("uploader: queue full")

// Client is the slice of the Figshare client the worker consumes.
type Client interface {
	CreateArticle(ctx context.Context, projectID int64, payload map[string]any) (int64, error)
	UpdateArticle(ctx context.Context, articleID int64, payload map[string]any) error
	UploadFile(ctx context.Context, articleID int64, path string) (int64, error)
}

// Persister saves the mutated record after a successful upload.
type Persister interface {
	Persist(a *models.Article) error
}

// Worker drains the upload queue.
type Worker struct {
	client    Client
	coll      *library.Collection
	norm      *metadata.Normalizer
	persist   Persister
	projectID int64
	root      string
	logger    *slog.Logger
	notify    func(event sse.Event)

	queue chan string
}

// New creates an upload worker targeting the given Figshare project.
// notify may be nil. root is the absolute library root used to resolve
// data-file locations.
func New(client Client, coll *library.Collection, norm *metadata.Normalizer,
	persist Persister, projectID int64, root string, logger *slog.Logger,
	notify func(sse.Event)) *Worker {
	if notify == nil {
		notify = func(sse.Event) {}
	}
	return &Worker{
		client:    client,
		coll:      coll,
		norm:      norm,
		persist:   persist,
		projectID: projectID,
		root:      root,
		logger:    logger,
		notify:    notify,
		queue:     make(chan string, 128),
	}
}

// Enqueue schedules an article for upload.
func (w *Worker) Enqueue(id string) error {
	select {
	case w.queue <- id:
		w.notify(sse.Event{Type: sse.UploadQueued, Data: map[string]string{"id": id}})
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending returns the queue backlog size.
func (w *Worker) Pending() int { return len(w.queue) }

// Run processes the queue until ctx is cancelled. In-flight uploads are
// abandoned at their next API call when the context ends.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("uploader: started", slog.Int64("project", w.projectID))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("uploader: stopped", slog.Int("pending", len(w.queue)))
			return ctx.Err()
		case id := <-w.queue:
			start := time.Now()
			if err := w.upload(ctx, id); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger.Error("uploader: upload failed",
					slog.String("id", id), slog.String("error", err.Error()))
				w.notify(sse.Event{Type: sse.UploadFailed, Data: map[string]string{
					"id": id, "error": err.Error(),
				}})
				continue
			}
			w.logger.Info("uploader: uploaded",
				slog.String("id", id),
				slog.Duration("took", time.Since(start)))
			w.notify(sse.Event{Type: sse.UploadSucceeded, Data: map[string]string{"id": id}})
		}
	}
}

// upload pushes one record: build the payload, create or update the
// remote article, attach the data file for first-time uploads, then
// persist the new status.
func (w *Worker) upload(ctx context.Context, id string) error {
	a, err := w.coll.Get(id)
	if err != nil {
		return err
	}

	payload, warnings, err := w.norm.UploadDict(ctx, a)
	if err != nil {
		return err
	}
	for _, warn := range warnings {
		w.logger.Warn("uploader: metadata warning",
			slog.String("id", id),
			slog.String("field", warn.Field),
			slog.String("reason", warn.Reason))
	}

	remoteID := a.RemoteID()
	created := remoteID == 0
	if created {
		remoteID, err = w.client.CreateArticle(ctx, w.projectID, payload)
		if err != nil {
			return err
		}
		a.Meta["id"] = remoteID
	} else {
		if err := w.client.UpdateArticle(ctx, remoteID, payload); err != nil {
			return err
		}
	}

	// The data file travels only on the first upload; metadata edits
	// afterwards don't re-send it.
	if created && a.Desktop.Location != "" {
		path := filepath.Join(w.root, a.Desktop.Location)
		if _, err := w.client.UploadFile(ctx, remoteID, path); err != nil {
			return fmt.Errorf("uploader: attach file: %w", err)
		}
	}

	if a.Status() == models.StatusLocal || a.Status() == "" {
		a.Meta["status"] = models.StatusDraft
	}
	a.UpdatedAt = time.Now().UTC()
	return w.persist.Persist(a)
}
