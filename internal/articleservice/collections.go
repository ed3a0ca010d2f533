package articleservice

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/tobias-gill/Figshare-desktop/internal/apperr"
	"github.com/tobias-gill/Figshare-desktop/internal/figshare"
	"github.com/tobias-gill/Figshare-desktop/internal/metadata"
	"github.com/tobias-gill/Figshare-desktop/internal/models"
)

// ListCollections returns the account's collections.
func (s *Service) ListCollections(ctx context.Context) ([]figshare.Collection, error) {
	return s.remote.Collections(ctx)
}

// CreateCollection normalizes the fields into a collection payload and
// creates a private collection on the account. A title is mandatory;
// every other field is optional.
func (s *Service) CreateCollection(ctx context.Context, fields models.Fields) (int64, metadata.Warnings, error) {
	payload, warnings, err := s.norm.CollectionDict(ctx, fields)
	if err != nil {
		return 0, warnings, err
	}
	if _, ok := payload["title"]; !ok {
		return 0, warnings, fmt.Errorf("articleservice: collection needs a title: %w", apperr.ErrInvalid)
	}

	id, err := s.remote.CreateCollection(ctx, payload)
	if err != nil {
		return 0, warnings, err
	}
	s.logger.Info("collection created",
		slog.Int64("id", id),
		slog.String("title", fmt.Sprint(payload["title"])))
	s.notify("collection.created", strconv.FormatInt(id, 10))
	return id, warnings, nil
}

// AddToCollection resolves local record ids to their remote article ids
// and appends them to a collection. Every record must have been
// uploaded first; a record with no remote id rejects the whole call.
func (s *Service) AddToCollection(ctx context.Context, collectionID int64, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("articleservice: no articles given: %w", apperr.ErrInvalid)
	}

	remoteIDs := make([]int64, 0, len(ids))
	for _, id := range ids {
		a, err := s.coll.Get(id)
		if err != nil {
			return err
		}
		remoteID := a.RemoteID()
		if remoteID == 0 {
			return fmt.Errorf("articleservice: article %s: %w", id, apperr.ErrNoRemote)
		}
		remoteIDs = append(remoteIDs, remoteID)
	}

	if err := s.remote.AddCollectionArticles(ctx, collectionID, remoteIDs); err != nil {
		return err
	}
	s.logger.Info("articles added to collection",
		slog.Int64("collection", collectionID),
		slog.Int("articles", len(remoteIDs)))
	return nil
}
