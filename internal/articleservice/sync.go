package articleservice

import (
	"context"
	"log/slog"
	"time"

	"github.com/tobias-gill/Figshare-desktop/internal/models"
	"github.com/tobias-gill/Figshare-desktop/internal/scan"
)

// Sync walks the library and brings the record set up to date:
//   - data files without a record are imported
//   - changed files get their checksum and scanned fields refreshed
//   - local records whose file disappeared are removed
//
// Records that already exist on Figshare are never dropped by a file
// going missing; the data lives on the server.
func (s *Service) Sync(ctx context.Context) error {
	metas, err := s.store.ListData("")
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		existing, ok := s.coll.GetByLocation(m.Path)
		if !ok {
			if _, _, err := s.ImportLocal(ctx, m.Path); err != nil {
				s.logger.Warn("sync: import failed",
					slog.String("path", m.Path), slog.String("error", err.Error()))
			}
			continue
		}
		if existing.Checksum == m.Checksum {
			continue
		}
		if err := s.refreshFile(ctx, existing, m.Path, m.Checksum); err != nil {
			s.logger.Warn("sync: refresh failed",
				slog.String("path", m.Path), slog.String("error", err.Error()))
		}
	}

	// Remove local records whose data file is gone.
	for _, a := range s.coll.ByStatus(models.StatusLocal) {
		if a.Desktop.Location == "" {
			continue
		}
		if _, ok := disk[a.Desktop.Location]; ok {
			continue
		}
		if err := s.Delete(ctx, a.ID); err != nil {
			s.logger.Warn("sync: stale record delete failed",
				slog.String("id", a.ID), slog.String("error", err.Error()))
		} else {
			s.logger.Debug("sync: removed stale record",
				slog.String("id", a.ID), slog.String("location", a.Desktop.Location))
		}
	}

	return nil
}

// refreshFile rescans a changed data file and folds the new header
// fields into the record.
func (s *Service) refreshFile(ctx context.Context, a *models.Article, relPath, sum string) error {
	res, err := scan.File(s.absPath(relPath))
	if err != nil {
		return err
	}
	if res.Custom != nil {
		if a.Custom == nil {
			a.Custom = models.Fields{}
		}
		for key, value := range res.Custom {
			a.Custom[key] = value
		}
	}
	a.Checksum = sum
	a.UpdatedAt = time.Now().UTC()
	if err := s.persist(a); err != nil {
		return err
	}
	s.logger.Debug("sync: refreshed", slog.String("id", a.ID), slog.String("path", relPath))
	s.notify("article.updated", a.ID)
	return nil
}
