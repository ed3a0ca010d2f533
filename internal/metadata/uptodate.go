package metadata

import (
	"context"
	"fmt"

	"github.com/tobias-gill/Figshare-desktop/internal/models"
)

// RemoteStatus supplies the last-modified date of an article's public copy.
type RemoteStatus interface {
	PublicModifiedDate(ctx context.Context, articleID int64) (string, error)
}

// CheckUpToDate sets the article's up_to_date field. Public articles
// compare their locally known modified date against a freshly fetched
// public modified date; everything else gets the "Unpublished" sentinel.
//
// A transport error from the date fetch propagates untouched and leaves
// the field unchanged.
func CheckUpToDate(ctx context.Context, remote RemoteStatus, a *models.Article) error {
	if a.Status() != models.StatusPublic {
		a.Meta["up_to_date"] = models.Unpublished
		return nil
	}

	date, err := remote.PublicModifiedDate(ctx, a.RemoteID())
	if err != nil {
		return fmt.Errorf("metadata: fetch public modified date: %w", err)
	}
	a.Desktop.PublicModifiedDate = date

	local, _ := a.Meta["modified_date"].(string)
	a.Meta["up_to_date"] = local == date
	return nil
}
