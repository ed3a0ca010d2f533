package metadata

import (
	"context"
	"fmt"
	"strings"

	"github.com/tobias-gill/Figshare-desktop/internal/models"
)

// uploadIgnore lists the bookkeeping fields that are tracked locally but
// never form part of a create/update payload.
var uploadIgnore = map[string]struct{}{
	"id": {}, "size": {}, "version": {}, "created_date": {},
	"modified_date": {}, "published_date": {}, "up_to_date": {},
	"status": {}, "group_id": {},
}

// maxFundingLen caps the packed funding string accepted by the API.
const maxFundingLen = 2000

// UploadDict validates the article and returns the minimal payload for a
// Figshare create or update call: only non-absent upload-eligible fields,
// with subtype custom fields nested under "custom_fields" as strings.
func (n *Normalizer) UploadDict(ctx context.Context, a *models.Article) (map[string]any, Warnings, error) {
	ws, err := n.Validate(ctx, a.Meta)
	if err != nil {
		return nil, ws, err
	}

	out := make(map[string]any)
	for key, val := range a.Meta {
		if val == nil {
			continue
		}
		if _, skip := uploadIgnore[key]; skip {
			continue
		}
		switch key {
		case "funding":
			if packed := packFunding(val); packed != "" {
				out["funding"] = packed
			}
		case "authors":
			authors, _ := val.([]models.Author)
			if len(authors) == 0 {
				continue
			}
			shaped := make([]map[string]any, len(authors))
			for i, author := range authors {
				shaped[i] = author.UploadValue()
			}
			out["authors"] = shaped
		default:
			out[key] = val
		}
	}

	if Schema(a.Kind) != nil {
		custom := make(map[string]any)
		names := CustomFieldNames(a.Kind)
		for key, val := range a.Custom {
			if val == nil {
				continue
			}
			if _, ok := names[key]; !ok {
				continue
			}
			custom[key] = fmt.Sprint(val)
		}
		out["custom_fields"] = custom
	}

	return out, ws, nil
}

// packFunding joins the canonical grant list into the legacy
// separator-delimited wire string, clamped to the API's length cap.
func packFunding(v any) string {
	grants, ok := v.([]string)
	if !ok {
		grants = stringList(v)
	}
	if len(grants) == 0 {
		return ""
	}
	packed := strings.Join(grants, FundingSeparator)
	return truncateRunes(packed, maxFundingLen)
}
