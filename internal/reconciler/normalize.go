package reconciler

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/mediaupload/internal/assets"
	"github.com/dmitrijs2005/mediaupload/internal/common"
	"github.com/dmitrijs2005/mediaupload/internal/server/models"
)

// Normalize converges every record that names an asset onto the clean
// identifier form. Invalid identifiers are rewritten together with a fresh
// preview; valid ones missing a preview only get the preview backfilled.
// Running it again over clean records updates nothing.
func (r *Reconciler) Normalize(ctx context.Context) Report {
	var report Report

	records, err := r.store.ListWithAsset(ctx, r.limit)
	if err != nil {
		report.fail("", fmt.Errorf("%w: list records: %w", common.ErrBackend, err))
		return report
	}

	for _, p := range records {
		if ctx.Err() != nil {
			report.fail(p.ID, fmt.Errorf("%w: %w", common.ErrAborted, ctx.Err()))
			break
		}
		report.Processed++

		updated, err := r.normalizeOne(ctx, p)
		if err != nil {
			r.logger.Warn(ctx, "normalize failed", "record", p.ID, "error", err)
			report.fail(p.ID, err)
			continue
		}
		if updated {
			report.Updated++
		}
	}

	r.logger.Info(ctx, "normalize finished", "processed", report.Processed, "updated", report.Updated, "errors", len(report.Errors))
	return report
}

func (r *Reconciler) normalizeOne(ctx context.Context, p models.Product) (bool, error) {
	if assets.Validate(p.AssetID) != nil {
		clean := assets.Clean(p.AssetID)
		if clean == "" {
			return false, fmt.Errorf("%w: identifier %q cannot be repaired", common.ErrValidation, p.AssetID)
		}
		preview, _, err := r.recordPreview(ctx, p, clean)
		if err != nil {
			return false, err
		}
		if err := r.store.UpdateAsset(ctx, p.ID, clean, preview); err != nil {
			return false, fmt.Errorf("%w: update asset: %w", common.ErrPersistence, err)
		}
		r.logger.Info(ctx, "identifier repaired", "record", p.ID, "from", p.AssetID, "to", clean)
		return true, nil
	}

	if p.PreviewURL != "" {
		return false, nil
	}
	preview, ok, err := r.recordPreview(ctx, p, p.AssetID)
	if err != nil {
		return false, err
	}
	if !ok {
		r.logger.Warn(ctx, "origin asset has no known url, preview left empty", "record", p.ID, "asset", p.AssetID)
		return false, nil
	}
	if err := r.store.UpdatePreview(ctx, p.ID, preview); err != nil {
		return false, fmt.Errorf("%w: update preview: %w", common.ErrPersistence, err)
	}
	r.logger.Info(ctx, "preview backfilled", "record", p.ID)
	return true, nil
}

// recordPreview derives the preview of the record's asset id. Origin assets
// keep their own URL, taken from the stored preview or a source image. ok
// is false for an origin key whose URL is not known anywhere on the record.
func (r *Reconciler) recordPreview(ctx context.Context, p models.Product, id string) (preview string, ok bool, err error) {
	if p.PreviewURL != "" && r.recognizer.IsOrigin(p.PreviewURL) {
		return p.PreviewURL, true, nil
	}

	images, err := r.store.Images(ctx, p.ID)
	if err != nil {
		return "", false, fmt.Errorf("%w: load images: %w", common.ErrBackend, err)
	}
	for _, img := range images {
		if got, found := r.recognizer.Identify(img.URL); found && got == id && r.recognizer.IsOrigin(img.URL) {
			return img.URL, true, nil
		}
	}

	if assets.IsOriginKey(id) {
		return "", false, nil
	}
	return r.recognizer.PreviewURL(id), true, nil
}
