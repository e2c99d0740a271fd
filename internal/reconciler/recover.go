package reconciler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mediaupload/internal/assets"
	"github.com/dmitrijs2005/mediaupload/internal/client/models"
	"github.com/dmitrijs2005/mediaupload/internal/common"
	servermodels "github.com/dmitrijs2005/mediaupload/internal/server/models"
)

var (
	errNoSource        = fmt.Errorf("%w: record has no source image", common.ErrValidation)
	errBlobSource      = fmt.Errorf("%w: blob references only resolve inside the session that created them", common.ErrValidation)
	errNoUploader      = fmt.Errorf("%w: no uploader configured for re-uploads", common.ErrBackend)
	errEmptyIdentifier = fmt.Errorf("%w: upload returned no identifier", common.ErrBackend)
)

// Recover fills in the asset of records that have none. With an empty
// recordID it visits every such record up to the batch limit.
//
// The source is the primary image, else the first one. A recognized storage
// URL is parsed and backfilled without uploading anything; other sources
// are fetched and routed through the uploader first.
func (r *Reconciler) Recover(ctx context.Context, recordID string) Report {
	var report Report

	records, err := r.recoverTargets(ctx, recordID)
	if err != nil {
		report.fail(recordID, err)
		return report
	}

	for _, p := range records {
		if ctx.Err() != nil {
			report.fail(p.ID, fmt.Errorf("%w: %w", common.ErrAborted, ctx.Err()))
			break
		}
		report.Processed++

		if p.HasAsset() {
			continue
		}
		if err := r.recoverOne(ctx, p); err != nil {
			r.logger.Warn(ctx, "recover failed", "record", p.ID, "error", err)
			report.fail(p.ID, err)
			continue
		}
		report.Updated++
	}

	r.logger.Info(ctx, "recover finished", "processed", report.Processed, "updated", report.Updated, "errors", len(report.Errors))
	return report
}

func (r *Reconciler) recoverTargets(ctx context.Context, recordID string) ([]servermodels.Product, error) {
	if recordID == "" {
		records, err := r.store.ListMissingAsset(ctx, r.limit)
		if err != nil {
			return nil, fmt.Errorf("%w: list records: %w", common.ErrBackend, err)
		}
		return records, nil
	}

	p, err := r.store.Get(ctx, recordID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("record %q: %w", recordID, err)
		}
		return nil, fmt.Errorf("%w: load record: %w", common.ErrBackend, err)
	}
	return []servermodels.Product{*p}, nil
}

func (r *Reconciler) source(ctx context.Context, productID string) (servermodels.ProductImage, error) {
	images, err := r.store.Images(ctx, productID)
	if err != nil {
		return servermodels.ProductImage{}, fmt.Errorf("%w: load images: %w", common.ErrBackend, err)
	}
	// images come primary first, then by position
	for _, img := range images {
		if strings.TrimSpace(img.URL) != "" {
			return img, nil
		}
	}
	return servermodels.ProductImage{}, errNoSource
}

func (r *Reconciler) recoverOne(ctx context.Context, p servermodels.Product) error {
	src, err := r.source(ctx, p.ID)
	if err != nil {
		return err
	}

	if id, ok := r.recognizer.Identify(src.URL); ok {
		if err := r.store.UpdateAsset(ctx, p.ID, id, r.previewFor(id, src.URL)); err != nil {
			return fmt.Errorf("%w: update asset: %w", common.ErrPersistence, err)
		}
		r.logger.Info(ctx, "asset backfilled from stored url", "record", p.ID, "asset", id)
		return nil
	}

	if strings.HasPrefix(strings.ToLower(src.URL), "blob:") {
		return errBlobSource
	}
	if r.uploader == nil {
		return errNoUploader
	}

	f, err := r.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return fmt.Errorf("fetch source image: %w", err)
	}

	res := r.uploader.Upload(ctx, f, models.UploadOptions{
		Destination: models.Destination{ProductID: p.ID},
	})
	if !res.Success {
		return fmt.Errorf("upload source image: %w", res.Err)
	}

	id := assets.Clean(res.Identifier)
	if id == "" {
		id, _ = r.recognizer.Identify(res.URL)
	}
	if id == "" {
		return errEmptyIdentifier
	}

	preview := r.recognizer.PreviewURL(id)
	if res.Method == models.MethodOriginStorage {
		preview = res.URL
	}
	if err := r.store.UpdateAsset(ctx, p.ID, id, preview); err != nil {
		r.logger.Error(ctx, "asset uploaded but record not updated", "record", p.ID, "asset", id, "url", res.URL, "error", err)
		return fmt.Errorf("%w: asset %q uploaded to %s but record not updated, remote asset is orphaned: %w",
			common.ErrPersistence, id, res.URL, err)
	}
	r.logger.Info(ctx, "asset recovered", "record", p.ID, "asset", id, "method", res.Method)
	return nil
}
