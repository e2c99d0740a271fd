package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mediaupload/internal/common"
	"github.com/dmitrijs2005/mediaupload/internal/dbx"
	"github.com/dmitrijs2005/mediaupload/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListWithAsset(ctx context.Context, limit int) ([]models.Product, error) {
	query :=
		`SELECT id, title, asset_id, COALESCE(preview_url, ''), updated_at FROM products
		 WHERE asset_id IS NOT NULL AND asset_id <> ''
		 ORDER BY id
		 LIMIT $1
		 `
	return r.list(ctx, query, limit)
}

func (r *PostgresRepository) ListMissingAsset(ctx context.Context, limit int) ([]models.Product, error) {
	query :=
		`SELECT id, title, COALESCE(asset_id, ''), COALESCE(preview_url, ''), updated_at FROM products
		 WHERE asset_id IS NULL OR asset_id = ''
		 ORDER BY id
		 LIMIT $1
		 `
	return r.list(ctx, query, limit)
}

func (r *PostgresRepository) list(ctx context.Context, query string, limit int) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.AssetID, &p.PreviewURL, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Product, error) {
	query :=
		`SELECT id, title, COALESCE(asset_id, ''), COALESCE(preview_url, ''), updated_at FROM products
		 WHERE id = $1
		 `

	p := &models.Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Title, &p.AssetID, &p.PreviewURL, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Images(ctx context.Context, productID string) ([]models.ProductImage, error) {
	query :=
		`SELECT id, product_id, url, is_primary, position FROM product_images
		 WHERE product_id = $1
		 ORDER BY is_primary DESC, position
		 `

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.ProductImage
	for rows.Next() {
		var img models.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.IsPrimary, &img.Position); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) UpdateAsset(ctx context.Context, id, assetID, previewURL string) error {
	query :=
		`UPDATE products SET asset_id = $2, preview_url = $3, updated_at = now()
		 WHERE id = $1
		 `
	return r.exec(ctx, query, id, assetID, previewURL)
}

func (r *PostgresRepository) UpdatePreview(ctx context.Context, id, previewURL string) error {
	query :=
		`UPDATE products SET preview_url = $2, updated_at = now()
		 WHERE id = $1
		 `
	return r.exec(ctx, query, id, previewURL)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
