package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/client/models"
	"github.com/dmitrijs2005/mediaupload/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Save(ctx context.Context, d models.Diagnostics) error {
	attempts, err := json.Marshal(d.Attempts)
	if err != nil {
		return fmt.Errorf("failed to encode attempts: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO upload_diagnostics (file_name, file_size, online, network_type, attempts, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, d.FileName, d.FileSize, d.Online, d.NetworkType, string(attempts), d.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save diagnostics: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]models.Diagnostics, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT file_name, file_size, online, network_type, attempts, created_at
		FROM upload_diagnostics
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list diagnostics: %w", err)
	}
	defer rows.Close()

	var result []models.Diagnostics
	for rows.Next() {
		var (
			d        models.Diagnostics
			attempts string
			ts       int64
		)
		if err := rows.Scan(&d.FileName, &d.FileSize, &d.Online, &d.NetworkType, &attempts, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostics row: %w", err)
		}
		if err := json.Unmarshal([]byte(attempts), &d.Attempts); err != nil {
			return nil, fmt.Errorf("failed to decode attempts: %w", err)
		}
		d.CreatedAt = time.UnixMilli(ts).UTC()
		result = append(result, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate diagnostics rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM upload_diagnostics`); err != nil {
		return fmt.Errorf("failed to clear diagnostics: %w", err)
	}
	return nil
}
