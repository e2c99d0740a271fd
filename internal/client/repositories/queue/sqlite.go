package queue

import (
	"context"
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

func (r *SQLiteRepository) Add(ctx context.Context, m models.QueueMetadata) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO queue_metadata (id, file_name, file_size, created_at, folder, order_id, session_id, product_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, m.ID, m.FileName, m.FileSize, m.Timestamp.UnixMilli(),
		m.Destination.Folder, m.Destination.OrderID, m.Destination.SessionID, m.Destination.ProductID)
	if err != nil {
		return fmt.Errorf("failed to add queue entry %s: %w", m.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.QueueMetadata, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, file_name, file_size, created_at, folder, order_id, session_id, product_id
		FROM queue_metadata
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue entries: %w", err)
	}
	defer rows.Close()

	var result []models.QueueMetadata
	for rows.Next() {
		var (
			m  models.QueueMetadata
			ts int64
		)
		if err := rows.Scan(&m.ID, &m.FileName, &m.FileSize, &ts,
			&m.Destination.Folder, &m.Destination.OrderID, &m.Destination.SessionID, &m.Destination.ProductID); err != nil {
			return nil, fmt.Errorf("failed to scan queue row: %w", err)
		}
		m.Timestamp = time.UnixMilli(ts).UTC()
		result = append(result, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue rows: %w", err)
	}

	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM queue_metadata WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete queue entry %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM queue_metadata`); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	return nil
}
