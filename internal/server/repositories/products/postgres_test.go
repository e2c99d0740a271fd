package products

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/mediaupload/internal/common"
	"github.com/dmitrijs2005/mediaupload/internal/server/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var productColumns = []string{"id", "title", "asset_id", "preview_url", "updated_at"}

func TestListWithAsset(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	q := `(?s)^SELECT\s+id,\s*title,\s*asset_id,.*FROM\s+products\s+WHERE\s+asset_id\s+IS\s+NOT\s+NULL.*LIMIT\s+\$1\s*$`
	mock.ExpectQuery(q).
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow("p-1", "Chair", "v1699999999/products/abc123", "", ts).
			AddRow("p-2", "Table", "products/def", "https://cdn/preview", ts))

	got, err := repo.ListWithAsset(context.Background(), 100)
	require.NoError(t, err)

	want := []models.Product{
		{ID: "p-1", Title: "Chair", AssetID: "v1699999999/products/abc123", UpdatedAt: ts},
		{ID: "p-2", Title: "Table", AssetID: "products/def", PreviewURL: "https://cdn/preview", UpdatedAt: ts},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected products (-want +got):\n%s", diff)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListMissingAsset_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT.*FROM\s+products\s+WHERE\s+asset_id\s+IS\s+NULL\s+OR\s+asset_id\s*=\s*''.*LIMIT\s+\$1\s*$`
	mock.ExpectQuery(q).
		WithArgs(int64(10)).
		WillReturnError(errors.New("db down"))

	_, err := repo.ListMissingAsset(context.Background(), 10)
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+products\s+WHERE\s+id\s*=\s*\$1\s*$`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestImages_PrimaryFirst(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*product_id,\s*url,\s*is_primary,\s*position\s+FROM\s+product_images\s+WHERE\s+product_id\s*=\s*\$1\s+ORDER\s+BY\s+is_primary\s+DESC,\s*position\s*$`
	mock.ExpectQuery(q).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "url", "is_primary", "position"}).
			AddRow("i-2", "p-1", "https://cdn/b.jpg", true, 1).
			AddRow("i-1", "p-1", "https://cdn/a.jpg", false, 0))

	got, err := repo.Images(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].IsPrimary)
	assert.Equal(t, "https://cdn/b.jpg", got[0].URL)
}

func TestUpdateAsset(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+products\s+SET\s+asset_id\s*=\s*\$2,\s*preview_url\s*=\s*\$3,.*WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectExec(q).
		WithArgs("p-1", "products/abc123", "https://cdn/preview").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateAsset(context.Background(), "p-1", "products/abc123", "https://cdn/preview"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePreview_NoRows(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE\s+products\s+SET\s+preview_url\s*=\s*\$2,.*WHERE\s+id\s*=\s*\$1\s*$`).
		WithArgs("gone", "https://cdn/preview").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePreview(context.Background(), "gone", "https://cdn/preview")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdatePreview_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE\s+products`).
		WithArgs("p-1", "x").
		WillReturnError(errors.New("conn reset"))

	err := repo.UpdatePreview(context.Background(), "p-1", "x")
	if err == nil || !regexp.MustCompile(`db error: .*conn reset`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
