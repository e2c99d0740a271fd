package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:dbx_"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS intents (id TEXT PRIMARY KEY)`)
	require.NoError(t, err)
	return db
}

func countIntents(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM intents`).Scan(&n))
	return n
}

func insert(id string) func(context.Context, DBTX) error {
	return func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO intents(id) VALUES (?)`, id)
		return err
	}
}

func TestWithTx_Commit(t *testing.T) {
	db := openSQLite(t)

	require.NoError(t, WithTx(context.Background(), db, nil, insert("a")))
	assert.Equal(t, 1, countIntents(t, db))
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db := openSQLite(t)
	boom := errors.New("boom")

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, insert("a")(ctx, tx))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, countIntents(t, db))
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := openSQLite(t)

	assert.PanicsWithValue(t, "kaput", func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			require.NoError(t, insert("a")(ctx, tx))
			panic("kaput")
		})
	})
	assert.Equal(t, 0, countIntents(t, db))
}

func TestWithTx_DriverFailures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(sqlmock.Sqlmock)
		fnErr   error
		wantMsg string
	}{
		{
			name:    "begin",
			setup:   func(m sqlmock.Sqlmock) { m.ExpectBegin().WillReturnError(errors.New("no conn")) },
			wantMsg: "begin transaction: no conn",
		},
		{
			name: "commit",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectCommit().WillReturnError(errors.New("serialization failure"))
			},
			wantMsg: "commit: serialization failure",
		},
		{
			name: "rollback",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectRollback().WillReturnError(errors.New("conn lost"))
			},
			fnErr:   errors.New("fn failed"),
			wantMsg: "rollback: conn lost",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.setup(mock)

			err = WithTx(context.Background(), db, nil, func(context.Context, DBTX) error { return tt.fnErr })
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			if tt.fnErr != nil {
				assert.ErrorIs(t, err, tt.fnErr)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
