package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := NewDB(ctx, Settings{DbPath: dbPath})
	require.NoError(t, err)
	require.NotNil(t, db)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database connection: %v", err)
		}
	})

	_, err = db.Exec(
		`INSERT INTO evaluations (run_id, mode, action, projected_total, started_at, finished_at, payload)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP, ?)`,
		"run-001", "budget", "ok", "12.5", "{}",
	)
	require.NoError(t, err)

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM evaluations WHERE run_id = ?", "run-001").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// schema creation is idempotent
	assert.NoError(t, Migrate(ctx, db))
}

func TestNewDB_EmptyPath(t *testing.T) {
	db, err := NewDB(context.Background(), Settings{})
	assert.Error(t, err)
	assert.Nil(t, db)
}

func TestTransactionContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetTransaction(ctx))
}
