package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const EvaluationsTableSchema = `
	CREATE TABLE IF NOT EXISTS evaluations (
		run_id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		action TEXT NOT NULL,
		dry_run INTEGER NOT NULL DEFAULT 0,
		projected_total TEXT NOT NULL,
		actual_spend TEXT,
		budget_percent TEXT,
		breached_rules TEXT,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		payload TEXT NOT NULL
	);
`

const EvaluationsStartedIndex = `
	CREATE INDEX IF NOT EXISTS evaluations_started_at ON evaluations (started_at DESC);
`

var bootQueries = []string{
	EvaluationsTableSchema,
	EvaluationsStartedIndex,
}

type Settings struct {
	DbPath      string
	BusyTimeout time.Duration
}

// NewDB opens the database and creates the schema.
func NewDB(ctx context.Context, settings Settings) (*sql.DB, error) {
	if settings.DbPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if settings.BusyTimeout <= 0 {
		settings.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		settings.DbPath, settings.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func Migrate(ctx context.Context, db *sql.DB) error {
	for _, query := range bootQueries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
