package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/cost-guardian/pkg/adapters"
	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/models/store"
	"github.com/de-tools/cost-guardian/pkg/services/guardian"
	"github.com/de-tools/cost-guardian/pkg/store/sqlite"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 500
)

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var ErrNotFound = errors.New("evaluation not found")

// Store is an append-only ledger of evaluations. Nothing in the decision
// path reads it.
type Store interface {
	guardian.Sink
	List(ctx context.Context, limit int) ([]store.EvaluationRecord, error)
	Get(ctx context.Context, runID string) (*store.EvaluationRecord, error)
}

type historyStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &historyStore{db: db}, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *historyStore) Record(ctx context.Context, result *domain.EvaluationResult) error {
	rec, err := adapters.MapEvaluationDomainToStore(result)
	if err != nil {
		return err
	}
	breached, err := json.Marshal(rec.BreachedRules)
	if err != nil {
		return fmt.Errorf("marshal breached rules: %w", err)
	}

	var exec execer = s.db
	if tx := sqlite.GetTransaction(ctx); tx != nil {
		exec = tx
	}

	_, err = exec.ExecContext(ctx, `
		INSERT INTO evaluations (
			run_id, mode, action, dry_run, projected_total, actual_spend,
			budget_percent, breached_rules, started_at, finished_at, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		rec.Mode,
		rec.Action,
		rec.DryRun,
		rec.ProjectedTotal,
		rec.ActualSpend,
		rec.BudgetPercent,
		string(breached),
		formatTime(rec.StartedAt),
		formatTime(rec.FinishedAt),
		string(rec.Payload),
	)
	if err != nil {
		return fmt.Errorf("insert evaluation %s: %w", rec.RunID, err)
	}
	return nil
}

const selectColumns = `
	SELECT run_id, mode, action, dry_run, projected_total, actual_spend,
	       budget_percent, breached_rules, started_at, finished_at, payload
	FROM evaluations`

// List returns the newest evaluations first.
func (s *historyStore) List(ctx context.Context, limit int) ([]store.EvaluationRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)

	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	var records []store.EvaluationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}
	return records, nil
}

func (s *historyStore) Get(ctx context.Context, runID string) (*store.EvaluationRecord, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE run_id = ?`, runID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*store.EvaluationRecord, error) {
	var (
		rec               store.EvaluationRecord
		actual, percent   sql.NullString
		breached          sql.NullString
		started, finished string
		payload           string
	)
	err := row.Scan(
		&rec.RunID,
		&rec.Mode,
		&rec.Action,
		&rec.DryRun,
		&rec.ProjectedTotal,
		&actual,
		&percent,
		&breached,
		&started,
		&finished,
		&payload,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan evaluation: %w", err)
	}

	rec.ActualSpend = actual.String
	rec.BudgetPercent = percent.String
	rec.Payload = []byte(payload)
	if breached.Valid && breached.String != "" {
		if err := json.Unmarshal([]byte(breached.String), &rec.BreachedRules); err != nil {
			return nil, fmt.Errorf("decode breached rules of %s: %w", rec.RunID, err)
		}
	}
	if rec.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, fmt.Errorf("parse started_at of %s: %w", rec.RunID, err)
	}
	if rec.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return nil, fmt.Errorf("parse finished_at of %s: %w", rec.RunID, err)
	}
	return &rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
