package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// TickRun is one audit row for a tick invocation.
type TickRun struct {
	RunID         string     `json:"run_id"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	OK            *bool      `json:"ok,omitempty"`
	Error         *string    `json:"error,omitempty"`
	CorpusSize    int        `json:"corpus_size"`
	SymbolsTotal  int        `json:"symbols_total"`
	SymbolsFailed int        `json:"symbols_failed"`
}

// InsertTickRunStart records that a tick began.
func (s *Store) InsertTickRunStart(ctx context.Context, runID string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO tick_runs (run_id, started_at)
VALUES (?,?)
`, runID, startedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// FinishTickRun records the outcome of a tick.
func (s *Store) FinishTickRun(ctx context.Context, runID string, ok bool, errMsg string, corpusSize, total, failed int) error {
	var errVal *string
	if errMsg != "" {
		errVal = &errMsg
	}
	_, err := s.db.ExecContext(ctx, `
UPDATE tick_runs
SET finished_at=?, ok=?, error=?, corpus_size=?, symbols_total=?, symbols_failed=?
WHERE run_id=?
`, time.Now().UTC().Format(time.RFC3339Nano), boolToInt(ok), errVal, corpusSize, total, failed, runID)
	return err
}

// ListTickRuns returns the most recent tick runs, newest first.
func (s *Store) ListTickRuns(ctx context.Context, limit int) ([]TickRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, started_at, finished_at, ok, error, corpus_size, symbols_total, symbols_failed
FROM tick_runs
ORDER BY started_at DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TickRun
	for rows.Next() {
		var (
			r          TickRun
			startedAt  string
			finishedAt sql.NullString
			okVal      sql.NullInt64
			errStr     sql.NullString
		)
		if err := rows.Scan(&r.RunID, &startedAt, &finishedAt, &okVal, &errStr,
			&r.CorpusSize, &r.SymbolsTotal, &r.SymbolsFailed); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		if finishedAt.Valid {
			t, _ := time.Parse(time.RFC3339Nano, finishedAt.String)
			r.FinishedAt = &t
		}
		if okVal.Valid {
			b := okVal.Int64 != 0
			r.OK = &b
		}
		if errStr.Valid {
			v := errStr.String
			r.Error = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
