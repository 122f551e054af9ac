package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteLedger keeps one cost_tracking row per day
type SQLiteLedger struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path
func Open(path string) (*SQLiteLedger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger db: %w", err)
	}
	// SQLite allows one writer; serialize through a single connection
	db.SetMaxOpenConns(1)

	l := &SQLiteLedger{db: db}
	if err := l.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *SQLiteLedger) init() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS cost_tracking (
			id               TEXT PRIMARY KEY,
			date             TEXT NOT NULL UNIQUE,
			local_requests   INTEGER NOT NULL DEFAULT 0,
			ai_requests      INTEGER NOT NULL DEFAULT 0,
			local_cost_euros REAL NOT NULL DEFAULT 0,
			ai_cost_euros    REAL NOT NULL DEFAULT 0,
			total_cost_euros REAL NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing ledger schema: %w", err)
	}
	return nil
}

// Close closes the database
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

// Record adds entry to its day, creating the row on first use.
// Model calls count as AI requests, everything else as local.
func (l *SQLiteLedger) Record(ctx context.Context, entry Entry) error {
	date := entry.Date
	if date == "" {
		date = Today()
	}

	var localReq, aiReq int
	var localCost, aiCost float64
	if entry.UsedAI {
		aiReq, aiCost = 1, entry.Cost
	} else {
		localReq, localCost = 1, entry.Cost
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO cost_tracking (id, date, local_requests, ai_requests, local_cost_euros, ai_cost_euros, total_cost_euros)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			local_requests   = local_requests + excluded.local_requests,
			ai_requests      = ai_requests + excluded.ai_requests,
			local_cost_euros = local_cost_euros + excluded.local_cost_euros,
			ai_cost_euros    = ai_cost_euros + excluded.ai_cost_euros,
			total_cost_euros = total_cost_euros + excluded.total_cost_euros
	`, uuid.NewString(), date, localReq, aiReq, localCost, aiCost, entry.Cost)
	if err != nil {
		return fmt.Errorf("recording cost for %s: %w", date, err)
	}
	return nil
}

// Day returns the row of date; ok is false when nothing was recorded
func (l *SQLiteLedger) Day(ctx context.Context, date string) (Day, bool, error) {
	var d Day
	err := l.db.QueryRowContext(ctx, `
		SELECT id, date, local_requests, ai_requests, local_cost_euros, ai_cost_euros, total_cost_euros
		FROM cost_tracking WHERE date = ?
	`, date).Scan(&d.ID, &d.Date, &d.LocalRequests, &d.AIRequests, &d.LocalCost, &d.AICost, &d.TotalCost)
	if errors.Is(err, sql.ErrNoRows) {
		return Day{}, false, nil
	}
	if err != nil {
		return Day{}, false, fmt.Errorf("reading cost for %s: %w", date, err)
	}
	return d, true, nil
}

// Summary aggregates the rows between start and end, inclusive
func (l *SQLiteLedger) Summary(ctx context.Context, start, end string) (Summary, error) {
	s := Summary{StartDate: start, EndDate: end}
	err := l.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(local_requests), 0),
			COALESCE(SUM(ai_requests), 0),
			COALESCE(SUM(local_cost_euros), 0),
			COALESCE(SUM(ai_cost_euros), 0),
			COALESCE(SUM(total_cost_euros), 0)
		FROM cost_tracking
		WHERE date BETWEEN ? AND ?
	`, start, end).Scan(&s.ActiveDays, &s.LocalRequests, &s.AIRequests, &s.LocalCost, &s.AICost, &s.TotalCost)
	if err != nil {
		return Summary{}, fmt.Errorf("summarizing costs: %w", err)
	}

	if total := s.LocalRequests + s.AIRequests; total > 0 {
		s.AIUsagePercentage = float64(s.AIRequests) / float64(total) * 100
		s.CostPerRequest = s.TotalCost / float64(total)
	}
	return s, nil
}
