// internal/status/journal.go
package status

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kitchen-hub/internal/common/errors"
	"kitchen-hub/internal/common/logger"
)

const (
	createJournalTable = `
		CREATE TABLE IF NOT EXISTS status_transitions (
			id UUID PRIMARY KEY,
			order_id TEXT NOT NULL,
			from_status TEXT NOT NULL,
			to_status TEXT NOT NULL,
			origin TEXT NOT NULL,
			outcome TEXT NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL
		)`

	insertJournalEntry = `
		INSERT INTO status_transitions (id, order_id, from_status, to_status, origin, outcome, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

// Journal persists every transition attempt to Postgres, rejected and failed
// ones included. It is the audit trail for "who moved this order and when".
type Journal struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewJournal(db *sql.DB, log logger.Logger) *Journal {
	return &Journal{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "status.journal"}),
		now:    time.Now,
	}
}

// Migrate creates the journal table when it does not exist yet.
func (j *Journal) Migrate(ctx context.Context) error {
	if _, err := j.db.ExecContext(ctx, createJournalTable); err != nil {
		return errors.NewStoreUnavailableError(fmt.Errorf("create status_transitions table: %w", err))
	}
	return nil
}

// Record writes one attempt row.
func (j *Journal) Record(ctx context.Context, intent TransitionIntent, outcome string) error {
	_, err := j.db.ExecContext(ctx, insertJournalEntry,
		intent.ID,
		intent.OrderID,
		string(intent.From),
		string(intent.To),
		string(intent.Origin),
		outcome,
		j.now().UTC(),
	)
	if err != nil {
		return errors.NewStoreUnavailableError(fmt.Errorf("insert status_transitions row: %w", err))
	}
	return nil
}
