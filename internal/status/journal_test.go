// internal/status/journal_test.go
package status

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"kitchen-hub/internal/common/errors"
	"kitchen-hub/internal/common/logger"
	"kitchen-hub/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	journal := NewJournal(db, logger.NewTestLogger(t))
	recordedAt := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	journal.now = func() time.Time { return recordedAt }

	intent := NewIntent("42", models.StatusPending, models.StatusProcessing, OriginGesture)

	mock.ExpectExec("INSERT INTO status_transitions").
		WithArgs(intent.ID, "42", "pending", "processing", "gesture", "committed", recordedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = journal.Record(context.Background(), intent, "committed")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournal_RecordStoreFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	journal := NewJournal(db, logger.NewTestLogger(t))

	mock.ExpectExec("INSERT INTO status_transitions").
		WillReturnError(stderrors.New("connection refused"))

	intent := NewIntent("42", models.StatusProcessing, models.StatusCompleted, OriginAction)
	err = journal.Record(context.Background(), intent, "failed")

	assert.True(t, errors.HasCode(err, errors.ErrCodeStoreUnavailable))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournal_Migrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	journal := NewJournal(db, logger.NewTestLogger(t))

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS status_transitions").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, journal.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
