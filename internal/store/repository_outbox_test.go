package store

import (
	"errors"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/models"
)

var testNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func newOutboxRepo(t *testing.T) (*outboxRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newTestDB(t)
	return &outboxRepository{
		DB:     newDBFromSQL(db),
		logger: logger.Nop(),
		now:    func() time.Time { return testNow },
	}, mock
}

func outboxRows() *sqlmock.Rows {
	return sqlmock.NewRows(outboxColumns)
}

// ── Enqueue ───────────────────────────────────────────────────────────────────

func TestOutboxRepository_Enqueue_FillsDefaults(t *testing.T) {
	repo, mock := newOutboxRepo(t)

	mock.ExpectExec(`INSERT INTO outbox \(id,entity_type,entity_id,operation_type,payload,status,retry_count,priority,created_at,last_attempt_at,error_message\) VALUES`).
		WithArgs(sqlmock.AnyArg(), "transfers", "t-1", "CREATE", []byte(`{"id":"t-1"}`), "PENDING", int64(0), int64(3), testNow, nil, "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.OutboxEntry{
		EntityType:    models.EntityTransfer,
		EntityID:      "t-1",
		OperationType: models.OperationCreate,
		Payload:       []byte(`{"id":"t-1"}`),
	}
	require.NoError(t, repo.Enqueue(testContext(), entry))

	assert.True(t, strings.HasPrefix(entry.ID, "obx-"), "id %q", entry.ID)
	assert.Equal(t, models.OutboxStatusPending, entry.Status)
	assert.Equal(t, models.PriorityHigh, entry.Priority)
	assert.Equal(t, testNow, entry.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_Enqueue_KeepsExplicitValues(t *testing.T) {
	repo, mock := newOutboxRepo(t)
	created := testNow.Add(-time.Hour)

	mock.ExpectExec(`INSERT INTO outbox`).
		WithArgs("obx-fixed", "messages", "m-1", "DELETE", sqlmock.AnyArg(), "PENDING", int64(0), int64(1), created, nil, "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.OutboxEntry{
		ID:            "obx-fixed",
		EntityType:    models.EntityMessage,
		EntityID:      "m-1",
		OperationType: models.OperationDelete,
		Priority:      models.PriorityLow,
		CreatedAt:     created,
	}
	require.NoError(t, repo.Enqueue(testContext(), entry))
	assert.Equal(t, "obx-fixed", entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_Enqueue_Error(t *testing.T) {
	repo, mock := newOutboxRepo(t)
	mock.ExpectExec(`INSERT INTO outbox`).WillReturnError(errors.New("CHECK constraint failed"))

	err := repo.Enqueue(testContext(), &models.OutboxEntry{
		EntityType:    models.EntityFowl,
		EntityID:      "f-1",
		OperationType: "PATCH",
	})
	assert.ErrorIs(t, err, ErrExecutingStatement)
}

func TestNewOutboxID(t *testing.T) {
	a, err := newOutboxID()
	require.NoError(t, err)
	b, err := newOutboxID()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "obx-"))
	assert.Len(t, a, len("obx-")+21)
	assert.NotEqual(t, a, b)
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func TestOutboxRepository_GetRetryable(t *testing.T) {
	repo, mock := newOutboxRepo(t)
	attempt := testNow.Add(-time.Minute)

	mock.ExpectQuery(`SELECT id, entity_type, .* FROM outbox WHERE \(status = \? OR \(status = \? AND retry_count < \?\)\) ORDER BY priority DESC, created_at ASC, id ASC LIMIT 20`).
		WithArgs("PENDING", "FAILED", int64(3)).
		WillReturnRows(outboxRows().
			AddRow("obx-1", "transfers", "t-1", "CREATE", []byte(`{}`), "PENDING", int64(0), int64(3), testNow, nil, "").
			AddRow("obx-2", "fowls", "f-1", "UPDATE", nil, "FAILED", int64(2), int64(2), testNow, attempt, "remote unavailable"))

	entries, err := repo.GetRetryable(testContext(), 3, 20)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, models.EntityTransfer, entries[0].EntityType)
	assert.Equal(t, models.PriorityHigh, entries[0].Priority)
	assert.Nil(t, entries[0].LastAttemptAt)

	assert.Equal(t, models.OutboxStatusFailed, entries[1].Status)
	assert.Equal(t, 2, entries[1].RetryCount)
	require.NotNil(t, entries[1].LastAttemptAt)
	assert.Equal(t, attempt, *entries[1].LastAttemptAt)
	assert.Equal(t, "remote unavailable", entries[1].ErrorMessage)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_GetByStatus(t *testing.T) {
	repo, mock := newOutboxRepo(t)

	mock.ExpectQuery(`SELECT .* FROM outbox WHERE status = \? ORDER BY priority DESC, created_at ASC, id ASC$`).
		WithArgs("SUCCESS").
		WillReturnRows(outboxRows())

	entries, err := repo.GetByStatus(testContext(), models.OutboxStatusSuccess, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_GetByStatus_QueryError(t *testing.T) {
	repo, mock := newOutboxRepo(t)
	mock.ExpectQuery(`SELECT .* FROM outbox`).WillReturnError(errors.New("no such table: outbox"))

	_, err := repo.GetByStatus(testContext(), models.OutboxStatusPending, 10)
	assert.ErrorIs(t, err, ErrExecutingQuery)
}

func TestOutboxRepository_CountByStatus(t *testing.T) {
	repo, mock := newOutboxRepo(t)

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM outbox GROUP BY status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("PENDING", int64(4)).
			AddRow("FAILED", int64(1)))

	counts, err := repo.CountByStatus(testContext())
	require.NoError(t, err)
	assert.Equal(t, 4, counts[models.OutboxStatusPending])
	assert.Equal(t, 1, counts[models.OutboxStatusFailed])
	assert.Zero(t, counts[models.OutboxStatusSuccess])
}

// ── Updates ───────────────────────────────────────────────────────────────────

func TestOutboxRepository_MarkSuccess(t *testing.T) {
	repo, mock := newOutboxRepo(t)

	mock.ExpectExec(`UPDATE outbox SET status = \?, last_attempt_at = \?, error_message = \? WHERE id IN \(\?,\?\)`).
		WithArgs("SUCCESS", testNow, "", "obx-1", "obx-2").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.MarkSuccess(testContext(), testNow, "obx-1", "obx-2"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_MarkSuccess_NoIDs(t *testing.T) {
	repo, mock := newOutboxRepo(t)
	require.NoError(t, repo.MarkSuccess(testContext(), testNow))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_MarkFailed(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "marked", affected: 1},
		{name: "unknown entry", affected: 0, wantErr: ErrOutboxEntryNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newOutboxRepo(t)

			mock.ExpectExec(`UPDATE outbox SET status = \?, retry_count = retry_count \+ 1, last_attempt_at = \?, error_message = \? WHERE id = \?`).
				WithArgs("FAILED", testNow, "timeout", "obx-1").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := repo.MarkFailed(testContext(), "obx-1", "timeout", testNow)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOutboxRepository_ResetFailedToQueued(t *testing.T) {
	repo, mock := newOutboxRepo(t)

	mock.ExpectExec(`UPDATE outbox SET status = \?, retry_count = \?, error_message = \? WHERE status = \?`).
		WithArgs("PENDING", int64(0), "", "FAILED").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.ResetFailedToQueued(testContext())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

// ── Cleanup ───────────────────────────────────────────────────────────────────

func TestOutboxRepository_DeleteSucceeded(t *testing.T) {
	repo, mock := newOutboxRepo(t)

	mock.ExpectExec(`DELETE FROM outbox WHERE status = \?`).
		WithArgs("SUCCESS").
		WillReturnResult(sqlmock.NewResult(0, 9))

	n, err := repo.DeleteSucceeded(testContext())
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
}

func TestOutboxRepository_DeleteExhausted(t *testing.T) {
	repo, mock := newOutboxRepo(t)
	cutoff := testNow.AddDate(0, 0, -30)

	mock.ExpectExec(`DELETE FROM outbox WHERE status = \? AND retry_count >= \? AND created_at < \?`).
		WithArgs("FAILED", int64(3), cutoff).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.DeleteExhausted(testContext(), 3, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_ExecError(t *testing.T) {
	repo, mock := newOutboxRepo(t)
	mock.ExpectExec(`DELETE FROM outbox`).WillReturnError(errors.New("database is locked"))

	_, err := repo.DeleteSucceeded(testContext())
	assert.ErrorIs(t, err, ErrExecutingStatement)
}
