package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/levinOo/go-telemetry-project/internal/models"
)

var ts = time.Date(2026, 8, 3, 14, 0, 0, 0, time.UTC)

func newJournal(t *testing.T) (*AlertJournal, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAlertJournal(db, nil), mock
}

func TestInsert(t *testing.T) {
	journal, mock := newJournal(t)

	alert := models.Alert{
		ID:        3,
		Level:     models.SeverityWarning,
		Message:   "High response time in /news: 1.20s",
		Source:    "/news",
		Timestamp: ts,
		Data:      map[string]any{"threshold": 1.0},
	}

	mock.ExpectExec(`INSERT INTO alerts`).
		WithArgs(int64(3), "WARNING", alert.Message, "/news", ts, []byte(`{"threshold":1}`), false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := journal.Insert(context.Background(), alert); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestInsertWithoutData(t *testing.T) {
	journal, mock := newJournal(t)

	mock.ExpectExec(`INSERT INTO alerts`).
		WithArgs(int64(1), "INFO", "m", "s", ts, sqlmock.AnyArg(), false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	alert := models.Alert{ID: 1, Level: models.SeverityInfo, Message: "m", Source: "s", Timestamp: ts}
	if err := journal.Insert(context.Background(), alert); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
}

func TestNotifySwallowsError(t *testing.T) {
	journal, mock := newJournal(t)

	mock.ExpectExec(`INSERT INTO alerts`).WillReturnError(errors.New("connection reset"))

	journal.Notify(models.Alert{ID: 9, Level: models.SeverityCritical, Timestamp: ts})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMarkAcknowledged(t *testing.T) {
	journal, mock := newJournal(t)

	mock.ExpectExec(`UPDATE alerts SET acknowledged = TRUE`).
		WithArgs(int64(5), ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := journal.MarkAcknowledged(context.Background(), 5, ts); err != nil {
		t.Fatalf("ack failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func BenchmarkInsert(b *testing.B) {
	db, mock, err := sqlmock.New()
	if err != nil {
		b.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	journal := NewAlertJournal(db, nil)
	alert := models.Alert{ID: 1, Level: models.SeverityWarning, Timestamp: ts, Data: map[string]any{"v": 1}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mock.ExpectExec(`INSERT INTO alerts`).WillReturnResult(sqlmock.NewResult(0, 1))
		if err := journal.Insert(context.Background(), alert); err != nil {
			b.Fatalf("iteration %d failed: %v", i, err)
		}
	}
}
