// Package storage записывает алерты в PostgreSQL для внешних потребителей.
// Журнал только пополняется: при запуске данные из него не читаются.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/levinOo/go-telemetry-project/internal/models"
	"go.uber.org/zap"
)

const (
	insertAlertQuery = `
		INSERT INTO alerts (id, level, message, source, created_at, data, acknowledged)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	ackAlertQuery = `
		UPDATE alerts SET acknowledged = TRUE, acknowledged_at = $2
		WHERE id = $1 AND acknowledged = FALSE
	`
)

// AlertJournal сохраняет алерты в таблицу alerts.
type AlertJournal struct {
	db      *sql.DB
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// NewAlertJournal создаёт журнал поверх открытого пула соединений.
func NewAlertJournal(db *sql.DB, logger *zap.SugaredLogger) *AlertJournal {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &AlertJournal{db: db, timeout: 5 * time.Second, logger: logger}
}

// Notify реализует alerting.Notifier.
func (j *AlertJournal) Notify(alert models.Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.Insert(ctx, alert); err != nil {
		j.logger.Errorw("Failed to journal alert", "id", alert.ID, "error", err)
	}
}

// Insert сохраняет алерт. Повторная запись того же id игнорируется.
func (j *AlertJournal) Insert(ctx context.Context, alert models.Alert) error {
	var data []byte
	if len(alert.Data) > 0 {
		var err error
		data, err = json.Marshal(alert.Data)
		if err != nil {
			return fmt.Errorf("marshal alert data: %w", err)
		}
	}

	_, err := j.db.ExecContext(ctx, insertAlertQuery,
		alert.ID, string(alert.Level), alert.Message, alert.Source, alert.Timestamp, data, alert.Acknowledged)
	if err != nil {
		return fmt.Errorf("insert alert %d: %w", alert.ID, err)
	}
	return nil
}

// MarkAcknowledged отмечает алерт подтверждённым.
func (j *AlertJournal) MarkAcknowledged(ctx context.Context, id int64, at time.Time) error {
	if _, err := j.db.ExecContext(ctx, ackAlertQuery, id, at); err != nil {
		return fmt.Errorf("acknowledge alert %d: %w", id, err)
	}
	return nil
}

// Ping проверяет доступность базы.
func (j *AlertJournal) Ping(ctx context.Context) error {
	return j.db.PingContext(ctx)
}
