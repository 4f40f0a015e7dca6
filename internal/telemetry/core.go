// Package telemetry объединяет журнал вызовов, журнал показателей хоста, таблицу статистики
// эндпоинтов и движок алертов в один экземпляр с явным запуском и остановкой.
//
// Операции записи никогда не возвращают ошибок и не паникуют: сбои учёта
// записываются в лог и не влияют на наблюдаемый запрос.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/levinOo/go-telemetry-project/internal/alerting"
	"github.com/levinOo/go-telemetry-project/internal/models"
	"github.com/levinOo/go-telemetry-project/internal/ringlog"
	"github.com/levinOo/go-telemetry-project/internal/sampler"
	"github.com/levinOo/go-telemetry-project/internal/stats"
	"github.com/levinOo/go-telemetry-project/internal/task"
	"go.uber.org/zap"
)

// PruneReport содержит результат очистки.
type PruneReport struct {
	Cutoff  time.Time `json:"cutoff"`
	Calls   int       `json:"calls_removed"`
	Metrics int       `json:"metrics_removed"`
	Errors  int       `json:"errors_removed"`
	Alerts  int       `json:"alerts_removed"`
}

// Core владеет всем изменяемым состоянием телеметрии.
type Core struct {
	cfg    Config
	clock  Clock
	probe  sampler.Probe
	logger *zap.SugaredLogger

	calls   *ringlog.RingLog[models.EndpointCall]
	metrics *ringlog.RingLog[models.SystemMetrics]
	stats   *stats.Table
	alerts  *alerting.Store
	engine  *alerting.Engine

	sampler *sampler.Sampler
	sweeper *task.Periodic

	latest atomic.Pointer[models.SystemMetrics]

	levelMu     sync.Mutex
	sampleLevel models.Severity

	startedAt time.Time
}

// New создаёт экземпляр ядра. Фоновые задачи запускаются методом Start.
func New(cfg Config, logger *zap.SugaredLogger, opts ...Option) *Core {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	cfg = cfg.withDefaults()

	c := &Core{
		cfg:    cfg,
		clock:  RealClock{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.probe == nil {
		c.probe = sampler.NewHostProbe(cfg.DiskPath)
	}

	c.calls = ringlog.New[models.EndpointCall](cfg.CallLogSize)
	c.metrics = ringlog.New[models.SystemMetrics](cfg.MetricsLogSize)
	c.stats = stats.NewTable(cfg.ErrorLogSize, c.clock.Now)
	c.alerts = alerting.NewStore(c.clock.Now, logger)
	c.engine = alerting.NewEngine(cfg.Thresholds, c.alerts)
	c.sampler = sampler.New(c.probe, c.recordSample, cfg.Sampler, c.clock.Now, logger)
	c.sweeper = task.NewPeriodic("retention-sweep", cfg.SweepInterval, c.sweep, logger)
	c.startedAt = c.clock.Now()

	return c
}

// Start запускает опрос хоста и фоновую очистку. Задачи завершаются по Stop или отмене ctx.
func (c *Core) Start(ctx context.Context) {
	c.logger.Infow("Starting telemetry core",
		"callLogSize", c.cfg.CallLogSize,
		"metricsLogSize", c.cfg.MetricsLogSize,
		"samplePeriod", c.cfg.Sampler.Period,
		"retention", c.cfg.RetentionAge,
	)
	c.sampler.Start(ctx)
	c.sweeper.Start(ctx)
}

// Stop останавливает фоновые задачи, дожидаясь завершения текущих итераций.
func (c *Core) Stop() {
	c.sampler.Stop()
	c.sweeper.Stop()
	c.logger.Infow("Telemetry core stopped")
}

// Close останавливает ядро и дожидается доставки поставленных в очередь уведомлений об алертах.
// После Close новые алерты подписчикам не рассылаются.
func (c *Core) Close() {
	c.Stop()
	c.alerts.Close()
}

// Subscribe регистрирует получателя новых алертов.
func (c *Core) Subscribe(n alerting.Notifier) {
	c.alerts.Subscribe(n)
}

// Thresholds возвращает действующие пороги алертов.
func (c *Core) Thresholds() alerting.Thresholds {
	return c.engine.Thresholds()
}

// StartedAt возвращает время создания ядра.
func (c *Core) StartedAt() time.Time {
	return c.startedAt
}

// RecordCall регистрирует завершённый вызов эндпоинта.
// Загрузка памяти и CPU берётся из последнего снимка хоста; до первого снимка она нулевая.
func (c *Core) RecordCall(endpoint, method string, params map[string]any, responseTime float64, statusCode int, cacheUsed bool, apiCalls int) {
	defer c.recoverPanic("RecordCall", endpoint)

	call := models.EndpointCall{
		Endpoint:     endpoint,
		Method:       method,
		Timestamp:    c.clock.Now(),
		Params:       params,
		ResponseTime: responseTime,
		StatusCode:   statusCode,
		CacheUsed:    cacheUsed,
		APICalls:     apiCalls,
	}
	if m := c.latest.Load(); m != nil {
		call.MemoryUsed = m.MemoryPercent
		call.CPUImpact = m.CPUPercent
	}

	c.calls.Append(call)
	c.stats.RecordCall(call)
	c.engine.Evaluate(call)

	c.logger.Debugw("Endpoint call recorded", "endpoint", endpoint, "status", statusCode, "responseTime", responseTime)
}

// RecordError регистрирует ошибку эндпоинта. Для фатальных видов ошибок создаётся CRITICAL алерт.
func (c *Core) RecordError(endpoint string, kind models.ErrorKind, message string, details map[string]any) {
	defer c.recoverPanic("RecordError", endpoint)

	rec := c.stats.RecordError(endpoint, kind, message, details)
	c.logger.Errorw("Endpoint error recorded", "endpoint", endpoint, "kind", kind, "message", message)

	if alerting.ClassifyErrorSeverity(kind) {
		c.alerts.Raise(models.SeverityCritical,
			fmt.Sprintf("Critical error in %s: %s", endpoint, message),
			endpoint,
			map[string]any{
				"endpoint":      rec.Endpoint,
				"error_type":    string(rec.Kind),
				"error_message": rec.Message,
				"context":       rec.Context,
				"timestamp":     rec.Timestamp,
			},
		)
	}
}

func (c *Core) recoverPanic(op, endpoint string) {
	if r := recover(); r != nil {
		c.logger.Errorw("Telemetry recording failed", "operation", op, "endpoint", endpoint, "panic", r)
	}
}

// QueryEndpointStats возвращает сводку эндпоинта. false означает, что эндпоинт ни разу не встречался.
func (c *Core) QueryEndpointStats(endpoint string) (models.EndpointSummary, bool) {
	return c.stats.Get(endpoint)
}

// QueryGlobalStats возвращает глобальную сводку и краткие сводки всех эндпоинтов.
func (c *Core) QueryGlobalStats() models.GlobalStats {
	return c.stats.GetAll()
}

// Endpoints возвращает отсортированный список известных эндпоинтов.
func (c *Core) Endpoints() []string {
	return c.stats.Endpoints()
}

// QueryRecentCalls возвращает последние limit вызовов, самый новый последним.
func (c *Core) QueryRecentCalls(limit int) []models.EndpointCall {
	if limit <= 0 {
		limit = DefaultRecentCallsLimit
	}
	return c.calls.Snapshot(limit)
}

// QueryMetricsHistory возвращает снимки хоста за последний период window.
func (c *Core) QueryMetricsHistory(window time.Duration) []models.SystemMetrics {
	return c.metrics.FilterSince(c.clock.Now().Add(-window))
}

// LatestMetrics возвращает последний снимок хоста.
func (c *Core) LatestMetrics() (models.SystemMetrics, bool) {
	m := c.latest.Load()
	if m == nil {
		return models.SystemMetrics{}, false
	}
	return *m, true
}

// SampleNow снимает показатели хоста вне расписания.
func (c *Core) SampleNow(ctx context.Context) (models.SystemMetrics, error) {
	return c.sampler.SampleOnce(ctx)
}

// ListActiveAlerts возвращает неподтверждённые алерты.
func (c *Core) ListActiveAlerts() []models.Alert {
	return c.alerts.Active()
}

// ListAlerts возвращает все хранимые алерты.
func (c *Core) ListAlerts() []models.Alert {
	return c.alerts.All()
}

// AcknowledgeAlert подтверждает алерт. Вызов идемпотентен; false означает неизвестный id.
func (c *Core) AcknowledgeAlert(id int64) bool {
	ok := c.alerts.Acknowledge(id)
	if ok {
		c.logger.Infow("Alert acknowledged", "id", id)
	}
	return ok
}

// PruneOlderThan удаляет вызовы, снимки хоста, ошибки и подтверждённые алерты старше age.
// Неположительный age ничего не удаляет.
func (c *Core) PruneOlderThan(age time.Duration) PruneReport {
	now := c.clock.Now()
	if age <= 0 {
		c.logger.Warnw("Skipping cleanup with non-positive age", "age", age)
		return PruneReport{Cutoff: now}
	}
	cutoff := now.Add(-age)

	report := PruneReport{
		Cutoff:  cutoff,
		Calls:   c.calls.Prune(cutoff),
		Metrics: c.metrics.Prune(cutoff),
		Errors:  c.stats.PruneErrors(cutoff),
		Alerts:  c.alerts.PruneAcknowledged(cutoff),
	}

	c.logger.Infow("Cleared old telemetry data",
		"cutoff", cutoff,
		"calls", report.Calls,
		"metrics", report.Metrics,
		"errors", report.Errors,
		"alerts", report.Alerts,
	)
	return report
}

func (c *Core) sweep(context.Context) error {
	c.PruneOlderThan(c.cfg.RetentionAge)
	return nil
}

// recordSample сохраняет снимок хоста и создаёт алерт, когда уровень превышения порогов растёт.
func (c *Core) recordSample(m models.SystemMetrics) {
	defer c.recoverPanic("recordSample", alerting.SystemSource)

	c.metrics.Append(m)
	c.latest.Store(&m)

	level := c.engine.SampleLevel(m)

	c.levelMu.Lock()
	prev := c.sampleLevel
	c.sampleLevel = level
	c.levelMu.Unlock()

	if level.Rank() > prev.Rank() {
		c.engine.EvaluateSample(m)
	}
}
