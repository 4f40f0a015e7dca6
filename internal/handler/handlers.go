// Package handler реализует HTTP-интерфейс чтения телеметрии и управления алертами.
package handler

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/levinOo/go-telemetry-project/internal/alerting"
	"github.com/levinOo/go-telemetry-project/internal/apimonitor"
	"github.com/levinOo/go-telemetry-project/internal/models"
	"github.com/levinOo/go-telemetry-project/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Значения по умолчанию для параметров запросов.
const (
	DefaultHistoryMinutes = 60
	DefaultCleanupDays    = 7

	// MaxHistoryMinutes и MaxCleanupDays ограничивают окна запросов.
	MaxHistoryMinutes = 30 * 24 * 60
	MaxCleanupDays    = 3650
)

var (
	// ErrEndpointNotFound возвращается для эндпоинта без зарегистрированных вызовов.
	ErrEndpointNotFound = errors.New("endpoint not found")
	// ErrAlertNotFound возвращается для неизвестного id алерта.
	ErrAlertNotFound = errors.New("alert not found")
)

// Telemetry описывает операции ядра, используемые HTTP-интерфейсом.
type Telemetry interface {
	Recorder
	StartedAt() time.Time
	Thresholds() alerting.Thresholds
	Endpoints() []string
	QueryGlobalStats() models.GlobalStats
	QueryEndpointStats(endpoint string) (models.EndpointSummary, bool)
	QueryRecentCalls(limit int) []models.EndpointCall
	QueryMetricsHistory(window time.Duration) []models.SystemMetrics
	LatestMetrics() (models.SystemMetrics, bool)
	ListActiveAlerts() []models.Alert
	ListAlerts() []models.Alert
	AcknowledgeAlert(id int64) bool
	PruneOlderThan(age time.Duration) telemetry.PruneReport
}

// Journal описывает внешний журнал алертов.
type Journal interface {
	MarkAcknowledged(ctx context.Context, id int64, at time.Time) error
	Ping(ctx context.Context) error
}

// ExternalChecker проверяет внешние API.
type ExternalChecker interface {
	CheckAll(ctx context.Context) []apimonitor.Result
	Last() []apimonitor.Result
}

// Handler обслуживает маршруты /api/health и /metrics.
type Handler struct {
	core     Telemetry
	journal  Journal
	checker  ExternalChecker
	gatherer prometheus.Gatherer
	logger   *zap.SugaredLogger
}

// Option настраивает Handler.
type Option func(*Handler)

// WithJournal подключает журнал алертов: подтверждения дублируются в него, /ping проверяет его доступность.
func WithJournal(j Journal) Option {
	return func(h *Handler) { h.journal = j }
}

// WithChecker подключает проверку внешних API.
func WithChecker(c ExternalChecker) Option {
	return func(h *Handler) { h.checker = c }
}

// WithGatherer задаёт источник метрик для /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handler) { h.gatherer = g }
}

// New создаёт Handler.
func New(core Telemetry, sugar *zap.SugaredLogger, opts ...Option) *Handler {
	if sugar == nil {
		sugar = zap.NewNop().Sugar()
	}
	h := &Handler{core: core, logger: sugar}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router собирает маршруты. Все запросы проходят через Instrument.
func (h *Handler) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(Instrument(h.core, h.logger))

	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/health", func(r chi.Router) {
		r.Get("/status", h.Status)
		r.Get("/ping", h.Ping)
		r.Get("/stats", h.GlobalStats)
		r.Get("/stats/*", h.EndpointStats)
		r.Get("/calls", h.RecentCalls)
		r.Get("/metrics", h.MetricsHistory)
		r.Get("/alerts", h.Alerts)
		r.Post("/alerts/{id}/ack", h.AcknowledgeAlert)
		r.With(DecompressMiddleware).Post("/errors", h.ReportError)
		r.Post("/cleanup", h.Cleanup)
		r.Get("/external", h.External)
	})

	return r
}

type statusResponse struct {
	Status        string                `json:"status"`
	StartedAt     time.Time             `json:"started_at"`
	UptimeSeconds float64               `json:"uptime_seconds"`
	Endpoints     int                   `json:"endpoints"`
	ActiveAlerts  int                   `json:"active_alerts"`
	System        *models.SystemMetrics `json:"system"`
	Thresholds    alerting.Thresholds   `json:"thresholds"`
}

// Status возвращает сводку состояния: "degraded", если есть активный CRITICAL алерт.
func (h *Handler) Status(rw http.ResponseWriter, r *http.Request) {
	active := h.core.ListActiveAlerts()
	resp := statusResponse{
		Status:        "healthy",
		StartedAt:     h.core.StartedAt(),
		UptimeSeconds: time.Since(h.core.StartedAt()).Seconds(),
		Endpoints:     len(h.core.Endpoints()),
		ActiveAlerts:  len(active),
		Thresholds:    h.core.Thresholds(),
	}
	for _, a := range active {
		if a.Level == models.SeverityCritical {
			resp.Status = "degraded"
			break
		}
	}
	if m, ok := h.core.LatestMetrics(); ok {
		resp.System = &m
	}
	h.writeJSON(rw, r, http.StatusOK, resp)
}

// Ping проверяет доступность базы журнала алертов.
func (h *Handler) Ping(rw http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		http.Error(rw, "Database is not configured", http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.journal.Ping(ctx); err != nil {
		h.logger.Warnw("Database ping failed", "error", err)
		http.Error(rw, "No connection with Database", http.StatusInternalServerError)
		return
	}

	rw.WriteHeader(http.StatusOK)
	rw.Write([]byte("Database is reachable"))
}

// GlobalStats возвращает сводку по всем эндпоинтам.
func (h *Handler) GlobalStats(rw http.ResponseWriter, r *http.Request) {
	h.writeJSON(rw, r, http.StatusOK, h.core.QueryGlobalStats())
}

// EndpointStats возвращает сводку одного эндпоинта. Имя берётся из остатка пути и
// может быть закодировано (%2F); имя без ведущего "/" ищется также с ним.
func (h *Handler) EndpointStats(rw http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || name == "" {
		http.Error(rw, "Invalid endpoint name", http.StatusBadRequest)
		return
	}

	summary, ok := h.core.QueryEndpointStats(name)
	if !ok && !strings.HasPrefix(name, "/") {
		summary, ok = h.core.QueryEndpointStats("/" + name)
	}
	if !ok {
		http.Error(rw, ErrEndpointNotFound.Error(), http.StatusNotFound)
		return
	}
	h.writeJSON(rw, r, http.StatusOK, summary)
}

// RecentCalls возвращает последние вызовы, limit по умолчанию 50.
func (h *Handler) RecentCalls(rw http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", telemetry.DefaultRecentCallsLimit, math.MaxInt32)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	calls := h.core.QueryRecentCalls(limit)
	h.writeJSON(rw, r, http.StatusOK, map[string]any{"calls": calls, "count": len(calls)})
}

// MetricsHistory возвращает снимки хоста за последние minutes минут (по умолчанию 60).
func (h *Handler) MetricsHistory(rw http.ResponseWriter, r *http.Request) {
	minutes, err := intParam(r, "minutes", DefaultHistoryMinutes, MaxHistoryMinutes)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	history := h.core.QueryMetricsHistory(time.Duration(minutes) * time.Minute)
	h.writeJSON(rw, r, http.StatusOK, map[string]any{"metrics": history, "count": len(history)})
}

// Alerts возвращает активные алерты, а с all=true все.
func (h *Handler) Alerts(rw http.ResponseWriter, r *http.Request) {
	alerts := h.core.ListActiveAlerts()
	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); all {
		alerts = h.core.ListAlerts()
	}
	h.writeJSON(rw, r, http.StatusOK, map[string]any{"alerts": alerts, "count": len(alerts)})
}

// AcknowledgeAlert подтверждает алерт.
func (h *Handler) AcknowledgeAlert(rw http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(rw, "Invalid alert id", http.StatusBadRequest)
		return
	}

	if !h.core.AcknowledgeAlert(id) {
		http.Error(rw, ErrAlertNotFound.Error(), http.StatusNotFound)
		return
	}

	if h.journal != nil {
		if err := h.journal.MarkAcknowledged(r.Context(), id, time.Now()); err != nil {
			h.logger.Errorw("Failed to journal acknowledgement", "id", id, "error", err)
		}
	}

	h.writeJSON(rw, r, http.StatusOK, map[string]any{"id": id, "acknowledged": true})
}

type errorReport struct {
	Endpoint string         `json:"endpoint"`
	Kind     string         `json:"error_type"`
	Message  string         `json:"error_message"`
	Context  map[string]any `json:"context,omitempty"`
}

// ReportError регистрирует ошибку, переданную внешним компонентом.
func (h *Handler) ReportError(rw http.ResponseWriter, r *http.Request) {
	var report errorReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		http.Error(rw, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if report.Endpoint == "" {
		http.Error(rw, "Endpoint is empty", http.StatusBadRequest)
		return
	}

	kind := models.ParseErrorKind(report.Kind)
	h.core.RecordError(report.Endpoint, kind, report.Message, report.Context)
	h.writeJSON(rw, r, http.StatusAccepted, map[string]any{"endpoint": report.Endpoint, "error_type": kind})
}

// Cleanup удаляет данные старше days дней (по умолчанию 7).
func (h *Handler) Cleanup(rw http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", DefaultCleanupDays, MaxCleanupDays)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(rw, r, http.StatusOK, h.core.PruneOlderThan(time.Duration(days)*24*time.Hour))
}

// External возвращает результаты последних проверок внешних API; refresh=true запускает проверку.
func (h *Handler) External(rw http.ResponseWriter, r *http.Request) {
	results := []apimonitor.Result{}
	if h.checker != nil {
		if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
			results = h.checker.CheckAll(r.Context())
		} else {
			results = h.checker.Last()
		}
	}
	h.writeJSON(rw, r, http.StatusOK, map[string]any{"apis": results, "count": len(results)})
}

// intParam читает целый параметр запроса из диапазона [1, upper].
func intParam(r *http.Request, name string, def, upper int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 || v > upper {
		return 0, fmt.Errorf("parameter %s must be an integer between 1 and %d", name, upper)
	}
	return v, nil
}

// writeJSON кодирует v в JSON, сжимая ответ, если клиент принимает gzip.
func (h *Handler) writeJSON(rw http.ResponseWriter, r *http.Request, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")

	var w io.Writer = rw
	if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		rw.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(rw)
		defer gz.Close()
		w = gz
	}

	rw.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Errorw("Failed to encode response", "error", err)
	}
}
