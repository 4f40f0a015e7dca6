// Package alerting сравнивает вызовы и снимки хоста с настроенными порогами
// и создаёт алерты через общее хранилище.
package alerting

import (
	"fmt"

	"github.com/levinOo/go-telemetry-project/internal/models"
)

// SystemSource обозначает источник алертов, созданных по снимкам хоста.
const SystemSource = "system"

// Thresholds содержит пороги срабатывания. Время ответа задаётся в секундах, остальное в процентах.
type Thresholds struct {
	ResponseTimeWarning  float64 `json:"response_time_warning"`
	ResponseTimeCritical float64 `json:"response_time_critical"`
	CPUWarning           float64 `json:"cpu_warning"`
	CPUCritical          float64 `json:"cpu_critical"`
	MemoryWarning        float64 `json:"memory_warning"`
	MemoryCritical       float64 `json:"memory_critical"`
}

// DefaultThresholds возвращает пороги по умолчанию.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ResponseTimeWarning:  1.0,
		ResponseTimeCritical: 3.0,
		CPUWarning:           80.0,
		CPUCritical:          95.0,
		MemoryWarning:        85.0,
		MemoryCritical:       95.0,
	}
}

// Engine не хранит состояния: пороги задаются при создании, алерты уходят в Sink.
type Engine struct {
	thresholds Thresholds
	sink       Sink
}

// NewEngine создаёт движок с заданными порогами.
func NewEngine(thresholds Thresholds, sink Sink) *Engine {
	return &Engine{thresholds: thresholds, sink: sink}
}

// Thresholds возвращает действующие пороги.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate проверяет время ответа и нагрузку CPU вызова.
// Для каждой метрики критический порог проверяется первым и вытесняет предупреждение.
func (e *Engine) Evaluate(call models.EndpointCall) []models.Alert {
	var raised []models.Alert

	switch {
	case call.ResponseTime > e.thresholds.ResponseTimeCritical:
		raised = append(raised, e.sink.Raise(models.SeverityCritical,
			fmt.Sprintf("Critical response time in %s: %.2fs", call.Endpoint, call.ResponseTime),
			call.Endpoint,
			map[string]any{"response_time": call.ResponseTime, "threshold": e.thresholds.ResponseTimeCritical},
		))
	case call.ResponseTime > e.thresholds.ResponseTimeWarning:
		raised = append(raised, e.sink.Raise(models.SeverityWarning,
			fmt.Sprintf("High response time in %s: %.2fs", call.Endpoint, call.ResponseTime),
			call.Endpoint,
			map[string]any{"response_time": call.ResponseTime, "threshold": e.thresholds.ResponseTimeWarning},
		))
	}

	switch {
	case call.CPUImpact > e.thresholds.CPUCritical:
		raised = append(raised, e.sink.Raise(models.SeverityCritical,
			fmt.Sprintf("Critical CPU usage in %s: %.1f%%", call.Endpoint, call.CPUImpact),
			call.Endpoint,
			map[string]any{"cpu_usage": call.CPUImpact, "threshold": e.thresholds.CPUCritical},
		))
	case call.CPUImpact > e.thresholds.CPUWarning:
		raised = append(raised, e.sink.Raise(models.SeverityWarning,
			fmt.Sprintf("High CPU usage in %s: %.1f%%", call.Endpoint, call.CPUImpact),
			call.Endpoint,
			map[string]any{"cpu_usage": call.CPUImpact, "threshold": e.thresholds.CPUWarning},
		))
	}

	return raised
}

// SampleLevel возвращает наивысший уровень, до которого снимок хоста превышает пороги памяти и CPU.
// Пустая строка означает отсутствие превышений. Алерты не создаются.
func (e *Engine) SampleLevel(m models.SystemMetrics) models.Severity {
	switch {
	case m.MemoryPercent > e.thresholds.MemoryCritical, m.CPUPercent > e.thresholds.CPUCritical:
		return models.SeverityCritical
	case m.MemoryPercent > e.thresholds.MemoryWarning, m.CPUPercent > e.thresholds.CPUWarning:
		return models.SeverityWarning
	}
	return ""
}

// EvaluateSample создаёт алерт уровня SampleLevel для снимка хоста, если пороги превышены.
func (e *Engine) EvaluateSample(m models.SystemMetrics) (models.Alert, bool) {
	level := e.SampleLevel(m)
	if level == "" {
		return models.Alert{}, false
	}

	alert := e.sink.Raise(level,
		fmt.Sprintf("Host resource usage %s: cpu %.1f%%, memory %.1f%%", level, m.CPUPercent, m.MemoryPercent),
		SystemSource,
		map[string]any{
			"cpu_percent":    m.CPUPercent,
			"memory_percent": m.MemoryPercent,
			"disk_usage":     m.DiskUsage,
		},
	)
	return alert, true
}

// ClassifyErrorSeverity возвращает true для фатальных видов ошибок:
// таймаут, ошибка соединения, нехватка памяти и ошибка ввода-вывода ОС.
func ClassifyErrorSeverity(kind models.ErrorKind) bool {
	switch kind {
	case models.ErrorKindTimeout,
		models.ErrorKindConnection,
		models.ErrorKindOutOfMemory,
		models.ErrorKindIO:
		return true
	}
	return false
}
