// Package models содержит структуры данных, описывающие основные сущности телеметрии.
// Пакет не содержит бизнес-логику и используется для передачи данных между слоями приложения;
// все типы сериализуются в JSON и не содержат внутренних указателей ядра.
package models

import (
	"time"
)

// EndpointCall описывает завершённый запрос к эндпоинту.
// После создания не изменяется.
type EndpointCall struct {
	// Endpoint содержит логическое имя эндпоинта (не URL-шаблон).
	Endpoint string `json:"endpoint"`

	// Method содержит HTTP-метод запроса.
	Method string `json:"method"`

	Timestamp time.Time `json:"timestamp"`

	// Params содержит параметры запроса.
	Params map[string]any `json:"params,omitempty"`

	// ResponseTime содержит время ответа в секундах.
	ResponseTime float64 `json:"response_time"`

	StatusCode int  `json:"status_code"`
	CacheUsed  bool `json:"cache_used"`

	// APICalls содержит число обращений к внешним API во время обработки запроса.
	APICalls int `json:"api_calls"`

	// MemoryUsed и CPUImpact содержат загрузку памяти и CPU хоста (в процентах) на момент завершения.
	MemoryUsed float64 `json:"memory_used"`
	CPUImpact  float64 `json:"cpu_impact"`
}

// GetTimestamp возвращает время завершения запроса.
func (c EndpointCall) GetTimestamp() time.Time { return c.Timestamp }

// NetworkIO содержит накопительные сетевые счётчики хоста.
type NetworkIO struct {
	BytesSent   uint64 `json:"bytes_sent"`
	BytesRecv   uint64 `json:"bytes_recv"`
	PacketsSent uint64 `json:"packets_sent"`
	PacketsRecv uint64 `json:"packets_recv"`
}

// SystemMetrics представляет один снимок ресурсов хоста.
type SystemMetrics struct {
	Timestamp         time.Time `json:"timestamp"`
	CPUPercent        float64   `json:"cpu_percent"`
	MemoryPercent     float64   `json:"memory_percent"`
	DiskUsage         float64   `json:"disk_usage"`
	Network           NetworkIO `json:"network_io"`
	ActiveConnections int       `json:"active_connections"`
}

// GetTimestamp возвращает время снятия снимка.
func (m SystemMetrics) GetTimestamp() time.Time { return m.Timestamp }

// ErrorRecord описывает ошибку, зафиксированную для эндпоинта.
// Для неуспешных вызовов заполняется StatusCode и Context (параметры запроса),
// для ошибок, переданных через RecordError, заполняются Kind, Message и Context.
type ErrorRecord struct {
	Endpoint   string         `json:"endpoint"`
	Kind       ErrorKind      `json:"error_type"`
	Message    string         `json:"error_message,omitempty"`
	StatusCode int            `json:"status_code,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// GetTimestamp возвращает время регистрации ошибки.
func (e ErrorRecord) GetTimestamp() time.Time { return e.Timestamp }

// CachePerformance содержит статистику попаданий в кэш.
type CachePerformance struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// EndpointSummary содержит вычисляемое представление агрегата эндпоинта.
// Производные поля (доли и средние) рассчитываются в момент запроса и не хранятся.
type EndpointSummary struct {
	Endpoint            string           `json:"endpoint"`
	TotalCalls          int64            `json:"total_calls"`
	SuccessfulCalls     int64            `json:"successful_calls"`
	FailedCalls         int64            `json:"failed_calls"`
	SuccessRate         float64          `json:"success_rate"`
	AverageResponseTime float64          `json:"average_response_time"`
	Cache               CachePerformance `json:"cache_performance"`
	APICalls            int64            `json:"api_calls"`
	ErrorCount          int              `json:"error_count"`
	RecentErrors        []ErrorRecord    `json:"recent_errors"`
	LastCall            *time.Time       `json:"last_call"`
}

// EndpointBrief содержит краткую сводку эндпоинта для глобального отчёта.
type EndpointBrief struct {
	TotalCalls          int64      `json:"total_calls"`
	SuccessRate         float64    `json:"success_rate"`
	AverageResponseTime float64    `json:"average_response_time"`
	LastCall            *time.Time `json:"last_call"`
}

// Overall содержит глобальную сводку по всем эндпоинтам.
type Overall struct {
	TotalEndpoints     int       `json:"total_endpoints"`
	TotalCalls         int64     `json:"total_calls"`
	OverallSuccessRate float64   `json:"overall_success_rate"`
	Timestamp          time.Time `json:"timestamp"`
}

// GlobalStats объединяет глобальную сводку и сводки по эндпоинтам.
type GlobalStats struct {
	Overall   Overall                  `json:"overall"`
	Endpoints map[string]EndpointBrief `json:"endpoints"`
}
