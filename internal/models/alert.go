package models

//go:generate easyjson -all alert.go

import (
	"strings"
	"time"
)

// Severity определяет уровень важности алерта.
type Severity string

// Уровни алертов.
const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// Rank возвращает порядковый вес уровня; неизвестный уровень имеет вес 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 1
	case SeverityWarning:
		return 2
	case SeverityError:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// ErrorKind задаёт закрытое перечисление видов ошибок, наблюдаемых у эндпоинтов.
type ErrorKind string

// Виды ошибок.
const (
	ErrorKindTimeout     ErrorKind = "timeout"
	ErrorKindConnection  ErrorKind = "connection"
	ErrorKindOutOfMemory ErrorKind = "out_of_memory"
	ErrorKindIO          ErrorKind = "io"
	ErrorKindValidation  ErrorKind = "validation"
	ErrorKindUpstream    ErrorKind = "upstream"
	ErrorKindHTTPStatus  ErrorKind = "http_status"
	ErrorKindInternal    ErrorKind = "internal"
	ErrorKindUnknown     ErrorKind = "unknown"
)

var errorKinds = map[ErrorKind]struct{}{
	ErrorKindTimeout:     {},
	ErrorKindConnection:  {},
	ErrorKindOutOfMemory: {},
	ErrorKindIO:          {},
	ErrorKindValidation:  {},
	ErrorKindUpstream:    {},
	ErrorKindHTTPStatus:  {},
	ErrorKindInternal:    {},
	ErrorKindUnknown:     {},
}

// ParseErrorKind приводит строку к ErrorKind. Неизвестные значения дают ErrorKindUnknown.
func ParseErrorKind(s string) ErrorKind {
	k := ErrorKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := errorKinds[k]; ok {
		return k
	}
	return ErrorKindUnknown
}

// Alert представляет сработавший алерт.
// После создания изменяется только флаг Acknowledged.
type Alert struct {
	// ID монотонно возрастает в пределах экземпляра ядра.
	ID int64 `json:"id"`

	Level   Severity `json:"level"`
	Message string   `json:"message"`

	// Source содержит эндпоинт или подсистему, породившую алерт.
	Source string `json:"source"`

	Timestamp time.Time `json:"timestamp"`

	// Data содержит произвольную структурированную нагрузку (порог, измеренное значение и т.д.).
	Data map[string]any `json:"data,omitempty"`

	Acknowledged bool `json:"acknowledged"`
}

// GetTimestamp возвращает время создания алерта.
func (a Alert) GetTimestamp() time.Time { return a.Timestamp }

// AlertList содержит список алертов для файлового журнала.
type AlertList struct {
	Alerts []Alert `json:"alerts"`
}
