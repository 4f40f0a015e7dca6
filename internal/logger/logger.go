// Package logger создаёт zap-логгеры и оборачивает http.ResponseWriter
// для захвата статуса и размера ответа.
package logger

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// ResponseData содержит метаданные HTTP-ответа.
type ResponseData struct {
	// Status содержит HTTP-код ответа. Если обработчик не вызвал WriteHeader,
	// при первой записи тела устанавливается 200.
	Status int

	// Size накапливает размер тела ответа в байтах.
	Size int
}

// LoggingRW оборачивает http.ResponseWriter и заполняет ResponseData.
type LoggingRW struct {
	http.ResponseWriter
	ResponseData *ResponseData
}

// NewLoggingRW создаёт обёртку над rw с пустыми метаданными.
func NewLoggingRW(rw http.ResponseWriter) *LoggingRW {
	return &LoggingRW{ResponseWriter: rw, ResponseData: &ResponseData{}}
}

// Write записывает данные и увеличивает накопленный размер.
func (r *LoggingRW) Write(b []byte) (int, error) {
	if r.ResponseData.Status == 0 {
		r.ResponseData.Status = http.StatusOK
	}
	size, err := r.ResponseWriter.Write(b)
	r.ResponseData.Size += size
	return size, err
}

// WriteHeader устанавливает код ответа. Повторные вызовы не меняют сохранённый код.
func (r *LoggingRW) WriteHeader(statusCode int) {
	if r.ResponseData.Status == 0 {
		r.ResponseData.Status = statusCode
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

// StatusCode возвращает записанный код или 200, если ответ пуст.
func (r *LoggingRW) StatusCode() int {
	if r.ResponseData.Status == 0 {
		return http.StatusOK
	}
	return r.ResponseData.Status
}

// NewLogger создаёт development-логгер с заданным уровнем ("debug", "info", ...).
// Пустой уровень означает info.
func NewLogger(level string) (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", level, err)
		}
		cfg.Level = lvl
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// NewNop возвращает логгер, отбрасывающий все записи.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
