package handler

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/levinOo/go-telemetry-project/internal/logger"
	"github.com/levinOo/go-telemetry-project/internal/models"
	"go.uber.org/zap"
)

// Заголовки ответа, которыми обработчики сообщают детали вызова.
const (
	HeaderCache         = "X-Cache"
	HeaderUpstreamCalls = "X-Upstream-Calls"
)

// Recorder принимает сведения о завершённых запросах.
type Recorder interface {
	RecordCall(endpoint, method string, params map[string]any, responseTime float64, statusCode int, cacheUsed bool, apiCalls int)
	RecordError(endpoint string, kind models.ErrorKind, message string, details map[string]any)
}

// Instrument измеряет время обработки запроса и записывает вызов в recorder.
// Паника обработчика перехватывается, записывается как внутренняя ошибка и превращается в ответ 500.
func Instrument(recorder Recorder, sugar *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lw := logger.NewLoggingRW(rw)

			defer func() {
				endpoint := routeName(r)
				if rec := recover(); rec != nil {
					recorder.RecordError(endpoint, models.ErrorKindInternal, fmt.Sprint(rec), map[string]any{
						"method": r.Method,
						"path":   r.URL.Path,
						"stack":  string(debug.Stack()),
					})
					sugar.Errorw("Handler panicked", "endpoint", endpoint, "panic", rec)
					if lw.ResponseData.Status == 0 {
						http.Error(lw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					}
				}

				dur := time.Since(start)
				apiCalls, _ := strconv.Atoi(lw.Header().Get(HeaderUpstreamCalls))
				recorder.RecordCall(endpoint, r.Method, queryParams(r), dur.Seconds(),
					lw.StatusCode(), lw.Header().Get(HeaderCache) == "HIT", apiCalls)

				sugar.Debugw("HTTP request",
					"uri", r.RequestURI,
					"method", r.Method,
					"duration", dur,
					"status", lw.StatusCode(),
					"size", lw.ResponseData.Size,
				)
			}()

			next.ServeHTTP(lw, r)
		})
	}
}

// routeName возвращает шаблон маршрута chi или путь, если маршрут не найден.
func routeName(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func queryParams(r *http.Request) map[string]any {
	query := r.URL.Query()
	if len(query) == 0 {
		return nil
	}
	params := make(map[string]any, len(query))
	for key, values := range query {
		if len(values) == 1 {
			params[key] = values[0]
		} else {
			params[key] = values
		}
	}
	return params
}

// DecompressMiddleware распаковывает тело запроса с Content-Encoding: gzip.
func DecompressMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Encoding") == "gzip" {
			gz, err := gzip.NewReader(r.Body)
			if err != nil {
				http.Error(rw, "Failed to decompress gzip body", http.StatusBadRequest)
				return
			}
			defer gz.Close()

			body, err := io.ReadAll(gz)
			if err != nil {
				http.Error(rw, "Failed to read decompressed body", http.StatusBadRequest)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			r.ContentLength = int64(len(body))
			r.Header.Del("Content-Encoding")
		}
		next.ServeHTTP(rw, r)
	})
}
