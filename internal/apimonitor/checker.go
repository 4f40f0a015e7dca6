// Package apimonitor проверяет доступность внешних API и записывает результаты в телеметрию.
package apimonitor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/levinOo/go-telemetry-project/internal/models"
	"github.com/levinOo/go-telemetry-project/internal/task"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Статусы проверки.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusError     = "error"
)

// DefaultTimeout ограничивает одну проверку.
const DefaultTimeout = 10 * time.Second

// ErrUnknownAPI возвращается для имени, отсутствующего в конфигурации.
var ErrUnknownAPI = errors.New("unknown api")

// Recorder принимает результаты проверок.
type Recorder interface {
	RecordCall(endpoint, method string, params map[string]any, responseTime float64, statusCode int, cacheUsed bool, apiCalls int)
	RecordError(endpoint string, kind models.ErrorKind, message string, details map[string]any)
}

// Result описывает результат одной проверки.
type Result struct {
	API          string    `json:"api"`
	Status       string    `json:"status"`
	ResponseTime float64   `json:"response_time,omitempty"`
	StatusCode   int       `json:"status_code,omitempty"`
	Error        string    `json:"error,omitempty"`
	CheckedAt    time.Time `json:"checked_at"`
}

// Checker опрашивает именованные внешние API.
type Checker struct {
	apis     map[string]string
	client   *resty.Client
	recorder Recorder
	logger   *zap.SugaredLogger

	mu   sync.RWMutex
	last map[string]Result
}

// NewChecker создаёт Checker. apis отображает имя API в URL проверки.
func NewChecker(apis map[string]string, recorder Recorder, timeout time.Duration, logger *zap.SugaredLogger) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Checker{
		apis:     apis,
		client:   resty.New().SetTimeout(timeout),
		recorder: recorder,
		logger:   logger,
		last:     make(map[string]Result),
	}
}

// Endpoint возвращает имя эндпоинта, под которым проверка записывается в телеметрию.
func Endpoint(name string) string {
	return "external:" + name
}

// Check проверяет одно API. Ошибка возвращается только для неизвестного имени,
// сбой самого API отражается в Result. Отменённая через ctx проверка не записывается.
func (c *Checker) Check(ctx context.Context, name string) (Result, error) {
	url, ok := c.apis[name]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownAPI, name)
	}

	endpoint := Endpoint(name)
	start := time.Now()
	resp, err := c.client.R().SetContext(ctx).Get(url)
	elapsed := time.Since(start).Seconds()

	result := Result{API: name, CheckedAt: start}
	if err != nil {
		result.Status = StatusError
		result.Error = err.Error()
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			c.logger.Debugw("External API check cancelled", "api", name)
			return result, nil
		}
		// Сбой транспорта учитывается как неуспешный вызов со статусом 0.
		c.recorder.RecordCall(endpoint, http.MethodGet, map[string]any{"url": url}, elapsed, 0, false, 1)
		c.recorder.RecordError(endpoint, classify(err), err.Error(), map[string]any{"url": url})
		c.logger.Warnw("External API check failed", "api", name, "error", err)
	} else {
		result.ResponseTime = elapsed
		result.StatusCode = resp.StatusCode()
		result.Status = StatusUnhealthy
		if resp.StatusCode() == http.StatusOK {
			result.Status = StatusHealthy
		}
		c.recorder.RecordCall(endpoint, http.MethodGet, map[string]any{"url": url}, elapsed, resp.StatusCode(), false, 1)
	}

	c.mu.Lock()
	c.last[name] = result
	c.mu.Unlock()

	return result, nil
}

// CheckAll проверяет все API параллельно и возвращает результаты, отсортированные по имени.
func (c *Checker) CheckAll(ctx context.Context) []Result {
	names := c.Names()
	results := make([]Result, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, name := range names {
		g.Go(func() error {
			r, err := c.Check(ctx, name)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Errorw("External API checks failed", "error", err)
	}
	return results
}

// Names возвращает отсортированные имена API.
func (c *Checker) Names() []string {
	names := make([]string, 0, len(c.apis))
	for name := range c.apis {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Last возвращает результаты последних проверок, отсортированные по имени.
func (c *Checker) Last() []Result {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Result, 0, len(c.last))
	for _, name := range c.Names() {
		if r, ok := c.last[name]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Periodic возвращает задачу, запускающую CheckAll с заданным интервалом.
func (c *Checker) Periodic(interval time.Duration) *task.Periodic {
	return task.NewPeriodic("external-api-check", interval, func(ctx context.Context) error {
		c.CheckAll(ctx)
		return nil
	}, c.logger)
}

func classify(err error) models.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.ErrorKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.ErrorKindTimeout
	}
	return models.ErrorKindConnection
}
