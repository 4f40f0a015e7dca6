// Package sampler периодически снимает показатели хоста и передаёт их получателю.
// После неудачного чтения следующая попытка откладывается на период отката,
// затем цикл возвращается к обычному периоду.
package sampler

import (
	"context"
	"sync"
	"time"

	"github.com/levinOo/go-telemetry-project/internal/models"
	"go.uber.org/zap"
)

// Значения по умолчанию.
const (
	DefaultPeriod      = 5 * time.Second
	DefaultBackoff     = 10 * time.Second
	DefaultReadTimeout = 3 * time.Second
)

// Config задаёт интервалы цикла опроса.
type Config struct {
	Period      time.Duration
	Backoff     time.Duration
	ReadTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Period <= 0 {
		c.Period = DefaultPeriod
	}
	if c.Backoff <= 0 {
		c.Backoff = DefaultBackoff
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	return c
}

// Sampler управляет фоновым опросом Probe.
type Sampler struct {
	probe  Probe
	sink   func(models.SystemMetrics)
	cfg    Config
	now    func() time.Time
	logger *zap.SugaredLogger

	mu      sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
	done    chan struct{}
}

// New создаёт Sampler. Цикл необходимо запустить методом Start.
func New(probe Probe, sink func(models.SystemMetrics), cfg Config, now func() time.Time, logger *zap.SugaredLogger) *Sampler {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if sink == nil {
		sink = func(models.SystemMetrics) {}
	}
	return &Sampler{
		probe:  probe,
		sink:   sink,
		cfg:    cfg.withDefaults(),
		now:    now,
		logger: logger,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start запускает цикл опроса в отдельной горутине. Первый снимок снимается сразу.
// Цикл завершается по Stop или по отмене ctx. Повторный вызов ничего не делает.
func (s *Sampler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return
	}
	s.started = true

	go s.run(ctx)
}

// Stop останавливает цикл и дожидается завершения текущего опроса. Вызов идемпотентен.
func (s *Sampler) Stop() {
	s.mu.Lock()
	started := s.started
	if !s.stopped {
		s.stopped = true
		close(s.stopCh)
	}
	s.mu.Unlock()

	if started {
		<-s.done
	}
}

func (s *Sampler) run(ctx context.Context) {
	defer close(s.done)

	s.logger.Infow("Starting host sampler", "period", s.cfg.Period, "backoff", s.cfg.Backoff)

	for {
		select {
		case <-s.stopCh:
			s.logger.Debugw("Stopping host sampler")
			return
		case <-ctx.Done():
			s.logger.Debugw("Host sampler context cancelled")
			return
		default:
		}

		wait := s.cfg.Period
		if _, err := s.SampleOnce(ctx); err != nil {
			s.logger.Errorw("Failed to sample host metrics", "error", err, "retryIn", s.cfg.Backoff)
			wait = s.cfg.Backoff
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-s.stopCh:
			timer.Stop()
			s.logger.Debugw("Stopping host sampler")
			return
		case <-ctx.Done():
			timer.Stop()
			s.logger.Debugw("Host sampler context cancelled")
			return
		}
	}
}

type reading struct {
	metrics models.SystemMetrics
	err     error
}

// SampleOnce снимает один снимок с ограничением ReadTimeout и передаёт его получателю.
// Чтение, не уложившееся в таймаут, возвращает context.DeadlineExceeded даже если Probe не отслеживает ctx.
func (s *Sampler) SampleOnce(ctx context.Context) (models.SystemMetrics, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	ch := make(chan reading, 1)
	go func() {
		m, err := s.probe.Sample(readCtx)
		ch <- reading{metrics: m, err: err}
	}()

	var r reading
	select {
	case r = <-ch:
	case <-readCtx.Done():
		return models.SystemMetrics{}, readCtx.Err()
	}
	if r.err != nil {
		return models.SystemMetrics{}, r.err
	}

	r.metrics.Timestamp = s.now()
	s.sink(r.metrics)

	s.logger.Debugw("Host metrics sampled", "cpu", r.metrics.CPUPercent, "memory", r.metrics.MemoryPercent, "disk", r.metrics.DiskUsage)
	return r.metrics, nil
}
