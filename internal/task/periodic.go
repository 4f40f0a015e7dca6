// Package task запускает функции по расписанию в фоновой горутине.
package task

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Periodic вызывает fn с заданным интервалом до вызова Stop.
// Ошибка fn записывается в лог и не прерывает цикл.
type Periodic struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context) error
	logger   *zap.SugaredLogger

	mu      sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
	done    chan struct{}
}

// NewPeriodic создаёт задачу. Запуск выполняется методом Start.
func NewPeriodic(name string, interval time.Duration, fn func(ctx context.Context) error, logger *zap.SugaredLogger) *Periodic {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Periodic{
		name:     name,
		interval: interval,
		fn:       fn,
		logger:   logger,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает задачу. Первый вызов fn происходит через interval.
// Нулевой или отрицательный интервал отключает задачу.
func (p *Periodic) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.stopped {
		return
	}
	if p.interval <= 0 {
		p.logger.Infow("Periodic task disabled", "task", p.name, "interval", p.interval)
		return
	}
	p.started = true

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.logger.Infow("Starting periodic task", "task", p.name, "interval", p.interval)

		for {
			select {
			case <-ticker.C:
				p.logger.Debugw("Periodic task triggered", "task", p.name)
				if err := p.fn(ctx); err != nil {
					p.logger.Errorw("Periodic task failed", "task", p.name, "error", err)
				}
			case <-p.stopCh:
				p.logger.Debugw("Stopping periodic task", "task", p.name)
				return
			case <-ctx.Done():
				p.logger.Debugw("Periodic task context cancelled", "task", p.name)
				return
			}
		}
	}()
}

// Stop останавливает задачу и дожидается завершения текущего вызова fn. Вызов идемпотентен.
func (p *Periodic) Stop() {
	p.mu.Lock()
	started := p.started
	if !p.stopped {
		p.stopped = true
		close(p.stopCh)
	}
	p.mu.Unlock()

	if started {
		<-p.done
	}
}
