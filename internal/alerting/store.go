package alerting

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/levinOo/go-telemetry-project/internal/models"
	"go.uber.org/zap"
)

// Sink принимает алерты, созданные движком.
type Sink interface {
	Raise(level models.Severity, message, source string, data map[string]any) models.Alert
}

// Notifier получает копию каждого нового алерта. Доставка выполняется по возможности,
// без повторов, поэтому ошибки доставки остаются внутри реализации.
type Notifier interface {
	Notify(alert models.Alert)
}

// DefaultQueueSize ограничивает очередь недоставленных алертов одного получателя.
const DefaultQueueSize = 256

// Store хранит все созданные алерты и выдаёт им монотонно возрастающие идентификаторы.
type Store struct {
	mu     sync.RWMutex
	alerts []models.Alert
	index  map[int64]int
	nextID atomic.Int64
	now    func() time.Time
	logger *zap.SugaredLogger

	subs      []*subscriber
	queueSize int
	closed    bool
	dropped   atomic.Int64
}

// subscriber доставляет алерты одному получателю в порядке создания.
type subscriber struct {
	notifier Notifier
	queue    chan models.Alert
	done     chan struct{}
}

// NewStore создаёт пустое хранилище алертов.
func NewStore(now func() time.Time, logger *zap.SugaredLogger) *Store {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{
		index:     make(map[int64]int),
		now:       now,
		logger:    logger,
		queueSize: DefaultQueueSize,
	}
}

// Subscribe регистрирует получателя уведомлений о новых алертах.
// Каждый получатель обслуживается своей горутиной до вызова Close.
func (s *Store) Subscribe(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Warnw("Subscribe on closed alert store ignored")
		return
	}

	sub := &subscriber{
		notifier: n,
		queue:    make(chan models.Alert, s.queueSize),
		done:     make(chan struct{}),
	}
	s.subs = append(s.subs, sub)
	go s.deliver(sub)
}

// Raise создаёт алерт, сохраняет его и ставит в очереди подписчиков.
// При переполненной очереди алерт этому подписчику не доставляется.
func (s *Store) Raise(level models.Severity, message, source string, data map[string]any) models.Alert {
	s.mu.Lock()
	alert := models.Alert{
		ID:        s.nextID.Add(1),
		Level:     level,
		Message:   message,
		Source:    source,
		Timestamp: s.now(),
		Data:      data,
	}
	s.index[alert.ID] = len(s.alerts)
	s.alerts = append(s.alerts, alert)

	if !s.closed {
		for _, sub := range s.subs {
			select {
			case sub.queue <- alert:
			default:
				s.dropped.Add(1)
				s.logger.Warnw("Alert notification dropped, queue is full", "id", alert.ID)
			}
		}
	}
	s.mu.Unlock()

	s.logger.Warnw("Alert raised", "id", alert.ID, "level", alert.Level, "source", alert.Source, "message", alert.Message)
	return alert
}

func (s *Store) deliver(sub *subscriber) {
	defer close(sub.done)
	for alert := range sub.queue {
		s.notify(sub.notifier, alert)
	}
}

func (s *Store) notify(n Notifier, alert models.Alert) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("Alert notifier panicked", "id", alert.ID, "panic", r)
		}
	}()
	n.Notify(alert)
}

// Dropped возвращает число уведомлений, отброшенных из-за переполнения очередей.
func (s *Store) Dropped() int64 {
	return s.dropped.Load()
}

// Close прекращает приём уведомлений и ждёт доставки уже поставленных в очередь.
// Алерты, созданные после Close, сохраняются, но не рассылаются. Повторный вызов безопасен.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	subs := s.subs
	for _, sub := range subs {
		close(sub.queue)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		<-sub.done
	}
}

// Active возвращает неподтверждённые алерты в порядке создания.
func (s *Store) Active() []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Alert, 0)
	for _, a := range s.alerts {
		if !a.Acknowledged {
			out = append(out, a)
		}
	}
	return out
}

// All возвращает копию всех хранимых алертов.
func (s *Store) All() []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// Acknowledge помечает алерт подтверждённым. Повторный вызов и неизвестный id ничего не меняют.
// Возвращает true, если алерт существует.
func (s *Store) Acknowledge(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.alerts[i].Acknowledged = true
	return true
}

// PruneAcknowledged удаляет подтверждённые алерты не новее cutoff.
// Неподтверждённые алерты сохраняются независимо от возраста.
func (s *Store) PruneAcknowledged(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.alerts[:0]
	for _, a := range s.alerts {
		if a.Acknowledged && !a.Timestamp.After(cutoff) {
			continue
		}
		kept = append(kept, a)
	}

	removed := len(s.alerts) - len(kept)
	for i := len(kept); i < len(s.alerts); i++ {
		s.alerts[i] = models.Alert{}
	}
	s.alerts = kept

	s.index = make(map[int64]int, len(kept))
	for i, a := range kept {
		s.index[a.ID] = i
	}
	return removed
}
