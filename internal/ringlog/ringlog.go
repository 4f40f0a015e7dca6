// Package ringlog реализует кольцевой буфер фиксированной ёмкости с вытеснением самых старых записей.
// Буфер используется для истории вызовов, истории метрик хоста и журналов ошибок эндпоинтов.
//
// Пример использования:
//
//	calls := ringlog.New[models.EndpointCall](10000)
//	calls.Append(call)
//	recent := calls.Snapshot(50)
package ringlog

import (
	"sync"
	"time"
)

// Timestamped ограничивает тип элементами с меткой времени.
type Timestamped interface {
	GetTimestamp() time.Time
}

// RingLog хранит не более Cap() элементов в порядке добавления.
// Безопасен для конкурентного использования.
type RingLog[T Timestamped] struct {
	mu    sync.RWMutex
	items []T
	head  int // индекс самого старого элемента
	size  int
}

// New создаёт RingLog с ёмкостью capacity. Ёмкость меньше 1 приводится к 1.
func New[T Timestamped](capacity int) *RingLog[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &RingLog[T]{items: make([]T, capacity)}
}

// Append добавляет элемент. При заполненном буфере перезаписывает самый старый.
func (r *RingLog[T]) Append(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size < len(r.items) {
		r.items[(r.head+r.size)%len(r.items)] = item
		r.size++
		return
	}

	r.items[r.head] = item
	r.head = (r.head + 1) % len(r.items)
}

// Snapshot возвращает копию последних limit элементов от старого к новому.
// При limit <= 0 возвращаются все элементы.
func (r *RingLog[T]) Snapshot(limit int) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.size
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]T, 0, n)
	for i := r.size - n; i < r.size; i++ {
		out = append(out, r.at(i))
	}
	return out
}

// FilterSince возвращает копию элементов с меткой времени не раньше cutoff, от старого к новому.
func (r *RingLog[T]) FilterSince(cutoff time.Time) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, 0)
	for i := 0; i < r.size; i++ {
		item := r.at(i)
		if !item.GetTimestamp().Before(cutoff) {
			out = append(out, item)
		}
	}
	return out
}

// Prune перестраивает буфер, оставляя только элементы новее cutoff.
// Возвращает число удалённых элементов.
func (r *RingLog[T]) Prune(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make([]T, len(r.items))
	n := 0
	for i := 0; i < r.size; i++ {
		item := r.at(i)
		if item.GetTimestamp().After(cutoff) {
			kept[n] = item
			n++
		}
	}

	removed := r.size - n
	r.items = kept
	r.head = 0
	r.size = n
	return removed
}

// Last возвращает самый новый элемент.
func (r *RingLog[T]) Last() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.size == 0 {
		var zero T
		return zero, false
	}
	return r.at(r.size - 1), true
}

// Len возвращает текущее число элементов.
func (r *RingLog[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Cap возвращает ёмкость буфера.
func (r *RingLog[T]) Cap() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// at возвращает i-й по старшинству элемент. Вызывается под блокировкой.
func (r *RingLog[T]) at(i int) T {
	return r.items[(r.head+i)%len(r.items)]
}
