// Package pool предоставляет обобщённый пул переиспользуемых объектов с методом Reset().
// Используется для буферов сериализации алертов:
//
//	buffers := pool.New(func() *bytes.Buffer { return new(bytes.Buffer) })
//	buf := buffers.Get()
//	// сериализовать алерт в buf
//	buffers.Put(buf)
package pool

import (
	"sync"
)

// Resettable ограничивает тип тем, у кого есть метод Reset().
type Resettable interface {
	Reset()
}

// Pool хранит не более MaxIdle свободных объектов типа T.
type Pool[T Resettable] struct {
	mu      sync.Mutex
	items   []T
	factory func() T

	// MaxIdle ограничивает число хранимых свободных объектов. 0 означает без ограничения.
	MaxIdle int
}

// New создаёт пул. Фабрика вызывается, когда свободных объектов нет.
func New[T Resettable](factory func() T) *Pool[T] {
	return &Pool[T]{factory: factory}
}

// Get возвращает свободный объект или создаёт новый через фабрику.
func (p *Pool[T]) Get() T {
	p.mu.Lock()
	if n := len(p.items); n > 0 {
		v := p.items[n-1]
		p.items = p.items[:n-1]
		p.mu.Unlock()
		return v
	}
	p.mu.Unlock()

	if p.factory != nil {
		return p.factory()
	}
	var zero T
	return zero
}

// Put сбрасывает объект и возвращает его в пул. Сверх MaxIdle объект отбрасывается.
func (p *Pool[T]) Put(v T) {
	v.Reset()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.MaxIdle > 0 && len(p.items) >= p.MaxIdle {
		return
	}
	p.items = append(p.items, v)
}

// Idle возвращает число свободных объектов.
func (p *Pool[T]) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}
