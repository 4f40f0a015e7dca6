package pool

import (
	"bytes"
	"testing"
)

func newBufferPool() *Pool[*bytes.Buffer] {
	return New(func() *bytes.Buffer { return new(bytes.Buffer) })
}

// TestBufferPoolGetPut проверяет, что возвращённый буфер сбрасывается и переиспользуется.
func TestBufferPoolGetPut(t *testing.T) {
	p := newBufferPool()

	buf := p.Get()
	if buf == nil {
		t.Fatal("expected non-nil buffer from pool")
	}
	buf.WriteString(`{"id":1,"level":"CRITICAL"}`)

	p.Put(buf)
	if p.Idle() != 1 {
		t.Fatalf("expected 1 idle buffer, got %d", p.Idle())
	}

	again := p.Get()
	if again != buf {
		t.Error("expected the same buffer to be reused")
	}
	if again.Len() != 0 {
		t.Errorf("expected buffer to be reset, got %q", again.String())
	}
}

// TestPoolEmpty проверяет, что пустой пул создаёт разные объекты через фабрику.
func TestPoolEmpty(t *testing.T) {
	p := newBufferPool()

	a, b := p.Get(), p.Get()
	if a == nil || b == nil {
		t.Fatal("expected non-nil buffers from factory")
	}
	if a == b {
		t.Error("expected different objects from factory")
	}
}

func TestPoolMaxIdle(t *testing.T) {
	p := newBufferPool()
	p.MaxIdle = 2

	for i := 0; i < 5; i++ {
		p.Put(new(bytes.Buffer))
	}
	if p.Idle() != 2 {
		t.Errorf("expected 2 idle buffers, got %d", p.Idle())
	}
}

func TestPoolWithoutFactory(t *testing.T) {
	p := &Pool[*bytes.Buffer]{}
	if p.Get() != nil {
		t.Error("expected zero value without factory")
	}
}
