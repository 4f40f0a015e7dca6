package ringlog

import (
	"sync"
	"testing"
	"time"
)

type entry struct {
	n  int
	ts time.Time
}

func (e entry) GetTimestamp() time.Time { return e.ts }

var base = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func fill(r *RingLog[entry], count int) {
	for i := 0; i < count; i++ {
		r.Append(entry{n: i, ts: base.Add(time.Duration(i) * time.Second)})
	}
}

// TestSnapshotKeepsLastN проверяет, что после переполнения остаются последние N элементов по порядку.
func TestSnapshotKeepsLastN(t *testing.T) {
	r := New[entry](5)
	fill(r, 12)

	got := r.Snapshot(0)
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i, e := range got {
		if want := 7 + i; e.n != want {
			t.Errorf("item %d: got %d, want %d", i, e.n, want)
		}
	}

	if r.Len() != 5 || r.Cap() != 5 {
		t.Errorf("expected len=cap=5, got len=%d cap=%d", r.Len(), r.Cap())
	}
}

func TestSnapshotLimit(t *testing.T) {
	r := New[entry](10)
	fill(r, 4)

	got := r.Snapshot(2)
	if len(got) != 2 || got[0].n != 2 || got[1].n != 3 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}

	if got := r.Snapshot(100); len(got) != 4 {
		t.Errorf("expected 4 items when limit exceeds size, got %d", len(got))
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	r := New[entry](3)
	fill(r, 3)

	got := r.Snapshot(0)
	got[0].n = 100

	if again := r.Snapshot(0); again[0].n != 0 {
		t.Errorf("snapshot mutation leaked into buffer: %+v", again)
	}
}

func TestFilterSince(t *testing.T) {
	r := New[entry](10)
	fill(r, 10)

	got := r.FilterSince(base.Add(6 * time.Second))
	if len(got) != 4 {
		t.Fatalf("expected 4 items, got %d", len(got))
	}
	if got[0].n != 6 || got[3].n != 9 {
		t.Errorf("unexpected items: %+v", got)
	}
}

func TestPrune(t *testing.T) {
	r := New[entry](4)
	fill(r, 6) // в буфере 2..5

	removed := r.Prune(base.Add(3 * time.Second))
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}

	got := r.Snapshot(0)
	if len(got) != 2 || got[0].n != 4 || got[1].n != 5 {
		t.Fatalf("unexpected items after prune: %+v", got)
	}

	// после перестройки буфер продолжает работать как кольцо
	fill(r, 3)
	if r.Len() != 4 {
		t.Errorf("expected full buffer, got %d", r.Len())
	}
	if last, ok := r.Last(); !ok || last.n != 2 {
		t.Errorf("unexpected last item: %+v", last)
	}
}

func TestZeroCapacity(t *testing.T) {
	r := New[entry](0)
	fill(r, 3)

	if _, ok := r.Last(); !ok {
		t.Fatal("expected last item")
	}
	if r.Cap() != 1 {
		t.Errorf("expected capacity 1, got %d", r.Cap())
	}
}

func TestEmpty(t *testing.T) {
	r := New[entry](3)
	if got := r.Snapshot(0); len(got) != 0 {
		t.Errorf("expected empty snapshot, got %d items", len(got))
	}
	if _, ok := r.Last(); ok {
		t.Error("expected no last item")
	}
}

func TestConcurrentAppend(t *testing.T) {
	r := New[entry](100)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				r.Append(entry{n: i, ts: time.Now()})
				_ = r.Snapshot(10)
			}
		}()
	}
	wg.Wait()

	if r.Len() != 100 {
		t.Errorf("expected full buffer, got %d", r.Len())
	}
}
