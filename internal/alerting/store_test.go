package alerting

import (
	"sync"
	"testing"
	"time"

	"github.com/levinOo/go-telemetry-project/internal/models"
)

type chanNotifier chan models.Alert

func (c chanNotifier) Notify(a models.Alert) { c <- a }

type panicNotifier struct{}

func (panicNotifier) Notify(models.Alert) { panic("boom") }

// blockingNotifier сообщает о начале доставки и ждёт release.
type blockingNotifier struct {
	started chan int64
	release chan struct{}

	mu  sync.Mutex
	ids []int64
}

func (b *blockingNotifier) Notify(a models.Alert) {
	b.started <- a.ID
	<-b.release
	b.mu.Lock()
	b.ids = append(b.ids, a.ID)
	b.mu.Unlock()
}

func TestConcurrentRaiseUniqueIDs(t *testing.T) {
	store := NewStore(nil, nil)

	var wg sync.WaitGroup
	for w := 0; w < 10; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				store.Raise(models.SeverityInfo, "x", "/x", nil)
			}
		}()
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for _, a := range store.All() {
		if seen[a.ID] {
			t.Fatalf("duplicate id %d", a.ID)
		}
		seen[a.ID] = true
	}
	if len(seen) != 500 {
		t.Fatalf("expected 500 alerts, got %d", len(seen))
	}
	for id := int64(1); id <= 500; id++ {
		if !seen[id] {
			t.Errorf("missing id %d", id)
		}
	}
}

func TestAcknowledgeIdempotent(t *testing.T) {
	store := NewStore(func() time.Time { return ts }, nil)
	a := store.Raise(models.SeverityWarning, "slow", "/a", nil)
	b := store.Raise(models.SeverityCritical, "down", "/b", nil)

	if b.ID <= a.ID {
		t.Fatalf("ids must increase: %d then %d", a.ID, b.ID)
	}

	if !store.Acknowledge(a.ID) {
		t.Fatal("expected known alert")
	}
	before := store.All()

	if !store.Acknowledge(a.ID) {
		t.Fatal("expected known alert on second acknowledge")
	}
	if store.Acknowledge(9999) {
		t.Error("unknown id must report false")
	}

	after := store.All()
	for i := range before {
		if before[i].Acknowledged != after[i].Acknowledged {
			t.Errorf("state changed on repeated acknowledge: %+v -> %+v", before[i], after[i])
		}
	}

	active := store.Active()
	if len(active) != 1 || active[0].ID != b.ID {
		t.Errorf("unexpected active alerts: %+v", active)
	}
	if len(after) != 2 {
		t.Errorf("acknowledged alert must stay in the store")
	}
}

func TestPruneAcknowledged(t *testing.T) {
	clock := ts
	store := NewStore(func() time.Time { return clock }, nil)

	old := store.Raise(models.SeverityInfo, "old acked", "/a", nil)
	oldActive := store.Raise(models.SeverityInfo, "old active", "/a", nil)
	clock = ts.Add(10 * 24 * time.Hour)
	fresh := store.Raise(models.SeverityInfo, "fresh acked", "/a", nil)

	store.Acknowledge(old.ID)
	store.Acknowledge(fresh.ID)

	if removed := store.PruneAcknowledged(ts.Add(7 * 24 * time.Hour)); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	all := store.All()
	if len(all) != 2 || all[0].ID != oldActive.ID || all[1].ID != fresh.ID {
		t.Fatalf("unexpected alerts after prune: %+v", all)
	}

	// индекс перестроен: подтверждение оставшихся алертов работает
	if !store.Acknowledge(oldActive.ID) {
		t.Error("expected remaining alert to be found")
	}
	if store.Acknowledge(old.ID) {
		t.Error("pruned alert must be unknown")
	}
}

func TestStoreNotifiesInOrder(t *testing.T) {
	store := NewStore(nil, nil)
	ch := make(chanNotifier, 10)
	store.Subscribe(panicNotifier{})
	store.Subscribe(ch)

	var raised []int64
	for i := 0; i < 5; i++ {
		raised = append(raised, store.Raise(models.SeverityError, "boom", "/x", map[string]any{"i": i}).ID)
	}

	for _, want := range raised {
		select {
		case got := <-ch:
			if got.ID != want {
				t.Fatalf("expected alert %d, got %d", want, got.ID)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("alert %d was not delivered", want)
		}
	}
	store.Close()
}

func TestStoreDropsWhenQueueIsFull(t *testing.T) {
	store := NewStore(nil, nil)
	store.queueSize = 1
	n := &blockingNotifier{started: make(chan int64, 10), release: make(chan struct{})}
	store.Subscribe(n)

	first := store.Raise(models.SeverityCritical, "a", "/x", nil)
	select {
	case <-n.started:
	case <-time.After(2 * time.Second):
		t.Fatal("delivery did not start")
	}

	second := store.Raise(models.SeverityCritical, "b", "/x", nil)
	store.Raise(models.SeverityCritical, "c", "/x", nil)

	if got := store.Dropped(); got != 1 {
		t.Errorf("expected 1 dropped notification, got %d", got)
	}
	if got := len(store.All()); got != 3 {
		t.Errorf("dropped notification must not drop the alert, got %d stored", got)
	}

	close(n.release)
	store.Close()

	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.ids) != 2 || n.ids[0] != first.ID || n.ids[1] != second.ID {
		t.Errorf("unexpected delivered ids: %v", n.ids)
	}
}

func TestStoreCloseDrainsQueue(t *testing.T) {
	store := NewStore(nil, nil)
	ch := make(chanNotifier, 10)
	store.Subscribe(ch)

	store.Raise(models.SeverityWarning, "a", "/x", nil)
	store.Raise(models.SeverityWarning, "b", "/x", nil)
	store.Close()
	store.Close()

	if len(ch) != 2 {
		t.Fatalf("queued alerts must be delivered before Close returns, got %d", len(ch))
	}

	store.Raise(models.SeverityWarning, "after close", "/x", nil)
	store.Subscribe(make(chanNotifier, 1))
	if len(ch) != 2 {
		t.Errorf("alerts raised after Close must not be delivered")
	}
	if got := len(store.All()); got != 3 {
		t.Errorf("alerts raised after Close must still be stored, got %d", got)
	}
}
