package notify

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/levinOo/go-telemetry-project/internal/models"
	"github.com/mailru/easyjson"
)

func testAlert(id int64) models.Alert {
	return models.Alert{
		ID:        id,
		Level:     models.SeverityCritical,
		Message:   "Critical response time in /coins: 3.50s",
		Source:    "/coins",
		Timestamp: time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC),
		Data:      map[string]any{"threshold": 3.0},
	}
}

func TestFileNotifierAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.json")
	n := NewFileNotifier(path, nil)

	n.Notify(testAlert(1))
	n.Notify(testAlert(2))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}

	var list models.AlertList
	if err := easyjson.Unmarshal(data, &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(list.Alerts) != 2 || list.Alerts[0].ID != 1 || list.Alerts[1].ID != 2 {
		t.Fatalf("unexpected alerts in file: %+v", list.Alerts)
	}
	if list.Alerts[0].Source != "/coins" || list.Alerts[0].Level != models.SeverityCritical {
		t.Errorf("unexpected alert content: %+v", list.Alerts[0])
	}
}

func TestFileNotifierEmptyPath(t *testing.T) {
	n := NewFileNotifier("", nil)
	n.Notify(testAlert(1))
}

func TestFileNotifierCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	NewFileNotifier(path, nil).Notify(testAlert(1))

	data, _ := os.ReadFile(path)
	if string(data) != "not json" {
		t.Error("corrupt file must be left untouched")
	}
}

func TestURLNotifierSignsBody(t *testing.T) {
	var (
		mu     sync.Mutex
		body   []byte
		header string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		body, _ = io.ReadAll(r.Body)
		header = r.Header.Get(HashHeader)
		rw.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewURLNotifier(srv.URL, "secret", time.Second, nil)
	if err := n.send(testAlert(7)); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	var got models.Alert
	if err := easyjson.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if got.ID != 7 {
		t.Errorf("unexpected alert id %d", got.ID)
	}
	if header != Sign(body, "secret") {
		t.Errorf("signature mismatch: %q", header)
	}
}

func TestURLNotifierServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewURLNotifier(srv.URL, "", time.Second, nil)
	if err := n.send(testAlert(1)); err == nil {
		t.Error("expected error on 502")
	}

	// Notify проглатывает ошибку
	n.Notify(testAlert(2))
}

type countingNotifier struct {
	mu    sync.Mutex
	count int
}

func (c *countingNotifier) Notify(models.Alert) {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
}

func TestDispatcherFanOut(t *testing.T) {
	a, b := &countingNotifier{}, &countingNotifier{}
	d := NewDispatcher(a)
	d.Register(b)

	d.Notify(testAlert(1))
	d.Notify(testAlert(2))

	if d.Len() != 2 || a.count != 2 || b.count != 2 {
		t.Errorf("unexpected fan-out: len=%d a=%d b=%d", d.Len(), a.count, b.count)
	}
}

func TestSign(t *testing.T) {
	// HMAC-SHA256("", key "") известен заранее
	const want = "b613679a0814d9ec772f95d778c35fc5ff1697c493715653c6c712144292c5ad"
	if got := Sign(nil, ""); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
