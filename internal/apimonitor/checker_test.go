package apimonitor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/levinOo/go-telemetry-project/internal/models"
)

type recordedCall struct {
	endpoint string
	status   int
	apiCalls int
}

type recordedError struct {
	endpoint string
	kind     models.ErrorKind
}

type fakeRecorder struct {
	mu     sync.Mutex
	calls  []recordedCall
	errors []recordedError
}

func (f *fakeRecorder) RecordCall(endpoint, _ string, _ map[string]any, _ float64, status int, _ bool, apiCalls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{endpoint, status, apiCalls})
}

func (f *fakeRecorder) RecordError(endpoint string, kind models.ErrorKind, _ string, _ map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, recordedError{endpoint, kind})
}

func TestCheck(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	rec := &fakeRecorder{}
	c := NewChecker(map[string]string{"coinstats": healthy.URL, "news": broken.URL}, rec, time.Second, nil)

	results := c.CheckAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].API != "coinstats" || results[0].Status != StatusHealthy {
		t.Errorf("unexpected result: %+v", results[0])
	}
	if results[1].API != "news" || results[1].Status != StatusUnhealthy || results[1].StatusCode != 503 {
		t.Errorf("unexpected result: %+v", results[1])
	}

	if len(rec.calls) != 2 || len(rec.errors) != 0 {
		t.Fatalf("unexpected recordings: %+v %+v", rec.calls, rec.errors)
	}
	for _, call := range rec.calls {
		if call.apiCalls != 1 {
			t.Errorf("expected one api call recorded: %+v", call)
		}
	}

	if last := c.Last(); len(last) != 2 {
		t.Errorf("expected last results for both apis, got %+v", last)
	}
}

func TestCheckTimeoutRecordsError(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)

	rec := &fakeRecorder{}
	c := NewChecker(map[string]string{"slow": slow.URL}, rec, 20*time.Millisecond, nil)

	r, err := c.Check(context.Background(), "slow")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Status != StatusError || r.Error == "" {
		t.Errorf("unexpected result: %+v", r)
	}
	if len(rec.errors) != 1 || rec.errors[0].kind != models.ErrorKindTimeout || rec.errors[0].endpoint != "external:slow" {
		t.Errorf("unexpected recorded errors: %+v", rec.errors)
	}
	want := recordedCall{endpoint: "external:slow", status: 0, apiCalls: 1}
	if len(rec.calls) != 1 || rec.calls[0] != want {
		t.Errorf("failed transport must be counted as a call, got %+v", rec.calls)
	}
}

func TestCheckCancelledIsNotRecorded(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)

	rec := &fakeRecorder{}
	c := NewChecker(map[string]string{"coins": slow.URL}, rec, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	results := c.CheckAll(ctx)
	if len(results) != 1 || results[0].Status != StatusError {
		t.Fatalf("unexpected results: %+v", results)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.errors) != 0 || len(rec.calls) != 0 {
		t.Errorf("cancelled check must not be recorded, got errors=%+v calls=%+v", rec.errors, rec.calls)
	}
	if last := c.Last(); len(last) != 0 {
		t.Errorf("cancelled check must not replace last result, got %+v", last)
	}
}

func TestCheckConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	rec := &fakeRecorder{}
	c := NewChecker(map[string]string{"gone": url}, rec, time.Second, nil)

	if _, err := c.Check(context.Background(), "gone"); err != nil {
		t.Fatal(err)
	}
	if len(rec.errors) != 1 || rec.errors[0].kind != models.ErrorKindConnection {
		t.Errorf("unexpected recorded errors: %+v", rec.errors)
	}
	if len(rec.calls) != 1 || rec.calls[0].status != 0 || rec.calls[0].apiCalls != 1 {
		t.Errorf("unexpected recorded calls: %+v", rec.calls)
	}
}

func TestCheckUnknown(t *testing.T) {
	c := NewChecker(nil, &fakeRecorder{}, time.Second, nil)
	if _, err := c.Check(context.Background(), "missing"); !errors.Is(err, ErrUnknownAPI) {
		t.Errorf("expected ErrUnknownAPI, got %v", err)
	}
}
