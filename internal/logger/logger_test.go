package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoggingRW(t *testing.T) {
	rec := httptest.NewRecorder()
	lw := NewLoggingRW(rec)

	lw.WriteHeader(http.StatusTeapot)
	lw.WriteHeader(http.StatusOK)
	lw.Write([]byte("hello"))
	lw.Write([]byte(" world"))

	if lw.StatusCode() != http.StatusTeapot {
		t.Errorf("status = %d, want %d", lw.StatusCode(), http.StatusTeapot)
	}
	if lw.ResponseData.Size != 11 {
		t.Errorf("size = %d, want 11", lw.ResponseData.Size)
	}
}

func TestLoggingRWImplicitOK(t *testing.T) {
	lw := NewLoggingRW(httptest.NewRecorder())
	if lw.StatusCode() != http.StatusOK {
		t.Errorf("empty response status = %d", lw.StatusCode())
	}

	lw.Write([]byte("x"))
	if lw.ResponseData.Status != http.StatusOK {
		t.Errorf("status after write = %d", lw.ResponseData.Status)
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := NewLogger("debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewLogger(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewLogger("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
