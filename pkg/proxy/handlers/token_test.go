package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenHandler(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	h := NewTokenHandler(time.Minute)
	h.now = func() time.Time { return fixed }

	req := httptest.NewRequest(http.MethodPost, "/ai/token", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp TokenResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Token != StubToken {
		t.Errorf("token = %q, want %q", resp.Token, StubToken)
	}
	if want := fixed.UnixMilli() + 60_000; resp.ExpiresAt != want {
		t.Errorf("expires_at = %d, want %d", resp.ExpiresAt, want)
	}
}

func TestTokenHandler_ExpiryIsInTheFuture(t *testing.T) {
	h := NewTokenHandler(0)

	req := httptest.NewRequest(http.MethodPost, "/ai/token", nil)
	w := httptest.NewRecorder()
	before := time.Now().UnixMilli()
	h.ServeHTTP(w, req)

	var resp TokenResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ExpiresAt < before+60_000 {
		t.Errorf("expires_at = %d, want at least %d", resp.ExpiresAt, before+60_000)
	}
}

func TestTokenHandler_MethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ai/token", nil)
	w := httptest.NewRecorder()

	NewTokenHandler(time.Minute).ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}
