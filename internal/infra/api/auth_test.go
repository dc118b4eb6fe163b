//go:build !integration

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenManager_MintVerify(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Minute)

	tok, err := tm.Mint("lms-frontend")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	claims, err := tm.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Service != "lms-frontend" {
		t.Errorf("unexpected service claim %q", claims.Service)
	}

	if _, err := tm.Verify(tok + "x"); err == nil {
		t.Error("tampered token must not verify")
	}

	other := NewTokenManager("other-secret", time.Minute)
	if _, err := other.Verify(tok); err == nil {
		t.Error("token signed with a different secret must not verify")
	}
}

func TestTokenManager_Guard(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Minute)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	guarded := tm.Guard()(ok)

	t.Run("missing header -> 401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", rec.Code)
		}
	})

	t.Run("garbage token -> 403", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("want 403, got %d", rec.Code)
		}
	})

	t.Run("valid token passes", func(t *testing.T) {
		tok, _ := tm.Mint("lms-frontend")
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
	})
}
