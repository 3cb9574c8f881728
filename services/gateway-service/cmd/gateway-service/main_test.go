package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agusroldan/turnospro/libs/auth"
)

func signTestToken(t *testing.T, secret string, claims auth.Claims) string {
	t.Helper()
	token, err := auth.SignHS256(claims, secret)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	return token
}

func TestRequireAuthHS256(t *testing.T) {
	secret := "test-secret"
	claims := auth.Claims{
		Sub:      "user-1",
		Email:    "ana@example.com",
		FullName: "Ana Gomez",
		UserType: "employer",
		Iat:      time.Now().Unix(),
		Exp:      time.Now().Add(1 * time.Hour).Unix(),
	}
	token := signTestToken(t, secret, claims)

	h := requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-User-Id") != claims.Sub {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.Header.Get("X-User-Type") != claims.UserType {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.Header.Get("X-User-Name") != claims.FullName {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.Header.Get("X-User-Email") != claims.Email {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}), secret, nil)

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}

	reqBad := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	reqBad.Header.Set("Authorization", "Bearer badtoken")
	rwBad := httptest.NewRecorder()
	h.ServeHTTP(rwBad, reqBad)
	if rwBad.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rwBad.Code)
	}

	reqMissing := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	rwMissing := httptest.NewRecorder()
	h.ServeHTTP(rwMissing, reqMissing)
	if rwMissing.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rwMissing.Code)
	}
}

func TestRequireAuthStripsSpoofedHeaders(t *testing.T) {
	secret := "test-secret"
	token := signTestToken(t, secret, auth.Claims{
		Sub:      "user-1",
		UserType: "client",
		Iat:      time.Now().Unix(),
		Exp:      time.Now().Add(1 * time.Hour).Unix(),
	})

	h := requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-User-Id") != "user-1" || r.Header.Get("X-User-Type") != "client" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}), secret, nil)

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-User-Id", "someone-else")
	req.Header.Set("X-User-Type", "employer")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected spoofed headers replaced, got %d", rw.Code)
	}
}

func TestOptionalAuth(t *testing.T) {
	secret := "test-secret"

	h := optionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-User", r.Header.Get("X-User-Id"))
		w.WriteHeader(http.StatusOK)
	}), secret, nil)

	// Anonymous requests pass through with no identity.
	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set("X-User-Id", "spoofed")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if got := rw.Header().Get("X-Seen-User"); got != "" {
		t.Fatalf("expected no forwarded identity, got %q", got)
	}

	// A valid token forwards identity.
	token := signTestToken(t, secret, auth.Claims{
		Sub:      "user-9",
		UserType: "employer",
		Iat:      time.Now().Unix(),
		Exp:      time.Now().Add(1 * time.Hour).Unix(),
	})
	reqAuthed := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	reqAuthed.Header.Set("Authorization", "Bearer "+token)
	rwAuthed := httptest.NewRecorder()
	h.ServeHTTP(rwAuthed, reqAuthed)
	if got := rwAuthed.Header().Get("X-Seen-User"); got != "user-9" {
		t.Fatalf("expected forwarded identity user-9, got %q", got)
	}

	// A broken token is rejected rather than downgraded to anonymous.
	reqBad := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	reqBad.Header.Set("Authorization", "Bearer nope")
	rwBad := httptest.NewRecorder()
	h.ServeHTTP(rwBad, reqBad)
	if rwBad.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rwBad.Code)
	}
}
