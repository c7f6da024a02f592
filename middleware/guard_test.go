package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrEthical07/authcore"
)

type stubResolver map[string]string

func (s stubResolver) SessionUser(_ context.Context, token string) (string, error) {
	if token == "down" {
		return "", fmt.Errorf("%w: redis: connection refused", authcore.ErrStoreUnavailable)
	}
	uid, ok := s[token]
	if !ok {
		return "", authcore.ErrSessionNotFound
	}
	return uid, nil
}

func TestGuard(t *testing.T) {
	resolver := stubResolver{"good": "42"}

	var seen Principal
	h := Guard(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			t.Fatal("expected principal in context")
		}
		seen = p
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid", header: "Bearer good", want: http.StatusNoContent},
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", want: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", want: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "backend down", header: "Bearer down", want: http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}

	if seen.UserID != "42" || seen.Token != "good" {
		t.Fatalf("unexpected principal: %+v", seen)
	}
}

func TestGuardNilResolver(t *testing.T) {
	h := Guard(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer x")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGuardWithErrorsRendersRejections(t *testing.T) {
	var got []error
	onError := func(w http.ResponseWriter, _ *http.Request, err error) {
		got = append(got, err)
		w.WriteHeader(http.StatusTeapot)
	}
	h := GuardWithErrors(stubResolver{"good": "42"}, onError)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, header := range []string{"", "Bearer nope", "Bearer down", "Bearer good"} {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		want := http.StatusTeapot
		if header == "Bearer good" {
			want = http.StatusNoContent
		}
		if rec.Code != want {
			t.Fatalf("%q: expected %d, got %d", header, want, rec.Code)
		}
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 rejections, got %v", got)
	}
	if !errors.Is(got[0], authcore.ErrSessionNotFound) || !errors.Is(got[1], authcore.ErrSessionNotFound) {
		t.Fatalf("expected session not found for missing and unknown tokens, got %v", got)
	}
	if !errors.Is(got[2], authcore.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable for backend failure, got %v", got[2])
	}
}
