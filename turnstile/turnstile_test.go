// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package turnstile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVerifyUnconfiguredAllows(t *testing.T) {
	v := New("")
	// Endpoint is never contacted with no secret; an unreachable address
	// would fail the test if it were
	v.endpoint = "http://127.0.0.1:1"

	if !v.Verify(context.Background(), "any-token", "203.0.113.7") {
		t.Error("Verify() with empty secret = false, want true")
	}
}

func TestVerifyOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"success", http.StatusOK, `{"success":true}`, true},
		{"explicit rejection", http.StatusOK, `{"success":false,"error-codes":["invalid-input-response"]}`, false},
		{"server error", http.StatusInternalServerError, `boom`, false},
		{"unreadable body", http.StatusOK, `not json`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("method = %s, want POST", r.Method)
				}
				if err := r.ParseForm(); err != nil {
					t.Fatalf("ParseForm() error = %v", err)
				}
				if got := r.PostForm.Get("secret"); got != "test-secret" {
					t.Errorf("secret = %q, want %q", got, "test-secret")
				}
				if got := r.PostForm.Get("response"); got != "client-token" {
					t.Errorf("response = %q, want %q", got, "client-token")
				}
				if got := r.PostForm.Get("remoteip"); got != "203.0.113.7" {
					t.Errorf("remoteip = %q, want %q", got, "203.0.113.7")
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			v := New("test-secret")
			v.endpoint = srv.URL

			if got := v.Verify(context.Background(), "client-token", "203.0.113.7"); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerifyNetworkFailureAllows(t *testing.T) {
	v := New("test-secret")
	// Nothing listens here
	v.endpoint = "http://127.0.0.1:1"

	if !v.Verify(context.Background(), "client-token", "") {
		t.Error("Verify() on unreachable endpoint = false, want true (fail open)")
	}
}
