package credentials

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ad4m2017/agent-cli-sub000/internal/config"
)

func TestEnsureRuntimeToken_ReusesUnexpiredToken(t *testing.T) {
	entry := config.ProviderEntry{
		Kind:             config.ProviderGitHubCopilot,
		RuntimeToken:     "still-good",
		RuntimeExpiresAt: time.Now().Add(10 * time.Minute).Format(time.RFC3339),
	}
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()
	entry.RuntimeTokenURL = server.URL

	a := NewCopilotAdapter(nil)
	updated, err := a.EnsureRuntimeToken(context.Background(), entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no network call when token still valid, got %d calls", calls)
	}
	if updated.RuntimeToken != "still-good" {
		t.Fatalf("unexpected token: %q", updated.RuntimeToken)
	}
}

func TestEnsureRuntimeToken_MintsNewTokenWhenExpired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "token access-token" {
			t.Errorf("unexpected authorization header: %q", r.Header.Get("Authorization"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token":      "fresh-runtime-token",
			"expires_at": time.Now().Add(25 * time.Minute).Unix(),
		})
	}))
	defer server.Close()

	entry := config.ProviderEntry{
		Kind:             config.ProviderGitHubCopilot,
		OAuthAccessToken: "access-token",
		RuntimeTokenURL:  server.URL,
		RuntimeExpiresAt: time.Now().Add(-time.Minute).Format(time.RFC3339),
	}

	var persisted config.ProviderEntry
	a := NewCopilotAdapter(func(e config.ProviderEntry) error {
		persisted = e
		return nil
	})
	updated, err := a.EnsureRuntimeToken(context.Background(), entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.RuntimeToken != "fresh-runtime-token" {
		t.Fatalf("unexpected token: %q", updated.RuntimeToken)
	}
	if persisted.RuntimeToken != "fresh-runtime-token" {
		t.Fatalf("expected persist callback to receive updated entry, got %+v", persisted)
	}
}

func TestEnsureRuntimeToken_RefreshesOn401ThenRetries(t *testing.T) {
	accessToken := "stale-token"
	runtimeCalls := 0

	runtimeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		runtimeCalls++
		if r.Header.Get("Authorization") != "token "+accessToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token":      "runtime-after-refresh",
			"expires_at": time.Now().Add(25 * time.Minute).Unix(),
		})
	}))
	defer runtimeServer.Close()

	oauthServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.Form.Get("grant_type") != "refresh_token" {
			t.Errorf("expected refresh_token grant, got %q", r.Form.Get("grant_type"))
		}
		accessToken = "refreshed-access-token"
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": accessToken,
			"expires_in":   3600,
		})
	}))
	defer oauthServer.Close()

	entry := config.ProviderEntry{
		Kind:              config.ProviderGitHubCopilot,
		OAuthAccessToken:  "stale-token",
		OAuthRefreshToken: "refresh-me",
		OAuthTokenURL:     oauthServer.URL,
		RuntimeTokenURL:   runtimeServer.URL,
		RuntimeExpiresAt:  time.Now().Add(-time.Minute).Format(time.RFC3339),
	}

	a := NewCopilotAdapter(func(config.ProviderEntry) error { return nil })
	updated, err := a.EnsureRuntimeToken(context.Background(), entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.RuntimeToken != "runtime-after-refresh" {
		t.Fatalf("unexpected token: %q", updated.RuntimeToken)
	}
	if updated.OAuthAccessToken != "refreshed-access-token" {
		t.Fatalf("expected refreshed access token, got %q", updated.OAuthAccessToken)
	}
	if runtimeCalls != 2 {
		t.Fatalf("expected exactly 2 runtime-token calls (fail then retry), got %d", runtimeCalls)
	}
}

func TestEnsureRuntimeToken_FailsWithoutRefreshToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	entry := config.ProviderEntry{
		Kind:             config.ProviderGitHubCopilot,
		OAuthAccessToken: "stale-token",
		RuntimeTokenURL:  server.URL,
	}

	a := NewCopilotAdapter(nil)
	_, err := a.EnsureRuntimeToken(context.Background(), entry)
	if err == nil {
		t.Fatal("expected error when no refresh token is available")
	}
}
