package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
)

func TestLoadCredentials_MissingFileReturnsNil(t *testing.T) {
	dir := t.TempDir()
	store, err := LoadCredentials(filepath.Join(dir, "auth.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store != nil {
		t.Fatalf("expected nil store, got %+v", store)
	}
}

func TestLoadCredentials_EmptyPathReturnsNil(t *testing.T) {
	store, err := LoadCredentials("")
	if err != nil || store != nil {
		t.Fatalf("expected (nil, nil), got (%+v, %v)", store, err)
	}
}

func TestLoadCredentials_InvalidJSONFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.json")
	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadCredentials(path)
	if errs.CodeOf(err, "") != errs.CodeAuthInvalid {
		t.Fatalf("expected CodeAuthInvalid, got %v", err)
	}
}

func TestLoadCredentials_DirectoryPathFails(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadCredentials(dir)
	if errs.CodeOf(err, "") != errs.CodeAuthError {
		t.Fatalf("expected CodeAuthError, got %v", err)
	}
}

func TestSaveAndLoadCredentials_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "auth.json")

	store := &CredentialStore{
		Version:         1,
		DefaultProvider: "openai",
		Providers: map[string]ProviderEntry{
			"openai": {
				Kind:    ProviderOpenAICompatible,
				BaseURL: "https://api.openai.com/v1",
				APIKey:  "sk-test",
			},
			"copilot": {
				Kind:              ProviderGitHubCopilot,
				OAuthAccessToken:  "oauth-token",
				OAuthRefreshToken: "refresh-token",
			},
		},
	}

	if err := SaveCredentials(path, store); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0600 {
			t.Fatalf("expected mode 0600, got %v", info.Mode().Perm())
		}
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "auth.json" {
			t.Fatalf("expected only the final file to remain, found leftover %q", e.Name())
		}
	}

	loaded, err := LoadCredentials(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Providers["openai"].APIKey != "sk-test" {
		t.Fatalf("round trip mismatch: %+v", loaded.Providers["openai"])
	}
	if loaded.Providers["copilot"].OAuthRefreshToken != "refresh-token" {
		t.Fatalf("round trip mismatch: %+v", loaded.Providers["copilot"])
	}
}

func TestSaveCredentials_EmptyPathFails(t *testing.T) {
	err := SaveCredentials("", &CredentialStore{})
	if errs.CodeOf(err, "") != errs.CodeAuthError {
		t.Fatalf("expected CodeAuthError, got %v", err)
	}
}
