package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
)

// ProviderKind tags which variant a ProviderEntry is.
type ProviderKind string

const (
	ProviderOpenAICompatible ProviderKind = "openai_compatible"
	ProviderGitHubCopilot    ProviderKind = "github_copilot"
)

// ProviderEntry is a tagged-variant credential record for one provider
// (spec.md Data Model: ProviderEntry).
type ProviderEntry struct {
	Kind ProviderKind `json:"kind"`

	// openai_compatible fields.
	BaseURL string `json:"baseUrl,omitempty"`
	APIKey  string `json:"apiKey,omitempty"`

	// github_copilot fields.
	OAuthAccessToken  string            `json:"oauthAccessToken,omitempty"`
	OAuthRefreshToken string            `json:"oauthRefreshToken,omitempty"`
	OAuthExpiresAt    string            `json:"oauthExpiresAt,omitempty"`
	RuntimeToken      string            `json:"runtimeToken,omitempty"`
	RuntimeExpiresAt  string            `json:"runtimeExpiresAt,omitempty"`
	OAuthTokenURL     string            `json:"oauthTokenUrl,omitempty"`
	RuntimeTokenURL   string            `json:"runtimeTokenUrl,omitempty"`
	APIBaseURL        string            `json:"apiBaseUrl,omitempty"`
	ClientID          string            `json:"clientId,omitempty"`
	ExtraHeaders      map[string]string `json:"extraHeaders,omitempty"`
}

// CredentialStore is the persisted provider-credentials document
// (spec.md Data Model: CredentialStore).
type CredentialStore struct {
	Version         int                      `json:"version"`
	DefaultProvider string                   `json:"defaultProvider,omitempty"`
	DefaultModel    string                   `json:"defaultModel,omitempty"`
	Providers       map[string]ProviderEntry `json:"providers"`
}

// LoadCredentials loads the credentials document at path. A missing file
// returns (nil, nil). Invalid JSON fails with CodeAuthInvalid; filesystem
// errors (directory, unreadable parent) fail with CodeAuthError.
func LoadCredentials(path string) (*CredentialStore, error) {
	if path == "" {
		return nil, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.CodeAuthError, "cannot stat auth config path", err)
	}
	if info.IsDir() {
		return nil, errs.New(errs.CodeAuthError, "auth config path is a directory")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.CodeAuthError, "cannot read auth config file", err)
	}

	var store CredentialStore
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, errs.Wrap(errs.CodeAuthInvalid, "auth config file is not valid JSON", err)
	}
	if store.Providers == nil {
		store.Providers = map[string]ProviderEntry{}
	}
	return &store, nil
}

// SaveCredentials atomically persists store to path: a sibling temp file
// (pid+time+random suffix) is written, fsynced, and renamed over the target,
// then chmod'd to 0600 (spec.md 4.B, CredentialStore invariant). On any
// failure the temp file is best-effort removed.
func SaveCredentials(path string, store *CredentialStore) error {
	if path == "" {
		return errs.New(errs.CodeAuthError, "auth config path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errs.Wrap(errs.CodeAuthError, "cannot create auth config directory", err)
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return errs.Wrap(errs.CodeAuthError, "cannot encode auth config", err)
	}
	data = append(data, '\n')

	tmp := filepath.Join(filepath.Dir(path), fmt.Sprintf(".%s.tmp.%d.%d.%s",
		filepath.Base(path), os.Getpid(), time.Now().UnixNano(), uuid.NewString()[:8]))

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errs.Wrap(errs.CodeAuthError, "cannot create temp auth config file", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return errs.Wrap(errs.CodeAuthError, "cannot write temp auth config file", err)
	}
	if syncErr := f.Sync(); syncErr != nil {
		f.Close()
		os.Remove(tmp)
		return errs.Wrap(errs.CodeAuthError, "cannot fsync temp auth config file", syncErr)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errs.Wrap(errs.CodeAuthError, "cannot close temp auth config file", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errs.Wrap(errs.CodeAuthError, "cannot rename temp auth config file into place", err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		return errs.Wrap(errs.CodeAuthError, "cannot chmod auth config file", err)
	}
	return nil
}
