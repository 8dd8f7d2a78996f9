package credentials

import (
	"testing"

	"github.com/Ad4m2017/agent-cli-sub000/internal/config"
	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
)

func TestResolveOpenAICompatible_EnvOverridesStoredKey(t *testing.T) {
	entry := config.ProviderEntry{Kind: config.ProviderOpenAICompatible, BaseURL: "https://api.openai.com/v1", APIKey: "stored"}
	rt, err := ResolveOpenAICompatible(entry, map[string]string{"AGENT_API_KEY": "env-key"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rt.APIKey != "env-key" {
		t.Fatalf("expected env override, got %q", rt.APIKey)
	}
}

func TestResolveOpenAICompatible_EmptyKeyAllowedForLocalHTTP(t *testing.T) {
	entry := config.ProviderEntry{Kind: config.ProviderOpenAICompatible, BaseURL: "http://localhost:11434/v1", APIKey: ""}
	rt, err := ResolveOpenAICompatible(entry, nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rt.APIKey != "" {
		t.Fatalf("expected empty key to pass through, got %q", rt.APIKey)
	}
}

func TestResolveOpenAICompatible_EmptyKeyRejectedForRemoteHost(t *testing.T) {
	entry := config.ProviderEntry{Kind: config.ProviderOpenAICompatible, BaseURL: "https://api.example.com/v1", APIKey: ""}
	_, err := ResolveOpenAICompatible(entry, nil, false)
	if errs.CodeOf(err, "") != errs.CodeProviderNotConfigured {
		t.Fatalf("expected CodeProviderNotConfigured, got %v", err)
	}
}

func TestValidateBaseURL_HTTPRemoteWithoutFlagRejected(t *testing.T) {
	_, err := validateBaseURL("http://example.com/v1", false)
	if errs.CodeOf(err, "") != errs.CodeInsecureBaseURL {
		t.Fatalf("expected CodeInsecureBaseURL, got %v", err)
	}
}

func TestValidateBaseURL_HTTPRemoteWithFlagAllowed(t *testing.T) {
	url, err := validateBaseURL("http://example.com/v1", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "http://example.com/v1" {
		t.Fatalf("unexpected url: %q", url)
	}
}

func TestValidateBaseURL_InvalidSchemeRejected(t *testing.T) {
	_, err := validateBaseURL("ftp://example.com", false)
	if errs.CodeOf(err, "") != errs.CodeInvalidBaseURL {
		t.Fatalf("expected CodeInvalidBaseURL, got %v", err)
	}
}

func TestValidateBaseURL_UnparsableRejected(t *testing.T) {
	_, err := validateBaseURL("::not a url::", false)
	if errs.CodeOf(err, "") != errs.CodeInvalidBaseURL {
		t.Fatalf("expected CodeInvalidBaseURL, got %v", err)
	}
}
