// Package credentials resolves per-invocation API keys and base URLs for
// openai-compatible providers, and drives the hosted-editor OAuth/runtime
// token refresh state machine (spec.md 4.D).
package credentials

import (
	"net/url"
	"os"
	"strings"

	"github.com/Ad4m2017/agent-cli-sub000/internal/config"
	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
)

// Runtime is the prepared HTTP context for a single invocation: resolved
// API key/token, validated base URL, default headers, model, and provider
// name (spec.md Data Model: Runtime).
type Runtime struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Headers  map[string]string
}

// ResolveOpenAICompatible resolves the API key and base URL for an
// openai_compatible provider entry, applying the AGENT_API_KEY environment
// override and the insecure-http acceptance rules from spec.md 4.D and §6.
func ResolveOpenAICompatible(entry config.ProviderEntry, env map[string]string, allowInsecureHTTP bool) (Runtime, error) {
	apiKey := entry.APIKey
	if override, ok := env["AGENT_API_KEY"]; ok && override != "" {
		apiKey = override
	}

	baseURL, err := validateBaseURL(entry.BaseURL, allowInsecureHTTP)
	if err != nil {
		return Runtime{}, err
	}

	if apiKey == "" {
		u, _ := url.Parse(baseURL)
		if u.Scheme != "http" || !IsLocalOrPrivateHost(u.Hostname()) {
			return Runtime{}, errs.New(errs.CodeProviderNotConfigured, "empty API key is only permitted for local/private http endpoints")
		}
	}

	return Runtime{BaseURL: baseURL, APIKey: apiKey, Headers: map[string]string{}}, nil
}

// validateBaseURL enforces: must parse, scheme in {https, http}, and http is
// only permitted when the host is local/private or allowInsecureHTTP is set.
func validateBaseURL(raw string, allowInsecureHTTP bool) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errs.New(errs.CodeInvalidBaseURL, "base URL is empty")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", errs.Wrap(errs.CodeInvalidBaseURL, "base URL does not parse", err)
	}
	switch u.Scheme {
	case "https":
		return raw, nil
	case "http":
		if allowInsecureHTTP || IsLocalOrPrivateHost(u.Hostname()) {
			return raw, nil
		}
		return "", errs.New(errs.CodeInsecureBaseURL, "http base URL requires a local/private host or --allow-insecure-http")
	default:
		return "", errs.New(errs.CodeInvalidBaseURL, "base URL scheme must be http or https")
	}
}

// EnvMap captures the subset of os.Environ() the credential manager reads,
// so callers (and tests) can inject a synthetic environment.
func EnvMap() map[string]string {
	m := make(map[string]string, 8)
	for _, key := range []string{"AGENT_API_KEY"} {
		if v, ok := os.LookupEnv(key); ok {
			m[key] = v
		}
	}
	return m
}
