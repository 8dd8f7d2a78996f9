package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Ad4m2017/agent-cli-sub000/internal/config"
	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
	"golang.org/x/oauth2"
)

// Built-in defaults for the hosted-editor (GitHub Copilot-style) adapter,
// used whenever a ProviderEntry omits the corresponding field.
const (
	DefaultCopilotClientID        = "Iv1.b507a08c87ecfe98"
	DefaultCopilotOAuthTokenURL   = "https://github.com/login/oauth/access_token"
	DefaultCopilotRuntimeTokenURL = "https://api.github.com/copilot_internal/v2/token"
	DefaultCopilotAPIBaseURL      = "https://api.githubcopilot.com"
	DefaultEditorVersion          = "agent-cli/1.0.0"
	DefaultPluginVersion          = "agent-cli/1.0.0"
	DefaultUserAgent              = "agent-cli"
)

// CopilotAdapter drives the hosted-editor OAuth/runtime-token state machine.
// Persist, if non-nil, is called after every successful token mutation so the
// caller can atomically save the owning CredentialStore.
type CopilotAdapter struct {
	HTTPClient *http.Client
	Persist    func(entry config.ProviderEntry) error
}

// NewCopilotAdapter returns an adapter using http.DefaultClient.
func NewCopilotAdapter(persist func(config.ProviderEntry) error) *CopilotAdapter {
	return &CopilotAdapter{HTTPClient: http.DefaultClient, Persist: persist}
}

// EnsureRuntimeToken implements the 4-step state machine from spec.md 4.D:
// reuse a still-valid runtime token, otherwise mint one, refreshing the
// OAuth access token on a single 401 and retrying once.
func (a *CopilotAdapter) EnsureRuntimeToken(ctx context.Context, entry config.ProviderEntry) (config.ProviderEntry, error) {
	entry = applyCopilotDefaults(entry)

	if entry.RuntimeToken != "" {
		if exp, ok := parseTime(entry.RuntimeExpiresAt); ok && exp.After(time.Now().Add(60*time.Second)) {
			return entry, nil
		}
	}

	updated, status, err := a.fetchRuntimeToken(ctx, entry)
	if err == nil {
		return a.persist(updated)
	}
	if status != http.StatusUnauthorized || entry.OAuthRefreshToken == "" {
		return entry, errs.Wrap(errs.CodeAuthError, "hosted-editor runtime token request failed; re-authenticate", err)
	}

	refreshed, refreshErr := a.refreshOAuthToken(ctx, entry)
	if refreshErr != nil {
		return entry, errs.Wrap(errs.CodeAuthError, "hosted-editor OAuth refresh failed; re-authenticate", refreshErr)
	}
	refreshed, err = a.persist(refreshed)
	if err != nil {
		return entry, err
	}

	final, _, err := a.fetchRuntimeToken(ctx, refreshed)
	if err != nil {
		return refreshed, errs.Wrap(errs.CodeAuthError, "hosted-editor runtime token request failed after refresh; re-authenticate", err)
	}
	return a.persist(final)
}

func (a *CopilotAdapter) persist(entry config.ProviderEntry) (config.ProviderEntry, error) {
	if a.Persist == nil {
		return entry, nil
	}
	if err := a.Persist(entry); err != nil {
		return entry, err
	}
	return entry, nil
}

func (a *CopilotAdapter) fetchRuntimeToken(ctx context.Context, entry config.ProviderEntry) (config.ProviderEntry, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry.RuntimeTokenURL, nil)
	if err != nil {
		return entry, 0, err
	}
	req.Header.Set("Authorization", "token "+entry.OAuthAccessToken)
	applyExtraHeaders(req, entry)

	resp, err := a.client().Do(req)
	if err != nil {
		return entry, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return entry, resp.StatusCode, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return entry, resp.StatusCode, fmt.Errorf("runtime token endpoint returned status %d", resp.StatusCode)
	}

	var payload struct {
		Token       string `json:"token"`
		ExpiresAt   any    `json:"expires_at"`
		ExpiresAtMs any    `json:"expires_at_ms"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return entry, resp.StatusCode, err
	}
	if payload.Token == "" {
		return entry, resp.StatusCode, fmt.Errorf("runtime token endpoint response missing token")
	}

	entry.RuntimeToken = payload.Token
	if exp, ok := epochSecondsFromAny(payload.ExpiresAt); ok {
		entry.RuntimeExpiresAt = exp.Format(time.RFC3339)
	} else if expMs, ok := epochMillisFromAny(payload.ExpiresAtMs); ok {
		entry.RuntimeExpiresAt = expMs.Format(time.RFC3339)
	} else {
		entry.RuntimeExpiresAt = time.Now().Add(25 * time.Minute).Format(time.RFC3339)
	}
	return entry, resp.StatusCode, nil
}

// refreshOAuthToken exchanges a stored refresh token for a fresh access
// token using the hosted editor's OAuth token endpoint, via
// golang.org/x/oauth2's refresh-token grant (spec.md 4.D.3).
func (a *CopilotAdapter) refreshOAuthToken(ctx context.Context, entry config.ProviderEntry) (config.ProviderEntry, error) {
	cfg := &oauth2.Config{
		ClientID: entry.ClientID,
		Endpoint: oauth2.Endpoint{TokenURL: entry.OAuthTokenURL},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client())
	src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: entry.OAuthRefreshToken})

	tok, err := src.Token()
	if err != nil {
		return entry, fmt.Errorf("oauth refresh request failed: %w", err)
	}
	if tok.AccessToken == "" {
		return entry, fmt.Errorf("oauth refresh response missing access_token")
	}

	entry.OAuthAccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		entry.OAuthRefreshToken = tok.RefreshToken
	}
	if !tok.Expiry.IsZero() {
		entry.OAuthExpiresAt = tok.Expiry.Format(time.RFC3339)
	}
	return entry, nil
}

func (a *CopilotAdapter) client() *http.Client {
	if a.HTTPClient != nil {
		return a.HTTPClient
	}
	return http.DefaultClient
}

func applyExtraHeaders(req *http.Request, entry config.ProviderEntry) {
	req.Header.Set("Editor-Version", DefaultEditorVersion)
	req.Header.Set("Editor-Plugin-Version", DefaultPluginVersion)
	req.Header.Set("User-Agent", DefaultUserAgent)
	for k, v := range entry.ExtraHeaders {
		req.Header.Set(k, v)
	}
}

func applyCopilotDefaults(entry config.ProviderEntry) config.ProviderEntry {
	if entry.ClientID == "" {
		entry.ClientID = DefaultCopilotClientID
	}
	if entry.OAuthTokenURL == "" {
		entry.OAuthTokenURL = DefaultCopilotOAuthTokenURL
	}
	if entry.RuntimeTokenURL == "" {
		entry.RuntimeTokenURL = DefaultCopilotRuntimeTokenURL
	}
	if entry.APIBaseURL == "" {
		entry.APIBaseURL = DefaultCopilotAPIBaseURL
	}
	return entry
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func epochSecondsFromAny(v any) (time.Time, bool) {
	secs, ok := numberFromAny(v)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(secs, 0).UTC(), true
}

func epochMillisFromAny(v any) (time.Time, bool) {
	ms, ok := numberFromAny(v)
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

func numberFromAny(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
