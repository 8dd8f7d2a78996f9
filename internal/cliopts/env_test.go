package cliopts

import (
	"testing"

	"github.com/Ad4m2017/agent-cli-sub000/internal/config"
)

func TestApplyEnvOverrides_FillsOnlyUnsetFields(t *testing.T) {
	opts := Options{Model: "cli-model"}
	env := map[string]string{
		"AGENT_MODEL":   "env-model",
		"AGENT_PROFILE": "dev",
	}
	out := ApplyEnvOverrides(opts, env)
	if out.Model != "cli-model" {
		t.Fatalf("expected CLI value to win, got %q", out.Model)
	}
	if out.Profile != config.ProfileDev {
		t.Fatalf("expected env to fill unset profile, got %v", out.Profile)
	}
}

func TestApplyEnvOverrides_SystemPromptExplicitEmptyWins(t *testing.T) {
	opts := Options{}
	env := map[string]string{"AGENT_SYSTEM_PROMPT": ""}
	out := ApplyEnvOverrides(opts, env)
	if out.SystemPrompt == nil || *out.SystemPrompt != "" {
		t.Fatalf("expected env-set empty system prompt to apply, got %v", out.SystemPrompt)
	}
}

func TestApplyEnvOverrides_DoesNotMutateInput(t *testing.T) {
	opts := Options{Model: ""}
	env := map[string]string{"AGENT_MODEL": "env-model"}
	_ = ApplyEnvOverrides(opts, env)
	if opts.Model != "" {
		t.Fatalf("expected input Options to remain unmodified, got %q", opts.Model)
	}
}

func TestApplyEnvOverrides_AllowInsecureHTTPTruthyValues(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes"} {
		out := ApplyEnvOverrides(Options{}, map[string]string{"AGENT_ALLOW_INSECURE_HTTP": v})
		if !out.AllowInsecureHTTP {
			t.Fatalf("expected %q to be truthy", v)
		}
	}
}

func TestApplyEnvOverrides_AllowInsecureHTTPFalsyIgnored(t *testing.T) {
	out := ApplyEnvOverrides(Options{}, map[string]string{"AGENT_ALLOW_INSECURE_HTTP": "0"})
	if out.AllowInsecureHTTP {
		t.Fatal("expected falsy value to be ignored")
	}
}

func TestEnvMap_ParsesKeyValuePairs(t *testing.T) {
	m := EnvMap([]string{"AGENT_MODEL=foo", "PATH=/usr/bin:/bin"})
	if m["AGENT_MODEL"] != "foo" || m["PATH"] != "/usr/bin:/bin" {
		t.Fatalf("unexpected map: %+v", m)
	}
}
