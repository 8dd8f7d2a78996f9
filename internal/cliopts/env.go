package cliopts

import (
	"strconv"

	"github.com/Ad4m2017/agent-cli-sub000/internal/config"
)

// ApplyEnvOverrides returns a copy of opts with the environment overlay
// applied: each env var fills its field only when the CLI left it
// unset/empty (the `AGENT_SYSTEM_PROMPT` explicit-empty-wins exception is
// handled by treating an unset *string field, not an empty one, as
// "fillable"). env is a plain lookup map so the function stays pure and
// side-effect free; callers build it from os.Environ().
func ApplyEnvOverrides(opts Options, env map[string]string) Options {
	out := opts

	if out.Model == "" {
		if v, ok := env["AGENT_MODEL"]; ok && v != "" {
			out.Model = v
		}
	}
	if out.Profile == "" {
		if v, ok := env["AGENT_PROFILE"]; ok && v != "" {
			out.Profile = config.Profile(v)
		}
	}
	if out.Approval == "" {
		if v, ok := env["AGENT_APPROVAL"]; ok && v != "" {
			out.Approval = config.ApprovalMode(v)
		}
	}
	// AGENT_API_KEY is consumed directly by the credential resolver, not
	// threaded through Options; no field here to overlay.
	if out.SystemPrompt == nil {
		if v, ok := env["AGENT_SYSTEM_PROMPT"]; ok {
			out.SystemPrompt = &v
		}
	}
	if out.MaxFileBytes == nil {
		if v, ok := env["AGENT_MAX_FILE_BYTES"]; ok {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				out.MaxFileBytes = &n
			}
		}
	}
	if out.MaxImageBytes == nil {
		if v, ok := env["AGENT_MAX_IMAGE_BYTES"]; ok {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				out.MaxImageBytes = &n
			}
		}
	}
	if out.MaxFiles == nil {
		if v, ok := env["AGENT_MAX_FILES"]; ok {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				out.MaxFiles = &n
			}
		}
	}
	if out.MaxImages == nil {
		if v, ok := env["AGENT_MAX_IMAGES"]; ok {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				out.MaxImages = &n
			}
		}
	}
	if out.CommandTimeoutMs == 0 {
		if v, ok := env["AGENT_COMMAND_TIMEOUT"]; ok {
			if n, err := strconv.Atoi(v); err == nil {
				out.CommandTimeoutMs = n
			}
		}
	}
	if !out.AllowInsecureHTTP {
		if v, ok := env["AGENT_ALLOW_INSECURE_HTTP"]; ok && truthyEnv(v) {
			out.AllowInsecureHTTP = true
		}
	}

	return out
}
