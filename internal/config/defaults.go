package config

// DefaultCommandTimeoutMs is used when a config omits commandTimeoutMs.
const DefaultCommandTimeoutMs = 10000

// DefaultMaxToolTurns is used when a config omits maxToolTurns.
const DefaultMaxToolTurns = 10

// DefaultRuntimeConfig returns the hardcoded baseline merged under any file
// or CLI/env overrides.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		SchemaVersion:     1,
		DefaultProvider:   "openai",
		Profile:           ProfileSafe,
		DefaultApproval:   ApprovalAsk,
		DefaultToolsMode:  ToolsAuto,
		CommandTimeoutMs:  DefaultCommandTimeoutMs,
		MaxToolTurns:      DefaultMaxToolTurns,
		ApprovalTimeoutMs: 0,
		Security:          DefaultSecurityPolicy(),
	}
}

// DefaultSecurityPolicy returns a conservative baseline policy: destructive
// filesystem/network commands are always denied, and each profile's allow
// list widens from safe to framework.
func DefaultSecurityPolicy() SecurityPolicy {
	return SecurityPolicy{
		DenyCritical: []Rule{
			"rm -rf /",
			"rm -rf /*",
			":(){ :|:& };:",
			"re:mkfs(\\.|\\s)",
			"re:dd\\s+if=.*of=/dev/(sd|nvme|disk)",
		},
		Modes: map[Profile]ModePolicy{
			ProfileSafe: {
				Allow: []Rule{"ls", "cat", "echo", "pwd", "git status", "git log", "git diff"},
				Deny:  []Rule{"rm", "sudo", "curl", "wget"},
			},
			ProfileDev: {
				Allow: []Rule{"git", "go", "npm", "node", "make", "ls", "cat", "echo", "pwd", "grep", "find"},
				Deny:  []Rule{"sudo", "rm -rf"},
			},
			ProfileFramework: {
				Allow: []Rule{"*"},
			},
		},
	}
}

// clampInt clamps v into [lo, hi], returning fallback if v is non-positive
// and fallback itself needs no clamping guarantee from the caller.
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ResolveCommandTimeoutMs clamps a requested command timeout to [100,
// 600000]ms; non-finite or non-positive values fall back to 10000ms
// (spec.md Testable Properties: resolveCommandTimeoutMs boundary behavior).
func ResolveCommandTimeoutMs(requested int) int {
	if requested <= 0 {
		return DefaultCommandTimeoutMs
	}
	return clampInt(requested, 100, 600000)
}

// ResolveMaxToolTurns clamps maxToolTurns to [1, 200].
func ResolveMaxToolTurns(requested int) int {
	if requested <= 0 {
		return DefaultMaxToolTurns
	}
	return clampInt(requested, 1, 200)
}
