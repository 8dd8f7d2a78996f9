// Package policy implements the command-security policy engine: evaluating a
// shell command string against a profile's denyCritical/deny/allow rule
// sets (spec.md 4.C).
package policy

import (
	"regexp"
	"strings"
	"sync"

	"github.com/Ad4m2017/agent-cli-sub000/internal/config"
)

// Source identifies which rule set produced a Decision.
type Source string

const (
	SourceDenyCritical Source = "denyCritical"
	SourceDeny         Source = "deny"
	SourceAllow        Source = "allow"
)

// Decision is the result of evaluating a command against a policy.
type Decision struct {
	Allowed bool
	Source  Source
	Rule    config.Rule
	Profile config.Profile
}

// Engine evaluates commands against a SecurityPolicy, caching compiled
// regex rules across calls.
type Engine struct {
	mu       sync.Mutex
	compiled map[config.Rule]*regexp.Regexp
}

// NewEngine returns a ready-to-use Engine with an empty regex cache.
func NewEngine() *Engine {
	return &Engine{compiled: make(map[config.Rule]*regexp.Regexp)}
}

// Evaluate runs the deterministic denyCritical -> deny -> allow algorithm
// from spec.md 4.C against command for the given profile.
func (e *Engine) Evaluate(command string, profile config.Profile, pol config.SecurityPolicy) Decision {
	normalized := normalizeCommand(command)

	for _, rule := range pol.DenyCritical {
		if e.matches(rule, command, normalized) {
			return Decision{Allowed: false, Source: SourceDenyCritical, Rule: rule, Profile: profile}
		}
	}

	mode := pol.Modes[profile]

	for _, rule := range mode.Deny {
		if e.matches(rule, command, normalized) {
			return Decision{Allowed: false, Source: SourceDeny, Rule: rule, Profile: profile}
		}
	}

	for _, rule := range mode.Allow {
		if e.matches(rule, command, normalized) {
			return Decision{Allowed: true, Source: SourceAllow, Rule: rule, Profile: profile}
		}
	}

	return Decision{Allowed: false, Source: SourceAllow, Rule: "no allow rule matched", Profile: profile}
}

// matches tests rule against the raw and normalized forms of a command per
// the three rule kinds: wildcard, regex, and plain exact-or-prefix.
func (e *Engine) matches(rule config.Rule, raw, normalized string) bool {
	s := string(rule)
	if s == "*" {
		return true
	}
	if pattern, ok := strings.CutPrefix(s, "re:"); ok {
		re := e.compileCached(rule, pattern)
		if re == nil {
			return false
		}
		return re.MatchString(raw)
	}
	ruleNormalized := normalizeCommand(s)
	if ruleNormalized == "" {
		return false
	}
	if normalized == ruleNormalized {
		return true
	}
	return strings.HasPrefix(normalized, ruleNormalized+" ")
}

func (e *Engine) compileCached(rule config.Rule, pattern string) *regexp.Regexp {
	e.mu.Lock()
	defer e.mu.Unlock()
	if re, ok := e.compiled[rule]; ok {
		return re
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		e.compiled[rule] = nil
		return nil
	}
	e.compiled[rule] = re
	return re
}

func normalizeCommand(command string) string {
	return strings.ToLower(strings.TrimSpace(command))
}
