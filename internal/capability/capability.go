// Package capability implements the Capability Gates: streaming/tool/vision
// viability decisions and the error-string classifiers that trigger
// auto-fallback in the turn loop (spec.md 4.F).
package capability

import "strings"

// streamingProviders is the fixed set of providers known to support
// streaming chat completions.
var streamingProviders = map[string]bool{
	"openai":     true,
	"copilot":    true,
	"openrouter": true,
	"groq":       true,
	"mistral":    true,
	"deepseek":   true,
	"fireworks":  true,
	"moonshot":   true,
	"together":   true,
	"xai":        true,
	"perplexity": true,
}

// ShouldUseStreaming reports whether a request should be made in streaming
// mode: stream requested, JSON output not requested, tools not enabled for
// this turn, and the provider is in the fixed streaming-capable set.
func ShouldUseStreaming(streamRequested, jsonMode, toolsEnabled bool, provider string) bool {
	return streamRequested && !jsonMode && !toolsEnabled && streamingProviders[strings.ToLower(provider)]
}

// visionKeywords per provider, used by ModelLikelySupportsVision.
var visionModelKeywords = map[string][]string{
	"openai":  {"gpt-4o", "gpt-4.1", "gpt-5"},
	"copilot": {"gpt-4o", "gpt-4.1", "gpt-5"},
	// openrouter also accepts broader hints since it proxies many model families.
	"openrouter": {"gpt-4o", "gpt-4.1", "gpt-5", "vision", "gemini", "vl"},
}

// noVisionProviders never support vision regardless of model name.
var noVisionProviders = map[string]bool{
	"perplexity": true,
	"groq":       true,
	"deepseek":   true,
}

// ModelLikelySupportsVision applies the provider-specific heuristic from
// spec.md 4.F to decide whether a model likely accepts image_url content.
func ModelLikelySupportsVision(provider, model string) bool {
	provider = strings.ToLower(provider)
	if noVisionProviders[provider] {
		return false
	}
	model = strings.ToLower(model)
	for _, keyword := range visionModelKeywords[provider] {
		if strings.Contains(model, keyword) {
			return true
		}
	}
	return false
}

var toolUnsupportedSubstrings = []string{
	"tool calling is not supported",
	"tools are not supported",
	"tool_choice",
	"function calling is not supported",
}

// IsToolUnsupportedError reports whether a provider error message indicates
// it does not support tool/function calling.
func IsToolUnsupportedError(message string) bool {
	return containsAny(strings.ToLower(message), toolUnsupportedSubstrings)
}

var visionKeywordsInError = []string{"vision", "image"}
var rejectionKeywords = []string{"not supported", "not support", "not accepted"}

// IsVisionUnsupportedError reports whether message indicates rejection of
// vision/image content: it must contain both a vision-ish keyword (or
// "content type" together with "image") AND a rejection keyword. A
// standalone occurrence of "vision" without a rejection phrase never
// triggers this classifier.
func IsVisionUnsupportedError(message string) bool {
	lower := strings.ToLower(message)
	hasVisionSignal := strings.Contains(lower, "vision") ||
		strings.Contains(lower, "image") ||
		(strings.Contains(lower, "content type") && strings.Contains(lower, "image"))
	if !hasVisionSignal {
		return false
	}
	return containsAny(lower, rejectionKeywords)
}

var streamRejectionKeywords = []string{"not support", "unsupported", "invalid"}

// IsStreamUnsupportedError reports whether message indicates the provider
// rejected streaming mode.
func IsStreamUnsupportedError(message string) bool {
	lower := strings.ToLower(message)
	if strings.Contains(lower, "unknown parameter: stream") {
		return true
	}
	if !strings.Contains(lower, "stream") {
		return false
	}
	return containsAny(lower, streamRejectionKeywords)
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
