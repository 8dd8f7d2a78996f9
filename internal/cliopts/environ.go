package cliopts

import "strings"

// EnvMap converts the process environment (os.Environ() shape) into the
// plain lookup map ApplyEnvOverrides expects.
func EnvMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		if idx := strings.IndexByte(kv, '='); idx >= 0 {
			out[kv[:idx]] = kv[idx+1:]
		}
	}
	return out
}
