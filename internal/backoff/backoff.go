// Package backoff computes exponential retry delays with jitter for the
// HTTP transport layer.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Policy defines the parameters for exponential backoff calculation.
type Policy struct {
	InitialMs float64
	MaxMs     float64
	Factor    float64
	Jitter    float64
}

// Compute calculates the backoff duration for a given attempt number
// (attempts start at 1): base = InitialMs * Factor^(attempt-1), jitter =
// base * Jitter * random(), result = min(MaxMs, base+jitter).
func Compute(policy Policy, attempt int) time.Duration {
	return ComputeWithRand(policy, attempt, rand.Float64()) // #nosec G404 -- jitter is not security-sensitive
}

// ComputeWithRand is the deterministic variant used by tests.
func ComputeWithRand(policy Policy, attempt int, randomValue float64) time.Duration {
	exp := math.Max(float64(attempt-1), 0)
	base := policy.InitialMs * math.Pow(policy.Factor, exp)
	jitterAmount := base * policy.Jitter * randomValue
	total := math.Min(policy.MaxMs, base+jitterAmount)
	return time.Duration(math.Round(total)) * time.Millisecond
}

// DefaultPolicy mirrors spec.md 4.E's baseDelayMs=1000/maxDelayMs=30000
// exponential schedule with a light 10% jitter.
func DefaultPolicy() Policy {
	return Policy{InitialMs: 1000, MaxMs: 30000, Factor: 2, Jitter: 0.1}
}
