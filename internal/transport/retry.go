package transport

import (
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/Ad4m2017/agent-cli-sub000/internal/backoff"
	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
)

// RetryOptions configures FetchWithRetry. Zero values fall back to the
// defaults named in spec.md 4.E.
type RetryOptions struct {
	MaxRetries        int
	BaseDelayMs       int
	MaxDelayMs        int
	RetryableStatuses []int
	LogFn             func(msg string)
	OnRetry           func(attempt int, delay time.Duration)
}

// DefaultRetryOptions returns {maxRetries:3, baseDelayMs:1000, maxDelayMs:30000,
// retryableStatuses:[500,502,503]}.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:        3,
		BaseDelayMs:       1000,
		MaxDelayMs:        30000,
		RetryableStatuses: []int{500, 502, 503},
	}
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxDelayMs == 0 {
		o.MaxDelayMs = 30000
	}
	if o.BaseDelayMs == 0 {
		o.BaseDelayMs = 1000
	}
	if len(o.RetryableStatuses) == 0 {
		o.RetryableStatuses = []int{500, 502, 503}
	}
	return o
}

// FetchWithRetry issues a request built by newReq for up to maxRetries+1
// attempts, retrying on retryable HTTP statuses, 429 (honoring Retry-After),
// and FETCH_TIMEOUT transport errors (spec.md 4.E).
func FetchWithRetry(client *http.Client, newReq func() (*http.Request, error), timeoutMs int, opts RetryOptions) (*http.Response, error) {
	opts = opts.withDefaults()
	attempts := opts.MaxRetries + 1

	var lastResp *http.Response
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		req, err := newReq()
		if err != nil {
			return nil, err
		}

		resp, err := FetchWithTimeout(client, req, timeoutMs)
		if err != nil {
			lastErr = err
			if errs.CodeOf(err, "") != errs.CodeFetchTimeout || attempt == attempts-1 {
				if errs.CodeOf(err, "") == errs.CodeFetchTimeout {
					return nil, errs.Wrap(errs.CodeRetryExhausted, "retries exhausted", err)
				}
				return nil, err
			}
			sleepBeforeRetry(opts, attempt, 0, nil)
			continue
		}

		if !isRetryableStatus(resp.StatusCode, opts.RetryableStatuses) {
			return resp, nil
		}

		lastResp = resp
		if attempt == attempts-1 {
			return resp, nil
		}

		retryAfter := resp.Header.Get("Retry-After")
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		sleepBeforeRetry(opts, attempt, opts.MaxDelayMs, &retryAfter)
	}

	if lastResp != nil {
		return lastResp, nil
	}
	return nil, errs.Wrap(errs.CodeRetryExhausted, "retries exhausted", lastErr)
}

func isRetryableStatus(status int, retryable []int) bool {
	return status == http.StatusTooManyRequests || slices.Contains(retryable, status)
}

func sleepBeforeRetry(opts RetryOptions, attempt, capMs int, retryAfterHeader *string) {
	delay := exponentialBackoff(opts.BaseDelayMs, opts.MaxDelayMs, attempt)
	if retryAfterHeader != nil {
		if ms, ok := ParseRetryAfter(*retryAfterHeader, capMs); ok {
			delay = time.Duration(ms) * time.Millisecond
		}
	}
	if opts.OnRetry != nil {
		opts.OnRetry(attempt+1, delay)
	}
	if opts.LogFn != nil {
		opts.LogFn("retrying request")
	} else {
		slog.Debug("transport retry", "attempt", attempt+1, "delay_ms", delay.Milliseconds())
	}
	time.Sleep(delay)
}

// exponentialBackoff computes baseDelayMs * 2^attempt, capped at maxDelayMs
// (spec.md 4.E's non-Retry-After delay formula; no jitter, via backoff.Policy
// with Jitter=0 and a fixed random draw of 0).
func exponentialBackoff(baseDelayMs, maxDelayMs, attempt int) time.Duration {
	policy := backoff.Policy{InitialMs: float64(baseDelayMs), MaxMs: float64(maxDelayMs), Factor: 2, Jitter: 0}
	return backoff.ComputeWithRand(policy, attempt+1, 0)
}
