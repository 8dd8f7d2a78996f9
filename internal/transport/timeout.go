package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
)

// FetchWithTimeout issues req bounded by timeoutMs. A context-cancellation
// class error (deadline exceeded, explicit cancel) surfaces as
// errs.CodeFetchTimeout; any other transport error passes through unchanged.
func FetchWithTimeout(client *http.Client, req *http.Request, timeoutMs int) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(ctx.Err(), context.Canceled) {
			return nil, errs.Wrap(errs.CodeFetchTimeout, "request timed out", err)
		}
		return nil, err
	}
	return resp, nil
}
