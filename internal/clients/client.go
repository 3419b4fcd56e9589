// Package clients holds the HTTP clients for the inventory and order
// collaborators, wrapped in shared retry and circuit-breaker handling.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RemoteError is a failed collaborator call. StatusCode is zero when the
// request never produced an HTTP response (dial failure, timeout).
type RemoteError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// classifyRemote drives retry and breaker decisions: transport failures and
// 5xx/429 responses are transient, other 4xx responses are the caller's
// problem and retrying them would not help.
func classifyRemote(err error) ErrorClassification {
	var re *RemoteError
	if errors.As(err, &re) {
		transient := re.StatusCode == 0 ||
			re.StatusCode >= http.StatusInternalServerError ||
			re.StatusCode == http.StatusTooManyRequests
		return ErrorClassification{Retryable: transient, RecordFailure: transient}
	}
	return ErrorClassification{Retryable: false, RecordFailure: true}
}

// apiClient is the shared JSON-over-HTTP base for the collaborator clients.
type apiClient struct {
	baseURL string
	hc      *http.Client
	exec    *Executor
	logger  *slog.Logger
}

func newAPIClient(baseURL string, hc *http.Client, exec *Executor, logger *slog.Logger) apiClient {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      hc,
		exec:    exec,
		logger:  logger,
	}
}

// call runs one JSON request under the executor. body and out may be nil.
func (c *apiClient) call(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	return c.exec.Execute(ctx, op, func(ctx context.Context) error {
		return c.doOnce(ctx, op, method, path, query, body, out)
	}, classifyRemote)
}

func (c *apiClient) doOnce(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &RemoteError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(msg))),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
