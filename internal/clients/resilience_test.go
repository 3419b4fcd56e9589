package clients

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExecutor() *Executor {
	cfg := DefaultExecutorConfig()
	cfg.RetryInitialBackoff = time.Millisecond
	cfg.RetryMaxBackoff = 2 * time.Millisecond
	cfg.BreakerEnabled = false
	return NewExecutor(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestExecutor_RetriesTransientFailures(t *testing.T) {
	exec := testExecutor()

	calls := 0
	err := exec.Execute(context.Background(), "test.op", func(context.Context) error {
		calls++
		if calls < 3 {
			return &RemoteError{Op: "test.op", StatusCode: http.StatusBadGateway, Err: errors.New("upstream down")}
		}
		return nil
	}, classifyRemote)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecutor_DoesNotRetryClientErrors(t *testing.T) {
	exec := testExecutor()

	calls := 0
	err := exec.Execute(context.Background(), "test.op", func(context.Context) error {
		calls++
		return &RemoteError{Op: "test.op", StatusCode: http.StatusUnprocessableEntity, Err: errors.New("bad payload")}
	}, classifyRemote)

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusUnprocessableEntity, re.StatusCode)
}

func TestExecutor_ExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	exec := testExecutor()

	calls := 0
	err := exec.Execute(context.Background(), "test.op", func(context.Context) error {
		calls++
		return &RemoteError{Op: "test.op", Err: errors.New("dial tcp: connection refused")}
	}, classifyRemote)

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecutor_StopsWhenContextCancelled(t *testing.T) {
	exec := testExecutor()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := exec.Execute(ctx, "test.op", func(context.Context) error {
		calls++
		cancel()
		return &RemoteError{Op: "test.op", Err: errors.New("unreachable")}
	}, classifyRemote)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestClassifyRemote(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"network failure", &RemoteError{Op: "op", Err: errors.New("timeout")}, true},
		{"server error", &RemoteError{Op: "op", StatusCode: 500, Err: errors.New("oops")}, true},
		{"rate limited", &RemoteError{Op: "op", StatusCode: 429, Err: errors.New("slow down")}, true},
		{"client error", &RemoteError{Op: "op", StatusCode: 400, Err: errors.New("bad request")}, false},
		{"unclassified", errors.New("plain"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, classifyRemote(tt.err).Retryable)
		})
	}
}
