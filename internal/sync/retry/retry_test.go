package retry

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

// scriptedActions fails each path a fixed number of times before succeeding.
type scriptedActions struct {
	mu       sync.Mutex
	failures map[string]int
	calls    []string
}

func (s *scriptedActions) do(path string, action s3types.Action) s3types.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, string(action)+":"+path)
	if n := s.failures[path]; n != 0 {
		if n > 0 {
			s.failures[path] = n - 1
		}
		return s3types.Failure(path, action, fmt.Errorf("still failing"))
	}
	return s3types.Success(path, action)
}

func (s *scriptedActions) Upload(_ context.Context, _ *s3types.DeployTarget, path string) s3types.Outcome {
	return s.do(path, s3types.ActionUpload)
}

func (s *scriptedActions) Delete(_ context.Context, _ *s3types.DeployTarget, path string) s3types.Outcome {
	return s.do(path, s3types.ActionDelete)
}

func zeroBackOff() backoff.BackOff { return &backoff.ZeroBackOff{} }

func firstResult(errs ...string) *s3types.DeployResult {
	r := &s3types.DeployResult{Uploaded: []string{"ok.html"}}
	for _, p := range errs {
		r.Errors = append(r.Errors, p)
		r.Failures = append(r.Failures, s3types.PathError{Path: p, Message: "first attempt"})
	}
	return r
}

var diff = &s3types.DiffResult{
	Missing: []string{"old.html"},
	Changed: []string{"index.html"},
	Extra:   []string{"new.css", "ok.html"},
}

func TestRetryRoutesByOrigin(t *testing.T) {
	actions := &scriptedActions{failures: map[string]int{}}
	c := NewCoordinator(actions, zeroBackOff, nil)
	first := firstResult("old.html", "index.html", "new.css")

	got := c.Retry(context.Background(), &s3types.DeployTarget{Retries: 1}, diff, first)

	assert.ElementsMatch(t, []string{"delete:old.html", "upload:index.html", "upload:new.css"}, actions.calls)
	assert.Equal(t, []string{"old.html"}, got.Removed)
	assert.Equal(t, []string{"ok.html", "index.html", "new.css"}, got.Uploaded)
	assert.Empty(t, got.Errors)
	assert.Empty(t, got.Failures)
	assert.Equal(t, first.Count(), got.Count())

	// first is untouched
	assert.Len(t, first.Errors, 3)
}

func TestRetryKeepsPersistentFailures(t *testing.T) {
	actions := &scriptedActions{failures: map[string]int{"index.html": -1}}
	c := NewCoordinator(actions, zeroBackOff, nil)

	got := c.Retry(context.Background(), &s3types.DeployTarget{Retries: 1}, diff, firstResult("index.html", "old.html"))

	assert.Equal(t, []string{"index.html"}, got.Errors)
	require.Len(t, got.Failures, 1)
	assert.Equal(t, "still failing", got.Failures[0].Message)
	assert.Equal(t, []string{"old.html"}, got.Removed)
}

func TestRetryDefaultIsSinglePass(t *testing.T) {
	actions := &scriptedActions{failures: map[string]int{"new.css": 1}}
	c := NewCoordinator(actions, zeroBackOff, nil)

	got := c.Retry(context.Background(), &s3types.DeployTarget{Retries: s3types.DefaultRetries}, diff, firstResult("new.css"))

	assert.Len(t, actions.calls, 1)
	assert.Equal(t, []string{"new.css"}, got.Errors)
}

func TestRetryMultiplePasses(t *testing.T) {
	actions := &scriptedActions{failures: map[string]int{"new.css": 2, "old.html": 0}}
	c := NewCoordinator(actions, zeroBackOff, nil)

	got := c.Retry(context.Background(), &s3types.DeployTarget{Retries: 3}, diff, firstResult("new.css", "old.html"))

	assert.Equal(t, []string{"upload:new.css", "delete:old.html", "upload:new.css", "upload:new.css"}, actions.calls)
	assert.Empty(t, got.Errors)
	assert.Contains(t, got.Uploaded, "new.css")
}

func TestRetryDisabled(t *testing.T) {
	actions := &scriptedActions{failures: map[string]int{}}
	c := NewCoordinator(actions, zeroBackOff, nil)

	got := c.Retry(context.Background(), &s3types.DeployTarget{Retries: 0}, diff, firstResult("new.css"))

	assert.Empty(t, actions.calls)
	assert.Equal(t, []string{"new.css"}, got.Errors)
}

func TestRetryUnknownOriginIsTerminal(t *testing.T) {
	actions := &scriptedActions{failures: map[string]int{}}
	c := NewCoordinator(actions, zeroBackOff, nil)

	got := c.Retry(context.Background(), &s3types.DeployTarget{Retries: 2}, diff, firstResult("mystery.txt", "new.css"))

	assert.Equal(t, []string{"upload:new.css"}, actions.calls)
	assert.Equal(t, []string{"mystery.txt"}, got.Errors)
	require.Len(t, got.Failures, 1)
	assert.Equal(t, "first attempt", got.Failures[0].Message)
}

func TestRetryStopsOnCanceledContext(t *testing.T) {
	actions := &scriptedActions{failures: map[string]int{}}
	c := NewCoordinator(actions, zeroBackOff, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := c.Retry(ctx, &s3types.DeployTarget{Retries: 1}, diff, firstResult("new.css"))

	assert.Empty(t, actions.calls)
	assert.Equal(t, []string{"new.css"}, got.Errors)
}

func TestRetryStopBackOff(t *testing.T) {
	actions := &scriptedActions{failures: map[string]int{}}
	c := NewCoordinator(actions, func() backoff.BackOff { return &backoff.StopBackOff{} }, nil)

	got := c.Retry(context.Background(), &s3types.DeployTarget{Retries: 1}, diff, firstResult("new.css"))

	assert.Empty(t, actions.calls)
	assert.Equal(t, []string{"new.css"}, got.Errors)
}
