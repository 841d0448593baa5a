// Package retry re-attempts the paths that failed during a deploy.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/sync/aggregator"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

// Actions performs uploads and deletes for single paths.
type Actions interface {
	Upload(ctx context.Context, target *s3types.DeployTarget, path string) s3types.Outcome
	Delete(ctx context.Context, target *s3types.DeployTarget, path string) s3types.Outcome
}

// DefaultBackOff is the delay policy between retry passes.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Coordinator runs retry passes over failed paths.
type Coordinator struct {
	actions    Actions
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
}

// NewCoordinator creates a coordinator. A nil newBackOff uses DefaultBackOff
// and a nil logger disables logging.
func NewCoordinator(actions Actions, newBackOff func() backoff.BackOff, logger *slog.Logger) *Coordinator {
	if newBackOff == nil {
		newBackOff = DefaultBackOff
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{
		actions:    actions,
		newBackOff: newBackOff,
		logger:     logger,
	}
}

// Retry re-attempts every path in first.Errors for up to target.Retries
// passes. Paths in diff.Missing are deleted again; paths in diff.Changed or
// diff.Extra are uploaded again. Successes move to Removed or Uploaded. A
// failed path that belongs to none of those sets is left as a terminal error.
// first is not modified.
func (c *Coordinator) Retry(
	ctx context.Context,
	target *s3types.DeployTarget,
	diff *s3types.DiffResult,
	first *s3types.DeployResult,
) *s3types.DeployResult {
	result := first.Clone()
	if target.Retries <= 0 || len(result.Errors) == 0 {
		return result
	}

	origin := diff.Index()
	failures := make(map[string]s3types.PathError, len(result.Failures))
	for _, f := range result.Failures {
		failures[f.Path] = f
	}

	var pending []string
	for _, p := range result.Errors {
		if _, ok := origin[p]; !ok {
			c.logger.WarnContext(ctx, "failed path is not part of the diff, not retrying", "path", p)
			continue
		}
		pending = append(pending, p)
	}

	b := c.newBackOff()
	b.Reset()

	for pass := 1; pass <= target.Retries && len(pending) > 0; pass++ {
		delay := b.NextBackOff()
		if delay == backoff.Stop || !wait(ctx, delay) {
			break
		}

		c.logger.InfoContext(ctx, "retrying failed paths", "pass", pass, "paths", len(pending))

		var still []string
		for _, p := range pending {
			var out s3types.Outcome
			if origin[p] == s3types.CategoryRemoved {
				out = c.actions.Delete(ctx, target, p)
			} else {
				out = c.actions.Upload(ctx, target, p)
			}

			switch {
			case !out.OK():
				failures[p] = aggregator.PathError(out)
				still = append(still, p)
			case out.Action == s3types.ActionDelete:
				result.Removed = append(result.Removed, p)
			default:
				result.Uploaded = append(result.Uploaded, p)
			}
		}
		pending = still
	}

	failing := make(map[string]bool, len(pending))
	for _, p := range pending {
		failing[p] = true
	}

	var errs []string
	var fails []s3types.PathError
	for _, p := range result.Errors {
		if _, known := origin[p]; known && !failing[p] {
			continue
		}
		errs = append(errs, p)
		fails = append(fails, failures[p])
	}
	result.Errors = errs
	result.Failures = fails

	for _, p := range result.Errors {
		c.logger.WarnContext(ctx, "path failed permanently", "path", p, "error", failures[p].Message)
	}

	return result
}

func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
