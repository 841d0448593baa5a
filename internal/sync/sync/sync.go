package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/remote"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/sync/aggregator"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/sync/filter"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/sync/retry"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/sync/scheduler"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

// Manager runs deploys. It holds no per-deploy state and may be shared.
type Manager struct {
	differ  DiffProvider
	actions retry.Actions
	retrier *retry.Coordinator
	store   remote.Store
	logger  *slog.Logger

	// OnState, when set, is called on every state transition
	OnState func(State)
}

// NewManager creates a deploy manager. A nil logger disables logging and a
// nil newBackOff uses retry.DefaultBackOff.
func NewManager(
	differ DiffProvider,
	actions retry.Actions,
	store remote.Store,
	newBackOff func() backoff.BackOff,
	logger *slog.Logger,
) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		differ:  differ,
		actions: actions,
		retrier: retry.NewCoordinator(actions, newBackOff, logger),
		store:   store,
		logger:  logger,
	}
}

// Plan computes the filtered diff for target without changing anything.
func (m *Manager) Plan(ctx context.Context, target *s3types.DeployTarget) (*s3types.DiffResult, error) {
	m.enter(ctx, target, StateDiffing)
	diff, err := m.differ.Diff(ctx, target.UploadDir, target.Domain, target.Prefix)
	if err != nil {
		return nil, errors.NewBucketError("diff", target.Domain, err)
	}

	m.enter(ctx, target, StateFiltering)
	return filter.Apply(diff, target.Exclude), nil
}

// Deploy makes the bucket match the upload directory. A failing diff aborts
// before any remote change. A failure to fetch the site descriptor is returned
// together with the otherwise complete report.
func (m *Manager) Deploy(ctx context.Context, target *s3types.DeployTarget) (*s3types.DeployReport, error) {
	start := time.Now()

	diff, err := m.Plan(ctx, target)
	if err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "deploy planned",
		"bucket", target.Domain,
		"delete", len(diff.Missing),
		"update", len(diff.Changed),
		"upload", len(diff.Extra),
		"unchanged", len(diff.Keep),
	)

	first, err := m.dispatch(ctx, target, diff)
	if err != nil {
		return nil, err
	}

	result := first
	if first.HasErrors() && target.Retries > 0 {
		m.enter(ctx, target, StateRetrying)
		result = m.retrier.Retry(ctx, target, diff, first)
	}

	m.enter(ctx, target, StateReporting)
	report := &s3types.DeployReport{
		Result: result,
		Diff:   diff,
	}

	site, err := m.store.Website(ctx, target.Domain, target.Region)
	report.Duration = time.Since(start)
	if err != nil {
		return report, err
	}
	report.Site = site

	m.enter(ctx, target, StateDone)
	m.logger.InfoContext(ctx, "deploy finished",
		"bucket", target.Domain,
		"uploaded", len(result.Uploaded),
		"updated", len(result.Updated),
		"removed", len(result.Removed),
		"errors", len(result.Errors),
		"duration", report.Duration,
	)

	return report, nil
}

// dispatch runs the delete, update and upload batches concurrently and
// returns the aggregated result once every candidate path was recorded.
func (m *Manager) dispatch(
	ctx context.Context,
	target *s3types.DeployTarget,
	diff *s3types.DiffResult,
) (*s3types.DeployResult, error) {
	m.enter(ctx, target, StateDispatching)

	agg := aggregator.New(diff.Total(), nil)
	sched := scheduler.NewScheduler(target.Workers())

	batches := []batch{
		{category: s3types.CategoryRemoved, paths: diff.Missing, action: s3types.ActionDelete},
		{category: s3types.CategoryUpdated, paths: diff.Changed, action: s3types.ActionUpload},
		{category: s3types.CategoryUploaded, paths: diff.Extra, action: s3types.ActionUpload},
	}

	var g errgroup.Group
	for _, b := range batches {
		g.Go(func() error {
			sched.Run(ctx, b.paths, m.action(target, b.action), func(out s3types.Outcome) {
				if _, err := agg.Record(b.category, out); err != nil {
					m.logger.ErrorContext(ctx, "outcome recorded twice", "path", out.Path, "error", err)
				}
			})
			return nil
		})
	}
	_ = g.Wait()

	m.enter(ctx, target, StateAwaitingCompletion)
	if !agg.Complete() {
		return nil, errors.NewBucketError("deploy", target.Domain, errors.ErrIncomplete)
	}

	return agg.Result(), nil
}

func (m *Manager) action(target *s3types.DeployTarget, action s3types.Action) scheduler.Action {
	if action == s3types.ActionDelete {
		return func(ctx context.Context, p string) s3types.Outcome {
			return m.actions.Delete(ctx, target, p)
		}
	}
	return func(ctx context.Context, p string) s3types.Outcome {
		return m.actions.Upload(ctx, target, p)
	}
}

func (m *Manager) enter(ctx context.Context, target *s3types.DeployTarget, s State) {
	m.logger.DebugContext(ctx, "deploy state", "bucket", target.Domain, "state", string(s))
	if m.OnState != nil {
		m.OnState(s)
	}
}
