package s3website

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/config"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/sync/comparator"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/sync/differ"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/sync/executor"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/sync/scanner"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/sync/sync"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

// Deploy makes the bucket named by target.Domain match target.UploadDir.
//
// The target is validated first. Unreadable upload directories and failures
// to list the bucket abort the deploy before anything is changed. Per-path
// failures do not: they end up in the report's Result.Errors once the retry
// passes are exhausted, and the returned error is nil. If the site descriptor
// cannot be fetched after the deploy, the report is returned together with
// the error.
//
// Errors:
//   - ErrInvalidConfig: If the target fails validation
//   - ErrLocalPath: If the upload directory cannot be read
//   - ErrBucketNotFound: If the bucket doesn't exist
//   - ErrAccessDenied: If credentials lack required permissions
//
// Example:
//
//	report, err := client.Deploy(ctx, s3website.NewTarget("example.com", "./public"))
//	if err != nil {
//	    return fmt.Errorf("deploy failed: %w", err)
//	}
//	if report.Result.HasErrors() {
//	    fmt.Printf("%d paths failed\n", len(report.Result.Errors))
//	}
func (c *Client) Deploy(ctx context.Context, target *s3types.DeployTarget) (*s3types.DeployReport, error) {
	t, err := c.prepare(target)
	if err != nil {
		return nil, err
	}
	return c.manager().Deploy(ctx, t)
}

// DeployAsync runs Deploy in a new goroutine and calls onComplete with its
// outcome. site and result are nil when the deploy aborted.
func (c *Client) DeployAsync(
	ctx context.Context,
	target *s3types.DeployTarget,
	onComplete func(site *s3types.SiteDescriptor, result *s3types.DeployResult, err error),
) {
	go func() {
		report, err := c.Deploy(ctx, target)

		var site *s3types.SiteDescriptor
		var result *s3types.DeployResult
		if report != nil {
			site = report.Site
			result = report.Result
		}
		if onComplete != nil {
			onComplete(site, result, err)
		}
	}()
}

// Plan returns the filtered diff a deploy of target would act on, without
// changing anything.
func (c *Client) Plan(ctx context.Context, target *s3types.DeployTarget) (*s3types.DiffResult, error) {
	t, err := c.prepare(target)
	if err != nil {
		return nil, err
	}
	return c.manager().Plan(ctx, t)
}

// prepare validates target and returns a copy with an absolute upload
// directory and, when the target names none, the client's region.
func (c *Client) prepare(target *s3types.DeployTarget) (*s3types.DeployTarget, error) {
	if err := config.Validate(target); err != nil {
		return nil, err
	}

	t := *target
	abs, err := filepath.Abs(t.UploadDir)
	if err != nil {
		return nil, errors.NewError("deploy", fmt.Errorf("%w: %s: %w", errors.ErrLocalPath, t.UploadDir, err))
	}
	t.UploadDir = abs
	if t.Region == "" {
		t.Region = c.Region()
	}

	return &t, nil
}

// manager wires a fresh deploy manager against the client's store and filesystem.
func (c *Client) manager() *sync.Manager {
	fs := c.filesystem()

	sc := scanner.NewScanner(c.store, fs, c.logger)
	df := differ.NewDiffer(sc, comparator.NewSmartComparator(fs))
	ex := executor.NewExecutor(c.store, fs, c.logger)

	return sync.NewManager(df, ex, c.store, c.newBackOff, c.logger)
}
