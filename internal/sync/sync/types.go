package sync

import (
	"context"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

// State is a phase of a deploy.
type State string

const (
	StateDiffing            State = "diffing"
	StateFiltering          State = "filtering"
	StateDispatching        State = "dispatching"
	StateAwaitingCompletion State = "awaiting_completion"
	StateRetrying           State = "retrying"
	StateReporting          State = "reporting"
	StateDone               State = "done"
)

// DiffProvider computes the difference between a local tree and a bucket prefix.
type DiffProvider interface {
	Diff(ctx context.Context, localDir, bucket, prefix string) (*s3types.DiffResult, error)
}

// batch is one of the three concurrent dispatch groups.
type batch struct {
	category s3types.Category
	paths    []string
	action   s3types.Action
}
