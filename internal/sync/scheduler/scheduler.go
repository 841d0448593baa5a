// Package scheduler runs an action over a list of paths in parallel chains.
//
// The list is split into at most W chunks of ceil(n/W) paths. Every chunk
// runs on its own goroutine and processes its paths strictly in order, so at
// most W actions of one batch are in flight at any time.
package scheduler

import (
	"context"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

// Action performs the work for one path.
type Action func(ctx context.Context, path string) s3types.Outcome

// Observer is called with every outcome as soon as it is produced.
// It may be called from several goroutines at once.
type Observer func(s3types.Outcome)

// Batch is the merged result of one Run.
type Batch struct {
	// Done holds the paths whose action succeeded
	Done []string

	// Failed holds the outcomes of failed actions
	Failed []s3types.Outcome
}

// Len returns the number of outcomes in the batch.
func (b *Batch) Len() int {
	return len(b.Done) + len(b.Failed)
}

// Scheduler splits work into chunks and runs them concurrently.
type Scheduler struct {
	workers int
}

// NewScheduler creates a scheduler with the given chunk limit. Values below
// one are treated as one.
func NewScheduler(workers int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{workers: workers}
}

// Chunk partitions paths into at most w sequential chunks of size ceil(n/w).
// Concatenating the chunks yields paths unchanged.
func Chunk(paths []string, w int) [][]string {
	n := len(paths)
	if n == 0 {
		return nil
	}
	if w < 1 {
		w = 1
	}

	size := (n + w - 1) / w
	chunks := make([][]string, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		chunks = append(chunks, paths[start:end:end])
	}
	return chunks
}

// Run executes action for every path and returns once all chunks finished.
// observe, when non-nil, sees each outcome before Run returns.
func (s *Scheduler) Run(ctx context.Context, paths []string, action Action, observe Observer) *Batch {
	batch := &Batch{}
	chunks := Chunk(paths, s.workers)
	if len(chunks) == 0 {
		return batch
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, chunk := range chunks {
		wg.Add(1)
		go func(chunk []string) {
			defer wg.Done()

			for _, p := range chunk {
				out := action(ctx, p)

				mu.Lock()
				if out.OK() {
					batch.Done = append(batch.Done, p)
				} else {
					batch.Failed = append(batch.Failed, out)
				}
				mu.Unlock()

				if observe != nil {
					observe(out)
				}
			}
		}(chunk)
	}

	wg.Wait()
	return batch
}
