// Package aggregator collects outcomes from concurrent batches into one
// DeployResult and signals completion exactly once.
package aggregator

import (
	stderrors "errors"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

// ErrAlreadyComplete is returned when an outcome arrives after every expected
// outcome was recorded.
var ErrAlreadyComplete = stderrors.New("aggregator: all outcomes already recorded")

// Aggregator records outcomes against a precomputed total.
type Aggregator struct {
	mu       sync.Mutex
	total    int
	recorded int
	result   s3types.DeployResult

	done       chan struct{}
	onComplete func(*s3types.DeployResult)
}

// New creates an aggregator expecting total outcomes. onComplete, when
// non-nil, is called exactly once with a copy of the final result; it runs
// with the aggregator locked and must not call back into it. A total of zero
// completes immediately.
func New(total int, onComplete func(*s3types.DeployResult)) *Aggregator {
	a := &Aggregator{
		total:      total,
		done:       make(chan struct{}),
		onComplete: onComplete,
	}
	if total <= 0 {
		a.total = 0
		a.complete()
	}
	return a
}

// Record adds one outcome under category. It reports whether this call
// completed the aggregation.
func (a *Aggregator) Record(category s3types.Category, out s3types.Outcome) (bool, error) {
	a.mu.Lock()

	if a.recorded >= a.total {
		a.mu.Unlock()
		return false, ErrAlreadyComplete
	}

	if out.OK() {
		switch category {
		case s3types.CategoryUploaded:
			a.result.Uploaded = append(a.result.Uploaded, out.Path)
		case s3types.CategoryUpdated:
			a.result.Updated = append(a.result.Updated, out.Path)
		case s3types.CategoryRemoved:
			a.result.Removed = append(a.result.Removed, out.Path)
		}
	} else {
		a.result.Errors = append(a.result.Errors, out.Path)
		a.result.Failures = append(a.result.Failures, PathError(out))
	}

	a.recorded++
	completed := a.recorded == a.total
	if completed {
		a.complete()
	}

	a.mu.Unlock()
	return completed, nil
}

// complete must be called with mu held or before the aggregator is shared.
func (a *Aggregator) complete() {
	close(a.done)
	if a.onComplete != nil {
		a.onComplete(a.result.Clone())
	}
}

// Done is closed once every expected outcome was recorded.
func (a *Aggregator) Done() <-chan struct{} {
	return a.done
}

// Complete reports whether every expected outcome was recorded.
func (a *Aggregator) Complete() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}

// Result returns a copy of the outcomes recorded so far.
func (a *Aggregator) Result() *s3types.DeployResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result.Clone()
}

// PathError converts a failed outcome into its reported form.
func PathError(out s3types.Outcome) s3types.PathError {
	pe := s3types.PathError{
		Path:   out.Path,
		Action: out.Action,
	}
	if out.Err != nil {
		pe.Code = errors.CodeOf(out.Err).String()
		pe.Message = out.Err.Error()
	}
	return pe
}
