package aggregator

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

func TestZeroTotalCompletesImmediately(t *testing.T) {
	var calls int
	var got *s3types.DeployResult

	a := New(0, func(r *s3types.DeployResult) {
		calls++
		got = r
	})

	assert.True(t, a.Complete())
	assert.Equal(t, 1, calls)
	require.NotNil(t, got)
	assert.True(t, got.Empty())

	_, err := a.Record(s3types.CategoryUploaded, s3types.Success("x", s3types.ActionUpload))
	assert.ErrorIs(t, err, ErrAlreadyComplete)
	assert.Equal(t, 1, calls)
}

func TestRecordCategories(t *testing.T) {
	a := New(4, nil)

	done, err := a.Record(s3types.CategoryUploaded, s3types.Success("new.html", s3types.ActionUpload))
	require.NoError(t, err)
	assert.False(t, done)
	_, _ = a.Record(s3types.CategoryUpdated, s3types.Success("index.html", s3types.ActionUpload))
	_, _ = a.Record(s3types.CategoryRemoved, s3types.Success("old.html", s3types.ActionDelete))
	assert.False(t, a.Complete())

	done, err = a.Record(s3types.CategoryUpdated,
		s3types.Failure("broken.css", s3types.ActionUpload, errors.NewError("upload", errors.ErrAccessDenied)))
	require.NoError(t, err)
	assert.True(t, done)

	select {
	case <-a.Done():
	default:
		t.Fatal("done channel not closed")
	}

	r := a.Result()
	assert.Equal(t, []string{"new.html"}, r.Uploaded)
	assert.Equal(t, []string{"index.html"}, r.Updated)
	assert.Equal(t, []string{"old.html"}, r.Removed)
	assert.Equal(t, []string{"broken.css"}, r.Errors)
	require.Len(t, r.Failures, 1)
	assert.Equal(t, "FORBIDDEN", r.Failures[0].Code)
	assert.Equal(t, s3types.ActionUpload, r.Failures[0].Action)
}

func TestRecordAfterCompletion(t *testing.T) {
	a := New(1, nil)
	_, err := a.Record(s3types.CategoryRemoved, s3types.Success("a", s3types.ActionDelete))
	require.NoError(t, err)

	done, err := a.Record(s3types.CategoryRemoved, s3types.Success("b", s3types.ActionDelete))

	assert.False(t, done)
	assert.ErrorIs(t, err, ErrAlreadyComplete)
	assert.Equal(t, 1, a.Result().Count())
}

func TestResultIsACopy(t *testing.T) {
	a := New(2, nil)
	_, _ = a.Record(s3types.CategoryUploaded, s3types.Success("a", s3types.ActionUpload))

	r := a.Result()
	r.Uploaded[0] = "mutated"

	assert.Equal(t, []string{"a"}, a.Result().Uploaded)
}

func TestCompletesExactlyOnceUnderConcurrency(t *testing.T) {
	const writers = 64
	const perWriter = 50
	total := writers * perWriter

	var fired atomic.Int64
	var final *s3types.DeployResult
	a := New(total, func(r *s3types.DeployResult) {
		fired.Add(1)
		final = r
	})

	var completions atomic.Int64
	var wg sync.WaitGroup
	categories := []s3types.Category{s3types.CategoryUploaded, s3types.CategoryUpdated, s3types.CategoryRemoved}

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				p := fmt.Sprintf("w%d/f%d", w, i)
				out := s3types.Success(p, s3types.ActionUpload)
				if i%10 == 0 {
					out = s3types.Failure(p, s3types.ActionUpload, fmt.Errorf("fail"))
				}
				done, err := a.Record(categories[(w+i)%3], out)
				assert.NoError(t, err)
				if done {
					completions.Add(1)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, int64(1), fired.Load())
	assert.Equal(t, int64(1), completions.Load())
	require.NotNil(t, final)
	assert.Equal(t, total, final.Count())
	assert.Len(t, final.Errors, writers*perWriter/10)
	assert.Len(t, final.Failures, len(final.Errors))
}
