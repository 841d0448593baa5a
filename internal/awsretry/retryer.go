// Package awsretry provides the SDK request retryer used for S3 calls.
package awsretry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/smithy-go"
)

// Retryer retries throttled S3 requests with exponential backoff and jitter.
// Errors it has no opinion about are classified by the SDK's default rules.
//
// It holds only immutable configuration and is safe for concurrent use.
type Retryer struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	fallback    retry.IsErrorRetryables
}

// New creates a retryer allowing maxAttempts attempts per request, the first
// one included.
func New(maxAttempts int) *Retryer {
	return &Retryer{
		maxAttempts: maxAttempts,
		baseDelay:   100 * time.Millisecond,
		maxDelay:    20 * time.Second,
		fallback:    retry.IsErrorRetryables(retry.DefaultRetryables),
	}
}

// MaxAttempts returns the maximum number of attempts per request.
func (r *Retryer) MaxAttempts() int {
	return r.maxAttempts
}

// RetryDelay returns baseDelay * 2^(attempt-1) with ±25% jitter, capped at maxDelay.
func (r *Retryer) RetryDelay(attempt int, _ error) (time.Duration, error) {
	delay := time.Duration(math.Pow(2, float64(attempt-1))) * r.baseDelay

	if jitter := int64(float64(delay) * 0.25); jitter > 0 {
		delay += time.Duration(rand.Int64N(2*jitter) - jitter)
	}

	delay = min(delay, r.maxDelay)
	return max(delay, 0), nil
}

// IsErrorRetryable reports whether a failed request should be sent again.
func (r *Retryer) IsErrorRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "SlowDown",
			"Throttling",
			"ThrottlingException",
			"RequestLimitExceeded",
			"TooManyRequests",
			"ServiceUnavailable",
			"RequestTimeout":
			return true
		case "AccessDenied",
			"NoSuchBucket",
			"InvalidAccessKeyId",
			"SignatureDoesNotMatch",
			"InvalidBucketName":
			return false
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	return r.fallback.IsErrorRetryable(err).Bool()
}

// GetRetryToken always grants a retry.
func (r *Retryer) GetRetryToken(context.Context, error) (func(error) error, error) {
	return func(error) error { return nil }, nil
}

// GetInitialToken returns a no-op release function.
func (r *Retryer) GetInitialToken() func(error) error {
	return func(error) error { return nil }
}

// Verify that Retryer implements aws.Retryer
var _ aws.Retryer = (*Retryer)(nil)
