package errors

import (
	"context"
	"errors"

	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"
)

// ErrorCode classifies a failure so it can be reported without the
// underlying error value. Codes are strings so deploy reports serialize
// naturally.
type ErrorCode string

const (
	// CodeNotFound indicates a bucket or object does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeForbidden indicates the credentials lack permission for the operation.
	CodeForbidden ErrorCode = "FORBIDDEN"

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a deploy configuration error.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// CodeLocalIO indicates a local file could not be read.
	CodeLocalIO ErrorCode = "LOCAL_IO_ERROR"

	// CodeNetwork indicates a network operation failed.
	CodeNetwork ErrorCode = "NETWORK_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeRateLimit indicates the remote store throttled the request.
	CodeRateLimit ErrorCode = "RATE_LIMIT_EXCEEDED"

	// CodeExecutionFailed indicates a remote call failed for another reason.
	CodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// CodeInternal indicates an internal invariant was broken.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeUnknown indicates an unclassified error.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// CodeOf classifies err. Sentinels from this package take precedence,
// followed by remote API error codes reported by the AWS SDK or MinIO.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrObjectNotFound), errors.Is(err, ErrBucketNotFound):
		return CodeNotFound
	case errors.Is(err, ErrAccessDenied):
		return CodeForbidden
	case errors.Is(err, ErrInvalidConfig):
		return CodeInvalidConfig
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrLocalPath):
		return CodeLocalIO
	case errors.Is(err, ErrTooManyRequests):
		return CodeRateLimit
	case errors.Is(err, ErrIncomplete):
		return CodeInternal
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	}

	if code := apiErrorCode(err); code != "" {
		return classifyAPICode(code)
	}

	return CodeUnknown
}

func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}

	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		return minioErr.Code
	}

	return ""
}

func classifyAPICode(code string) ErrorCode {
	switch code {
	case "NoSuchKey", "NotFound", "NoSuchBucket":
		return CodeNotFound
	case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return CodeForbidden
	case "SlowDown", "Throttling", "ThrottlingException", "TooManyRequests":
		return CodeRateLimit
	case "RequestTimeout", "RequestTimeoutException":
		return CodeTimeout
	case "InvalidArgument", "InvalidBucketName", "KeyTooLongError":
		return CodeInvalidInput
	default:
		return CodeExecutionFailed
	}
}
