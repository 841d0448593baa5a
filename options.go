package s3website

import (
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

// WithRegion sets the AWS region.
// If not specified, uses the default AWS region from the credential chain.
func WithRegion(region string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Region = region
	}
}

// WithMaxRetries sets the SDK's maximum attempts per request.
// This is independent of the per-path retry passes of a deploy.
func WithMaxRetries(maxRetries int) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithTimeout sets the timeout for individual requests.
// Default is no timeout (0).
func WithTimeout(timeout time.Duration) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithForcePathStyle forces the use of path-style URLs instead of virtual-hosted style.
// This is required for S3-compatible services that don't support virtual hosting.
func WithForcePathStyle(forcePathStyle bool) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithAWSConfig provides a custom AWS configuration.
// This overrides the default configuration loading behavior.
func WithAWSConfig(config *aws.Config) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.CustomAWSConfig = config
	}
}

// WithEndpoint sets a custom S3 endpoint URL.
// This is useful for S3-compatible services or local testing with LocalStack.
func WithEndpoint(endpoint string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithDisableSSL makes scheme-less endpoints use plain HTTP.
func WithDisableSSL(disableSSL bool) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.DisableSSL = disableSSL
	}
}

// WithCustomHTTPClient provides a custom HTTP client. It takes precedence
// over WithTimeout.
func WithCustomHTTPClient(client *http.Client) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.CustomHTTPClient = client
	}
}

// WithCredentials sets static credentials instead of the default chain.
func WithCredentials(accessKeyID, secretAccessKey string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.AccessKeyID = accessKeyID
		c.SecretAccessKey = secretAccessKey
	}
}

// WithFilesystem sets the filesystem upload directories are read from.
// If not specified, defaults to the OS filesystem.
func WithFilesystem(filesystem billy.Filesystem) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *slog.Logger) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Logger = logger
	}
}

// WithRetryBackOff sets the policy that spaces out retry passes.
// Each deploy calls newBackOff once.
func WithRetryBackOff(newBackOff func() backoff.BackOff) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.RetryBackOff = newBackOff
	}
}

// NewTarget creates a deploy target with default retries and concurrency.
func NewTarget(domain, uploadDir string, opts ...s3types.TargetOption) *s3types.DeployTarget {
	target := &s3types.DeployTarget{
		Domain:      domain,
		UploadDir:   uploadDir,
		Retries:     s3types.DefaultRetries,
		Concurrency: s3types.DefaultConcurrency,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(target)
		}
	}
	return target
}

// WithPrefix places the site under a key prefix.
func WithPrefix(prefix string) s3types.TargetOption {
	return func(t *s3types.DeployTarget) {
		t.Prefix = prefix
	}
}

// WithExclude adds glob patterns for paths a deploy never touches.
func WithExclude(patterns ...string) s3types.TargetOption {
	return func(t *s3types.DeployTarget) {
		t.Exclude = append(t.Exclude, patterns...)
	}
}

// WithContentType overrides the MIME type sent for an extension.
func WithContentType(ext, contentType string) s3types.TargetOption {
	return func(t *s3types.DeployTarget) {
		if t.ContentTypes == nil {
			t.ContentTypes = make(map[string]string)
		}
		t.ContentTypes[ext] = contentType
	}
}

// WithContentTypes merges a table of extension overrides.
func WithContentTypes(types map[string]string) s3types.TargetOption {
	return func(t *s3types.DeployTarget) {
		if t.ContentTypes == nil {
			t.ContentTypes = make(map[string]string, len(types))
		}
		maps.Copy(t.ContentTypes, types)
	}
}

// WithCacheControl sets the Cache-Control header sent with every upload.
func WithCacheControl(cacheControl string) s3types.TargetOption {
	return func(t *s3types.DeployTarget) {
		t.CacheControl = cacheControl
	}
}

// WithACL sets the canned ACL sent with every upload.
func WithACL(acl s3types.ObjectACL) s3types.TargetOption {
	return func(t *s3types.DeployTarget) {
		t.ACL = acl
	}
}

// WithRetries sets the number of retry passes. 0 disables retry.
func WithRetries(retries int) s3types.TargetOption {
	return func(t *s3types.DeployTarget) {
		t.Retries = retries
	}
}

// WithConcurrency sets the maximum number of parallel chunks per batch.
func WithConcurrency(concurrency int) s3types.TargetOption {
	return func(t *s3types.DeployTarget) {
		if concurrency > 0 {
			t.Concurrency = concurrency
		}
	}
}

// WithTargetRegion sets the bucket region used for the site URL.
func WithTargetRegion(region string) s3types.TargetOption {
	return func(t *s3types.DeployTarget) {
		t.Region = region
	}
}
