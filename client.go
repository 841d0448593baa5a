package s3website

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/awsretry"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/localfs"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/remote"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/sync/retry"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

// Client deploys sites to a bucket store. It is safe for concurrent use and
// keeps no state between deploys.
type Client struct {
	// store is the remote object store deploys write to
	store remote.Store

	// config holds the AWS configuration; its region is the default
	// for targets that name none
	config aws.Config

	// fs is the filesystem upload directories are read from
	fs *localfs.FS

	logger     *slog.Logger
	newBackOff func() backoff.BackOff

	// mu protects fs
	mu sync.RWMutex
}

// New creates a client backed by the AWS SDK. Credentials come from the
// default credential chain unless WithCredentials is given.
//
// Example:
//
//	client, err := s3website.New(
//	    s3website.WithRegion("us-west-2"),
//	    s3website.WithMaxRetries(5),
//	)
func New(opts ...s3types.Option) (*Client, error) {
	clientCfg := newClientConfig(opts)

	var cfg aws.Config
	var err error

	if clientCfg.CustomAWSConfig != nil {
		cfg = *clientCfg.CustomAWSConfig
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, errors.NewError("client initialization", err)
		}
	}

	if clientCfg.Region != "" {
		cfg.Region = clientCfg.Region
	} else if cfg.Region == "" {
		cfg.Region = s3types.DefaultRegion
	}

	if clientCfg.MaxRetries > 0 {
		maxAttempts := clientCfg.MaxRetries
		cfg.Retryer = func() aws.Retryer {
			return awsretry.New(maxAttempts)
		}
	}

	if clientCfg.AccessKeyID != "" {
		cfg.Credentials = credentials.NewStaticCredentialsProvider(
			clientCfg.AccessKeyID, clientCfg.SecretAccessKey, "")
	}

	var s3Opts []func(*s3.Options)

	if clientCfg.Endpoint != "" {
		endpoint := endpointURL(clientCfg.Endpoint, clientCfg.DisableSSL)
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	if clientCfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	switch {
	case clientCfg.CustomHTTPClient != nil:
		httpClient := clientCfg.CustomHTTPClient
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	case clientCfg.Timeout > 0:
		httpClient := &http.Client{Timeout: clientCfg.Timeout}
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	}

	client := newWithStore(remote.NewS3Store(s3.NewFromConfig(cfg, s3Opts...)), clientCfg)
	client.config = cfg
	return client, nil
}

// NewWithClient creates a client around a custom S3API implementation.
// This is primarily used for testing with mocked clients.
func NewWithClient(s3Client s3api.S3API, opts ...s3types.Option) *Client {
	return newWithStore(remote.NewS3Store(s3Client), newClientConfig(opts))
}

// NewMinio creates a client for an S3-compatible server such as MinIO.
// endpoint is host[:port], optionally with an http:// or https:// scheme.
// Credentials are taken from WithCredentials.
func NewMinio(endpoint string, opts ...s3types.Option) (*Client, error) {
	clientCfg := newClientConfig(opts)

	if endpoint == "" {
		return nil, errors.NewValidationError("client initialization", "endpoint", "cannot be empty")
	}

	secure := !clientCfg.DisableSSL
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		secure = false
		endpoint = strings.TrimPrefix(endpoint, "http://")
	case strings.HasPrefix(endpoint, "https://"):
		secure = true
		endpoint = strings.TrimPrefix(endpoint, "https://")
	}

	minioOpts := &minio.Options{
		Creds:  miniocreds.NewStaticV4(clientCfg.AccessKeyID, clientCfg.SecretAccessKey, ""),
		Secure: secure,
		Region: clientCfg.Region,
	}
	if clientCfg.CustomHTTPClient != nil {
		minioOpts.Transport = clientCfg.CustomHTTPClient.Transport
	}

	mc, err := minio.New(endpoint, minioOpts)
	if err != nil {
		return nil, errors.NewError("client initialization", fmt.Errorf("minio: %w", err))
	}

	return newWithStore(remote.NewMinioStore(mc), clientCfg), nil
}

// newWithStore wires the parts shared by every client flavour.
func newWithStore(store remote.Store, clientCfg *s3types.ClientConfig) *Client {
	filesystem := localfs.NewOSFS("/")
	if clientCfg.Filesystem != nil {
		filesystem = localfs.New(clientCfg.Filesystem)
	}

	logger := clientCfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	newBackOff := clientCfg.RetryBackOff
	if newBackOff == nil {
		newBackOff = retry.DefaultBackOff
	}

	return &Client{
		store:      store,
		config:     aws.Config{Region: clientCfg.Region},
		fs:         filesystem,
		logger:     logger,
		newBackOff: newBackOff,
	}
}

func newClientConfig(opts []s3types.Option) *s3types.ClientConfig {
	clientCfg := &s3types.ClientConfig{
		MaxRetries:     3,
		ForcePathStyle: false,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(clientCfg)
		}
	}
	return clientCfg
}

func endpointURL(endpoint string, disableSSL bool) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	if disableSSL {
		return "http://" + endpoint
	}
	return "https://" + endpoint
}

// Region returns the region the client was configured with. Targets without
// a region are deployed against it; when it is empty too, the bucket is asked
// for its location.
func (c *Client) Region() string {
	return c.config.Region
}

// SetFilesystem replaces the filesystem upload directories are read from.
func (c *Client) SetFilesystem(filesystem billy.Filesystem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fs = localfs.New(filesystem)
}

func (c *Client) filesystem() *localfs.FS {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fs
}
