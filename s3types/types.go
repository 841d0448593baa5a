// Package s3types provides shared type definitions for the s3website module.
package s3types

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-git/go-billy/v5"
)

// Deploy defaults.
const (
	// DefaultRetries is the number of retry passes made over failed paths.
	DefaultRetries = 1

	// DefaultConcurrency is the maximum number of chunks a batch is split into.
	DefaultConcurrency = 200

	// DefaultRegion is used when neither the target nor the client names one.
	DefaultRegion = "us-east-1"

	// DefaultContentType is used when no content type can be resolved.
	DefaultContentType = "application/octet-stream"
)

// ObjectACL represents the canned access control list applied to uploaded objects.
type ObjectACL string

// Predefined object ACLs
const (
	// ACLPrivate grants private access
	ACLPrivate ObjectACL = "private"

	// ACLPublicRead grants public read access, the usual choice for website buckets
	ACLPublicRead ObjectACL = "public-read"

	// ACLAuthenticatedRead grants authenticated users read access
	ACLAuthenticatedRead ObjectACL = "authenticated-read"

	// ACLOwnerFullControl grants bucket owner full control
	ACLOwnerFullControl ObjectACL = "bucket-owner-full-control"
)

// Action is the remote operation performed for a path.
type Action string

const (
	// ActionUpload writes a local file to its remote key.
	ActionUpload Action = "upload"

	// ActionDelete removes a remote key.
	ActionDelete Action = "delete"
)

// Category is the success bucket a completed path is reported under.
type Category string

const (
	// CategoryUploaded holds local-only paths that were uploaded.
	CategoryUploaded Category = "uploaded"

	// CategoryUpdated holds changed paths that were re-uploaded.
	CategoryUpdated Category = "updated"

	// CategoryRemoved holds remote-only paths that were deleted.
	CategoryRemoved Category = "removed"
)

// DeployTarget describes one deployment: which local tree goes to which bucket.
type DeployTarget struct {
	// Domain is the bucket name, usually the site's domain
	Domain string `yaml:"domain"`

	// Region is the bucket region; empty uses the client region, or the
	// bucket's own location when the client has none
	Region string `yaml:"region,omitempty"`

	// UploadDir is the local directory whose contents are deployed
	UploadDir string `yaml:"uploadDir"`

	// Prefix is an optional key prefix under which the site lives
	Prefix string `yaml:"prefix,omitempty"`

	// Exclude holds glob patterns for paths that are never touched
	Exclude []string `yaml:"exclude,omitempty"`

	// ContentTypes maps a file extension to the MIME type uploaded with it
	ContentTypes map[string]string `yaml:"contentTypes,omitempty"`

	// CacheControl is sent with every upload when set
	CacheControl string `yaml:"cacheControl,omitempty"`

	// ACL is the canned ACL sent with every upload when set
	ACL ObjectACL `yaml:"acl,omitempty"`

	// Retries is the number of retry passes over failed paths; 0 disables retry
	Retries int `yaml:"retries"`

	// Concurrency is the maximum number of parallel chunks per batch
	Concurrency int `yaml:"concurrency,omitempty"`
}

// Workers returns the effective chunk concurrency.
func (t *DeployTarget) Workers() int {
	if t.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return t.Concurrency
}

// DiffResult classifies every relative path that exists locally or remotely.
// All four sets are sorted and pairwise disjoint.
type DiffResult struct {
	// Missing holds remote-only paths; they are deleted
	Missing []string

	// Changed holds paths present on both sides with differing content; they are re-uploaded
	Changed []string

	// Extra holds local-only paths; they are uploaded
	Extra []string

	// Keep holds paths present on both sides with identical content
	Keep []string
}

// Total returns the number of paths that require an action.
func (d *DiffResult) Total() int {
	return len(d.Missing) + len(d.Changed) + len(d.Extra)
}

// Index returns the set each path belongs to. Keep paths are not included.
func (d *DiffResult) Index() map[string]Category {
	idx := make(map[string]Category, d.Total())
	for _, p := range d.Missing {
		idx[p] = CategoryRemoved
	}
	for _, p := range d.Changed {
		idx[p] = CategoryUpdated
	}
	for _, p := range d.Extra {
		idx[p] = CategoryUploaded
	}
	return idx
}

// Outcome is the result of a single remote action.
type Outcome struct {
	Path   string
	Action Action
	Err    error
}

// OK reports whether the action succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Success creates a successful outcome.
func Success(path string, action Action) Outcome {
	return Outcome{Path: path, Action: action}
}

// Failure creates a failed outcome.
func Failure(path string, action Action, err error) Outcome {
	return Outcome{Path: path, Action: action, Err: err}
}

// PathError describes why a path ended up in DeployResult.Errors.
type PathError struct {
	// Path is the relative path that failed
	Path string

	// Action is the last action attempted for the path
	Action Action

	// Code is the error classification
	Code string

	// Message is the error message
	Message string
}

// DeployResult reports the outcome of every candidate path.
type DeployResult struct {
	// Uploaded holds paths uploaded for the first time, plus retried uploads
	Uploaded []string

	// Updated holds changed paths re-uploaded on the first attempt
	Updated []string

	// Removed holds paths deleted from the bucket
	Removed []string

	// Errors holds paths whose final attempt failed
	Errors []string

	// Failures holds one entry per path in Errors
	Failures []PathError
}

// Count returns the number of recorded paths.
func (r *DeployResult) Count() int {
	return len(r.Uploaded) + len(r.Updated) + len(r.Removed) + len(r.Errors)
}

// HasErrors reports whether any path failed terminally.
func (r *DeployResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Empty reports whether the deploy changed nothing.
func (r *DeployResult) Empty() bool {
	return r.Count() == 0
}

// Failure returns the recorded failure for path.
func (r *DeployResult) Failure(path string) (PathError, bool) {
	for _, f := range r.Failures {
		if f.Path == path {
			return f, true
		}
	}
	return PathError{}, false
}

// Clone returns a deep copy of the result.
func (r *DeployResult) Clone() *DeployResult {
	return &DeployResult{
		Uploaded: append([]string(nil), r.Uploaded...),
		Updated:  append([]string(nil), r.Updated...),
		Removed:  append([]string(nil), r.Removed...),
		Errors:   append([]string(nil), r.Errors...),
		Failures: append([]PathError(nil), r.Failures...),
	}
}

// RoutingRule is a website redirect rule as reported by the bucket.
type RoutingRule struct {
	// KeyPrefixEquals is the condition key prefix
	KeyPrefixEquals string

	// HTTPErrorCodeReturnedEquals is the condition status code
	HTTPErrorCodeReturnedEquals string

	// ReplaceKeyPrefixWith is the redirect key prefix
	ReplaceKeyPrefixWith string

	// HostName is the redirect host
	HostName string
}

// SiteDescriptor describes the hosted site after a deploy.
type SiteDescriptor struct {
	// Bucket is the bucket name
	Bucket string

	// Region is the bucket region
	Region string

	// URL is the public website URL
	URL string

	// Hosting reports whether website hosting is configured on the bucket
	Hosting bool

	// IndexDocument is the index suffix, e.g. index.html
	IndexDocument string

	// ErrorDocument is the error page key
	ErrorDocument string

	// RoutingRules are the configured redirect rules
	RoutingRules []RoutingRule
}

// DeployReport is everything a deploy produces.
type DeployReport struct {
	// Site is the bucket's site descriptor, fetched after the deploy
	Site *SiteDescriptor

	// Result is the per-path outcome
	Result *DeployResult

	// Diff is the filtered diff the deploy acted on
	Diff *DiffResult

	// Duration is how long the deploy took
	Duration time.Duration
}

// LocalFile represents a file under the upload directory.
type LocalFile struct {
	// Path is the local file path
	Path string

	// RelPath is the slash-separated path relative to the upload directory
	RelPath string

	// Size is the file size in bytes
	Size int64

	// ModTime is the file modification time
	ModTime time.Time
}

// RemoteFile represents an object under the target prefix.
type RemoteFile struct {
	// Key is the object key
	Key string

	// RelPath is the key relative to the target prefix
	RelPath string

	// Size is the object size in bytes
	Size int64

	// LastModified is when the object was last modified
	LastModified time.Time

	// ETag is the entity tag with quotes stripped
	ETag string
}

// Configuration types for functional options

// ClientConfig holds configuration for the deploy client.
type ClientConfig struct {
	Region           string
	Endpoint         string
	MaxRetries       int
	Timeout          time.Duration
	ForcePathStyle   bool
	CustomAWSConfig  *aws.Config
	DisableSSL       bool
	CustomHTTPClient *http.Client
	AccessKeyID      string
	SecretAccessKey  string
	Filesystem       billy.Filesystem
	Logger           *slog.Logger
	RetryBackOff     func() backoff.BackOff
}

type (
	// Option is a functional option for configuring the deploy client.
	Option func(*ClientConfig)
	// TargetOption is a functional option for configuring a deploy target.
	TargetOption func(*DeployTarget)
)
