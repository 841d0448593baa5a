// Package remote provides the object store a site is deployed to.
//
// Two implementations are available: S3Store talks to Amazon S3 through the
// AWS SDK, MinioStore talks to any S3-compatible endpoint through minio-go.
package remote

import (
	"context"
	"fmt"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

// PutInput describes a single object write.
type PutInput struct {
	Bucket       string
	Key          string
	Body         []byte
	ContentType  string
	CacheControl string
	ACL          s3types.ObjectACL
}

// Store is the remote side of a deploy.
type Store interface {
	// Put writes an object, replacing any existing object at the key.
	Put(ctx context.Context, in *PutInput) error

	// Delete removes an object. Deleting a key that does not exist succeeds.
	Delete(ctx context.Context, bucket, key string) error

	// List returns every object whose key starts with prefix.
	List(ctx context.Context, bucket, prefix string) ([]*s3types.RemoteFile, error)

	// Website returns the bucket's site descriptor. An empty region is resolved
	// by the store.
	Website(ctx context.Context, bucket, region string) (*s3types.SiteDescriptor, error)
}

// dashRegions still use the legacy "s3-website-<region>" endpoint form.
var dashRegions = map[string]bool{
	"us-east-1":      true,
	"us-west-1":      true,
	"us-west-2":      true,
	"eu-west-1":      true,
	"ap-southeast-1": true,
	"ap-southeast-2": true,
	"ap-northeast-1": true,
	"sa-east-1":      true,
	"us-gov-west-1":  true,
}

// WebsiteURL returns the public website endpoint of bucket in region.
func WebsiteURL(bucket, region string) string {
	if region == "" {
		region = s3types.DefaultRegion
	}
	if dashRegions[region] {
		return fmt.Sprintf("http://%s.s3-website-%s.amazonaws.com", bucket, region)
	}
	return fmt.Sprintf("http://%s.s3-website.%s.amazonaws.com", bucket, region)
}
