package remote

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

// MinioStore implements Store for S3-compatible endpoints using minio-go.
type MinioStore struct {
	client *minio.Client
}

// NewMinioStore creates a store backed by a MinIO client.
func NewMinioStore(client *minio.Client) *MinioStore {
	return &MinioStore{client: client}
}

// Put implements Store.Put.
func (m *MinioStore) Put(ctx context.Context, in *PutInput) error {
	opts := minio.PutObjectOptions{
		ContentType:  in.ContentType,
		CacheControl: in.CacheControl,
	}
	if in.ACL != "" {
		opts.UserMetadata = map[string]string{"x-amz-acl": string(in.ACL)}
	}

	_, err := m.client.PutObject(ctx, in.Bucket, in.Key, bytes.NewReader(in.Body), int64(len(in.Body)), opts)
	if err != nil {
		return errors.NewObjectError("upload", in.Bucket, in.Key, translateError(err))
	}
	return nil
}

// Delete implements Store.Delete.
func (m *MinioStore) Delete(ctx context.Context, bucket, key string) error {
	err := m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return errors.NewObjectError("delete", bucket, key, translateError(err))
	}
	return nil
}

// List implements Store.List.
func (m *MinioStore) List(ctx context.Context, bucket, prefix string) ([]*s3types.RemoteFile, error) {
	var objects []*s3types.RemoteFile

	for obj := range m.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, errors.NewBucketError("list", bucket, translateError(obj.Err))
		}
		objects = append(objects, &s3types.RemoteFile{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ETag:         strings.Trim(obj.ETag, `"`),
		})
	}

	return objects, nil
}

// Website implements Store.Website. S3-compatible servers have no website
// configuration API, so the descriptor points at the path-style bucket URL.
func (m *MinioStore) Website(ctx context.Context, bucket, region string) (*s3types.SiteDescriptor, error) {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, errors.NewBucketError("website", bucket, translateError(err))
	}
	if !exists {
		return nil, errors.NewBucketError("website", bucket, errors.ErrBucketNotFound)
	}

	return &s3types.SiteDescriptor{
		Bucket: bucket,
		Region: region,
		URL:    strings.TrimSuffix(m.client.EndpointURL().String(), "/") + "/" + bucket + "/",
	}, nil
}

// translateError maps MinIO error responses onto the package sentinels.
func translateError(err error) error {
	var sentinel error
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey":
		sentinel = errors.ErrObjectNotFound
	case "NoSuchBucket":
		sentinel = errors.ErrBucketNotFound
	case "AccessDenied":
		sentinel = errors.ErrAccessDenied
	case "SlowDown":
		sentinel = errors.ErrTooManyRequests
	default:
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
