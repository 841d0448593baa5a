package remote

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

// S3Store implements Store on top of the AWS SDK.
type S3Store struct {
	client s3api.S3API
}

// NewS3Store creates a store backed by an S3 client.
func NewS3Store(client s3api.S3API) *S3Store {
	return &S3Store{client: client}
}

// Put implements Store.Put.
func (s *S3Store) Put(ctx context.Context, in *PutInput) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(in.Bucket),
		Key:           aws.String(in.Key),
		Body:          bytes.NewReader(in.Body),
		ContentLength: aws.Int64(int64(len(in.Body))),
	}
	if in.ContentType != "" {
		input.ContentType = aws.String(in.ContentType)
	}
	if in.CacheControl != "" {
		input.CacheControl = aws.String(in.CacheControl)
	}
	if in.ACL != "" {
		input.ACL = types.ObjectCannedACL(in.ACL)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return errors.NewObjectError("upload", in.Bucket, in.Key, errors.ConvertAWSError(err))
	}
	return nil
}

// Delete implements Store.Delete.
func (s *S3Store) Delete(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isMissingKey(err) {
		return errors.NewObjectError("delete", bucket, key, errors.ConvertAWSError(err))
	}
	return nil
}

// List implements Store.List.
func (s *S3Store) List(ctx context.Context, bucket, prefix string) ([]*s3types.RemoteFile, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var objects []*s3types.RemoteFile
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.NewBucketError("list", bucket, errors.ConvertAWSError(err))
		}

		for _, obj := range page.Contents {
			objects = append(objects, &s3types.RemoteFile{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
				ETag:         strings.Trim(aws.ToString(obj.ETag), `"`),
			})
		}
	}

	return objects, nil
}

// Website implements Store.Website. A bucket without website configuration
// yields a descriptor with Hosting set to false.
func (s *S3Store) Website(ctx context.Context, bucket, region string) (*s3types.SiteDescriptor, error) {
	if region == "" {
		region = s.bucketRegion(ctx, bucket)
	}

	site := &s3types.SiteDescriptor{
		Bucket: bucket,
		Region: region,
		URL:    WebsiteURL(bucket, region),
	}

	out, err := s.client.GetBucketWebsite(ctx, &s3.GetBucketWebsiteInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		if apiCode(err) == "NoSuchWebsiteConfiguration" {
			return site, nil
		}
		return nil, errors.NewBucketError("website", bucket, errors.ConvertAWSError(err))
	}

	site.Hosting = true
	if out.IndexDocument != nil {
		site.IndexDocument = aws.ToString(out.IndexDocument.Suffix)
	}
	if out.ErrorDocument != nil {
		site.ErrorDocument = aws.ToString(out.ErrorDocument.Key)
	}
	for _, rule := range out.RoutingRules {
		var rr s3types.RoutingRule
		if rule.Condition != nil {
			rr.KeyPrefixEquals = aws.ToString(rule.Condition.KeyPrefixEquals)
			rr.HTTPErrorCodeReturnedEquals = aws.ToString(rule.Condition.HttpErrorCodeReturnedEquals)
		}
		if rule.Redirect != nil {
			rr.ReplaceKeyPrefixWith = aws.ToString(rule.Redirect.ReplaceKeyPrefixWith)
			rr.HostName = aws.ToString(rule.Redirect.HostName)
		}
		site.RoutingRules = append(site.RoutingRules, rr)
	}

	return site, nil
}

// bucketRegion asks S3 where bucket lives, falling back to the default region.
func (s *S3Store) bucketRegion(ctx context.Context, bucket string) string {
	out, err := s.client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return s3types.DefaultRegion
	}

	switch out.LocationConstraint {
	case "":
		return s3types.DefaultRegion
	case types.BucketLocationConstraintEu:
		return "eu-west-1"
	default:
		return string(out.LocationConstraint)
	}
}

func isMissingKey(err error) bool {
	switch apiCode(err) {
	case "NoSuchKey", "NotFound":
		return true
	}
	var nsk *types.NoSuchKey
	return stderrors.As(err, &nsk)
}

func apiCode(err error) string {
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
