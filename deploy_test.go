package s3website

import (
	"context"
	"io"
	"strings"
	gosync "sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

const testBucket = "www.example.com"

func newTestClient(t *testing.T, store *testutil.FakeStore, files map[string]string) *Client {
	t.Helper()

	fs := testutil.SiteFS(t, "/site", files)
	return newWithStore(store, newClientConfig([]s3types.Option{
		WithFilesystem(fs.Raw()),
		WithRetryBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	}))
}

func TestClient_Deploy(t *testing.T) {
	ctx := context.Background()

	store := testutil.NewFakeStore(testBucket)
	store.Seed(testBucket, "site/a.html", []byte("old"))
	store.Seed(testBucket, "site/old.txt", []byte("stale"))
	store.Seed(testBucket, "site/tmp/cache.bin", []byte("cache"))
	store.Seed(testBucket, "unrelated.txt", []byte("x"))

	client := newTestClient(t, store, map[string]string{
		"a.html":       "new",
		"b.txt":        "b",
		"tmp/scratch":  "s",
		"assets/a.css": "body{}",
	})

	target := NewTarget(testBucket, "/site",
		WithPrefix("site"),
		WithExclude("tmp/*"),
		WithCacheControl("max-age=300"),
		WithACL(s3types.ACLPublicRead),
	)

	report, err := client.Deploy(ctx, target)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"assets/a.css", "b.txt"}, report.Result.Uploaded)
	assert.Equal(t, []string{"a.html"}, report.Result.Updated)
	assert.Equal(t, []string{"old.txt"}, report.Result.Removed)
	assert.Empty(t, report.Result.Errors)
	assert.Positive(t, report.Duration)
	require.NotNil(t, report.Site)
	assert.Equal(t, testBucket, report.Site.Bucket)

	assert.Equal(t, []string{
		"site/a.html",
		"site/assets/a.css",
		"site/b.txt",
		"site/tmp/cache.bin",
		"unrelated.txt",
	}, store.Keys(testBucket))

	obj, ok := store.Object(testBucket, "site/assets/a.css")
	require.True(t, ok)
	assert.Equal(t, "text/css; charset=utf-8", obj.ContentType)
	assert.Equal(t, "max-age=300", obj.CacheControl)
	assert.Equal(t, s3types.ACLPublicRead, obj.ACL)

	// the caller's target is left as it was
	assert.Equal(t, "/site", target.UploadDir)

	again, err := client.Deploy(ctx, target)
	require.NoError(t, err)
	assert.True(t, again.Result.Empty())
}

func TestClient_Deploy_InvalidTarget(t *testing.T) {
	store := testutil.NewFakeStore(testBucket)
	client := newTestClient(t, store, map[string]string{"index.html": "i"})

	_, err := client.Deploy(context.Background(), NewTarget("", "/site", WithExclude("[")))
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfig(err))
	assert.Empty(t, store.Calls())

	_, err = client.Plan(context.Background(), nil)
	require.Error(t, err)
}

func TestClient_Deploy_MissingBucket(t *testing.T) {
	store := testutil.NewFakeStore()
	client := newTestClient(t, store, map[string]string{"index.html": "i"})

	report, err := client.Deploy(context.Background(), NewTarget(testBucket, "/site"))
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.IsBucketNotFound(err))
}

func TestClient_DeployAsync(t *testing.T) {
	store := testutil.NewFakeStore(testBucket)
	client := newTestClient(t, store, map[string]string{"index.html": "i"})

	type outcome struct {
		site   *s3types.SiteDescriptor
		result *s3types.DeployResult
		err    error
	}
	done := make(chan outcome, 1)

	client.DeployAsync(context.Background(), NewTarget(testBucket, "/site"),
		func(site *s3types.SiteDescriptor, result *s3types.DeployResult, err error) {
			done <- outcome{site, result, err}
		})

	select {
	case got := <-done:
		require.NoError(t, got.err)
		require.NotNil(t, got.site)
		assert.Equal(t, []string{"index.html"}, got.result.Uploaded)
	case <-time.After(5 * time.Second):
		t.Fatal("deploy callback was not called")
	}

	t.Run("aborted deploy", func(t *testing.T) {
		failed := make(chan outcome, 1)
		client.DeployAsync(context.Background(), NewTarget("", "/site"),
			func(site *s3types.SiteDescriptor, result *s3types.DeployResult, err error) {
				failed <- outcome{site, result, err}
			})

		got := <-failed
		assert.Error(t, got.err)
		assert.Nil(t, got.site)
		assert.Nil(t, got.result)
	})
}

func TestClient_Plan(t *testing.T) {
	store := testutil.NewFakeStore(testBucket)
	store.Seed(testBucket, "gone.html", []byte("g"))
	store.Seed(testBucket, "same.html", []byte("s"))
	client := newTestClient(t, store, map[string]string{
		"same.html": "s",
		"new.html":  "n",
	})

	diff, err := client.Plan(context.Background(), NewTarget(testBucket, "/site"))
	require.NoError(t, err)

	assert.Equal(t, []string{"gone.html"}, diff.Missing)
	assert.Empty(t, diff.Changed)
	assert.Equal(t, []string{"new.html"}, diff.Extra)
	assert.Equal(t, []string{"same.html"}, diff.Keep)
	assert.Empty(t, store.Calls())
}

func TestClient_Deploy_S3API(t *testing.T) {
	var mu gosync.Mutex
	puts := make(map[string]string)
	var deletes []string

	mock := &testutil.MockS3Client{
		ListObjectsV2Func: func(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			assert.Equal(t, testBucket, aws.ToString(in.Bucket))
			return &s3.ListObjectsV2Output{
				Contents: []types.Object{
					testutil.S3Object("index.html", "<h1>same</h1>", time.Now()),
					testutil.S3Object("removed.html", "bye", time.Now()),
				},
			}, nil
		},
		PutObjectFunc: func(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			body, err := io.ReadAll(in.Body)
			require.NoError(t, err)

			mu.Lock()
			defer mu.Unlock()
			puts[aws.ToString(in.Key)] = string(body)
			return &s3.PutObjectOutput{}, nil
		},
		DeleteObjectFunc: func(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
			mu.Lock()
			defer mu.Unlock()
			deletes = append(deletes, aws.ToString(in.Key))
			return &s3.DeleteObjectOutput{}, nil
		},
		GetBucketWebsiteFunc: func(_ context.Context, _ *s3.GetBucketWebsiteInput, _ ...func(*s3.Options)) (*s3.GetBucketWebsiteOutput, error) {
			return &s3.GetBucketWebsiteOutput{
				IndexDocument: &types.IndexDocument{Suffix: aws.String("index.html")},
			}, nil
		},
	}

	fs := testutil.SiteFS(t, "/site", map[string]string{
		"index.html": "<h1>same</h1>",
		"app.js":     "console.log(1)",
	})
	client := NewWithClient(mock, WithFilesystem(fs.Raw()))

	report, err := client.Deploy(context.Background(),
		NewTarget(testBucket, "/site", WithTargetRegion("eu-central-1")))
	require.NoError(t, err)

	assert.Equal(t, []string{"app.js"}, report.Result.Uploaded)
	assert.Equal(t, []string{"removed.html"}, report.Result.Removed)
	assert.Equal(t, map[string]string{"app.js": "console.log(1)"}, puts)
	assert.Equal(t, []string{"removed.html"}, deletes)

	require.NotNil(t, report.Site)
	assert.True(t, report.Site.Hosting)
	assert.Equal(t, "http://www.example.com.s3-website.eu-central-1.amazonaws.com", report.Site.URL)

	var out strings.Builder
	require.NoError(t, WriteReport(&out, report))
	assert.Contains(t, out.String(), "app.js")
}

func TestClient_Deploy_Region(t *testing.T) {
	newMock := func(located *int) *testutil.MockS3Client {
		return &testutil.MockS3Client{
			GetBucketLocationFunc: func(_ context.Context, _ *s3.GetBucketLocationInput, _ ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error) {
				*located++
				return &s3.GetBucketLocationOutput{LocationConstraint: types.BucketLocationConstraintApSoutheast2}, nil
			},
		}
	}
	fs := testutil.SiteFS(t, "/site", nil)

	tests := []struct {
		name        string
		clientOpts  []s3types.Option
		targetOpts  []s3types.TargetOption
		wantURL     string
		wantLocated int
	}{
		{
			name:       "target without region uses client region",
			clientOpts: []s3types.Option{WithRegion("eu-central-1")},
			wantURL:    "http://www.example.com.s3-website.eu-central-1.amazonaws.com",
		},
		{
			name:       "target region wins",
			clientOpts: []s3types.Option{WithRegion("eu-central-1")},
			targetOpts: []s3types.TargetOption{WithTargetRegion("us-west-2")},
			wantURL:    "http://www.example.com.s3-website-us-west-2.amazonaws.com",
		},
		{
			name:        "no region anywhere asks the bucket",
			wantURL:     "http://www.example.com.s3-website-ap-southeast-2.amazonaws.com",
			wantLocated: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var located int
			client := NewWithClient(newMock(&located), append(tt.clientOpts, WithFilesystem(fs.Raw()))...)

			report, err := client.Deploy(context.Background(), NewTarget(testBucket, "/site", tt.targetOpts...))
			require.NoError(t, err)

			require.NotNil(t, report.Site)
			assert.Equal(t, tt.wantURL, report.Site.URL)
			assert.Equal(t, tt.wantLocated, located)
		})
	}
}
