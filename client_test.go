package s3website

import (
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/remote"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

// TestClient_New tests the New() constructor with various options.
func TestClient_New(t *testing.T) {
	tests := []struct {
		name       string
		opts       []s3types.Option
		wantRegion string
	}{
		{
			name:       "with region option",
			opts:       []s3types.Option{WithRegion("us-west-2")},
			wantRegion: "us-west-2",
		},
		{
			name: "with endpoint and path style",
			opts: []s3types.Option{
				WithRegion("eu-west-1"),
				WithEndpoint("localhost:4566"),
				WithDisableSSL(true),
				WithForcePathStyle(true),
				WithCredentials("test", "test"),
			},
			wantRegion: "eu-west-1",
		},
		{
			name: "with custom aws config",
			opts: []s3types.Option{
				WithAWSConfig(&aws.Config{Region: "ap-southeast-2"}),
				WithTimeout(5 * time.Second),
			},
			wantRegion: "ap-southeast-2",
		},
		{
			name: "region option overrides custom config",
			opts: []s3types.Option{
				WithAWSConfig(&aws.Config{Region: "ap-southeast-2"}),
				WithRegion("sa-east-1"),
			},
			wantRegion: "sa-east-1",
		},
		{
			name:       "empty custom config falls back to default region",
			opts:       []s3types.Option{WithAWSConfig(&aws.Config{})},
			wantRegion: s3types.DefaultRegion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.opts...)
			require.NoError(t, err)
			require.NotNil(t, client)

			assert.IsType(t, &remote.S3Store{}, client.store)
			assert.Equal(t, tt.wantRegion, client.Region())
			assert.NotNil(t, client.logger)
			assert.NotNil(t, client.newBackOff)
		})
	}
}

func TestClient_New_Credentials(t *testing.T) {
	client, err := New(
		WithAWSConfig(&aws.Config{Region: "us-east-1"}),
		WithCredentials("AKID", "SECRET"),
	)
	require.NoError(t, err)

	creds, err := client.config.Credentials.Retrieve(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "AKID", creds.AccessKeyID)
	assert.Equal(t, "SECRET", creds.SecretAccessKey)
}

func TestClient_New_MaxRetries(t *testing.T) {
	client, err := New(WithAWSConfig(&aws.Config{Region: "us-east-1"}), WithMaxRetries(7))
	require.NoError(t, err)

	require.NotNil(t, client.config.Retryer)
	assert.Equal(t, 7, client.config.Retryer().MaxAttempts())

	client, err = New(WithAWSConfig(&aws.Config{Region: "us-east-1"}), WithMaxRetries(0))
	require.NoError(t, err)
	assert.Nil(t, client.config.Retryer)
}

func TestNewWithClient(t *testing.T) {
	mock := &testutil.MockS3Client{}
	client := NewWithClient(mock, WithRegion("eu-central-1"), nil)

	assert.IsType(t, &remote.S3Store{}, client.store)
	assert.Equal(t, "eu-central-1", client.Region())
	assert.NotNil(t, client.filesystem())
}

func TestNewMinio(t *testing.T) {
	t.Run("empty endpoint", func(t *testing.T) {
		_, err := NewMinio("")
		require.Error(t, err)
		assert.True(t, errors.IsInvalidInput(err))
	})

	t.Run("scheme is stripped", func(t *testing.T) {
		client, err := NewMinio("http://localhost:9000",
			WithCredentials("minio", "minio123"),
			WithRegion("us-east-1"),
			WithCustomHTTPClient(&http.Client{Transport: http.DefaultTransport}),
		)
		require.NoError(t, err)
		assert.IsType(t, &remote.MinioStore{}, client.store)
		assert.Equal(t, "us-east-1", client.Region())
	})
}

func TestClient_SetFilesystem(t *testing.T) {
	client := NewWithClient(&testutil.MockS3Client{})
	before := client.filesystem()

	client.SetFilesystem(memfs.New())
	assert.NotSame(t, before, client.filesystem())
}

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		endpoint   string
		disableSSL bool
		want       string
	}{
		{"localhost:4566", true, "http://localhost:4566"},
		{"s3.example.com", false, "https://s3.example.com"},
		{"http://localhost:4566", false, "http://localhost:4566"},
		{"https://s3.example.com", true, "https://s3.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			assert.Equal(t, tt.want, endpointURL(tt.endpoint, tt.disableSSL))
		})
	}
}
