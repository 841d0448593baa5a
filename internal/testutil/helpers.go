package testutil

import (
	"crypto/md5"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/localfs"
)

// SiteFS builds an in-memory upload directory at root holding files.
// Keys of files are slash-separated paths relative to root.
func SiteFS(t *testing.T, root string, files map[string]string) *localfs.FS {
	t.Helper()

	fs := localfs.NewInMemoryFS()
	require.NoError(t, fs.Raw().MkdirAll(root, 0o755))
	for rel, content := range files {
		require.NoError(t, fs.WriteFile(root+"/"+rel, []byte(content), 0o644))
	}
	return fs
}

// ETag returns the S3 ETag of a single-part upload of data, without quotes.
func ETag(data string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(data)))
}

// S3Object creates a listed S3 object whose ETag matches content.
func S3Object(key, content string, lastModified time.Time) types.Object {
	return types.Object{
		Key:          aws.String(key),
		Size:         aws.Int64(int64(len(content))),
		LastModified: aws.Time(lastModified),
		ETag:         aws.String(`"` + ETag(content) + `"`),
		StorageClass: types.ObjectStorageClassStandard,
	}
}

// GenerateTestBucketName generates a valid, unique test bucket name.
func GenerateTestBucketName(prefix string) string {
	name := fmt.Sprintf("%s-%d-%d", prefix, time.Now().Unix(), rand.Int31n(10000))
	name = strings.ToLower(strings.ReplaceAll(name, "_", "-"))
	if len(name) > 63 {
		name = name[:63]
	}
	return name
}
