// Package comparator decides whether a local file differs from its remote copy.
package comparator

import (
	"crypto/md5"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/localfs"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

// Comparator defines the interface for comparing local and remote files.
type Comparator interface {
	// HasChanged determines if the local and remote files are different
	HasChanged(local *s3types.LocalFile, remote *s3types.RemoteFile) (bool, error)
}

// SmartComparator compares size first, then the MD5 of the local file against
// a single-part ETag, and falls back to modification time for multipart ETags.
type SmartComparator struct {
	filesystem localfs.Filesystem

	// MaxTimeDiff is how much newer the local file must be to count as changed
	MaxTimeDiff time.Duration
}

// NewSmartComparator creates a new smart comparator reading through filesystem.
func NewSmartComparator(filesystem localfs.Filesystem) *SmartComparator {
	return &SmartComparator{
		filesystem:  filesystem,
		MaxTimeDiff: 2 * time.Second,
	}
}

// HasChanged implements the Comparator interface for SmartComparator.
func (c *SmartComparator) HasChanged(local *s3types.LocalFile, remote *s3types.RemoteFile) (bool, error) {
	if local.Size != remote.Size {
		return true, nil
	}

	// Multipart ETags contain a "-" and are not content hashes
	if remote.ETag != "" && !strings.Contains(remote.ETag, "-") {
		localMD5, err := c.computeMD5(local.Path)
		if err != nil {
			return false, err
		}
		return localMD5 != remote.ETag, nil
	}

	return local.ModTime.Sub(remote.LastModified) > c.MaxTimeDiff, nil
}

func (c *SmartComparator) computeMD5(path string) (string, error) {
	file, err := c.filesystem.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for MD5 computation: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to compute MD5: %w", err)
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}
