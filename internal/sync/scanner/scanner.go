// Package scanner builds the local and remote inventories a diff is computed from.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/localfs"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/remote"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/sync/keys"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

// Scanner walks the upload directory and lists the bucket.
type Scanner struct {
	store      remote.Store
	filesystem localfs.Filesystem
	logger     *slog.Logger
}

// NewScanner creates a new scanner with the provided store and filesystem.
// A nil logger disables logging.
func NewScanner(store remote.Store, filesystem localfs.Filesystem, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{
		store:      store,
		filesystem: filesystem,
		logger:     logger,
	}
}

// ScanLocal returns every regular file under root. Failing to read the
// directory is reported as errors.ErrLocalPath.
func (s *Scanner) ScanLocal(ctx context.Context, root string) ([]*s3types.LocalFile, error) {
	var files []*s3types.LocalFile

	err := s.filesystem.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", path, err)
		}

		files = append(files, &s3types.LocalFile{
			Path:    path,
			RelPath: filepath.ToSlash(relPath),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, errors.NewError("scan", fmt.Errorf("%w: %s: %w", errors.ErrLocalPath, root, err))
	}

	return files, nil
}

// ScanRemote returns every object under prefix with its path relative to it.
// Directory placeholder keys are skipped, as are keys that do not map back to
// themselves through keys.Normalize (a leading or doubled slash, a backslash).
// Those keys cannot be produced by a deploy, so acting on their relative path
// would upload or delete a different object.
func (s *Scanner) ScanRemote(ctx context.Context, bucket, prefix string) ([]*s3types.RemoteFile, error) {
	objects, err := s.store.List(ctx, bucket, keys.ListPrefix(prefix))
	if err != nil {
		return nil, err
	}

	files := make([]*s3types.RemoteFile, 0, len(objects))
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		rel, ok := keys.Relative(prefix, obj.Key)
		if !ok {
			continue
		}
		if keys.Normalize(prefix, rel) != obj.Key {
			s.logger.Warn("skipping remote key that no local path maps to",
				"bucket", bucket,
				"key", obj.Key,
			)
			continue
		}
		obj.RelPath = rel
		files = append(files, obj)
	}

	return files, nil
}
