// Package executor performs the remote action for a single path and turns
// every failure into an outcome instead of an error.
package executor

import (
	"context"
	"log/slog"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/localfs"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/remote"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/sync/keys"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

// Executor uploads and deletes individual paths of a target.
type Executor struct {
	store      remote.Store
	filesystem localfs.Filesystem
	logger     *slog.Logger
}

// NewExecutor creates an executor. A nil logger disables logging.
func NewExecutor(store remote.Store, filesystem localfs.Filesystem, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{
		store:      store,
		filesystem: filesystem,
		logger:     logger,
	}
}

// Upload reads path from the target's upload directory and writes it to the
// normalized key.
func (e *Executor) Upload(ctx context.Context, target *s3types.DeployTarget, relPath string) s3types.Outcome {
	key := keys.Normalize(target.Prefix, relPath)
	localPath := filepath.Join(target.UploadDir, filepath.FromSlash(relPath))

	data, err := e.filesystem.ReadFile(localPath)
	if err != nil {
		err = errors.NewObjectError("upload", target.Domain, key, err).WithMessage("reading local file")
		return e.fail(ctx, relPath, key, s3types.ActionUpload, err)
	}

	err = e.store.Put(ctx, &remote.PutInput{
		Bucket:       target.Domain,
		Key:          key,
		Body:         data,
		ContentType:  ContentType(target.ContentTypes, relPath, data),
		CacheControl: target.CacheControl,
		ACL:          target.ACL,
	})
	if err != nil {
		return e.fail(ctx, relPath, key, s3types.ActionUpload, err)
	}

	e.logger.DebugContext(ctx, "uploaded object", "path", relPath, "key", key, "size", len(data))
	return s3types.Success(relPath, s3types.ActionUpload)
}

// Delete removes the normalized key of path. Deleting a key that is already
// gone succeeds.
func (e *Executor) Delete(ctx context.Context, target *s3types.DeployTarget, relPath string) s3types.Outcome {
	key := keys.Normalize(target.Prefix, relPath)

	if err := e.store.Delete(ctx, target.Domain, key); err != nil && !errors.IsObjectNotFound(err) {
		return e.fail(ctx, relPath, key, s3types.ActionDelete, err)
	}

	e.logger.DebugContext(ctx, "deleted object", "path", relPath, "key", key)
	return s3types.Success(relPath, s3types.ActionDelete)
}

func (e *Executor) fail(ctx context.Context, relPath, key string, action s3types.Action, err error) s3types.Outcome {
	e.logger.ErrorContext(ctx, "object action failed",
		"path", relPath,
		"key", key,
		"action", action,
		"error", err,
	)
	return s3types.Failure(relPath, action, err)
}

// ContentType resolves the content type of a file: the override table wins,
// then the extension registry, then content sniffing.
func ContentType(overrides map[string]string, relPath string, data []byte) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(relPath, `\`, "/")))

	if ext != "" {
		for k, v := range overrides {
			if strings.ToLower("."+strings.TrimPrefix(k, ".")) == ext {
				return v
			}
		}
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
	}

	if len(data) > 0 {
		sample := data
		if len(sample) > 512 {
			sample = sample[:512]
		}
		return mimetype.Detect(sample).String()
	}

	return s3types.DefaultContentType
}
