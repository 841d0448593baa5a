// Package config loads deploy targets from YAML or JSON files.
//
// JSON is read through the YAML decoder, so the classic .s3-website.json file
// works unchanged:
//
//	{
//	  "domain": "example.com",
//	  "region": "us-east-1",
//	  "uploadDir": "public",
//	  "index": "index.html",
//	  "error": "404.html",
//	  "lockConfig": false,
//	  "exclude": ["drafts/**"]
//	}
//
// Keys that only configure bucket creation (index, error, routes, certificates)
// are accepted and ignored.
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/sync/filter"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

// DefaultFile is the conventional name of a target file in a site's root.
const DefaultFile = ".s3-website.json"

// Load reads and validates the target file at path from the OS filesystem.
// A relative uploadDir is resolved against the file's directory.
func Load(path string) (*s3types.DeployTarget, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.NewError("config", fmt.Errorf("%w: %s: %w", errors.ErrLocalPath, path, err))
	}
	return LoadFS(osfs.New("/"), abs)
}

// LoadFS reads and validates the target file at path from filesystem.
func LoadFS(filesystem billy.Filesystem, path string) (*s3types.DeployTarget, error) {
	data, err := util.ReadFile(filesystem, path)
	if err != nil {
		return nil, errors.NewError("config", fmt.Errorf("%w: %s: %w", errors.ErrLocalPath, path, err))
	}

	target, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if target.UploadDir != "" && !filepath.IsAbs(target.UploadDir) {
		target.UploadDir = filepath.Join(filepath.Dir(path), target.UploadDir)
	}

	if err := Validate(target); err != nil {
		return nil, err
	}
	return target, nil
}

// file is the on-disk layout. Besides the target it accepts the keys the
// classic s3-website CLI stores for bucket creation and its own flags; those
// are read and dropped.
type file struct {
	s3types.DeployTarget `yaml:",inline"`

	Index        any `yaml:"index"`
	Error        any `yaml:"error"`
	Routes       any `yaml:"routes"`
	CertID       any `yaml:"certId"`
	Cert         any `yaml:"cert"`
	Key          any `yaml:"key"`
	CertName     any `yaml:"certName"`
	Intermediate any `yaml:"intermediate"`
	LockConfig   any `yaml:"lockConfig"`
	ConfigFile   any `yaml:"configFile"`
	Deploy       any `yaml:"deploy"`
	JSON         any `yaml:"json"`
}

// Parse decodes a target from YAML or JSON and applies defaults. Keys written
// by the classic CLI are ignored; any other unknown field is rejected. The
// result is not validated.
func Parse(data []byte) (*s3types.DeployTarget, error) {
	f := file{DeployTarget: s3types.DeployTarget{
		Retries:     s3types.DefaultRetries,
		Concurrency: s3types.DefaultConcurrency,
	}}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.NewError("config", fmt.Errorf("%w: empty document", errors.ErrInvalidConfig))
		}
		return nil, errors.NewError("config", fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err))
	}

	target := f.DeployTarget
	return &target, nil
}

// Validate checks that target can be deployed. All problems are reported in
// one error wrapping errors.ErrInvalidConfig.
func Validate(target *s3types.DeployTarget) error {
	if target == nil {
		return errors.NewValidationError("validate", "target", "must not be nil")
	}

	var problems []string
	if strings.TrimSpace(target.Domain) == "" {
		problems = append(problems, "domain is required")
	}
	if strings.TrimSpace(target.UploadDir) == "" {
		problems = append(problems, "uploadDir is required")
	}
	if target.Retries < 0 {
		problems = append(problems, fmt.Sprintf("retries must be >= 0, got %d", target.Retries))
	}
	if target.Concurrency < 0 {
		problems = append(problems, fmt.Sprintf("concurrency must be >= 0, got %d", target.Concurrency))
	}
	for _, err := range filter.Validate(target.Exclude) {
		problems = append(problems, err.Error())
	}
	for ext, ct := range target.ContentTypes {
		if strings.TrimSpace(ct) == "" {
			problems = append(problems, fmt.Sprintf("contentTypes[%q] is empty", ext))
		}
	}

	if len(problems) > 0 {
		return errors.NewBucketError(
			"validate",
			target.Domain,
			fmt.Errorf("%w: %s", errors.ErrInvalidConfig, strings.Join(problems, "; ")),
		)
	}
	return nil
}
