// Package differ classifies every path of a site into missing, changed,
// extra and keep sets.
package differ

import (
	"context"
	"fmt"
	"sort"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/sync/comparator"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/internal/sync/scanner"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

// Differ computes a DiffResult from a local tree and a bucket prefix.
type Differ struct {
	scanner    *scanner.Scanner
	comparator comparator.Comparator
}

// NewDiffer creates a differ from a scanner and a comparator.
func NewDiffer(sc *scanner.Scanner, cmp comparator.Comparator) *Differ {
	return &Differ{
		scanner:    sc,
		comparator: cmp,
	}
}

// Diff scans both sides and classifies every path. Each returned set is sorted.
func (d *Differ) Diff(ctx context.Context, localDir, bucket, prefix string) (*s3types.DiffResult, error) {
	localFiles, err := d.scanner.ScanLocal(ctx, localDir)
	if err != nil {
		return nil, err
	}

	remoteFiles, err := d.scanner.ScanRemote(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}

	return d.Classify(localFiles, remoteFiles)
}

// Classify compares two inventories.
func (d *Differ) Classify(
	localFiles []*s3types.LocalFile,
	remoteFiles []*s3types.RemoteFile,
) (*s3types.DiffResult, error) {
	remoteMap := make(map[string]*s3types.RemoteFile, len(remoteFiles))
	for _, rf := range remoteFiles {
		remoteMap[rf.RelPath] = rf
	}

	diff := &s3types.DiffResult{}
	seen := make(map[string]bool, len(localFiles))

	for _, lf := range localFiles {
		seen[lf.RelPath] = true

		rf, exists := remoteMap[lf.RelPath]
		if !exists {
			diff.Extra = append(diff.Extra, lf.RelPath)
			continue
		}

		changed, err := d.comparator.HasChanged(lf, rf)
		if err != nil {
			return nil, fmt.Errorf("failed to compare %s: %w", lf.RelPath, err)
		}
		if changed {
			diff.Changed = append(diff.Changed, lf.RelPath)
		} else {
			diff.Keep = append(diff.Keep, lf.RelPath)
		}
	}

	for rel := range remoteMap {
		if !seen[rel] {
			diff.Missing = append(diff.Missing, rel)
		}
	}

	sort.Strings(diff.Missing)
	sort.Strings(diff.Changed)
	sort.Strings(diff.Extra)
	sort.Strings(diff.Keep)

	return diff, nil
}
