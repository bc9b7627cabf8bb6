// Package archive runs GNU tar in --listed-incremental mode over a mounted
// snapshot.
package archive

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/snapbackup/snap-backup/internal/naming"
	"github.com/snapbackup/snap-backup/internal/store/constants"
	"github.com/snapbackup/snap-backup/internal/utils"
)

var ErrToolFailed = errors.New("archiver failed")

// Job describes one archive invocation. The archive holds MountRoot/Volume
// with member names relative to MountRoot.
type Job struct {
	MountRoot   string
	Volume      string
	Excludes    []string
	StatePath   string
	Destination string
	Compression naming.Compression
}

type Builder struct {
	Runner utils.Runner
	Tar    string
}

func NewBuilder(runner utils.Runner) *Builder {
	return &Builder{Runner: runner, Tar: constants.TarCmd}
}

// Args returns the tar command line for job. The incremental-state file is
// created by tar when missing, which makes the first run of a period a full
// archive.
func (b *Builder) Args(job Job) []string {
	args := []string{
		"--create",
		"--verbose",
		"--verbose",
		job.Compression.Flag(),
		fmt.Sprintf("--listed-incremental=%s", job.StatePath),
		fmt.Sprintf("--file=%s", job.Destination),
		fmt.Sprintf("--directory=%s", job.MountRoot),
		fmt.Sprintf("--exclude=%s", filepath.Join(job.MountRoot, job.Volume, constants.RecoveryDirName)),
	}
	for _, exclude := range job.Excludes {
		args = append(args, fmt.Sprintf("--exclude=%s", exclude))
	}
	return append(args, job.Volume)
}

// Run archives the tree. On failure the archive and state file are left as
// tar wrote them.
func (b *Builder) Run(ctx context.Context, job Job) error {
	if job.Volume == "" || job.MountRoot == "" {
		return fmt.Errorf("%w: source tree not set", ErrToolFailed)
	}
	if job.StatePath == "" || job.Destination == "" {
		return fmt.Errorf("%w: destination not set", ErrToolFailed)
	}

	if err := b.Runner.Run(ctx, b.Tar, b.Args(job)...); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrToolFailed, job.Destination, err)
	}
	return nil
}
