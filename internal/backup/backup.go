// Package backup sequences one snapshot backup run: resolve names, take the
// snapshot (optionally under a database read lock), mount it, archive it,
// scan for expired archives and tear the snapshot down again.
package backup

import (
	"context"
	"errors"
	"time"

	"github.com/snapbackup/snap-backup/internal/archive"
	"github.com/snapbackup/snap-backup/internal/naming"
	"github.com/snapbackup/snap-backup/internal/retention"
	"github.com/snapbackup/snap-backup/internal/snapshots"
	"github.com/snapbackup/snap-backup/internal/syslog"
)

var (
	ErrPrepareFailed = errors.New("failed to prepare backup")
	ErrNothingToSend = errors.New("no archive to upload")
)

// Quiescer holds writes off while body runs. *quiesce.Coordinator
// implements it.
type Quiescer interface {
	WithReadLock(ctx context.Context, body func(ctx context.Context) error) error
}

// Uploader copies a finished file off the host. rel is the path relative
// to the backup root. *offsite.Uploader implements it.
type Uploader interface {
	Upload(ctx context.Context, localPath, rel string) (int64, error)
}

// Job is everything one run needs to know.
type Job struct {
	VolumeGroup    string
	LogicalVolume  string
	SnapshotSuffix string
	SizeBytes      uint64

	MountRoot  string
	BackupRoot string
	// Force creates the mount point and backup directory when missing.
	Force bool

	Period      naming.Period
	Compression naming.Compression
	Excludes    []string

	// KeepDays enables the retention scan.
	KeepDays *int
}

type Result struct {
	Volume snapshots.Volume
	Names  naming.Names

	ArchiveBytes int64
	Expired      []retention.Candidate

	Uploaded      []string
	UploadedBytes int64

	Started  time.Time
	Finished time.Time

	// TeardownErr is set when the snapshot could not be fully removed. It
	// is never the error returned by Run.
	TeardownErr error
}

// Orchestrator runs backups. Quiescer and Uploader are optional.
type Orchestrator struct {
	Snapshots *snapshots.Manager
	Quiescer  Quiescer
	Archiver  *archive.Builder
	Sweeper   *retention.Sweeper
	Uploader  Uploader

	Log *syslog.Logger
	Now func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) log() *syslog.Logger {
	if o.Log != nil {
		return o.Log
	}
	return syslog.L
}
