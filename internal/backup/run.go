package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/snapbackup/snap-backup/internal/archive"
	"github.com/snapbackup/snap-backup/internal/naming"
	"github.com/snapbackup/snap-backup/internal/retention"
	"github.com/snapbackup/snap-backup/internal/snapshots"
)

type plan struct {
	volume    snapshots.Volume
	spec      snapshots.Spec
	names     naming.Names
	mountPath string
}

// Run performs one backup. The returned error is the first failure of the
// run; a failed teardown is reported in Result.TeardownErr only. Once a
// snapshot exists it is released on every path, with a context that
// survives cancellation of ctx.
func (o *Orchestrator) Run(ctx context.Context, job Job) (*Result, error) {
	res := &Result{Started: o.now()}
	volume := job.VolumeGroup + "/" + job.LogicalVolume

	o.log().Info().WithVolume(volume).
		WithMessagef("begin backup: %s", res.Started.Format(time.DateTime)).
		Write()

	err := o.run(ctx, job, res)
	if err == nil && o.Uploader != nil {
		err = o.upload(ctx, job, res)
	}

	res.Finished = o.now()
	took := strings.TrimSpace(humanize.RelTime(res.Started, res.Finished, "", ""))

	if err != nil {
		o.log().Error(err).WithVolume(volume).
			WithMessagef("backup failed: %s after %s", res.Finished.Format(time.DateTime), took).
			Write()
		return res, err
	}

	entry := o.log().Info()
	if res.TeardownErr != nil {
		entry = o.log().Warn().WithField("teardown", "incomplete")
	}
	entry.WithVolume(volume).
		WithField("archive", res.Names.ArchivePath()).
		WithField("size", humanize.IBytes(uint64(res.ArchiveBytes))).
		WithMessagef("finish backup: %s in %s", res.Finished.Format(time.DateTime), took).
		Write()

	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, job Job, res *Result) error {
	p, err := o.prepare(job, res.Started)
	if err != nil {
		return err
	}
	res.Volume = p.volume
	res.Names = p.names

	o.logFreeSpace(job.BackupRoot, p.volume.String())

	if err := o.Snapshots.Preflight(p.spec, job.MountRoot); err != nil {
		return err
	}

	snap, err := o.create(ctx, p.spec)
	if snap != nil {
		defer func() {
			if relErr := snap.Release(context.WithoutCancel(ctx)); relErr != nil {
				res.TeardownErr = relErr
				o.log().Error(relErr).WithVolume(p.volume.String()).
					WithMessage("snapshot teardown incomplete, remove it by hand before the next run").
					Write()
				return
			}
			o.log().Info().WithVolume(p.volume.String()).
				WithMessagef("removed snapshot %s", snap.Device()).
				Write()
		}()
	}
	if err != nil {
		return err
	}

	o.log().Info().WithVolume(p.volume.String()).
		WithMessagef("mounting snapshot %s on %s", snap.Device(), p.mountPath).
		Write()
	if err := snap.Mount(ctx, job.MountRoot); err != nil {
		return err
	}

	o.log().Info().WithVolume(p.volume.String()).
		WithMessagef("creating archive %s", p.names.ArchivePath()).
		Write()
	err = o.Archiver.Run(ctx, archive.Job{
		MountRoot:   job.MountRoot,
		Volume:      job.LogicalVolume,
		Excludes:    job.Excludes,
		StatePath:   p.names.StatePath(),
		Destination: p.names.ArchivePath(),
		Compression: job.Compression,
	})
	if err != nil {
		return err
	}

	if info, err := os.Stat(p.names.ArchivePath()); err == nil {
		res.ArchiveBytes = info.Size()
	} else {
		o.log().Warn().WithVolume(p.volume.String()).
			WithMessagef("archive %s not found after tar finished: %v", p.names.ArchivePath(), err).
			Write()
	}

	if job.KeepDays != nil {
		res.Expired = o.sweep(ctx, job.BackupRoot, *job.KeepDays, p.volume.String())
	}

	return nil
}

func (o *Orchestrator) prepare(job Job, now time.Time) (plan, error) {
	volume, err := snapshots.ResolveVolume(job.VolumeGroup, job.LogicalVolume)
	if err != nil {
		return plan{}, fmt.Errorf("%w: %w", ErrPrepareFailed, err)
	}

	resolver := naming.Resolver{Root: job.BackupRoot, Period: job.Period, Compression: job.Compression}
	mountPath := filepath.Join(job.MountRoot, job.LogicalVolume)
	backupDir := resolver.Dir(job.LogicalVolume, now)

	for _, dir := range []string{mountPath, backupDir} {
		if job.Force {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return plan{}, fmt.Errorf("%w: %w", ErrPrepareFailed, err)
			}
		}
		info, err := os.Stat(dir)
		if err != nil {
			return plan{}, fmt.Errorf("%w: can't find directory %q", ErrPrepareFailed, dir)
		}
		if !info.IsDir() {
			return plan{}, fmt.Errorf("%w: %q is not a directory", ErrPrepareFailed, dir)
		}
	}

	// Names are settled before the snapshot exists so a naming failure
	// never leaves one behind.
	names, err := resolver.Resolve(job.LogicalVolume, now)
	if err != nil {
		return plan{}, fmt.Errorf("%w: %w", ErrPrepareFailed, err)
	}

	return plan{
		volume:    volume,
		spec:      snapshots.NewSpec(volume, job.SnapshotSuffix, job.SizeBytes),
		names:     names,
		mountPath: mountPath,
	}, nil
}

// create takes the snapshot, inside the read lock when a Quiescer is set.
// The handle is returned even with an error when the snapshot was created
// but the lock could not be released cleanly.
func (o *Orchestrator) create(ctx context.Context, spec snapshots.Spec) (*snapshots.Snapshot, error) {
	o.log().Info().WithVolume(spec.Source.String()).
		WithMessagef("creating snapshot %s (%s) from %s", spec.Name, humanize.IBytes(spec.SizeBytes), spec.Source.Path()).
		Write()

	if o.Quiescer == nil {
		return o.Snapshots.Create(ctx, spec)
	}

	o.log().Info().WithVolume(spec.Source.String()).
		WithMessage("flushing db tables with read lock").
		Write()

	var snap *snapshots.Snapshot
	err := o.Quiescer.WithReadLock(ctx, func(ctx context.Context) error {
		var err error
		snap, err = o.Snapshots.Create(ctx, spec)
		return err
	})
	return snap, err
}

func (o *Orchestrator) sweep(ctx context.Context, root string, keepDays int, volume string) []retention.Candidate {
	expired, err := o.Sweeper.FindExpired(ctx, retention.Window{Root: root, MaxAgeDays: keepDays})
	if err != nil {
		o.log().Warn().WithVolume(volume).
			WithMessagef("retention scan failed: %v", err).
			Write()
		return nil
	}

	for _, c := range expired {
		o.log().Info().WithVolume(volume).
			WithField("path", c.Path).
			WithMessagef("archive directory %s is older than %d days", c.Rel, keepDays).
			Write()
	}
	return expired
}

// upload copies the new archive and the incremental state it was written
// against. It runs after teardown.
func (o *Orchestrator) upload(ctx context.Context, job Job, res *Result) error {
	if res.Names.ArchiveFile == "" {
		return ErrNothingToSend
	}

	var errs []error
	for _, local := range []string{res.Names.ArchivePath(), res.Names.StatePath()} {
		rel, err := filepath.Rel(job.BackupRoot, local)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		n, err := o.Uploader.Upload(ctx, local, rel)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		res.Uploaded = append(res.Uploaded, rel)
		res.UploadedBytes += n
		o.log().Info().WithVolume(res.Volume.String()).
			WithField("size", humanize.IBytes(uint64(n))).
			WithMessagef("uploaded %s", rel).
			Write()
	}
	return errors.Join(errs...)
}
