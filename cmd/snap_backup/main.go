//go:build linux

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/snapbackup/snap-backup/internal/archive"
	"github.com/snapbackup/snap-backup/internal/backup"
	"github.com/snapbackup/snap-backup/internal/lock"
	"github.com/snapbackup/snap-backup/internal/metrics"
	"github.com/snapbackup/snap-backup/internal/offsite"
	"github.com/snapbackup/snap-backup/internal/quiesce"
	"github.com/snapbackup/snap-backup/internal/retention"
	"github.com/snapbackup/snap-backup/internal/snapshots"
	"github.com/snapbackup/snap-backup/internal/store/config"
	"github.com/snapbackup/snap-backup/internal/syslog"
	"github.com/snapbackup/snap-backup/internal/utils"
)

var Version = "v0.0.0"

const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitTeardown = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, opts, err := config.Parse("snap-backup", args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "snap-backup: %v\n", err)
		return exitUsage
	}

	if opts.Version {
		fmt.Fprintln(stdout, Version)
		return exitOK
	}

	if err := cfg.Normalize(); err != nil {
		fmt.Fprintf(stderr, "snap-backup: %v\n", err)
		return exitFailure
	}

	if opts.PrintConfig {
		if err := config.Write(stdout, cfg); err != nil {
			fmt.Fprintf(stderr, "snap-backup: %v\n", err)
			return exitFailure
		}
		return exitOK
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "snap-backup: %v\n", err)
		return exitFailure
	}

	sink := syslog.Sink{Out: stdout, Err: stderr}
	if cfg.Log.File != "" {
		files, err := syslog.OpenLogFiles(cfg.Log.File)
		if err != nil {
			fmt.Fprintf(stderr, "snap-backup: %v\n", err)
			return exitFailure
		}
		defer files.Close()
		sink = files.Sink
	}

	logger := syslog.NewLogger(sink)
	syslog.L = logger
	if cfg.Log.Syslog {
		if err := logger.SetServiceLogger(); err != nil {
			logger.Warn().WithMessagef("syslog unavailable: %v", err).Write()
		}
	}

	childOut := syslog.NewLineWriter(sink.Out)
	childErr := syslog.NewLineWriter(sink.Err)
	defer childOut.Flush()
	defer childErr.Flush()

	if !cfg.Lock.Disabled {
		lockPath := lock.Path(cfg.Lock.Dir, filepath.Base(cfg.Volume.Group), cfg.Volume.Logical)
		runLock, err := lock.Acquire(lockPath)
		if err != nil {
			logger.Error(err).WithMessage("backup not started").Write()
			return exitFailure
		}
		defer runLock.Release()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch, err := newOrchestrator(cfg, &utils.ExecRunner{Stdout: childOut, Stderr: childErr}, logger)
	if err != nil {
		logger.Error(err).WithMessage("backup not started").Write()
		return exitFailure
	}

	job, err := newJob(cfg)
	if err != nil {
		logger.Error(err).WithMessage("backup not started").Write()
		return exitFailure
	}

	res, err := orch.Run(ctx, job)

	if cfg.Metrics.File != "" {
		report := metrics.Report{
			VolumeGroup:   filepath.Base(cfg.Volume.Group),
			LogicalVolume: cfg.Volume.Logical,
			Started:       res.Started,
			Finished:      res.Finished,
			Success:       err == nil,
			ArchiveBytes:  res.ArchiveBytes,
			Expired:       len(res.Expired),
			TeardownError: res.TeardownErr != nil,
		}
		if mErr := metrics.Write(cfg.Metrics.File, report); mErr != nil {
			logger.Warn().WithMessagef("failed to write metrics: %v", mErr).Write()
		}
	}

	switch {
	case err != nil:
		return exitFailure
	case res.TeardownErr != nil:
		return exitTeardown
	}
	return exitOK
}

func newOrchestrator(cfg *config.Config, runner utils.Runner, logger *syslog.Logger) (*backup.Orchestrator, error) {
	mgr := snapshots.NewManager(runner)
	mgr.LVCreate = cfg.Commands.LVCreate
	mgr.LVRemove = cfg.Commands.LVRemove
	mgr.Mount = cfg.Commands.Mount
	mgr.Umount = cfg.Commands.Umount

	archiver := archive.NewBuilder(runner)
	archiver.Tar = cfg.Commands.Tar

	sweeper := retention.NewSweeper(runner)
	sweeper.Find = cfg.Commands.Find

	orch := &backup.Orchestrator{
		Snapshots: mgr,
		Archiver:  archiver,
		Sweeper:   sweeper,
		Log:       logger,
	}

	if cfg.MySQL.Flush {
		orch.Quiescer = quiesce.MySQL(quiesce.Options{
			User:     cfg.MySQL.User,
			Password: cfg.MySQL.Password,
			Socket:   cfg.MySQL.Socket,
			Address:  cfg.MySQL.Address,
		})
	}

	s3 := offsite.Options{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Bucket:    cfg.S3.Bucket,
		Region:    cfg.S3.Region,
		Prefix:    cfg.S3.Prefix,
		UseSSL:    cfg.S3.UseSSL,
	}
	if s3.Enabled() {
		uploader, err := offsite.New(s3)
		if err != nil {
			return nil, err
		}
		orch.Uploader = uploader
	}

	return orch, nil
}

func newJob(cfg *config.Config) (backup.Job, error) {
	size, err := cfg.SnapshotSize()
	if err != nil {
		return backup.Job{}, err
	}

	return backup.Job{
		VolumeGroup:    cfg.Volume.Group,
		LogicalVolume:  cfg.Volume.Logical,
		SnapshotSuffix: cfg.Volume.SnapshotSuffix,
		SizeBytes:      size,
		MountRoot:      cfg.Paths.Mount,
		BackupRoot:     cfg.Paths.Backup,
		Force:          cfg.Paths.Force,
		Period:         cfg.Archive.Period,
		Compression:    cfg.Archive.Compression,
		Excludes:       cfg.Archive.Excludes,
		KeepDays:       cfg.Retention.KeepDays,
	}, nil
}
