package config

import (
	"errors"

	"github.com/snapbackup/snap-backup/internal/utils"
)

// Validate checks the merged configuration. It does not touch the disk.
func (c *Config) Validate() error {
	var errs []error

	if c.Volume.Group == "" {
		errs = append(errs, &Error{Field: "volume group", Reason: "is required"})
	}
	if err := utils.ValidateLVMName("logical volume", c.Volume.Logical); err != nil {
		errs = append(errs, invalid("volume.logical", err))
	}
	if err := utils.ValidateLVMName("snapshot suffix", c.Volume.SnapshotSuffix); err != nil {
		errs = append(errs, invalid("volume.snapshot_suffix", err))
	}
	if _, err := utils.ParseSize(c.Volume.Size); err != nil {
		errs = append(errs, invalid("volume.size", err))
	}

	if err := utils.ValidateDirPath("mount path", c.Paths.Mount); err != nil {
		errs = append(errs, invalid("paths.mount", err))
	}
	if err := utils.ValidateDirPath("backup path", c.Paths.Backup); err != nil {
		errs = append(errs, invalid("paths.backup", err))
	}

	for _, exclude := range c.Archive.Excludes {
		if err := utils.ValidateExclusionPattern(exclude); err != nil {
			errs = append(errs, invalid("archive.excludes", err))
		}
	}

	if c.Retention.KeepDays != nil && *c.Retention.KeepDays < 0 {
		errs = append(errs, &Error{Field: "retention.keep_days", Reason: "cannot be negative"})
	}

	if c.MySQL.Flush && c.MySQL.User == "" {
		errs = append(errs, &Error{Field: "mysql.user", Reason: "is required with mysql flush"})
	}

	if (c.S3.Endpoint == "") != (c.S3.Bucket == "") {
		errs = append(errs, &Error{Field: "s3", Reason: "endpoint and bucket must be set together"})
	}

	if !c.Lock.Disabled {
		if err := utils.ValidateDirPath("lock directory", c.Lock.Dir); err != nil {
			errs = append(errs, invalid("lock.dir", err))
		}
	}

	cmds := map[string]string{
		"commands.lvcreate": c.Commands.LVCreate,
		"commands.lvremove": c.Commands.LVRemove,
		"commands.mount":    c.Commands.Mount,
		"commands.umount":   c.Commands.Umount,
		"commands.tar":      c.Commands.Tar,
		"commands.find":     c.Commands.Find,
	}
	for field, cmd := range cmds {
		if cmd == "" {
			errs = append(errs, &Error{Field: field, Reason: "cannot be empty"})
		}
	}

	return errors.Join(errs...)
}

// SnapshotSize returns the configured size in bytes.
func (c *Config) SnapshotSize() (uint64, error) {
	size, err := utils.ParseSize(c.Volume.Size)
	if err != nil {
		return 0, invalid("volume.size", err)
	}
	return size, nil
}
