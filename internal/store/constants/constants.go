package constants

const (
	LVCreateCmd = "/sbin/lvcreate"
	LVRemoveCmd = "/sbin/lvremove"
	MountCmd    = "/bin/mount"
	UmountCmd   = "/bin/umount"
	TarCmd      = "/usr/bin/tar"
	FindCmd     = "/usr/bin/find"

	DevBasePath  = "/dev"
	LockBasePath = "/run/lock"

	DefaultSnapshotSize   = "50G"
	DefaultSnapshotSuffix = "snapshot"

	DefaultMySQLUser     = "flush"
	DefaultMySQLPassword = "flush"
	DefaultMySQLSocket   = "/var/run/mysqld/mysqld.sock"

	// Archive names probe base_01 .. base_98 before giving up.
	MaxArchiveSequence = 98

	IncrementalStateExt = "snar"
	RecoveryDirName     = "lost+found"

	LogFileMaxSizeMB  = 100
	LogFileMaxBackups = 10
	LogFileMaxAgeDays = 365

	MetricsNamespace = "snapbackup"
)
