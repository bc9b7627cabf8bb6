package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/snapbackup/snap-backup/internal/naming"
	"github.com/snapbackup/snap-backup/internal/store/constants"
)

type Config struct {
	Volume    VolumeConfig    `toml:"volume"`
	Paths     PathsConfig     `toml:"paths"`
	Archive   ArchiveConfig   `toml:"archive"`
	Retention RetentionConfig `toml:"retention"`
	MySQL     MySQLConfig     `toml:"mysql"`
	Log       LogConfig       `toml:"log"`
	Lock      LockConfig      `toml:"lock"`
	Metrics   MetricsConfig   `toml:"metrics"`
	S3        S3Config        `toml:"s3"`
	Commands  CommandsConfig  `toml:"commands"`
}

type VolumeConfig struct {
	Group          string `toml:"group"`
	Logical        string `toml:"logical"`
	Size           string `toml:"size"`
	SnapshotSuffix string `toml:"snapshot_suffix"`
}

type PathsConfig struct {
	Mount  string `toml:"mount"`
	Backup string `toml:"backup"`
	// Force creates missing mount and backup directories.
	Force bool `toml:"force"`
}

type ArchiveConfig struct {
	Period      naming.Period      `toml:"period"`
	Compression naming.Compression `toml:"compression"`
	Excludes    []string           `toml:"excludes"`
}

type RetentionConfig struct {
	// KeepDays enables the retention scan when set.
	KeepDays *int `toml:"keep_days,omitempty"`
}

type MySQLConfig struct {
	Flush    bool   `toml:"flush"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Socket   string `toml:"socket"`
	Address  string `toml:"address"`
}

type LogConfig struct {
	// File is a base path; output goes to <File>.log and <File>_error.log.
	File   string `toml:"file"`
	Syslog bool   `toml:"syslog"`
}

type LockConfig struct {
	Dir      string `toml:"dir"`
	Disabled bool   `toml:"disabled"`
}

type MetricsConfig struct {
	File string `toml:"file"`
}

type S3Config struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	Prefix    string `toml:"prefix"`
	UseSSL    bool   `toml:"use_ssl"`
}

type CommandsConfig struct {
	LVCreate string `toml:"lvcreate"`
	LVRemove string `toml:"lvremove"`
	Mount    string `toml:"mount"`
	Umount   string `toml:"umount"`
	Tar      string `toml:"tar"`
	Find     string `toml:"find"`
}

func Default() *Config {
	return &Config{
		Volume: VolumeConfig{
			Size:           constants.DefaultSnapshotSize,
			SnapshotSuffix: constants.DefaultSnapshotSuffix,
		},
		Archive: ArchiveConfig{
			Period:      naming.Monthly,
			Compression: naming.None,
		},
		MySQL: MySQLConfig{
			User:     constants.DefaultMySQLUser,
			Password: constants.DefaultMySQLPassword,
			Socket:   constants.DefaultMySQLSocket,
		},
		Lock: LockConfig{
			Dir: constants.LockBasePath,
		},
		Commands: CommandsConfig{
			LVCreate: constants.LVCreateCmd,
			LVRemove: constants.LVRemoveCmd,
			Mount:    constants.MountCmd,
			Umount:   constants.UmountCmd,
			Tar:      constants.TarCmd,
			Find:     constants.FindCmd,
		},
	}
}

// Load decodes the TOML file at path over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &Error{Field: "config", Reason: fmt.Sprintf("file %q not found", path)}
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, &Error{Field: "config", Reason: fmt.Sprintf("unknown key %q in %s", undecoded[0].String(), path)}
	}

	return cfg, nil
}

// Write encodes cfg as TOML.
func Write(w io.Writer, cfg *Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Normalize turns the configured paths into absolute ones.
func (c *Config) Normalize() error {
	for _, p := range []*string{&c.Paths.Mount, &c.Paths.Backup, &c.Log.File, &c.Lock.Dir, &c.Metrics.File} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return fmt.Errorf("failed to resolve %q: %w", *p, err)
		}
		*p = abs
	}
	return nil
}
