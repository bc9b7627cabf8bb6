package config

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/snapbackup/snap-backup/internal/naming"
)

// Options holds the command line switches that are not part of Config.
type Options struct {
	ConfigPath  string
	Version     bool
	PrintConfig bool
}

type arrayFlags []string

func (i *arrayFlags) String() string {
	return strings.Join(*i, ",")
}

func (i *arrayFlags) Set(value string) error {
	*i = append(*i, value)
	return nil
}

// Parse loads the file named by -config, if any, and applies the command
// line on top of it. Flags always win over the file.
func Parse(name string, args []string, output io.Writer) (*Config, *Options, error) {
	opts := &Options{ConfigPath: configPath(args)}

	cfg := Default()
	if opts.ConfigPath != "" {
		loaded, err := Load(opts.ConfigPath)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&opts.ConfigPath, "config", opts.ConfigPath, "TOML configuration file")
	fs.BoolVar(&opts.Version, "version", false, "print version and exit")
	fs.BoolVar(&opts.PrintConfig, "print-config", false, "print the effective configuration and exit")

	stringFlag(fs, &cfg.Volume.Group, "volume group", "g", "volume-group")
	stringFlag(fs, &cfg.Volume.Logical, "logical volume to back up", "l", "logical-volume")
	stringFlag(fs, &cfg.Volume.Size, "snapshot size, e.g. 50G or 512M", "s", "size")
	stringFlag(fs, &cfg.Volume.SnapshotSuffix, "snapshot name suffix", "snapshot-name")
	stringFlag(fs, &cfg.Paths.Mount, "directory under which the snapshot is mounted", "m", "mount-path")
	stringFlag(fs, &cfg.Paths.Backup, "root directory for archives", "b", "backup-path")
	boolFlag(fs, &cfg.Paths.Force, "create missing mount and backup directories", "f", "force")

	var periods, compressions []string
	choice := func(dst *[]string, value string) func(string) error {
		return func(s string) error {
			set, err := strconv.ParseBool(s)
			if err != nil {
				return err
			}
			if set {
				*dst = append(*dst, value)
			}
			return nil
		}
	}
	fs.BoolFunc("year", "one archive set per year", choice(&periods, "year"))
	fs.BoolFunc("month", "one archive set per month (default)", choice(&periods, "month"))
	fs.BoolFunc("day", "one archive set per day", choice(&periods, "day"))
	fs.BoolFunc("z", "gzip compression", choice(&compressions, "gzip"))
	fs.BoolFunc("j", "bzip2 compression", choice(&compressions, "bzip2"))
	fs.BoolFunc("J", "xz compression", choice(&compressions, "xz"))

	excludes := arrayFlags(cfg.Archive.Excludes)
	fs.Var(&excludes, "exclude", "tar exclusion pattern (repeatable)")

	fs.Func("keep", "report archive directories older than this many days", func(s string) error {
		days, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid day count %q", s)
		}
		cfg.Retention.KeepDays = &days
		return nil
	})

	boolFlag(fs, &cfg.MySQL.Flush, "hold FLUSH TABLES WITH READ LOCK while creating the snapshot", "mysql-flush")
	stringFlag(fs, &cfg.MySQL.User, "MySQL user", "mysql-user")
	stringFlag(fs, &cfg.MySQL.Password, "MySQL password", "mysql-password")
	stringFlag(fs, &cfg.MySQL.Socket, "MySQL unix socket", "mysql-socket")
	stringFlag(fs, &cfg.MySQL.Address, "MySQL host:port, overrides the socket", "mysql-address")

	stringFlag(fs, &cfg.Log.File, "log file base path", "log")
	boolFlag(fs, &cfg.Log.Syslog, "also log to syslog", "syslog")
	stringFlag(fs, &cfg.Lock.Dir, "run lock directory", "lock-dir")
	boolFlag(fs, &cfg.Lock.Disabled, "do not take the run lock", "no-lock")
	stringFlag(fs, &cfg.Metrics.File, "write a Prometheus textfile report here", "metrics-file")

	stringFlag(fs, &cfg.S3.Endpoint, "S3 endpoint for offsite copies", "s3-endpoint")
	stringFlag(fs, &cfg.S3.AccessKey, "S3 access key", "s3-access-key")
	stringFlag(fs, &cfg.S3.SecretKey, "S3 secret key", "s3-secret-key")
	stringFlag(fs, &cfg.S3.Bucket, "S3 bucket", "s3-bucket")
	stringFlag(fs, &cfg.S3.Region, "S3 region", "s3-region")
	stringFlag(fs, &cfg.S3.Prefix, "S3 object key prefix", "s3-prefix")
	boolFlag(fs, &cfg.S3.UseSSL, "use TLS for S3", "s3-ssl")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() > 0 {
		return nil, nil, &Error{Field: "arguments", Reason: fmt.Sprintf("unexpected argument %q", fs.Arg(0))}
	}

	switch len(periods) {
	case 0:
	case 1:
		p, err := naming.ParsePeriod(periods[0])
		if err != nil {
			return nil, nil, invalid("period", err)
		}
		cfg.Archive.Period = p
	default:
		return nil, nil, &Error{Field: "period", Reason: "-year, -month and -day are mutually exclusive"}
	}

	switch len(compressions) {
	case 0:
	case 1:
		c, err := naming.ParseCompression(compressions[0])
		if err != nil {
			return nil, nil, invalid("compression", err)
		}
		cfg.Archive.Compression = c
	default:
		return nil, nil, &Error{Field: "compression", Reason: "-z, -j and -J are mutually exclusive"}
	}

	cfg.Archive.Excludes = excludes

	return cfg, opts, nil
}

func stringFlag(fs *flag.FlagSet, p *string, usage string, names ...string) {
	for _, name := range names {
		fs.StringVar(p, name, *p, usage)
	}
}

func boolFlag(fs *flag.FlagSet, p *bool, usage string, names ...string) {
	for _, name := range names {
		fs.BoolVar(p, name, *p, usage)
	}
}

// configPath finds -config before the full flag set exists, so the file
// can seed the flag defaults.
func configPath(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		trimmed := strings.TrimLeft(arg, "-")
		if len(arg)-len(trimmed) == 0 || len(arg)-len(trimmed) > 2 {
			continue
		}
		if value, ok := strings.CutPrefix(trimmed, "config="); ok {
			return value
		}
		if trimmed == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
