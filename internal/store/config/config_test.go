package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/snapbackup/snap-backup/internal/naming"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snap-backup.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func validArgs() []string {
	return []string{"-g", "vg0", "-l", "data01", "-m", "/mnt/snap", "-b", "/backup"}
}

func TestParseDefaults(t *testing.T) {
	cfg, opts, err := Parse("snap-backup", validArgs(), io.Discard)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Empty(t, opts.ConfigPath)
	assert.Equal(t, "vg0", cfg.Volume.Group)
	assert.Equal(t, "data01", cfg.Volume.Logical)
	assert.Equal(t, "50G", cfg.Volume.Size)
	assert.Equal(t, "snapshot", cfg.Volume.SnapshotSuffix)
	assert.Equal(t, naming.Monthly, cfg.Archive.Period)
	assert.Equal(t, naming.None, cfg.Archive.Compression)
	assert.Nil(t, cfg.Retention.KeepDays)
	assert.False(t, cfg.MySQL.Flush)

	size, err := cfg.SnapshotSize()
	require.NoError(t, err)
	assert.Equal(t, uint64(50<<30), size)
}

func TestParseChoices(t *testing.T) {
	args := append(validArgs(), "-day", "-J", "-keep", "30", "-exclude", "tmp/*", "-exclude", "*.swp", "--mysql-flush")
	cfg, _, err := Parse("snap-backup", args, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, naming.Daily, cfg.Archive.Period)
	assert.Equal(t, naming.XZ, cfg.Archive.Compression)
	require.NotNil(t, cfg.Retention.KeepDays)
	assert.Equal(t, 30, *cfg.Retention.KeepDays)
	assert.Equal(t, []string{"tmp/*", "*.swp"}, cfg.Archive.Excludes)
	assert.True(t, cfg.MySQL.Flush)
}

func TestParseMutuallyExclusive(t *testing.T) {
	tests := map[string][]string{
		"period":      {"-year", "-day"},
		"compression": {"-z", "-j"},
	}

	for name, extra := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := Parse("snap-backup", append(validArgs(), extra...), io.Discard)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)

			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, name, cfgErr.Field)
		})
	}
}

func TestParseRejectsUnknownFlag(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse("snap-backup", []string{"-bogus"}, &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "bogus")
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, `
[volume]
group = "vg1"
logical = "mysql"
size = "10G"

[paths]
mount = "/mnt/snap"
backup = "/srv/backup"

[archive]
period = "year"
compression = "gzip"
excludes = ["cache/*"]

[retention]
keep_days = 90

[mysql]
flush = true
address = "db1:3306"
`)

	cfg, opts, err := Parse("snap-backup", []string{"-config", path, "-s", "20G", "-exclude", "tmp/*"}, io.Discard)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, path, opts.ConfigPath)
	assert.Equal(t, "vg1", cfg.Volume.Group)
	assert.Equal(t, "20G", cfg.Volume.Size)
	assert.Equal(t, "/srv/backup", cfg.Paths.Backup)
	assert.Equal(t, naming.Yearly, cfg.Archive.Period)
	assert.Equal(t, naming.Gzip, cfg.Archive.Compression)
	assert.Equal(t, []string{"cache/*", "tmp/*"}, cfg.Archive.Excludes)
	require.NotNil(t, cfg.Retention.KeepDays)
	assert.Equal(t, 90, *cfg.Retention.KeepDays)
	assert.True(t, cfg.MySQL.Flush)
	assert.Equal(t, "db1:3306", cfg.MySQL.Address)
	assert.Equal(t, "flush", cfg.MySQL.User)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Load(writeConfig(t, "[volume]\ngroupp = \"vg0\"\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalid)
		assert.Contains(t, err.Error(), "groupp")
	})

	t.Run("bad period", func(t *testing.T) {
		_, err := Load(writeConfig(t, "[archive]\nperiod = \"weekly\"\n"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing group", func(c *Config) { c.Volume.Group = "" }, "volume group"},
		{"bad logical", func(c *Config) { c.Volume.Logical = "data 01" }, "volume.logical"},
		{"bad size", func(c *Config) { c.Volume.Size = "lots" }, "volume.size"},
		{"relative mount", func(c *Config) { c.Paths.Mount = "mnt" }, "paths.mount"},
		{"missing backup", func(c *Config) { c.Paths.Backup = "" }, "paths.backup"},
		{"negative keep", func(c *Config) { n := -1; c.Retention.KeepDays = &n }, "retention.keep_days"},
		{"flush without user", func(c *Config) { c.MySQL.Flush = true; c.MySQL.User = "" }, "mysql.user"},
		{"s3 without bucket", func(c *Config) { c.S3.Endpoint = "s3.example.com" }, "s3"},
		{"empty tar", func(c *Config) { c.Commands.Tar = "" }, "commands.tar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _, err := Parse("snap-backup", validArgs(), io.Discard)
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)

			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestNormalizeAndWrite(t *testing.T) {
	cfg, _, err := Parse("snap-backup", []string{"-g", "vg0", "-l", "data01", "-m", "mnt", "-b", "/backup"}, io.Discard)
	require.NoError(t, err)
	require.NoError(t, cfg.Normalize())
	assert.True(t, filepath.IsAbs(cfg.Paths.Mount))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, cfg))
	assert.Contains(t, buf.String(), `group = "vg0"`)
	assert.Contains(t, buf.String(), `period = "monthly"`)

	path := writeConfig(t, buf.String())
	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Paths.Mount, back.Paths.Mount)
	assert.Equal(t, naming.Monthly, back.Archive.Period)
}

func TestConfigPathScan(t *testing.T) {
	assert.Equal(t, "a.toml", configPath([]string{"-config", "a.toml"}))
	assert.Equal(t, "b.toml", configPath([]string{"-g", "vg0", "--config=b.toml"}))
	assert.Empty(t, configPath([]string{"-g", "vg0", "--", "-config", "c.toml"}))
}
