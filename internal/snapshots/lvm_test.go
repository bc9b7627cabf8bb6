package snapshots

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/snapbackup/snap-backup/internal/store/constants"
	"github.com/snapbackup/snap-backup/internal/utils"
	"github.com/snapbackup/snap-backup/internal/utils/runnertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSpec() Spec {
	return NewSpec(Volume{Group: "/dev/vg0", Logical: "data01"}, "snapshot", 50<<30)
}

func TestCreateMountReleaseCommands(t *testing.T) {
	ctx := context.Background()
	runner := runnertest.New()
	m := NewManager(runner)

	snap, err := m.Create(ctx, testSpec())
	require.NoError(t, err)
	assert.Equal(t, Created, snap.State())
	assert.Equal(t, "/dev/vg0/data01_snapshot", snap.Device())

	require.NoError(t, snap.Mount(ctx, "/mnt/backup"))
	assert.Equal(t, Mounted, snap.State())
	assert.Equal(t, "/mnt/backup/data01", snap.MountPath)

	require.NoError(t, snap.Release(ctx))
	assert.Equal(t, Destroyed, snap.State())

	assert.Equal(t, []string{
		constants.LVCreateCmd + " -s -pr -L 53687091200b -n data01_snapshot /dev/vg0/data01",
		constants.MountCmd + " --read-only /dev/vg0/data01_snapshot /mnt/backup/data01",
		constants.UmountCmd + " /dev/vg0/data01_snapshot",
		constants.LVRemoveCmd + " -f /dev/vg0/data01_snapshot",
	}, runner.Commands())
}

func TestCreateFailureReturnsNoHandle(t *testing.T) {
	runner := runnertest.New().Fail(constants.LVCreateCmd)
	m := NewManager(runner)

	snap, err := m.Create(context.Background(), testSpec())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCreateFailed)

	var cmdErr *utils.CommandError
	assert.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 1, cmdErr.ExitCode)

	assert.Nil(t, snap)
	assert.Equal(t, Absent, snap.State())
	assert.NoError(t, snap.Release(context.Background()))
	assert.Equal(t, []string{constants.LVCreateCmd}, runner.Names())
}

func TestMountFailureStillUnmountsThenDestroys(t *testing.T) {
	ctx := context.Background()
	runner := runnertest.New().Fail(constants.MountCmd)
	m := NewManager(runner)

	snap, err := m.Create(ctx, testSpec())
	require.NoError(t, err)

	err = snap.Mount(ctx, "/mnt/backup")
	assert.ErrorIs(t, err, ErrMountFailed)
	assert.Equal(t, Created, snap.State())

	require.NoError(t, snap.Release(ctx))
	assert.Equal(t, []string{
		constants.LVCreateCmd,
		constants.MountCmd,
		constants.UmountCmd,
		constants.LVRemoveCmd,
	}, runner.Names())
}

func TestReleaseWithoutMountOnlyDestroys(t *testing.T) {
	ctx := context.Background()
	runner := runnertest.New()
	snap, err := NewManager(runner).Create(ctx, testSpec())
	require.NoError(t, err)

	require.NoError(t, snap.Release(ctx))
	assert.Equal(t, []string{constants.LVCreateCmd, constants.LVRemoveCmd}, runner.Names())
}

func TestReleaseAttemptsEachStepOnce(t *testing.T) {
	ctx := context.Background()
	runner := runnertest.New().Fail(constants.UmountCmd).Fail(constants.LVRemoveCmd)
	snap, err := NewManager(runner).Create(ctx, testSpec())
	require.NoError(t, err)
	require.NoError(t, snap.Mount(ctx, "/mnt/backup"))

	err = snap.Release(ctx)
	require.Error(t, err)
	assert.True(t, IsTeardown(err))
	assert.ErrorIs(t, err, ErrUnmountFailed)
	assert.ErrorIs(t, err, ErrDestroyFailed)

	// A second release must not retry.
	assert.NoError(t, snap.Release(ctx))
	assert.Equal(t, []string{
		constants.LVCreateCmd,
		constants.MountCmd,
		constants.UmountCmd,
		constants.LVRemoveCmd,
	}, runner.Names())
	assert.Equal(t, Mounted, snap.State())
}

func TestPreflight(t *testing.T) {
	dir := t.TempDir()
	vg := filepath.Join(dir, "vg0")
	require.NoError(t, os.MkdirAll(vg, 0755))

	mounts := filepath.Join(dir, "mounts")
	require.NoError(t, os.WriteFile(mounts, []byte(
		"/dev/sda1 / ext4 rw 0 0\n"+
			"/dev/mapper/vg0-other /mnt/backup\\040dir/other ext4 ro 0 0\n"), 0644))

	m := NewManager(runnertest.New())
	m.MountsFile = mounts
	spec := NewSpec(Volume{Group: vg, Logical: "data01"}, "snapshot", 1<<30)

	require.NoError(t, m.Preflight(spec, "/mnt/backup dir"))

	busy := NewSpec(Volume{Group: vg, Logical: "other"}, "snapshot", 1<<30)
	assert.ErrorIs(t, m.Preflight(busy, "/mnt/backup dir"), ErrMountPointBusy)

	require.NoError(t, os.WriteFile(spec.Device(), nil, 0644))
	assert.ErrorIs(t, m.Preflight(spec, "/mnt/backup dir"), ErrStaleSnapshot)
}

func TestResolveVolume(t *testing.T) {
	dev := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dev, "vg0"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dev, "vg0", "data01"), nil, 0644))

	vol, err := resolveVolume(dev, "vg0", "data01")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dev, "vg0"), vol.Group)
	assert.Equal(t, "vg0", vol.GroupName())
	assert.Equal(t, "vg0/data01", vol.String())

	vol, err = resolveVolume("/nonexistent", filepath.Join(dev, "vg0")+"/", "data01")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dev, "vg0"), vol.Group)

	_, err = resolveVolume(dev, "vg9", "data01")
	assert.ErrorIs(t, err, ErrVolumeGroupNotFound)

	_, err = resolveVolume(dev, "vg0", "data02")
	assert.ErrorIs(t, err, ErrLogicalVolumeNotFound)
}
