package snapshots

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/snapbackup/snap-backup/internal/store/constants"
	"github.com/snapbackup/snap-backup/internal/utils"
)

// Manager drives lvcreate, mount, umount and lvremove for a single snapshot
// per run.
type Manager struct {
	Runner utils.Runner

	LVCreate string
	LVRemove string
	Mount    string
	Umount   string

	// MountsFile lists active mounts, /proc/mounts unless overridden.
	MountsFile string
}

func NewManager(runner utils.Runner) *Manager {
	return &Manager{
		Runner:     runner,
		LVCreate:   constants.LVCreateCmd,
		LVRemove:   constants.LVRemoveCmd,
		Mount:      constants.MountCmd,
		Umount:     constants.UmountCmd,
		MountsFile: "/proc/mounts",
	}
}

// Preflight refuses to start when a snapshot with the same name is still
// around or something is mounted where the snapshot will go. Both are
// leftovers of a run that did not finish its teardown.
func (m *Manager) Preflight(spec Spec, mountRoot string) error {
	if _, err := os.Lstat(spec.Device()); err == nil {
		return fmt.Errorf("%w: %s", ErrStaleSnapshot, spec.Device())
	}

	mountPath := filepath.Join(mountRoot, spec.Source.Logical)
	device, mounted, err := mountedAt(m.MountsFile, mountPath)
	if err != nil {
		return err
	}
	if mounted {
		return fmt.Errorf("%w: %s is mounted on %s", ErrMountPointBusy, device, mountPath)
	}
	return nil
}

// Create allocates the copy-on-write snapshot. On failure no handle is
// returned and there is nothing to tear down.
func (m *Manager) Create(ctx context.Context, spec Spec) (*Snapshot, error) {
	timeStarted := time.Now()

	err := m.Runner.Run(ctx, m.LVCreate,
		"-s",
		"-pr",
		"-L", fmt.Sprintf("%db", spec.SizeBytes),
		"-n", spec.Name,
		spec.Source.Path())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateFailed, spec.Name, err)
	}

	return &Snapshot{
		Spec:        spec,
		TimeStarted: timeStarted,
		state:       Created,
		manager:     m,
	}, nil
}

// Mount mounts the snapshot read-only at <mountRoot>/<lv>. Once attempted,
// teardown will try to unmount even if the mount itself failed.
func (s *Snapshot) Mount(ctx context.Context, mountRoot string) error {
	if s.state != Created {
		return fmt.Errorf("%w: snapshot %s is %s", ErrMountFailed, s.Spec.Name, s.state)
	}

	mountPath := filepath.Join(mountRoot, s.Spec.Source.Logical)
	s.mountAttempted = true
	s.MountPath = mountPath

	m := s.manager
	if err := m.Runner.Run(ctx, m.Mount, "--read-only", s.Device(), mountPath); err != nil {
		return fmt.Errorf("%w: %s on %s: %w", ErrMountFailed, s.Device(), mountPath, err)
	}

	s.state = Mounted
	return nil
}

func (s *Snapshot) Unmount(ctx context.Context) error {
	s.unmountAttempted = true

	m := s.manager
	if err := m.Runner.Run(ctx, m.Umount, s.Device()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnmountFailed, s.Device(), err)
	}

	if s.state == Mounted {
		s.state = Unmounted
	}
	return nil
}

func (s *Snapshot) Destroy(ctx context.Context) error {
	s.destroyAttempted = true

	m := s.manager
	if err := m.Runner.Run(ctx, m.LVRemove, "-f", s.Device()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDestroyFailed, s.Device(), err)
	}

	s.state = Destroyed
	return nil
}

// Release unmounts (when a mount was attempted) and then removes the
// snapshot. Each step runs at most once over the life of the handle and is
// attempted regardless of the other's outcome. A nil handle is a no-op.
func (s *Snapshot) Release(ctx context.Context) error {
	if s == nil || s.state == Absent {
		return nil
	}

	var errs []error
	if s.mountAttempted && !s.unmountAttempted {
		if err := s.Unmount(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.state != Destroyed && !s.destroyAttempted {
		if err := s.Destroy(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return &TeardownError{Device: s.Device(), Errs: errs}
	}
	return nil
}

// IsTeardown reports whether err came from Release.
func IsTeardown(err error) bool {
	var te *TeardownError
	return errors.As(err, &te)
}
