package snapshots

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrCreateFailed   = errors.New("failed to create snapshot")
	ErrMountFailed    = errors.New("failed to mount snapshot")
	ErrUnmountFailed  = errors.New("failed to unmount snapshot")
	ErrDestroyFailed  = errors.New("failed to remove snapshot")
	ErrStaleSnapshot  = errors.New("snapshot volume already exists")
	ErrMountPointBusy = errors.New("mount point already in use")

	ErrVolumeGroupNotFound   = errors.New("volume group not found")
	ErrLogicalVolumeNotFound = errors.New("logical volume not found")
)

// Volume identifies the source block device <Group>/<Logical>. Group is the
// volume group directory, e.g. /dev/vg0.
type Volume struct {
	Group   string
	Logical string
}

func (v Volume) Path() string {
	return filepath.Join(v.Group, v.Logical)
}

// GroupName is the bare volume group name, e.g. vg0.
func (v Volume) GroupName() string {
	return filepath.Base(v.Group)
}

func (v Volume) String() string {
	return v.GroupName() + "/" + v.Logical
}

// Spec describes the copy-on-write snapshot taken for a run.
type Spec struct {
	Name      string
	SizeBytes uint64
	Source    Volume
}

// NewSpec names the snapshot <lv>_<suffix>.
func NewSpec(source Volume, suffix string, sizeBytes uint64) Spec {
	return Spec{
		Name:      fmt.Sprintf("%s_%s", source.Logical, suffix),
		SizeBytes: sizeBytes,
		Source:    source,
	}
}

// Device is the snapshot's block device path.
func (s Spec) Device() string {
	return filepath.Join(s.Source.Group, s.Name)
}

type State int

const (
	Absent State = iota
	Created
	Mounted
	Unmounted
	Destroyed
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Created:
		return "created"
	case Mounted:
		return "mounted"
	case Unmounted:
		return "unmounted"
	case Destroyed:
		return "destroyed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// TeardownError collects the failures of Release. It never describes the
// outcome of the backup itself.
type TeardownError struct {
	Device string
	Errs   []error
}

func (e *TeardownError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("teardown of %s incomplete: %s", e.Device, strings.Join(msgs, "; "))
}

func (e *TeardownError) Unwrap() []error {
	return e.Errs
}

// Snapshot is the handle for a created snapshot. Release must be called on
// every exit path once Create has returned one.
type Snapshot struct {
	Spec        Spec
	MountPath   string
	TimeStarted time.Time

	state            State
	mountAttempted   bool
	unmountAttempted bool
	destroyAttempted bool
	manager          *Manager
}

func (s *Snapshot) State() State {
	if s == nil {
		return Absent
	}
	return s.state
}

func (s *Snapshot) Device() string {
	return s.Spec.Device()
}
