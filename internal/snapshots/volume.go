package snapshots

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/snapbackup/snap-backup/internal/store/constants"
)

// ResolveVolume locates <group>/<logical> on disk. A bare group name is
// looked up under /dev when it does not exist as given.
func ResolveVolume(group, logical string) (Volume, error) {
	return resolveVolume(constants.DevBasePath, group, logical)
}

func resolveVolume(devBase, group, logical string) (Volume, error) {
	vg := group
	if _, err := os.Stat(vg); err != nil {
		vg = filepath.Join(devBase, group)
		if _, err := os.Stat(vg); err != nil {
			return Volume{}, fmt.Errorf("%w: %q", ErrVolumeGroupNotFound, vg)
		}
	}
	vg = filepath.Clean(vg)

	lvPath := filepath.Join(vg, logical)
	if _, err := os.Stat(lvPath); err != nil {
		return Volume{}, fmt.Errorf("%w: %q", ErrLogicalVolumeNotFound, lvPath)
	}

	return Volume{Group: vg, Logical: logical}, nil
}
