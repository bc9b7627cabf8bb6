//go:build unix

package backup

import (
	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"
)

// logFreeSpace reports the space left on the backup filesystem. It never
// fails the run.
func (o *Orchestrator) logFreeSpace(path, volume string) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		o.log().Warn().WithVolume(volume).
			WithMessagef("cannot stat backup filesystem %s: %v", path, err).
			Write()
		return
	}

	free := uint64(st.Bavail) * uint64(st.Bsize)
	total := uint64(st.Blocks) * uint64(st.Bsize)
	o.log().Info().WithVolume(volume).
		WithField("free", humanize.IBytes(free)).
		WithField("total", humanize.IBytes(total)).
		WithMessagef("backup filesystem %s", path).
		Write()
}
