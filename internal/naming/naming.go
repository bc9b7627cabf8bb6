// Package naming derives every path a backup run touches: the period
// directory, the incremental-state file and a collision-free archive name.
package naming

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/snapbackup/snap-backup/internal/store/constants"
)

// ErrSequenceExhausted is returned when base.ext and every base_NN.ext up to
// the sequence bound already exist.
var ErrSequenceExhausted = errors.New("no free archive file name")

// Names holds the resolved paths for one run.
type Names struct {
	Dir         string
	Base        string
	Ext         string
	StateFile   string
	ArchiveFile string
	// Sequence is 0 for base.ext, otherwise the NN suffix picked.
	Sequence int
}

func (n Names) StatePath() string {
	return filepath.Join(n.Dir, n.StateFile)
}

func (n Names) ArchivePath() string {
	return filepath.Join(n.Dir, n.ArchiveFile)
}

type Resolver struct {
	Root        string
	Period      Period
	Compression Compression
}

// Dir returns Root/volume/<period dir>.
func (r Resolver) Dir(volume string, now time.Time) string {
	return filepath.Join(r.Root, volume, r.Period.Dir(now))
}

// Base returns volume_<period tag>, shared by the state file and archives.
func (r Resolver) Base(volume string, now time.Time) string {
	return fmt.Sprintf("%s_%s", volume, r.Period.Tag(now))
}

// StateFile returns volume_<period tag>.snar.
func (r Resolver) StateFile(volume string, now time.Time) string {
	return fmt.Sprintf("%s.%s", r.Base(volume, now), constants.IncrementalStateExt)
}

// Resolve computes all names for a run. The period directory must already
// exist; it is listed to find a free archive name.
func (r Resolver) Resolve(volume string, now time.Time) (Names, error) {
	dir := r.Dir(volume, now)
	base := r.Base(volume, now)
	ext := r.Compression.Ext()

	file, seq, err := NextArchiveName(dir, base, ext)
	if err != nil {
		return Names{}, err
	}

	return Names{
		Dir:         dir,
		Base:        base,
		Ext:         ext,
		StateFile:   r.StateFile(volume, now),
		ArchiveFile: file,
		Sequence:    seq,
	}, nil
}

// NextArchiveName returns base.ext when it is free, otherwise the lowest free
// base_NN.ext with NN in 01..MaxArchiveSequence.
func NextArchiveName(dir, base, ext string) (string, int, error) {
	name := fmt.Sprintf("%s.%s", base, ext)
	taken, err := exists(filepath.Join(dir, name))
	if err != nil {
		return "", 0, err
	}
	if !taken {
		return name, 0, nil
	}

	for n := 1; n <= constants.MaxArchiveSequence; n++ {
		name = fmt.Sprintf("%s_%02d.%s", base, n, ext)
		taken, err := exists(filepath.Join(dir, name))
		if err != nil {
			return "", 0, err
		}
		if !taken {
			return name, n, nil
		}
	}

	return "", 0, fmt.Errorf("%w: %s/%s.%s and %d numbered variants exist",
		ErrSequenceExhausted, dir, base, ext, constants.MaxArchiveSequence)
}

func exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check %s: %w", path, err)
}
