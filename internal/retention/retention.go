// Package retention finds backup period directories that have outlived the
// configured age. It only reports them; removing them is left to the
// operator.
package retention

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/snapbackup/snap-backup/internal/store/constants"
	"github.com/snapbackup/snap-backup/internal/utils"
)

var ErrScanFailed = errors.New("retention scan failed")

// Window selects period directories under Root changed more than MaxAgeDays
// days ago.
type Window struct {
	Root       string
	MaxAgeDays int
}

// Candidate is an expired period directory. Rel is relative to the root,
// e.g. data01/2023-11.
type Candidate struct {
	Path string
	Rel  string
}

type Sweeper struct {
	Runner utils.Runner
	Find   string
}

func NewSweeper(runner utils.Runner) *Sweeper {
	return &Sweeper{Runner: runner, Find: constants.FindCmd}
}

// Args returns the find command line. Period directories sit two levels
// below the root (<root>/<lv>/<period>).
func (s *Sweeper) Args(w Window) []string {
	return []string{
		w.Root,
		"-mindepth", "2",
		"-maxdepth", "2",
		"-type", "d",
		"-ctime", "+" + strconv.Itoa(w.MaxAgeDays),
	}
}

// FindExpired lists the expired period directories. Nothing is deleted.
func (s *Sweeper) FindExpired(ctx context.Context, w Window) ([]Candidate, error) {
	if w.Root == "" {
		return nil, fmt.Errorf("%w: root not set", ErrScanFailed)
	}
	if w.MaxAgeDays < 0 {
		return nil, fmt.Errorf("%w: negative age %d", ErrScanFailed, w.MaxAgeDays)
	}

	out, err := s.Runner.Output(ctx, s.Find, s.Args(w)...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanFailed, err)
	}

	return parseFindOutput(w.Root, out), nil
}

func parseFindOutput(root string, out []byte) []Candidate {
	prefix := strings.TrimSuffix(root, "/") + "/"

	var candidates []Candidate
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		rel := strings.TrimPrefix(line, prefix)
		candidates = append(candidates, Candidate{
			Path: filepath.Clean(line),
			Rel:  filepath.Clean(rel),
		})
	}
	return candidates
}
