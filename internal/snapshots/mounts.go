package snapshots

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var mountEscapes = strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`)

// mountedAt reports the device mounted exactly at mountPoint according to a
// /proc/mounts style file.
func mountedAt(mountsFile, mountPoint string) (string, bool, error) {
	f, err := os.Open(mountsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read mount table: %w", err)
	}
	defer f.Close()

	want := filepath.Clean(mountPoint)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}

		if filepath.Clean(mountEscapes.Replace(fields[1])) == want {
			return mountEscapes.Replace(fields[0]), true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", false, fmt.Errorf("failed to read mount table: %w", err)
	}

	return "", false, nil
}
