package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// ParseSize converts an LVM style size into bytes. Single letter units are
// binary (50G is 50 GiB), a bare number is in MiB as lvcreate assumes, and a
// trailing b means bytes. Anything else is handed to humanize.
func ParseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("size cannot be empty")
	}

	last := s[len(s)-1]
	switch {
	case isDigit(last):
		s += "MiB"
	case last == 'b' || last == 'B':
		if len(s) > 1 && isDigit(s[len(s)-2]) {
			s = s[:len(s)-1]
		}
	case strings.IndexByte("kKmMgGtTpPeE", last) >= 0:
		s += "iB"
	}

	size, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if size == 0 {
		return 0, fmt.Errorf("size must be greater than zero")
	}
	return size, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
