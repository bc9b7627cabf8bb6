package utils

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var lvmNameRegex = regexp.MustCompile(`^[a-zA-Z0-9+_.-]+$`)

// ValidateLVMName checks a logical volume or snapshot name against the
// characters lvm accepts.
func ValidateLVMName(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}

	if len(value) > 127 {
		return fmt.Errorf("%s exceeds maximum length of 127", name)
	}

	if !lvmNameRegex.MatchString(value) {
		return fmt.Errorf("%s contains invalid characters", name)
	}

	if value == "." || value == ".." || strings.HasPrefix(value, "-") {
		return fmt.Errorf("%s is not a valid name", name)
	}

	return nil
}

// ValidateDirPath checks an absolute directory path coming from the command
// line or the config file.
func ValidateDirPath(name, path string) error {
	if path == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}

	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%s contains null bytes", name)
	}

	if !filepath.IsAbs(path) {
		return fmt.Errorf("%s must be an absolute path", name)
	}

	return nil
}

// ValidateExclusionPattern checks a tar --exclude pattern.
func ValidateExclusionPattern(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return errors.New("exclusion pattern cannot be empty")
	}

	if len(pattern) > 4096 {
		return errors.New("exclusion pattern exceeds maximum length")
	}

	if strings.Contains(pattern, "\x00") {
		return errors.New("exclusion pattern contains null bytes")
	}

	return nil
}
