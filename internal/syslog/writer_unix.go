//go:build unix

package syslog

import (
	"log/syslog"
	"os"
	"strings"
)

// LogWriter forwards console-formatted lines to syslog, choosing the
// priority from the level tag.
type LogWriter struct {
	logger *syslog.Writer
}

func (sw *LogWriter) Write(p []byte) (n int, err error) {
	message := string(p)
	if sw.logger == nil {
		return os.Stdout.Write(p)
	}

	switch {
	case strings.Contains(message, " ERR "):
		err = sw.logger.Err(message)
	case strings.Contains(message, " WRN "):
		err = sw.logger.Warning(message)
	case strings.Contains(message, " DBG "):
		err = sw.logger.Debug(message)
	default:
		err = sw.logger.Info(message)
	}
	return len(p), err
}
