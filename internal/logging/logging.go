// Package logging configures the process-wide structured logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ParseLevel converts a level name ("debug", "info", "warn", "error") to a log.Level.
func ParseLevel(level string) (log.Level, error) {
	return log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
}

// New builds a logger writing to w at the given level. A nil w means stderr.
func New(level string, w io.Writer) (*log.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	}), nil
}

// Setup installs a logger built by New as the package default.
func Setup(level string, w io.Writer) error {
	l, err := New(level, w)
	if err != nil {
		return err
	}
	log.SetDefault(l)
	return nil
}
