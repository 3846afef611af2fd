// Package logging builds the zerolog backed echo logger shared by the HTTP
// server, the services and the background workers.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/gommon/log"
	"github.com/ziflex/lecho/v3"
)

// ParseLevel maps LOG_LEVEL values to echo levels.  Unknown values mean info.
func ParseLevel(level string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error", "fatal", "panic":
		return log.ERROR
	case "off", "disabled":
		return log.OFF
	default:
		return log.INFO
	}
}

// New returns a logger writing JSON lines to stdout, or appending to
// filePath when it is set.  The returned closer releases the file.
func New(level, filePath string) (*lecho.Logger, io.Closer, error) {
	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if filePath != "" {
		if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o664)
		if err != nil {
			return nil, nil, err
		}
		out, closer = f, f
	}
	logger := lecho.New(out,
		lecho.WithLevel(ParseLevel(level)),
		lecho.WithTimestamp(),
		lecho.WithField("service", "travel-backoffice"),
	)
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
