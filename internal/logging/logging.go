// Package logging builds the structured logger shared by the CLI, the
// ledger, and the HTTP server.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
)

var levels = map[string]pterm.LogLevel{
	"trace": pterm.LogLevelTrace,
	"debug": pterm.LogLevelDebug,
	"info":  pterm.LogLevelInfo,
	"warn":  pterm.LogLevelWarn,
	"error": pterm.LogLevelError,
	"off":   pterm.LogLevelDisabled,
}

// New returns a logger writing to w at the named level. format is
// "colorful" (the default) or "json".
func New(level, format string, w io.Writer) (*pterm.Logger, error) {
	lvl, ok := levels[strings.ToLower(strings.TrimSpace(level))]
	if level == "" {
		lvl, ok = pterm.LogLevelInfo, true
	}
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	var formatter pterm.LogFormatter
	switch strings.ToLower(format) {
	case "", "colorful", "text":
		formatter = pterm.LogFormatterColorful
	case "json":
		formatter = pterm.LogFormatterJSON
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return pterm.DefaultLogger.
		WithLevel(lvl).
		WithFormatter(formatter).
		WithWriter(w), nil
}

// Discard returns a logger that drops everything.
func Discard() *pterm.Logger {
	return pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled).WithWriter(io.Discard)
}
