// Package logging sets up the human readable structured logger of the command line tools.
package logging

import "io"
import "log/slog"
import "strings"

import "github.com/pkg/errors"

// LevelTrace is the level below debug.
const LevelTrace = slog.Level(-8)

var levelNames = map[slog.Level]string{
	LevelTrace: "TRACE",
}

// ParseLevel parses trace, debug, info, warn or error, in any case.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, errors.Errorf("unknown log level %q", s)
}

// New creates a text logger writing to w records at level or above.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				level := a.Value.Any().(slog.Level)
				if name, ok := levelNames[level]; ok {
					a.Value = slog.StringValue(name)
				}
			}
			return a
		},
	}))
}

// Init makes New(w, level) the default logger and returns it.
func Init(w io.Writer, level slog.Level) *slog.Logger {
	l := New(w, level)
	slog.SetDefault(l)
	return l
}
