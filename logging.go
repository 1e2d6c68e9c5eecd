package swirl

import (
	"fmt"
	"log"
	"os"
)

// Logger is the logging surface the simulation and its viewers share.
// Debugf carries per-event noise (respawns, toggles) and is expected to
// be cheap when debug output is off.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// DefaultLogger writes leveled lines through the standard log package,
// debug and info to stdout, warnings and errors to stderr.
type DefaultLogger struct {
	debug bool
	out   *log.Logger
	err   *log.Logger
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	tag := ""
	if prefix != "" {
		tag = "[" + prefix + "] "
	}
	flags := log.LstdFlags | log.Lmicroseconds | log.Lmsgprefix
	return &DefaultLogger{
		debug: debug,
		out:   log.New(os.Stdout, tag, flags),
		err:   log.New(os.Stderr, tag, flags),
	}
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if l.debug {
		l.out.Print("DEBUG: ", fmt.Sprintf(format, args...))
	}
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.out.Print("INFO: ", fmt.Sprintf(format, args...))
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.err.Print("WARN: ", fmt.Sprintf(format, args...))
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.err.Print("ERROR: ", fmt.Sprintf(format, args...))
}

// NewNopLogger returns a Logger that discards everything. The system
// falls back to it when no logger is configured.
func NewNopLogger() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
