// Package shylog is SHYBOX's hierarchical logger. It is deliberately
// plain: callers get begin/end scoping and contextual fields (tag,
// workflow, time, tile), never the arrow/indent decoration the spec
// treats as an out-of-scope external collaborator (spec.md GLOSSARY
// "Arrow logger"). Depth is tracked as a structured field, not as
// rendered whitespace.
package shylog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps a *logrus.Entry with scope tracking.
type Logger struct {
	entry *logrus.Entry
	depth int
}

// New builds a root Logger writing to w. A nil w defaults to stderr,
// matching the "construct the logger first with a minimal stderr
// sink" wiring order from spec.md §9 (cyclic module wiring note): the
// caller builds a Logger before the configuration that will eventually
// redirect it is loaded.
func New(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	l := logrus.New()
	l.Out = w
	l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	return &Logger{entry: logrus.NewEntry(l)}
}

// SetOutput redirects the underlying logger's sink, used once the
// configured log file path is known.
func (l *Logger) SetOutput(w io.Writer) {
	l.entry.Logger.Out = w
}

// With returns a child Logger carrying additional structured fields.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields)), depth: l.depth}
}

// Begin opens a named nested scope (e.g. a tag, workflow, time step, or
// tile), returning a child Logger and an End func that must be called
// when the scope closes. The depth field lets a downstream formatter
// reconstruct indentation without this package doing it.
func (l *Logger) Begin(scope string) (*Logger, func()) {
	child := &Logger{
		entry: l.entry.WithFields(logrus.Fields{"scope": scope, "depth": l.depth + 1}),
		depth: l.depth + 1,
	}
	child.entry.Debug("begin")
	return child, func() { child.entry.Debug("end") }
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }

// Errorf logs a single-line ERROR identifying the failing context
// (whatever fields are bound via With/Begin — typically tag, workflow,
// time), satisfying spec.md §7's user-visible failure behavior.
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
