// Package logging wires the sandbox core's structured logging. It
// mirrors the Debugf/Infof/Warningf texture of the teacher's log
// package but is backed by logrus, the dependency the teacher already
// carries for its own diagnostics.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger configured for the sandbox core: text formatter
// with full timestamps on stderr, level controlled by verbose.
func New(verbose bool) *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}

// ForInvocation returns a child entry fielded with the invocation's
// identifying attributes. Never field the child's stdout/stderr bytes
// here; those belong to the judge, not the log.
func ForInvocation(l *logrus.Logger, invocationID string) *logrus.Entry {
	return l.WithField("invocation_id", invocationID)
}
