package log

import (
	"gopkg.in/Sirupsen/logrus.v0"
)

// Entry is a printf-style log entry bound to a module.
type Entry struct {
	mod Module
}

func (entry Entry) log() *logrus.Entry {
	return logrus.StandardLogger().WithField("_mod", entry.mod.String())
}

func (entry Entry) Warnf(format string, args ...any) {
	if entry.mod.Enabled(WarnLevel) {
		entry.log().Warnf(format, args...)
	}
}
