package log

import (
	"io"

	"gopkg.in/Sirupsen/logrus.v0"
)

// Level mirrors logrus levels, lower is more severe.
type Level uint32

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

func (lvl Level) logrus() logrus.Level { return logrus.Level(lvl) }

func init() {
	// Filtering is done per module, let everything through logrus.
	logrus.SetLevel(logrus.DebugLevel)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) { logrus.SetOutput(w) }
