package logger

import (
	"io"
	"log/slog"

	"github.com/sirupsen/logrus"
)

type Logger interface {
	Info(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type StdLogger struct {
	internalLogger *slog.Logger
}

// New returns a slog text logger writing to w. The level is read from level
// on every call, so callers can flip it after construction.
func New(w io.Writer, level *slog.LevelVar) Logger {
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return &StdLogger{internalLogger: l}
}

// Slog exposes the underlying logger so it can be installed as the slog default.
func (l *StdLogger) Slog() *slog.Logger {
	return l.internalLogger
}

func (l *StdLogger) Info(msg string, args ...interface{}) {
	l.internalLogger.Info(msg, args...)
}

func (l *StdLogger) Debug(msg string, args ...interface{}) {
	l.internalLogger.Debug(msg, args...)
}

func (l *StdLogger) Warn(msg string, args ...interface{}) {
	l.internalLogger.Warn(msg, args...)
}

func (l *StdLogger) Error(msg string, args ...interface{}) {
	l.internalLogger.Error(msg, args...)
}

// FileLogger writes logrus entries, used when diagnostics go to a log file.
type FileLogger struct {
	internalLogger *logrus.Logger
}

func NewLogrus(w io.Writer, debug bool) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	if debug {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return &FileLogger{internalLogger: l}
}

func (l *FileLogger) Info(msg string, args ...interface{}) {
	l.internalLogger.WithFields(fields(args)).Info(msg)
}

func (l *FileLogger) Debug(msg string, args ...interface{}) {
	l.internalLogger.WithFields(fields(args)).Debug(msg)
}

func (l *FileLogger) Warn(msg string, args ...interface{}) {
	l.internalLogger.WithFields(fields(args)).Warn(msg)
}

func (l *FileLogger) Error(msg string, args ...interface{}) {
	l.internalLogger.WithFields(fields(args)).Error(msg)
}

// fields turns slog-style key/value pairs into logrus fields. A trailing key
// without a value is kept under "!BADKEY", matching slog.
func fields(args []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok || i+1 >= len(args) {
			f["!BADKEY"] = args[i]
			continue
		}
		f[key] = args[i+1]
	}
	return f
}
