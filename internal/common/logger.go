package common

import (
	"errors"
	"os"

	"github.com/sirupsen/logrus"
)

// LoggerWrapper is a verbosity-tiered wrapper around logrus, shared between
// the scheduler, toolchain plugins and the link driver. verbosity selects
// which Info() calls are actually emitted: -1 disables info logging
// entirely, 0 is normal, up to 2 is the most chatty. Errors are always
// logged, and optionally duplicated to stderr so a foreground invocation of
// ubuild surfaces failures even when logging to a file.
type LoggerWrapper struct {
	impl              *logrus.Logger
	fileName          string
	verbosity         int
	duplicateToStderr bool
}

func MakeLogger(logFile string, verbosity int64, noLogsIfEmpty bool, duplicateToStderr bool) (*LoggerWrapper, error) {
	if verbosity < -1 || verbosity > 2 {
		return nil, errors.New("incorrect verbosity passed")
	}

	impl := logrus.New()
	impl.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true,
	})

	switch {
	case logFile != "" && logFile != "stderr":
		out, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			return nil, err
		}
		impl.SetOutput(out)
	case !noLogsIfEmpty:
		impl.SetOutput(os.Stderr)
	default:
		impl.SetOutput(nopWriter{})
	}

	return &LoggerWrapper{
		impl:              impl,
		fileName:          logFile,
		verbosity:         int(verbosity),
		duplicateToStderr: duplicateToStderr,
	}, nil
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func (logger *LoggerWrapper) Info(verbosity int, v ...interface{}) {
	if logger.verbosity >= verbosity {
		logger.impl.Info(v...)
	}
}

func (logger *LoggerWrapper) Error(v ...interface{}) {
	logger.impl.Error(v...)
	if logger.duplicateToStderr && logger.impl.Out != os.Stderr {
		fallback := logrus.New()
		fallback.SetOutput(os.Stderr)
		fallback.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
		fallback.Error(v...)
	}
}

func (logger *LoggerWrapper) RotateLogFile() error {
	if logger.fileName == "" || logger.fileName == "stderr" {
		return nil
	}
	out, err := os.OpenFile(logger.fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}
	logger.impl.SetOutput(out)
	return nil
}

func (logger *LoggerWrapper) GetFileName() string {
	return logger.fileName
}

func (logger *LoggerWrapper) GetFileSize() int64 {
	if logger.fileName == "" {
		return 0
	}
	stat, err := os.Stat(logger.fileName)
	if err != nil {
		return 0
	}
	return stat.Size()
}
