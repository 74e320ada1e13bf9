package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	once      sync.Once
	singleton *log.Logger
)

// Logger returns the process-wide logger for structured key/value calls.
func Logger() *log.Logger {
	once.Do(func() {
		singleton = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
			Prefix:          "voxel",
		})
		singleton.SetLevel(log.InfoLevel)
	})
	return singleton
}

// SetLevel parses a level name ("debug", "info", ...) and applies it.
func SetLevel(name string) error {
	lvl, err := log.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("log level %q: %w", name, err)
	}
	Logger().SetLevel(lvl)
	return nil
}

// SetOutput redirects the logger.
func SetOutput(w io.Writer) {
	Logger().SetOutput(w)
}

func Debug(msg string, args ...any) {
	Logger().Debugf(msg, args...)
}

func Info(msg string, args ...any) {
	Logger().Infof(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger().Warnf(msg, args...)
}

func Error(msg string, args ...any) {
	Logger().Errorf(msg, args...)
}
