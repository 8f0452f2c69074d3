package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

func init() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return filepath.Base(file) + ":" + strconv.Itoa(line)
	}

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log
}

// SetLevelFromString configures the global log level from a config value
// like "debug", "info", "warn" or "error".
func SetLevelFromString(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// Named returns a component logger carrying a "logger" field and caller info.
func Named(name string) zerolog.Logger {
	return NewLogger(name, nil).logger
}

type ZeroLogger struct {
	logger zerolog.Logger
	name   string
}

func NewLogger(name string, output io.Writer) *ZeroLogger {
	if output == nil {
		output = os.Stdout
	}

	logger := zerolog.New(output).
		With().
		Timestamp().
		Str("logger", name).
		Caller().
		Logger()

	return &ZeroLogger{
		logger: logger,
		name:   name,
	}
}

func (l *ZeroLogger) Debugf(format string, args ...any) {
	l.logger.Debug().Msgf(format, args...)
}

func (l *ZeroLogger) Infof(format string, args ...any) {
	l.logger.Info().Msgf(format, args...)
}

func (l *ZeroLogger) Warnf(format string, args ...any) {
	l.logger.Warn().Msgf(format, args...)
}

func (l *ZeroLogger) Errorf(format string, args ...any) {
	l.logger.Error().Msgf(format, args...)
}

var defaultLogger = NewLogger("default", nil)

func Debugf(format string, args ...any) {
	withCaller(defaultLogger.logger.Debug()).Msgf(format, args...)
}

func Infof(format string, args ...any) {
	withCaller(defaultLogger.logger.Info()).Msgf(format, args...)
}

func Warnf(format string, args ...any) {
	withCaller(defaultLogger.logger.Warn()).Msgf(format, args...)
}

func Errorf(format string, args ...any) {
	withCaller(defaultLogger.logger.Error()).Msgf(format, args...)
}

func Fatalf(format string, args ...any) {
	// zerolog calls os.Exit(1) once the event is logged
	withCaller(defaultLogger.logger.Fatal()).Msgf(format, args...)
}

func withCaller(event *zerolog.Event) *zerolog.Event {
	_, file, line, ok := runtime.Caller(2)
	if ok {
		event = event.Str("caller", filepath.Base(file)+":"+strconv.Itoa(line))
	}
	return event
}
