package logging

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var logLevelMatches = map[string]zerolog.Level{
	"NONE":  zerolog.Disabled,
	"TRACE": zerolog.TraceLevel,
	"DEBUG": zerolog.DebugLevel,
	"INFO":  zerolog.InfoLevel,
	"WARN":  zerolog.WarnLevel,
	"ERROR": zerolog.ErrorLevel,
	"FATAL": zerolog.FatalLevel,
}

// ParseLevel maps a level name to a zerolog level, case-insensitively.
// Unknown names give InfoLevel and false.
func ParseLevel(level string) (zerolog.Level, bool) {
	l, ok := logLevelMatches[strings.ToUpper(strings.TrimSpace(level))]
	if !ok {
		return zerolog.InfoLevel, false
	}
	return l, true
}

func configureConsoleWriter(out io.Writer) {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
	})
}

func isTerminalAttached() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) && runtime.GOOS != "windows"
}

// Setup configures the global logger. Logs go to stderr, in console form
// when it is a terminal, or appended to file when one is given. The
// returned func closes the log file.
func Setup(level, file string) (func(), error) {
	if isTerminalAttached() {
		configureConsoleWriter(os.Stderr)
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	logLevel, ok := ParseLevel(level)
	if !ok && level != "" {
		log.Warn().Str("level", level).Msg("unknown log level, using INFO")
	}
	zerolog.SetGlobalLevel(logLevel)

	if file == "" {
		return func() {}, nil
	}
	f, err := os.OpenFile(file, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return func() {}, fmt.Errorf("error opening log file: %w", err)
	}
	log.Logger = zerolog.New(f).With().Timestamp().Logger()
	return func() {
		_ = f.Close()
	}, nil
}

// Enabled checks if a specific logging level is enabled
func Enabled(level zerolog.Level) bool {
	return level >= zerolog.GlobalLevel()
}
