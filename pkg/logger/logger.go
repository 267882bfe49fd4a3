package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// Log is the process logger. log.Logger from zerolog/log always points at the
// same instance, so packages may use either.
var Log zerolog.Logger

var output io.Writer = consoleWriter(os.Stdout)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano
	install(zerolog.InfoLevel)
}

// Configure selects the level and the output format: "json" writes one JSON
// object per line, anything else writes human readable console output.
func Configure(level, format string) {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		output = os.Stdout
	} else {
		output = consoleWriter(os.Stdout)
	}
	SetLevel(level)
}

// SetLevel changes the minimum level and keeps the current output.
func SetLevel(level string) {
	lvl, ok := ParseLevel(level)
	install(lvl)
	if !ok {
		Log.Warn().Str("level", level).Msg("invalid log level, defaulting to info")
	}
}

// ParseLevel maps a level name to a zerolog level. An empty or unknown name
// yields info and false.
func ParseLevel(level string) (zerolog.Level, bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel, false
	}
	return lvl, true
}

func install(lvl zerolog.Level) {
	zerolog.SetGlobalLevel(lvl)
	Log = zerolog.New(output).
		Level(lvl).
		With().
		Timestamp().
		Caller().
		Logger()
	log.Logger = Log
}

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02 15:04:05"}
}
