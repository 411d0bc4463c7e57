// Package server configures the process-wide zerolog logger and adapts it to
// the gorilla middleware used around the router.
package server

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ConfigureLogging sets the global log level and output format. Unknown
// levels fall back to info; format "console" enables human-readable output.
func ConfigureLogging(level, format string) {
	var out io.Writer = os.Stderr
	if format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		log.Warn().Str("level", level).Msg("Unknown log level, using info")
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

// logRequest writes one access log line per request. Only the path is
// logged: the query string carries signed init data.
func logRequest(_ io.Writer, params handlers.LogFormatterParams) {
	log.Info().
		Str("method", params.Request.Method).
		Str("path", params.URL.Path).
		Str("addr", params.Request.RemoteAddr).
		Int("status", params.StatusCode).
		Int("size", params.Size).
		Dur("elapsed", time.Since(params.TimeStamp)).
		Msg("HTTP request")
}

// recoveryLogger routes panics recovered by handlers.RecoveryHandler to zerolog.
type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	log.Error().Msg(fmt.Sprint(v...))
}
