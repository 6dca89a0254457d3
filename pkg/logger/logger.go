// Package logx configures the process-wide zerolog logger.
package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config controls the global logger. Service is stamped on every line so the
// concierge stays attributable in shared log streams.
type Config struct {
	Level        string `default:"info"`
	PrettyFormat bool   `split_words:"true" default:"false"`
	Service      string `default:"concierge"`
}

var DefaultConfig = &Config{
	Level:   "info",
	Service: "concierge",
}

func safe(opts ...Config) *Config {
	if len(opts) == 0 {
		return DefaultConfig
	}
	return &opts[0]
}

func Init(opts ...Config) {
	conf := safe(opts...)

	var w io.Writer = os.Stdout
	if conf.PrettyFormat {
		w = zerolog.NewConsoleWriter()
	}

	ctx := zerolog.New(w).Level(ParseLevel(conf.Level)).With().Timestamp()
	if conf.Service != "" {
		ctx = ctx.Str("service", conf.Service)
	}

	log.Logger = ctx.Caller().Stack().Logger()
}

// ParseLevel maps a level name to its zerolog level, defaulting to info for
// anything unrecognized.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
