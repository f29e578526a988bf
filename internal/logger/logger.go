// Package logger configures the global zerolog logger from command line
// options.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a go-flags option group shared by every binary.
type Logger struct {
	Level   string `long:"log-level"    env:"LOG_LEVEL"  description:"Log level"      default:"info" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" choice:"disabled"`
	Format  string `long:"log-format"   env:"LOG_FORMAT" description:"Log format"     default:"text" choice:"text" choice:"json"`
	NoColor bool   `long:"log-no-color" env:"LOG_NO_COLOR" description:"Disable colors"`
}

// Setup replaces the global logger and level.
func (l *Logger) Setup() {
	log.Logger = l.New(os.Stderr)
	zerolog.SetGlobalLevel(l.level())
}

// New builds a logger writing to w without touching global state.
func (l *Logger) New(w io.Writer) zerolog.Logger {
	if l.Format == "json" {
		return zerolog.New(w).Level(l.level()).With().Timestamp().Logger()
	}

	noColor := l.NoColor
	if f, ok := w.(*os.File); ok && !isatty.IsTerminal(f.Fd()) {
		noColor = true
	}

	console := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor,
		TimeFormat: time.DateTime,
	}
	return zerolog.New(console).Level(l.level()).With().Timestamp().Logger()
}

func (l *Logger) level() zerolog.Level {
	if l.Level == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(l.Level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
