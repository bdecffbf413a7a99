package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures the global zerolog logger: console output always, plus a
// rotating JSON file when logPath is non-empty.
func Setup(level, logPath string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}

	var w io.Writer = console
	if logPath != "" {
		w = zerolog.MultiLevelWriter(console, &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    20, // MB
			MaxBackups: 3,
			MaxAge:     14, // days
		})
	}

	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}
