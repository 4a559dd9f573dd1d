package config

import (
	"io"
	"strings"

	"github.com/rs/zerolog"

	"toolgate/internal/domain"
)

// NewLogger builds the process logger from InfraConfig. The stdio transport
// passes stderr here; stdout belongs to the wire protocol.
func NewLogger(cfg domain.InfraConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	if strings.EqualFold(cfg.LogFormat, "text") {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
