package app

import (
	"os"

	"local-dispatch/internal/config"
	"local-dispatch/internal/logx"
)

// NewLogger returns the JSON stdout logger at the configured level.
func NewLogger(cfg *config.Config) logx.Logger {
	return logx.NewJSON(os.Stdout, cfg.LogLevel).With(logx.String("service", "local-dispatch"))
}
