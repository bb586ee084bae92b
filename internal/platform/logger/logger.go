// Package logger builds the process slog logger.
package logger

import (
	"io"
	"log/slog"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/platform/config"
)

// New returns a JSON or text logger writing to w at the configured level.
func New(w io.Writer, cfg config.Log) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("service", "xai-decision-engine"), nil
}

// Discard is a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
