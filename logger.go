package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// parseLevel maps a config level name to slog; unknown names mean info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a structured slog.Logger with the given level. When
// logFile is set, records go to stdout and the file. The returned close
// func is never nil.
func NewLogger(level slog.Leveler, logFile string) (*slog.Logger, func() error, error) {
	var w io.Writer = os.Stdout
	closeFn := func() error { return nil }
	if logFile != "" {
		if dir := filepath.Dir(logFile); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, closeFn, err
			}
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, closeFn, err
		}
		w = io.MultiWriter(os.Stdout, f)
		closeFn = f.Close
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h), closeFn, nil
}
