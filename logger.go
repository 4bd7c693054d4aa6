package main

import (
	"log/slog"
	"os"
)

// debugEnv raises the log level to debug when set to any non-empty value.
const debugEnv = "DEBUG"

var logger = newLogger()

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv(debugEnv) != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
