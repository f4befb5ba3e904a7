//go:build debug
// +build debug

package main

import (
	"log"

	"github.com/nickng/looprotate/internal/logging"
	"go.uber.org/zap"
)

// newLogger returns a new logger with default options.
func newLogger() *logging.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("Cannot create new logger:", err)
	}
	return logging.New(l.Sugar(), "looprotate")
}

// newFileLogger returns a new logger and also writes the log output to files.
func newFileLogger(files ...string) *logging.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = append(cfg.OutputPaths, files...)
	l, err := cfg.Build()
	if err != nil {
		log.Fatal("Cannot create new logger:", err)
	}
	return logging.New(l.Sugar(), "looprotate")
}
