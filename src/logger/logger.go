// Package logger defines the logging interface shared by every pipeline component.
// Loggers are constructed once and handed to components; there is no package-level logger.
package logger

import (
	"fmt"
	"io"
	"os"
)

// Logger defines the interface for logging throughout the application.
// Different implementations can be used for different contexts (console, silent, structured).
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// ConsoleLogger writes human-readable logs to stdout/stderr.
type ConsoleLogger struct {
	out   io.Writer
	err   io.Writer
	debug bool
}

// NewConsoleLogger creates a console logger. Debug lines are only written when debug is true.
func NewConsoleLogger(debug bool) *ConsoleLogger {
	return &ConsoleLogger{out: os.Stdout, err: os.Stderr, debug: debug}
}

func (c *ConsoleLogger) Info(msg string, args ...interface{}) {
	fmt.Fprintf(c.out, "[INFO] "+msg+"\n", args...)
}

func (c *ConsoleLogger) Error(msg string, args ...interface{}) {
	fmt.Fprintf(c.err, "[ERROR] "+msg+"\n", args...)
}

func (c *ConsoleLogger) Debug(msg string, args ...interface{}) {
	if !c.debug {
		return
	}
	fmt.Fprintf(c.out, "[DEBUG] "+msg+"\n", args...)
}

// SilentLogger discards all log messages.
// Used by the MCP server, where stdout carries the protocol.
type SilentLogger struct{}

func NewSilentLogger() *SilentLogger {
	return &SilentLogger{}
}

func (s *SilentLogger) Info(msg string, args ...interface{})  {}
func (s *SilentLogger) Error(msg string, args ...interface{}) {}
func (s *SilentLogger) Debug(msg string, args ...interface{}) {}
