package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds a JSON slog.Logger writing to w. Core fields are renamed
// to the ledger's log schema (timestamp, severity, message) and every line
// carries the service name, plus the environment when provided.
func NewLogger(w io.Writer, service, env string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				return slog.Attr{Key: "timestamp", Value: attr.Value}
			case slog.LevelKey:
				return slog.String("severity", strings.ToUpper(attr.Value.String()))
			case slog.MessageKey:
				return slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	})

	logger := slog.New(handler).With(slog.String("service", strings.TrimSpace(service)))
	if env = strings.TrimSpace(env); env != "" {
		logger = logger.With(slog.String("env", env))
	}
	return logger
}

// Setup installs a stdout JSON logger as the slog default and bridges the
// standard library logger through it, then returns the logger for direct use.
// Hosts typically hand the result to the credit engine via SetLogger.
func Setup(service, env string) *slog.Logger {
	logger := NewLogger(os.Stdout, service, env)
	slog.SetDefault(logger)

	// Bridge the standard library logger so dependencies keep working.
	stdBridge := slog.NewLogLogger(logger.Handler(), slog.LevelInfo)
	stdBridge.SetFlags(0)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return logger
}

// ShortAddress abbreviates a hex account address for log lines, keeping
// enough of both ends to stay greppable. Short values pass through.
func ShortAddress(hexAddr string) string {
	hexAddr = strings.TrimSpace(hexAddr)
	if len(hexAddr) <= 12 {
		return hexAddr
	}
	return hexAddr[:8] + ".." + hexAddr[len(hexAddr)-4:]
}
