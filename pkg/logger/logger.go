package logger

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const logDir = "logs"

// New creates a structured slog.Logger based on the provided level string.
// Console output is text for readability; info.log and error.log under logs/
// receive JSON records for ingestion.
func New(level string) (*slog.Logger, error) {
	handlerLevel, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}

	infoFile, err := os.OpenFile(filepath.Join(logDir, "info.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}

	errorFile, err := os.OpenFile(filepath.Join(logDir, "error.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}

	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: handlerLevel})
	infoFileHandler := slog.NewJSONHandler(infoFile, &slog.HandlerOptions{Level: handlerLevel})
	errorFileHandler := slog.NewJSONHandler(errorFile, &slog.HandlerOptions{Level: slog.LevelError})

	return slog.New(newTeeHandler(handlerLevel, consoleHandler, infoFileHandler, errorFileHandler)), nil
}

// teeHandler fans records out to the console and file handlers; errors are
// duplicated into the error file.
type teeHandler struct {
	level    slog.Leveler
	console  slog.Handler
	infoFile slog.Handler
	errFile  slog.Handler
}

func newTeeHandler(level slog.Leveler, console, infoFile, errFile slog.Handler) *teeHandler {
	return &teeHandler{
		level:    level,
		console:  console,
		infoFile: infoFile,
		errFile:  errFile,
	}
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.console.Handle(ctx, r); err != nil {
		return err
	}

	if err := h.infoFile.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= slog.LevelError {
		return h.errFile.Handle(ctx, r)
	}

	return nil
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &teeHandler{
		level:    h.level,
		console:  h.console.WithAttrs(attrs),
		infoFile: h.infoFile.WithAttrs(attrs),
		errFile:  h.errFile.WithAttrs(attrs),
	}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{
		level:    h.level,
		console:  h.console.WithGroup(name),
		infoFile: h.infoFile.WithGroup(name),
		errFile:  h.errFile.WithGroup(name),
	}
}

func parseLevel(level string) (slog.Leveler, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return nil, errors.New("invalid log level")
	}
}
