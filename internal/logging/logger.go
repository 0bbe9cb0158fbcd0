package logging

import (
	"log/slog"
	"os"
)

// Setup initializes the global slog logger: JSON to stdout, plus a
// batching file handler that mirrors ERROR+ records into the side
// error log shared by every process. It returns the file handler so
// main can Stop it on shutdown; errPath may be empty to skip the file
// sink (tests, tooling).
func Setup(errPath string) *FileHandler {
	stdout := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	if errPath == "" {
		slog.SetDefault(slog.New(stdout))
		return nil
	}
	fh := NewFileHandler(errPath)
	slog.SetDefault(slog.New(NewMultiHandler(stdout, fh)))
	return fh
}
