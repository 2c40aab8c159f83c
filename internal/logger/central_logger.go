package logger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	// Embed timezone database so LoggingConfig.Timezone resolves on hosts without zoneinfo.
	_ "time/tzdata"
)

// CentralLogger owns the output handles and hands out module-scoped loggers.
// Level filtering happens in the module loggers; the handlers accept everything.
type CentralLogger struct {
	config       *LoggingConfig
	timezone     *time.Location
	handler      slog.Handler
	file         *os.File
	fileBuf      *bufio.Writer
	moduleLevels map[string]slog.Level
	mu           sync.Mutex
}

// NewCentralLogger creates a centralized logger writing text to the console and,
// when cfg.File is set, JSON lines to that file.
func NewCentralLogger(cfg *LoggingConfig) (*CentralLogger, error) {
	return newCentralLogger(cfg, os.Stdout)
}

func newCentralLogger(cfg *LoggingConfig, console io.Writer) (*CentralLogger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("logging config cannot be nil")
	}

	var tz *time.Location
	switch cfg.Timezone {
	case "", "Local":
		tz = time.Local
	default:
		var err error
		tz, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %s: %w", cfg.Timezone, err)
		}
	}

	cl := &CentralLogger{
		config:       cfg,
		timezone:     tz,
		moduleLevels: make(map[string]slog.Level, len(cfg.ModuleLevels)),
	}
	for module, level := range cfg.ModuleLevels {
		cl.moduleLevels[module] = parseSlogLevel(LogLevel(level))
	}

	var handlers []slog.Handler
	if !cfg.Quiet {
		handlers = append(handlers, newTextHandler(console, traceLevelValue, tz))
	}
	if cfg.File != "" {
		if err := ensureFileDirectory(cfg.File); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
		}
		cl.file = f
		cl.fileBuf = bufio.NewWriter(f)
		handlers = append(handlers, slog.NewJSONHandler(&lockedWriter{cl: cl}, &slog.HandlerOptions{Level: traceLevelValue}))
	}

	switch len(handlers) {
	case 0:
		cl.handler = slog.NewTextHandler(io.Discard, nil)
	case 1:
		cl.handler = handlers[0]
	default:
		cl.handler = newFanout(handlers...)
	}
	return cl, nil
}

// Module returns a logger scoped to a specific module
func (cl *CentralLogger) Module(name string) Logger {
	if cl == nil {
		return nil
	}
	return &moduleLogger{
		module: name,
		logger: slog.New(cl.handler),
		level:  cl.levelFor(name),
	}
}

func (cl *CentralLogger) levelFor(module string) slog.Level {
	if level, ok := cl.moduleLevels[module]; ok {
		return level
	}
	level := cl.config.Level
	if level == "" {
		level = DefaultLogLevel
	}
	return parseSlogLevel(LogLevel(level))
}

// Flush writes buffered file output to the OS.
func (cl *CentralLogger) Flush() error {
	if cl == nil || cl.fileBuf == nil {
		return nil
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.fileBuf.Flush()
}

// Close flushes and closes the log file.
func (cl *CentralLogger) Close() error {
	if cl == nil || cl.file == nil {
		return nil
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()
	errs := []error{cl.fileBuf.Flush(), cl.file.Sync(), cl.file.Close()}
	cl.file = nil
	cl.fileBuf = nil
	return errors.Join(errs...)
}

// lockedWriter serializes writes into the central file buffer.
type lockedWriter struct {
	cl *CentralLogger
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.cl.mu.Lock()
	defer w.cl.mu.Unlock()
	if w.cl.fileBuf == nil {
		return 0, os.ErrClosed
	}
	return w.cl.fileBuf.Write(p)
}

func ensureFileDirectory(filePath string) error {
	dir := filepath.Dir(filePath)
	if dir == "." || dir == filePath {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
