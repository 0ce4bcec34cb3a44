package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/autosave"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/codec"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/config"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/editor"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/library"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/mcp"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/resolver"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/sqlite"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "rehab-grid: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	// stdout carries JSON-RPC; logs go to stderr or the log file.
	logger, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return fmt.Errorf("failed to prepare database path: %w", err)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	catalog, err := resolver.DefaultCatalog()
	if err != nil {
		return err
	}
	assets, err := newFetcher(cfg.Assets)
	if err != nil {
		return err
	}

	projectRepo := sqlite.NewProjectRepository(db)
	imageRepo := sqlite.NewImageRepository(db)
	transactor := sqlite.NewTransactor(db)

	store := editor.NewStore(projectRepo, imageRepo, logger.With("component", "editor"))
	images := library.NewService(imageRepo, store, cfg.Import.MaxUploadBytes, logger.With("component", "library"))
	projectCodec := codec.New(imageRepo, transactor, catalog, assets, codec.Options{
		Limits: codec.Limits{
			MaxJSONBytes:      cfg.Import.MaxJSONBytes,
			MaxZIPBytes:       cfg.Import.MaxZIPBytes,
			MaxArchiveImages:  cfg.Import.MaxArchiveImages,
			MaxExtractedBytes: cfg.Import.MaxExtractedBytes,
		},
		TemplateRoot: cfg.Assets.TemplateRoot,
		Logger:       logger.With("component", "codec"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pipeline := autosave.New(store, projectRepo, autosave.Options{
		Delay:      cfg.Autosave.Delay,
		RetryDelay: cfg.Autosave.RetryDelay,
		Logger:     logger.With("component", "autosave"),
	})
	if err := pipeline.Init(ctx); err != nil {
		return fmt.Errorf("failed to start autosave: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := pipeline.Dispose(flushCtx); err != nil {
			logger.Error("final save failed", "error", err)
		}
	}()

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Store:          store,
			Codec:          projectCodec,
			Images:         images,
			Samples:        catalog,
			MaxUploadBytes: cfg.Import.MaxUploadBytes,
		},
		Version: project.AppVersion,
		Logger:  logger,
	})

	logger.Info("starting stdio transport", "db", cfg.DB.Path, "assets", assetsLocation(cfg.Assets))

	// Run blocks until stdin closes or the context is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server error: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func newFetcher(cfg config.AssetsConfig) (resolver.Fetcher, error) {
	if cfg.URL != "" {
		return resolver.NewHTTPFetcher(cfg.URL, nil)
	}
	return resolver.NewDirFetcher(os.DirFS(cfg.Dir)), nil
}

func assetsLocation(cfg config.AssetsConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return cfg.Dir
}

func newLogger(cfg config.LogConfig) (*slog.Logger, func(), error) {
	w := io.Writer(colorable.NewColorable(os.Stderr))
	noColor := !isatty.IsTerminal(os.Stderr.Fd())
	closeFn := func() {}

	if cfg.Path != "" {
		fileWriter, err := newLogFileWriter(cfg.Path, cfg.MaxBytes)
		if err != nil {
			return nil, nil, fmt.Errorf("log file error: %w", err)
		}
		w = fileWriter
		noColor = true
		closeFn = func() { _ = fileWriter.Close() }
	}

	logger := slog.New(tint.NewHandler(w, &tint.Options{
		Level:      parseLogLevel(cfg.Level),
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
	}))
	return logger, closeFn, nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// logFileWriter appends to a file and drops the oldest sixth of it once it
// grows past maxBytes.
type logFileWriter struct {
	file     *os.File
	maxBytes int64
	keep     int64
	mu       sync.Mutex
}

func newLogFileWriter(path string, maxBytes int64) (*logFileWriter, error) {
	if err := ensureLogDir(path); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	w := &logFileWriter{file: file, maxBytes: maxBytes, keep: maxBytes * 5 / 6}
	if err := w.truncateIfNeeded(); err != nil {
		_ = file.Close()
		return nil, err
	}
	return w, nil
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (w *logFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	if err := w.truncateIfNeeded(); err != nil {
		return n, err
	}
	return n, nil
}

func (w *logFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

func (w *logFileWriter) truncateIfNeeded() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= w.maxBytes {
		return nil
	}

	buf := make([]byte, w.keep)
	if _, err := w.file.Seek(size-w.keep, io.SeekStart); err != nil {
		return err
	}
	n, err := io.ReadFull(w.file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	buf = buf[:n]

	if err := w.file.Truncate(0); err != nil {
		return err
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.file.Write(buf); err != nil {
		return err
	}
	_, err = w.file.Seek(0, io.SeekEnd)
	return err
}
