package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starford/readlog/internal/coverimage"
	"github.com/starford/readlog/internal/export"
	"github.com/starford/readlog/internal/flow"
	"github.com/starford/readlog/internal/prompt"
	"github.com/starford/readlog/internal/record"
	"github.com/starford/readlog/internal/reread"
	"github.com/starford/readlog/internal/storage"
)

// App wires the content directory, the cover pipeline and the operator
// prompts together. Each CLI command is one method.
type App struct {
	cfg      *Config
	logger   *slog.Logger
	store    *record.Store
	covers   *coverimage.Pipeline
	prompter prompt.Prompter
}

// NewLogger builds the slog logger described by cfg, writing to w.
func NewLogger(cfg *Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.App.LogLevel}
	if cfg.App.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// New creates the application from the given options.
func New(opts ...Option) (*App, error) {
	a := &application{}
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := a.config

	logger := a.logger
	if logger == nil {
		logger = NewLogger(cfg, os.Stderr)
	}

	fs, err := storage.NewFS(cfg.Content.ReadingsDir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	covers := coverimage.New(coverimage.Options{
		OutputDir:  cfg.Content.ImagesDir,
		URLPrefix:  cfg.Content.ImagesURL,
		Width:      cfg.Cover.Width,
		Height:     cfg.Cover.Height,
		Quality:    cfg.Cover.Quality,
		MaxBytes:   cfg.Cover.MaxBytes,
		Transcoder: a.transcoder,
	})

	return &App{
		cfg:      cfg,
		logger:   logger,
		store:    record.NewStore(fs),
		covers:   covers,
		prompter: a.prompter,
	}, nil
}

// Config returns the configuration the app was built with.
func (a *App) Config() *Config {
	return a.cfg
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Store returns the record store over the readings directory.
func (a *App) Store() *record.Store {
	return a.store
}

func (a *App) flow() (*flow.Flow, error) {
	if a.prompter == nil {
		return nil, fmt.Errorf("interactive command needs a prompter")
	}
	return flow.New(a.store, a.covers, a.prompter, flow.WithLogger(a.logger)), nil
}

// Add runs the interactive add-a-reading flow.
func (a *App) Add(ctx context.Context) (*flow.Result, error) {
	f, err := a.flow()
	if err != nil {
		return nil, err
	}
	return f.Add(ctx)
}

// Edit runs the interactive edit flow on one file.
func (a *App) Edit(ctx context.Context, name string) (*flow.Result, error) {
	f, err := a.flow()
	if err != nil {
		return nil, err
	}
	return f.Edit(ctx, name)
}

// Delete removes one file after confirmation.
func (a *App) Delete(ctx context.Context, name string) (*flow.Result, error) {
	f, err := a.flow()
	if err != nil {
		return nil, err
	}
	return f.Delete(ctx, name)
}

// List collects every reading without writing anything.
func (a *App) List() (*export.Result, error) {
	return export.Collect(a.store)
}

// Check scans the readings directory and returns the sequence advisories.
// Advisories never fail the check.
func (a *App) Check() ([]reread.Advisory, error) {
	names, err := a.store.Provider().List()
	if err != nil {
		return nil, fmt.Errorf("check: %w", err)
	}
	m := reread.BuildMap(names)
	advs := reread.Validate(m)
	a.logger.Debug("check complete",
		slog.Int("files", len(names)),
		slog.Int("groups", len(m)),
		slog.Int("advisories", len(advs)))
	return advs, nil
}

// Export writes the public reading list once.
func (a *App) Export() (*export.Result, error) {
	return export.Run(a.store, a.cfg.Content.ExportPath, a.logger)
}

// Watch re-exports whenever the readings directory changes, until ctx is
// done.
func (a *App) Watch(ctx context.Context) error {
	return export.Watch(ctx, a.store, a.cfg.Content.ExportPath, a.logger, nil)
}
