package internal

import (
	"log/slog"

	"github.com/starford/readlog/internal/coverimage"
	"github.com/starford/readlog/internal/prompt"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config     *Config
	logger     *slog.Logger
	prompter   prompt.Prompter
	transcoder coverimage.Transcoder
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithPrompter sets where interactive commands get their answers.
func WithPrompter(p prompt.Prompter) Option {
	return func(a *application) {
		a.prompter = p
	}
}

// WithTranscoder replaces the image transcoder used for covers.
func WithTranscoder(t coverimage.Transcoder) Option {
	return func(a *application) {
		a.transcoder = t
	}
}
