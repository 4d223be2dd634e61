package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/readlog/internal/coverimage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Content ContentConfig     `yaml:"content"`
	Cover   CoverConfig       `yaml:"cover"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if err := c.Cover.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.Required, validation.In(LogFormatText, LogFormatJSON)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds configuration for the read-only API server.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ContentConfig locates the content tree.
//
// ReadingsDir holds one Markdown file per reading. Processed covers are
// written to ImagesDir and referenced from records as ImagesURL/<slug>.jpg.
// ExportPath is where the public reading list is written.
type ContentConfig struct {
	ReadingsDir string `yaml:"readings_dir"`
	ImagesDir   string `yaml:"images_dir"`
	ImagesURL   string `yaml:"images_url"`
	ExportPath  string `yaml:"export_path"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ReadingsDir, validation.Required),
		validation.Field(&c.ImagesDir, validation.Required),
		validation.Field(&c.ImagesURL, validation.Required),
		validation.Field(&c.ExportPath, validation.Required),
	)
}

// CoverConfig holds the cover image policy.
type CoverConfig struct {
	Width    int   `yaml:"width"`
	Height   int   `yaml:"height"`
	Quality  int   `yaml:"quality"`
	MaxBytes int64 `yaml:"max_bytes"`
}

// Validate validates the cover configuration.
func (c *CoverConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Width, validation.Required, validation.Min(1), validation.Max(4000)),
		validation.Field(&c.Height, validation.Required, validation.Min(1), validation.Max(4000)),
		validation.Field(&c.Quality, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.MaxBytes, validation.Required, validation.Min(int64(1))),
	)
}

// AuthConfig holds authentication configuration for the read-only API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatText,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Content: ContentConfig{
			ReadingsDir: "./content/readings",
			ImagesDir:   "./public/images/readings",
			ImagesURL:   coverimage.DefaultURL,
			ExportPath:  "./public/data/readings.json",
		},
		Cover: CoverConfig{
			Width:    coverimage.DefaultWidth,
			Height:   coverimage.DefaultHeight,
			Quality:  coverimage.DefaultQuality,
			MaxBytes: coverimage.DefaultMaxBytes,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
