// Package coverimage validates operator-supplied cover images and stores a
// resized copy under a slug-derived name. Pixel work is delegated to a
// Transcoder; this package owns the validation gate and the naming policy.
package coverimage

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/starford/readlog/internal/apperr"
	"github.com/starford/readlog/internal/slug"
)

// Defaults for the stored cover.
const (
	DefaultWidth    = 400
	DefaultHeight   = 600
	DefaultQuality  = 80
	DefaultMaxBytes = 10 << 20 // 10 MB
	DefaultURL      = "/images/readings"

	// OutputExt is the extension of every stored cover.
	OutputExt = ".jpg"
)

// AllowedExtensions are the accepted source formats.
var AllowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif"}

var (
	ErrPathTraversal     = errors.New("path traversal is not allowed")
	ErrEncodedPath       = errors.New("encoded characters are not allowed")
	ErrMalformedEncoding = errors.New("malformed percent-encoding in path")
	ErrSourceNotFound    = errors.New("image file does not exist")
	ErrNotRegular        = errors.New("image path is not a regular file")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrFileTooLarge      = errors.New("image file is too large")
	ErrInvalidSlug       = errors.New("invalid cover slug")
)

// Transcoder resizes src to a width x height cover crop and writes it to
// dst in the pipeline's output format.
type Transcoder interface {
	Transcode(src, dst string, width, height, quality int) error
}

// Options configure a Pipeline. Zero values take the defaults above.
type Options struct {
	OutputDir  string
	URLPrefix  string
	Width      int
	Height     int
	Quality    int
	MaxBytes   int64
	Transcoder Transcoder
}

// Pipeline turns a local image path into a stored cover.
type Pipeline struct {
	outputDir  string
	urlPrefix  string
	width      int
	height     int
	quality    int
	maxBytes   int64
	transcoder Transcoder
}

// New creates a pipeline writing into opts.OutputDir.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		outputDir:  opts.OutputDir,
		urlPrefix:  opts.URLPrefix,
		width:      opts.Width,
		height:     opts.Height,
		quality:    opts.Quality,
		maxBytes:   opts.MaxBytes,
		transcoder: opts.Transcoder,
	}
	if p.urlPrefix == "" {
		p.urlPrefix = DefaultURL
	}
	if p.width <= 0 {
		p.width = DefaultWidth
	}
	if p.height <= 0 {
		p.height = DefaultHeight
	}
	if p.quality <= 0 {
		p.quality = DefaultQuality
	}
	if p.maxBytes <= 0 {
		p.maxBytes = DefaultMaxBytes
	}
	if p.transcoder == nil {
		p.transcoder = Imaging{}
	}
	return p
}

// Validate runs the checks a source path must pass before anything is
// transcoded. Traversal checks come first so a rejected path never reveals
// whether it exists.
func (p *Pipeline) Validate(source string) error {
	if strings.Contains(source, "..") || strings.Contains(source, "~") {
		return fmt.Errorf("coverimage: %w: %w", apperr.ErrSecurity, ErrPathTraversal)
	}

	decoded, err := url.PathUnescape(source)
	if err != nil {
		return fmt.Errorf("coverimage: %w: %w", apperr.ErrSecurity, ErrMalformedEncoding)
	}
	if decoded != source || strings.Contains(decoded, "..") {
		return fmt.Errorf("coverimage: %w: %w", apperr.ErrSecurity, ErrEncodedPath)
	}

	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("coverimage: %w: %w: %s", apperr.ErrNotFound, ErrSourceNotFound, source)
		}
		return fmt.Errorf("coverimage: stat %s: %w", source, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("coverimage: %w: %w: %s", apperr.ErrValidation, ErrNotRegular, source)
	}

	ext := strings.ToLower(filepath.Ext(source))
	if !slices.Contains(AllowedExtensions, ext) {
		return fmt.Errorf("coverimage: %w: %w %q (allowed: %s)",
			apperr.ErrValidation, ErrUnsupportedFormat, ext, strings.Join(AllowedExtensions, ", "))
	}

	if info.Size() > p.maxBytes {
		return fmt.Errorf("coverimage: %w: %w: %d bytes (max %d)", apperr.ErrValidation, ErrFileTooLarge, info.Size(), p.maxBytes)
	}
	return nil
}

// WebPath returns the site-relative path a cover for s is published at.
func (p *Pipeline) WebPath(s string) string {
	return path.Join(p.urlPrefix, s+OutputExt)
}

// OutputPath returns the file-system path a cover for s is written to.
func (p *Pipeline) OutputPath(s string) string {
	return filepath.Join(p.outputDir, s+OutputExt)
}

// Process validates source, stores the transcoded cover as
// <outputDir>/<s>.jpg and returns its site-relative path.
func (p *Pipeline) Process(source, s string) (string, error) {
	if !slug.IsSlug(s) {
		return "", fmt.Errorf("coverimage: %w: %w %q", apperr.ErrValidation, ErrInvalidSlug, s)
	}
	if err := p.Validate(source); err != nil {
		return "", err
	}
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("coverimage: create output dir: %w", err)
	}
	if err := p.transcoder.Transcode(source, p.OutputPath(s), p.width, p.height, p.quality); err != nil {
		return "", fmt.Errorf("coverimage: transcode %s: %w", source, err)
	}
	return p.WebPath(s), nil
}
