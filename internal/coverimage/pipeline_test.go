package coverimage

import (
	"errors"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gen2brain/avif"

	"github.com/starford/readlog/internal/apperr"
)

type spyTranscoder struct {
	calls int
}

func (s *spyTranscoder) Transcode(_, dst string, _, _, _ int) error {
	s.calls++
	return os.WriteFile(dst, []byte("cover"), 0o644)
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestProcess_Rejections(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "cover.txt")
	_ = os.WriteFile(txt, []byte("not an image"), 0o644)
	big := filepath.Join(dir, "big.jpg")
	f, _ := os.Create(big)
	_ = f.Truncate(11 << 20)
	_ = f.Close()

	cases := []struct {
		name   string
		source string
		kind   error
		err    error
	}{
		{"traversal", "../../etc/passwd", apperr.ErrSecurity, ErrPathTraversal},
		{"home", "~/cover.jpg", apperr.ErrSecurity, ErrPathTraversal},
		{"encoded traversal", "%2e%2e/%2e%2e/etc/passwd", apperr.ErrSecurity, ErrEncodedPath},
		{"encoded char", filepath.Join(dir, "a%20b.jpg"), apperr.ErrSecurity, ErrEncodedPath},
		{"malformed", filepath.Join(dir, "bad%zz.jpg"), apperr.ErrSecurity, ErrMalformedEncoding},
		{"missing", filepath.Join(dir, "missing.jpg"), apperr.ErrNotFound, ErrSourceNotFound},
		{"directory", dir, apperr.ErrValidation, ErrNotRegular},
		{"format", txt, apperr.ErrValidation, ErrUnsupportedFormat},
		{"size", big, apperr.ErrValidation, ErrFileTooLarge},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			spy := &spyTranscoder{}
			p := New(Options{OutputDir: filepath.Join(dir, "out"), Transcoder: spy})
			_, err := p.Process(c.source, "cover")
			if !errors.Is(err, c.err) {
				t.Errorf("err = %v, want %v", err, c.err)
			}
			if !errors.Is(err, c.kind) {
				t.Errorf("err = %v, want kind %v", err, c.kind)
			}
			if spy.calls != 0 {
				t.Errorf("transcoder called %d times", spy.calls)
			}
		})
	}
}

func TestProcess_DistinctTraversalKinds(t *testing.T) {
	p := New(Options{OutputDir: t.TempDir(), Transcoder: &spyTranscoder{}})
	_, plain := p.Process("../../etc/passwd", "x")
	_, encoded := p.Process("%2e%2e/etc/passwd", "x")
	if errors.Is(plain, ErrEncodedPath) || errors.Is(encoded, ErrPathTraversal) {
		t.Errorf("traversal kinds overlap: %v / %v", plain, encoded)
	}
}

func TestProcess_InvalidSlug(t *testing.T) {
	spy := &spyTranscoder{}
	p := New(Options{OutputDir: t.TempDir(), Transcoder: spy})
	for _, s := range []string{"", "../x", "Upper", "a/b"} {
		if _, err := p.Process("whatever.jpg", s); !errors.Is(err, ErrInvalidSlug) {
			t.Errorf("slug %q err = %v", s, err)
		}
	}
	if spy.calls != 0 {
		t.Error("transcoder should not be called")
	}
}

func TestProcess_SpyNaming(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Scan.PNG")
	writePNG(t, src, 10, 10)
	out := filepath.Join(dir, "public", "images", "readings")

	spy := &spyTranscoder{}
	p := New(Options{OutputDir: out, Transcoder: spy})
	web, err := p.Process(src, "1984-02")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if web != "/images/readings/1984-02.jpg" {
		t.Errorf("web path = %q", web)
	}
	if _, err := os.Stat(filepath.Join(out, "1984-02.jpg")); err != nil {
		t.Errorf("output missing: %v", err)
	}
	if spy.calls != 1 {
		t.Errorf("calls = %d", spy.calls)
	}
}

func TestProcess_ImagingCoverFit(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "wide.png")
	writePNG(t, src, 200, 100)

	p := New(Options{OutputDir: filepath.Join(dir, "out")})
	if _, err := p.Process(src, "wide"); err != nil {
		t.Fatalf("Process: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "out", "wide.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if format != "jpeg" || cfg.Width != DefaultWidth || cfg.Height != DefaultHeight {
		t.Errorf("got %s %dx%d", format, cfg.Width, cfg.Height)
	}
}

func TestProcess_ImagingDecodesAVIF(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "cover.avif")
	img := image.NewRGBA(image.Rect(0, 0, 40, 60))
	for x := 0; x < 40; x++ {
		for y := 0; y < 60; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(y * 4), B: 40, A: 255})
		}
	}
	f, err := os.Create(src)
	if err != nil {
		t.Fatal(err)
	}
	if err := avif.Encode(f, img); err != nil {
		f.Close()
		t.Fatalf("encode avif: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	p := New(Options{OutputDir: filepath.Join(dir, "out"), Width: 20, Height: 30})
	webPath, err := p.Process(src, "cover")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if webPath != DefaultURL+"/cover.jpg" {
		t.Errorf("webPath = %q", webPath)
	}

	out, err := os.Open(filepath.Join(dir, "out", "cover.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	cfg, format, err := image.DecodeConfig(out)
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if format != "jpeg" || cfg.Width != 20 || cfg.Height != 30 {
		t.Errorf("got %s %dx%d", format, cfg.Width, cfg.Height)
	}
}
