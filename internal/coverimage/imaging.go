package coverimage

import (
	"fmt"

	"github.com/disintegration/imaging"
	_ "github.com/gen2brain/avif"
	_ "golang.org/x/image/webp"
)

// Imaging is the default Transcoder: a centered cover-fit crop encoded as
// JPEG. Decoding covers every extension in AllowedExtensions.
type Imaging struct{}

// Transcode implements Transcoder.
func (Imaging) Transcode(src, dst string, width, height, quality int) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	cover := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)
	if err := imaging.Save(cover, dst, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
