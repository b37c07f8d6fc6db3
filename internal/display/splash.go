package display

import (
	"fmt"
	"image"
	"io"
	"os"

	"golang.org/x/image/bmp"
)

// LoadSplash decodes an uncompressed BMP. Rows are stored bottom-up and
// padded to four bytes; the decoder undoes both.
func LoadSplash(r io.Reader) (image.Image, error) {
	img, err := bmp.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("display: decode splash: %w", err)
	}
	return img, nil
}

// LoadSplashFile reads a splash image from the card or filesystem.
func LoadSplashFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("display: open splash: %w", err)
	}
	defer f.Close()
	return LoadSplash(f)
}
