package preview

import (
	"bytes"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/chai2010/webp"
)

// DefaultQuality is the lossy WebP quality used when none is configured.
const DefaultQuality = 85

// EncodeWebP writes img as lossy WebP.
func EncodeWebP(w io.Writer, img image.Image, quality float32) error {
	if quality <= 0 {
		quality = DefaultQuality
	}
	return webp.Encode(w, img, &webp.Options{Lossless: false, Quality: quality})
}

// WriteWebP encodes img into the file at path, creating parent directories.
// The file is only created once encoding succeeded.
func WriteWebP(path string, img image.Image, quality float32) error {
	var buf bytes.Buffer
	if err := EncodeWebP(&buf, img, quality); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
