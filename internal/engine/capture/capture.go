// Package capture turns a rendered frame into a PNG file.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/stlthumb/internal/engine/scene"
	"github.com/Faultbox/stlthumb/internal/logger"
)

// ErrSizeMismatch is returned when a frame's pixel buffer does not match
// its dimensions.
var ErrSizeMismatch = errors.New("pixel data size mismatch")

// FlipRows reverses the row order of an RGBA8 buffer in place. Applying it
// twice restores the original buffer.
func FlipRows(pix []byte, width, height int) {
	rowSize := width * 4
	tmp := make([]byte, rowSize)
	for top, bottom := 0, height-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pix[top*rowSize : (top+1)*rowSize]
		b := pix[bottom*rowSize : (bottom+1)*rowSize]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}

// ToImage converts a bottom-up frame into a top-down image. The frame is
// not modified. Alpha is stored unpremultiplied so a transparent
// background keeps its color.
func ToImage(f *scene.Frame) (*image.NRGBA, error) {
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d frame", ErrSizeMismatch, f.Width, f.Height)
	}
	if len(f.Pix) != f.Width*f.Height*4 {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrSizeMismatch, f.Width*f.Height*4, len(f.Pix))
	}

	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	copy(img.Pix, f.Pix)
	FlipRows(img.Pix, f.Width, f.Height)
	return img, nil
}

// WritePNG encodes img to path. The image is written to a temporary file
// in the same directory and renamed into place, so a failed write never
// leaves a partial file at path.
func WritePNG(path string, img image.Image) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err = enc.Encode(tmp, img); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing file: %w", err)
	}
	// CreateTemp uses 0600; thumbnails are shared like any other image.
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming file: %w", err)
	}

	logger.Debug("png written",
		zap.String("path", path),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
	)
	return nil
}

// WriteFrame converts f and writes it to path as PNG.
func WriteFrame(path string, f *scene.Frame) error {
	img, err := ToImage(f)
	if err != nil {
		return err
	}
	return WritePNG(path, img)
}
