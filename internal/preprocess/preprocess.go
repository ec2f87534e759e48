// Package preprocess prepares prescription photos for OCR. Phone camera
// shots of printed prescriptions suffer from uneven lighting and thin
// strokes; an enhanced binarized variant usually recognizes better than the
// raw image, but the raw image is kept as a second candidate.
package preprocess

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
)

// ImageError reports an input image that could not be read or decoded.
type ImageError struct {
	Path string
	Err  error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("unreadable image %s: %v", e.Path, e.Err)
}

func (e *ImageError) Unwrap() error { return e.Err }

// Config holds enhancement parameters.
type Config struct {
	ThresholdWindow int     // adaptive threshold window size in pixels (odd)
	ThresholdBias   int     // subtracted from the local mean before comparing
	DilateRadius    int     // morphological dilation radius to reconnect strokes
	BlurSigma       float64 // gaussian denoise strength before thresholding
	TempDir         string  // where enhanced variants are written ("" = os default)
}

// DefaultConfig returns enhancement defaults tuned for printed prescriptions.
func DefaultConfig() Config {
	return Config{
		ThresholdWindow: 31,
		ThresholdBias:   10,
		DilateRadius:    1,
		BlurSigma:       0.8,
	}
}

// Candidates holds the OCR input variants for one request: the enhanced
// variant first (when enhancement succeeded) and the original always. The
// enhanced variant lives in ephemeral storage and must be released with
// Cleanup once OCR has consumed it.
type Candidates struct {
	Original string
	Enhanced string

	cleanupOnce sync.Once
}

// Paths returns the candidate image paths in recognition order.
func (c *Candidates) Paths() []string {
	if c.Enhanced == "" {
		return []string{c.Original}
	}
	return []string{c.Enhanced, c.Original}
}

// Cleanup removes the ephemeral enhanced variant. It is safe to call more
// than once; only the first call removes the file.
func (c *Candidates) Cleanup() {
	c.cleanupOnce.Do(func() {
		if c.Enhanced == "" {
			return
		}
		if err := os.Remove(c.Enhanced); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove enhanced image", "path", c.Enhanced, "error", err)
		}
	})
}

// Enhance decodes the input image and produces the candidate variants. An
// undecodable input fails with *ImageError. A failure in the enhancement
// chain itself degrades gracefully: the original path is returned as the
// only candidate, since OCR can still run against the raw image.
func Enhance(path string, cfg Config) (*Candidates, error) {
	f, err := os.Open(path) //nolint:gosec // G304: user-provided image path is expected
	if err != nil {
		return nil, &ImageError{Path: path, Err: err}
	}
	img, _, err := image.Decode(f)
	closeErr := f.Close()
	if err != nil {
		return nil, &ImageError{Path: path, Err: err}
	}
	if closeErr != nil {
		slog.Warn("Failed to close input image", "path", path, "error", closeErr)
	}

	enhanced, err := writeEnhanced(img, cfg)
	if err != nil {
		slog.Warn("Image enhancement failed, falling back to original only",
			"path", path, "error", err)
		return &Candidates{Original: path}, nil
	}
	return &Candidates{Original: path, Enhanced: enhanced}, nil
}

// writeEnhanced runs the enhancement chain and saves the result as an
// ephemeral PNG, returning its path.
func writeEnhanced(img image.Image, cfg Config) (string, error) {
	gray := imaging.Grayscale(img)
	if cfg.BlurSigma > 0 {
		gray = imaging.Blur(gray, cfg.BlurSigma)
	}
	bin := adaptiveThreshold(toGray(gray), cfg.ThresholdWindow, cfg.ThresholdBias)
	if cfg.DilateRadius > 0 {
		bin = dilate(bin, cfg.DilateRadius)
	}

	tmp, err := os.CreateTemp(cfg.TempDir, "rxscan-enhanced-*.png")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := imaging.Save(bin, name); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("save enhanced image: %w", err)
	}
	return name, nil
}
