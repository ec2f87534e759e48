package preprocess

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestImage writes a small synthetic "document": dark text-like blob on
// a light background with a brightness gradient.
func writeTestImage(t *testing.T) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			v := uint8(180 + x/4) // uneven background
			if y >= 20 && y < 26 && x >= 10 && x < 50 {
				v = 40 // "text" stripe
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	path := filepath.Join(t.TempDir(), "input.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestEnhance_ProducesEnhancedVariant(t *testing.T) {
	path := writeTestImage(t)
	cfg := DefaultConfig()
	cfg.TempDir = t.TempDir()

	cand, err := Enhance(path, cfg)
	require.NoError(t, err)
	defer cand.Cleanup()

	paths := cand.Paths()
	require.Len(t, paths, 2)
	assert.Equal(t, cand.Enhanced, paths[0], "enhanced variant recognized first")
	assert.Equal(t, path, paths[1])

	_, err = os.Stat(cand.Enhanced)
	require.NoError(t, err)
}

func TestEnhance_CleanupRemovesTempFile(t *testing.T) {
	path := writeTestImage(t)
	cfg := DefaultConfig()
	cfg.TempDir = t.TempDir()

	cand, err := Enhance(path, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, cand.Enhanced)

	cand.Cleanup()
	_, err = os.Stat(cand.Enhanced)
	assert.True(t, os.IsNotExist(err))

	// Idempotent.
	cand.Cleanup()

	// The original input is never touched.
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestEnhance_MissingFile(t *testing.T) {
	_, err := Enhance(filepath.Join(t.TempDir(), "nope.png"), DefaultConfig())
	require.Error(t, err)

	var imgErr *ImageError
	assert.ErrorAs(t, err, &imgErr)
}

func TestEnhance_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o600))

	_, err := Enhance(path, DefaultConfig())
	var imgErr *ImageError
	require.ErrorAs(t, err, &imgErr)
	assert.Equal(t, path, imgErr.Path)
}

func TestEnhance_DegradesWhenTempDirUnwritable(t *testing.T) {
	path := writeTestImage(t)
	cfg := DefaultConfig()
	cfg.TempDir = filepath.Join(t.TempDir(), "does-not-exist")

	cand, err := Enhance(path, cfg)
	require.NoError(t, err)
	assert.Empty(t, cand.Enhanced)
	assert.Equal(t, []string{path}, cand.Paths())
}

func TestAdaptiveThreshold_SeparatesInkFromGradient(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			v := uint8(150 + 2*x) // strong gradient
			if x >= 18 && x < 22 && y >= 18 && y < 22 {
				v = 30
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}

	bin := adaptiveThreshold(img, 15, 10)
	assert.Equal(t, uint8(0), bin.GrayAt(20, 20).Y, "dark blob becomes ink")
	assert.Equal(t, uint8(255), bin.GrayAt(5, 5).Y, "background stays white")
	assert.Equal(t, uint8(255), bin.GrayAt(38, 5).Y, "bright side of gradient stays white")
}

func TestDilate_ReconnectsStrokes(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 10; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	// Two ink pixels with a one-pixel gap.
	img.SetGray(3, 1, color.Gray{Y: 0})
	img.SetGray(5, 1, color.Gray{Y: 0})

	out := dilate(img, 1)
	assert.Equal(t, uint8(0), out.GrayAt(4, 1).Y, "gap is bridged")
	assert.Equal(t, uint8(255), out.GrayAt(8, 1).Y, "far background untouched")
}
