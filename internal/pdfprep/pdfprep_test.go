package pdfprep

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

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int
		wantErr bool
	}{
		{"empty selects all", "", nil, false},
		{"single page", "3", []int{3}, false},
		{"comma list", "1,3,5", []int{1, 3, 5}, false},
		{"range", "2-5", []int{2, 3, 4, 5}, false},
		{"mixed and deduplicated", "1,2-4,3", []int{1, 2, 3, 4}, false},
		{"unordered input sorted", "5,1", []int{1, 5}, false},
		{"reversed range", "5-2", nil, true},
		{"zero page", "0", nil, true},
		{"garbage", "abc", nil, true},
		{"garbage range end", "1-x", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePageRange(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPageFromFilename(t *testing.T) {
	n, err := pageFromFilename("page_7_image_1.png")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = pageFromFilename("thumbnail.png")
	assert.Error(t, err)

	_, err = pageFromFilename("page_x_image_1.png")
	assert.Error(t, err)

	_, err = pageFromFilename("page_0_image_1.png")
	assert.Error(t, err)
}

func writeExtractedImage(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: 200})
		}
	}
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestCollectPages_KeepsLargestImagePerPage(t *testing.T) {
	dir := t.TempDir()
	writeExtractedImage(t, dir, "page_1_image_1.png", 10, 10) // small logo
	writeExtractedImage(t, dir, "page_1_image_2.png", 60, 80) // page scan
	writeExtractedImage(t, dir, "page_2_image_1.png", 60, 80)
	writeExtractedImage(t, dir, "unrelated.png", 5, 5)

	pages, err := collectPages(dir)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, 2, pages[1].Number)

	for _, p := range pages {
		img, err := loadImage(p.Path)
		require.NoError(t, err)
		assert.Equal(t, 60, img.Bounds().Dx())
		assert.Equal(t, 80, img.Bounds().Dy())
	}
}

func TestPages_CleanupIdempotent(t *testing.T) {
	dir, err := os.MkdirTemp("", "rxscan-pdf-test-*")
	require.NoError(t, err)
	writeExtractedImage(t, dir, "page_1_image_1.png", 10, 10)

	p := &Pages{dir: dir}
	p.Cleanup()
	p.Cleanup()

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}
