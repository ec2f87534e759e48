package ocr

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeGreedy_CollapsesRepeatsAndBlanks(t *testing.T) {
	e := &ONNXEngine{charset: []string{"a", "b", "c"}}

	// T=6, C=4 (blank + 3 chars). Timesteps: a a blank b b c.
	step := func(idx int) []float32 {
		v := make([]float32, 4)
		for i := range v {
			v[i] = 0.01
		}
		v[idx] = 0.97
		return v
	}
	var logits []float32
	for _, idx := range []int{1, 1, 0, 2, 2, 3} {
		logits = append(logits, step(idx)...)
	}

	text, conf := e.decodeGreedy(logits, []int64{1, 6, 4})
	assert.Equal(t, "abc", text)
	assert.InDelta(t, 0.97, conf, 0.01)
}

func TestDecodeGreedy_AllBlank(t *testing.T) {
	e := &ONNXEngine{charset: []string{"a"}}
	logits := []float32{0.9, 0.1, 0.9, 0.1} // T=2, C=2, blank wins both
	text, conf := e.decodeGreedy(logits, []int64{1, 2, 2})
	assert.Empty(t, text)
	assert.Zero(t, conf)
}

func TestDecodeGreedy_BadShape(t *testing.T) {
	e := &ONNXEngine{charset: []string{"a"}}
	text, conf := e.decodeGreedy(nil, []int64{1, 2})
	assert.Empty(t, text)
	assert.Zero(t, conf)
}

func TestNormalizeNCHW(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 0, B: 0, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 0, G: 255, B: 0, A: 255})

	data, w, h := normalizeNCHW(img)
	require.Equal(t, 2, w)
	require.Equal(t, 1, h)
	require.Len(t, data, 6)
	assert.InDelta(t, 1.0, data[0], 0.01) // R channel, pixel 0
	assert.InDelta(t, 0.0, data[1], 0.01) // R channel, pixel 1
	assert.InDelta(t, 1.0, data[3], 0.01) // G channel, pixel 1
}

func TestSegmentRows(t *testing.T) {
	// 40x60 white image with two dark 10px bands.
	img := image.NewNRGBA(image.Rect(0, 0, 40, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 40; x++ {
			v := uint8(255)
			if (y >= 10 && y < 20) || (y >= 35 && y < 45) {
				v = 0
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}

	rows := segmentRows(img)
	require.Len(t, rows, 2)
	assert.LessOrEqual(t, rows[0].Min.Y, 10)
	assert.GreaterOrEqual(t, rows[0].Max.Y, 20)
	assert.LessOrEqual(t, rows[1].Min.Y, 35)
}

func TestSegmentRows_Blank(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	assert.Empty(t, segmentRows(img))
}
