package ocr

import (
	"image"
)

const (
	inkThreshold  = 128 // luminance below this counts as ink
	minRowHeight  = 6   // discard noise bands thinner than this
	rowPaddingPx  = 2
	minInkPerLine = 2
)

// segmentRows locates horizontal text bands by projecting ink counts onto
// the vertical axis: consecutive rows with enough dark pixels form one text
// line. This deliberately assumes roughly horizontal printed text, which
// holds for prescription forms.
func segmentRows(img *image.NRGBA) []image.Rectangle {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	minInk := max(minInkPerLine, w/100)
	inked := make([]bool, h)
	for y := 0; y < h; y++ {
		count := 0
		for x := 0; x < w; x++ {
			c := img.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
			// Grayscale input: any channel works as luminance.
			if c.R < inkThreshold {
				count++
				if count >= minInk {
					inked[y] = true
					break
				}
			}
		}
	}

	var rows []image.Rectangle
	start := -1
	for y := 0; y <= h; y++ {
		switch {
		case y < h && inked[y] && start < 0:
			start = y
		case (y == h || !inked[y]) && start >= 0:
			if y-start >= minRowHeight {
				y0 := max(0, start-rowPaddingPx)
				y1 := min(h, y+rowPaddingPx)
				rows = append(rows, image.Rect(
					bounds.Min.X, bounds.Min.Y+y0,
					bounds.Min.X+w, bounds.Min.Y+y1,
				))
			}
			start = -1
		}
	}
	return rows
}
