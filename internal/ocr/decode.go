package ocr

import (
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"
)

// normalizeNCHW converts an image into a [1, 3, H, W] float32 tensor with
// pixel values scaled to [0, 1].
func normalizeNCHW(img image.Image) ([]float32, int, int) {
	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	data := make([]float32, 3*w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := nrgba.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			idx := y*w + x
			data[idx] = float32(r>>8) / 255.0
			data[w*h+idx] = float32(g>>8) / 255.0
			data[2*w*h+idx] = float32(b>>8) / 255.0
		}
	}
	return data, w, h
}

// decodeGreedy applies greedy CTC decoding to a [1, T, C] output: argmax per
// timestep, collapse repeats, drop blanks (class 0). Confidence is the mean
// probability of the kept characters.
func (e *ONNXEngine) decodeGreedy(logits []float32, shape []int64) (string, float64) {
	if len(shape) < 3 {
		return "", 0
	}
	tDim := int(shape[1])
	cDim := int(shape[2])
	if tDim <= 0 || cDim <= 0 || len(logits) < tDim*cDim {
		return "", 0
	}

	var sb strings.Builder
	var probSum float64
	var kept int
	prev := -1
	for t := 0; t < tDim; t++ {
		cls := logits[t*cDim : (t+1)*cDim]
		idx, _ := argmax(cls)
		if idx == 0 { // blank
			prev = idx
			continue
		}
		if idx == prev {
			continue
		}
		prev = idx
		// Dictionary index 0 maps to class 1.
		if idx-1 < len(e.charset) {
			sb.WriteString(e.charset[idx-1])
			probSum += softmaxProb(cls, idx)
			kept++
		}
	}
	if kept == 0 {
		return "", 0
	}
	return strings.TrimSpace(sb.String()), probSum / float64(kept)
}

func argmax(v []float32) (int, float32) {
	idx := 0
	best := v[0]
	for i := 1; i < len(v); i++ {
		if v[i] > best {
			best = v[i]
			idx = i
		}
	}
	return idx, best
}

// softmaxProb returns the softmax probability of v[idx]. Outputs that
// already look like probabilities are used as-is.
func softmaxProb(v []float32, idx int) float64 {
	var sum float64
	minV, maxV := v[0], v[0]
	for _, x := range v {
		sum += float64(x)
		if x < minV {
			minV = x
		}
		if x > maxV {
			maxV = x
		}
	}
	if sum > 0.99 && sum < 1.01 && minV >= 0 && maxV <= 1 {
		return float64(v[idx])
	}
	var denom float64
	for _, x := range v {
		denom += math.Exp(float64(x - maxV))
	}
	if denom == 0 {
		return 0
	}
	return math.Exp(float64(v[idx]-maxV)) / denom
}
