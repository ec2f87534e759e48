package pipeline

import "math"

// Scoring constants. Dictionary validation is independent evidence of a
// correct read, so a weak OCR confidence is boosted when medications were
// resolved; a read with no resolved medications is forced to a low score.
const (
	confidenceFloor = 70.0
	matchBoost      = 40.0
	boostCap        = 90.0
	noMatchScore    = 35.0
	maxScore        = 99.9
)

// scoreResult blends the 0-1 OCR aggregate confidence with lexical match
// evidence into the final 0-99.9 accuracy score, rounded to one decimal.
func scoreResult(ocrConfidence float64, medicationCount int) float64 {
	score := ocrConfidence * 100

	if medicationCount == 0 {
		score = noMatchScore
	} else if score < confidenceFloor {
		score += matchBoost
		if score > boostCap {
			score = boostCap
		}
	}

	if score < 0 {
		score = 0
	}
	if score > maxScore {
		score = maxScore
	}
	return math.Round(score*10) / 10
}
