package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/healthmate-tech/rxscan/internal/metrics"
	"github.com/healthmate-tech/rxscan/internal/ocr"
)

// CombinedText is the merged output of all recognition passes for one
// request: a newline-joined text blob and the arithmetic mean of every
// contributing line confidence. Zero lines yields confidence 0.0.
type CombinedText struct {
	Text       string
	Confidence float64
}

// Empty reports whether no pass produced usable text.
func (c CombinedText) Empty() bool { return strings.TrimSpace(c.Text) == "" }

// combinePasses runs one recognition pass per candidate image. The enhanced
// variant comes first; the original augments it rather than replacing it —
// both contribute lines when both succeed. A failing pass is logged and
// skipped so the remaining passes can still contribute.
func (a *Analyzer) combinePasses(ctx context.Context, paths []string) CombinedText {
	var texts []string
	var confSum float64
	var lineCount int

	for _, path := range paths {
		lines, err := a.engine.Recognize(ctx, path)
		if err != nil {
			var recErr *ocr.RecognitionError
			if errors.As(err, &recErr) || !errors.Is(err, ocr.ErrUnavailable) {
				slog.Warn("OCR pass failed, skipping", "path", path, "error", err)
				metrics.ObservePassFailure()
				continue
			}
			// Engine went away mid-request; remaining passes cannot succeed.
			slog.Warn("OCR engine unavailable during pass", "path", path)
			break
		}
		slog.Debug("OCR pass completed", "path", path, "lines", len(lines))
		for _, line := range lines {
			if strings.TrimSpace(line.Text) == "" {
				continue
			}
			texts = append(texts, line.Text)
			confSum += line.Confidence
			lineCount++
		}
	}

	if lineCount == 0 {
		return CombinedText{}
	}
	return CombinedText{
		Text:       strings.Join(texts, "\n"),
		Confidence: confSum / float64(lineCount),
	}
}
