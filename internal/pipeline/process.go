package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/healthmate-tech/rxscan/internal/metrics"
	"github.com/healthmate-tech/rxscan/internal/preprocess"
)

// Analyze runs the full pipeline against one prescription image and always
// returns a well-formed Result; faults are reported through Result.Status
// rather than an error so one bad request can never take down a caller
// processing a batch. Safe for concurrent use.
func (a *Analyzer) Analyze(ctx context.Context, imagePath string) (result Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic during analysis", "path", imagePath, "panic", r)
			result = Result{
				Status:        StatusInternal,
				AccuracyScore: 0.0,
				Message:       "unexpected analysis failure",
			}
		}
		metrics.ObserveAnalysis(result.Status.String(), time.Since(start).Seconds(),
			len(result.Medications), result.AccuracyScore)
	}()

	// A permanently failed engine is the most common total-failure mode;
	// detect it before spending time on image work.
	if err := a.engine.Ready(); err != nil {
		slog.Error("OCR engine unavailable", "error", err)
		return Result{
			Status:        StatusEngineUnavailable,
			AccuracyScore: 0.0,
			Message:       "OCR engine is not available",
		}
	}

	cand, err := preprocess.Enhance(imagePath, a.cfg.Preprocess)
	if err != nil {
		var imgErr *preprocess.ImageError
		if errors.As(err, &imgErr) {
			slog.Error("Input image unreadable", "path", imagePath, "error", err)
			return Result{
				Status:        StatusImageUnreadable,
				AccuracyScore: 0.0,
				Message:       "image could not be read",
			}
		}
		slog.Error("Preprocessing failed", "path", imagePath, "error", err)
		return Result{
			Status:        StatusInternal,
			AccuracyScore: 0.0,
			Message:       "preprocessing failed",
		}
	}
	defer cand.Cleanup()

	combined := a.combinePasses(ctx, cand.Paths())
	if combined.Empty() {
		if err := a.engine.Ready(); err != nil {
			// Every pass hit the dead engine; surface that, not "no text".
			return Result{
				Status:        StatusEngineUnavailable,
				AccuracyScore: 0.0,
				Message:       "OCR engine is not available",
			}
		}
		slog.Info("No text extracted", "path", imagePath)
		return Result{
			Status:        StatusNoText,
			AccuracyScore: noMatchScore,
		}
	}

	corrected := a.corrector.Correct(combined.Text)
	medications := a.resolver.Resolve(corrected)

	if len(medications) == 0 {
		slog.Info("No medications resolved", "path", imagePath)
		return Result{
			Status:         StatusNoMedications,
			RawTextSnippet: snippet(corrected),
			AccuracyScore:  scoreResult(combined.Confidence, 0),
		}
	}

	warnings := a.rules.Check(medications)
	score := scoreResult(combined.Confidence, len(medications))
	slog.Info("Analysis complete", "path", imagePath,
		"medications", len(medications), "interactions", len(warnings), "score", score)

	return Result{
		Status:         StatusOK,
		Medications:    medications,
		Interactions:   warnings,
		RawTextSnippet: snippet(corrected),
		AccuracyScore:  score,
	}
}
