package ocr

import (
	"context"
	"errors"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine recognizes text through the Tesseract C API via gosseract.
// Clients are created per call because a gosseract client is not safe for
// concurrent use; creation is cheap next to inference.
type TesseractEngine struct {
	language      string
	clientFactory func() *gosseract.Client
}

// newTesseractEngine probes the local Tesseract installation and returns the
// engine, or an error when the library or language data is missing.
func newTesseractEngine(cfg Config) (*TesseractEngine, error) {
	lang := cfg.Language
	if lang == "" {
		lang = "eng"
	}
	probe := gosseract.NewClient()
	defer func() { _ = probe.Close() }()
	if v := probe.Version(); v == "" {
		return nil, errors.New("tesseract library not available")
	}
	if err := probe.SetLanguage(lang); err != nil {
		return nil, err
	}
	return &TesseractEngine{
		language:      lang,
		clientFactory: gosseract.NewClient,
	}, nil
}

func (e *TesseractEngine) Name() string { return BackendTesseract }

// Recognize runs Tesseract over the whole image and returns per-text-line
// results with Tesseract's 0-100 confidences normalized to [0, 1].
func (e *TesseractEngine) Recognize(ctx context.Context, imagePath string) ([]Line, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := e.clientFactory()
	defer func() { _ = c.Close() }()

	if err := c.SetLanguage(e.language); err != nil {
		return nil, &RecognitionError{Engine: e.Name(), Path: imagePath, Err: err}
	}
	if err := c.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return nil, &RecognitionError{Engine: e.Name(), Path: imagePath, Err: err}
	}
	if err := c.SetImage(imagePath); err != nil {
		return nil, &RecognitionError{Engine: e.Name(), Path: imagePath, Err: err}
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, &RecognitionError{Engine: e.Name(), Path: imagePath, Err: err}
	}

	lines := make([]Line, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		conf := b.Confidence / 100.0
		if conf < 0 {
			conf = 0
		}
		if conf > 1 {
			conf = 1
		}
		lines = append(lines, Line{Text: text, Confidence: conf})
	}
	return lines, nil
}

// Close is a no-op: clients are per-call.
func (e *TesseractEngine) Close() error { return nil }
