// Package ocr wraps text recognition engines behind a single adapter
// contract: an engine turns an image file into text lines with normalized
// confidences. Engine initialization is performed once per process through
// Handle, which tries a hardware-accelerated mode before falling back to
// CPU-only execution.
package ocr

import (
	"context"
	"errors"
	"fmt"
)

// Line is one recognized text line.
type Line struct {
	Text       string
	Confidence float64 // [0, 1]
}

// Engine performs recognition against a single image file. Implementations
// must be safe for concurrent Recognize calls.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) ([]Line, error)
	Close() error
}

// ErrUnavailable reports that no engine mode could be initialized. The
// condition is permanent for the process lifetime.
var ErrUnavailable = errors.New("ocr engine unavailable")

// RecognitionError wraps a failed recognition pass. A single failing pass is
// recoverable: the caller skips it and lets other passes contribute.
type RecognitionError struct {
	Engine string
	Path   string
	Err    error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("%s: recognize %s: %v", e.Engine, e.Path, e.Err)
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// Config selects and parameterizes the engine backend.
type Config struct {
	Backend     string // "tesseract" (default) or "onnx"
	Language    string // tesseract language code
	ModelPath   string // onnx recognition model
	DictPath    string // onnx charset dictionary
	ImageHeight int    // onnx model input height
	NumThreads  int    // intra-op threads (0 = engine default)
	GPU         GPUConfig
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Backend:     BackendTesseract,
		Language:    "eng",
		ImageHeight: 48,
		GPU:         DefaultGPUConfig(),
	}
}

// Supported backend names.
const (
	BackendTesseract = "tesseract"
	BackendONNX      = "onnx"
)

// Validate checks backend selection and backend-specific requirements.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendTesseract:
		return nil
	case BackendONNX:
		if c.ModelPath == "" {
			return errors.New("onnx backend requires a model path")
		}
		if c.DictPath == "" {
			return errors.New("onnx backend requires a dictionary path")
		}
		return nil
	default:
		return fmt.Errorf("unknown ocr backend %q", c.Backend)
	}
}
