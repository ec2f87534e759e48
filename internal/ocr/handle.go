package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// engineFactory is one initialization attempt: a mode label plus a
// constructor for that mode.
type engineFactory struct {
	mode string
	make func() (Engine, error)
}

// Handle owns the process-wide engine instance. Initialization is lazy and
// idempotent: the first Recognize (or Ready) call walks the fallback chain
// exactly once, later calls reuse the cached outcome. After a failed chain
// every request fails fast with ErrUnavailable instead of retrying.
//
// The handle is an explicit value constructed at startup and passed into the
// pipeline; nothing in this package keeps global state.
type Handle struct {
	factories []engineFactory

	once    sync.Once
	engine  Engine
	initErr error
}

// NewHandle builds a handle for the configured backend.
func NewHandle(cfg Config) *Handle {
	return newHandleWithFactories(factoriesFor(cfg))
}

// NewStaticHandle wraps an already constructed engine. Used when the caller
// manages engine lifetime itself, and by tests injecting fakes.
func NewStaticHandle(engine Engine) *Handle {
	return newHandleWithFactories([]engineFactory{
		{mode: engine.Name(), make: func() (Engine, error) { return engine, nil }},
	})
}

func newHandleWithFactories(factories []engineFactory) *Handle {
	return &Handle{factories: factories}
}

// factoriesFor builds the fallback chain: hardware-accelerated mode first
// where the backend supports one, CPU-only mode second.
func factoriesFor(cfg Config) []engineFactory {
	switch cfg.Backend {
	case BackendONNX:
		chain := make([]engineFactory, 0, 2)
		if cfg.GPU.UseGPU {
			chain = append(chain, engineFactory{
				mode: "onnx-cuda",
				make: func() (Engine, error) { return newONNXEngine(cfg, true) },
			})
		}
		return append(chain, engineFactory{
			mode: "onnx-cpu",
			make: func() (Engine, error) { return newONNXEngine(cfg, false) },
		})
	default:
		return []engineFactory{{
			mode: BackendTesseract,
			make: func() (Engine, error) { return newTesseractEngine(cfg) },
		}}
	}
}

func (h *Handle) init() {
	var lastErr error
	for _, f := range h.factories {
		engine, err := f.make()
		if err != nil {
			slog.Warn("OCR engine mode failed to initialize", "mode", f.mode, "error", err)
			lastErr = err
			continue
		}
		slog.Info("OCR engine initialized", "mode", f.mode)
		h.engine = engine
		return
	}
	if lastErr != nil {
		h.initErr = fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
	} else {
		h.initErr = ErrUnavailable
	}
}

// Ready forces initialization and reports whether an engine is usable.
func (h *Handle) Ready() error {
	h.once.Do(h.init)
	return h.initErr
}

// Recognize runs one recognition pass through the initialized engine.
func (h *Handle) Recognize(ctx context.Context, imagePath string) ([]Line, error) {
	if err := h.Ready(); err != nil {
		return nil, err
	}
	return h.engine.Recognize(ctx, imagePath)
}

// Close releases the engine if one was initialized.
func (h *Handle) Close() error {
	h.once.Do(h.init)
	if h.engine == nil {
		return nil
	}
	err := h.engine.Close()
	h.engine = nil
	h.initErr = ErrUnavailable
	return err
}
