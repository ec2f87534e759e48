// Package pipeline wires the prescription analysis stages together:
// preprocessing, multi-pass OCR, lexical correction, medication resolution,
// confidence scoring and interaction checking.
package pipeline

import (
	"fmt"

	"github.com/healthmate-tech/rxscan/internal/interaction"
	"github.com/healthmate-tech/rxscan/internal/lexical"
	"github.com/healthmate-tech/rxscan/internal/lexicon"
	"github.com/healthmate-tech/rxscan/internal/ocr"
	"github.com/healthmate-tech/rxscan/internal/preprocess"
)

// Config holds configuration for the analysis pipeline and its components.
type Config struct {
	LexiconPath string // optional YAML lexicon ("" = built-in table)
	RulesPath   string // optional YAML interaction rules ("" = built-in table)
	Preprocess  preprocess.Config
	OCR         ocr.Config
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		Preprocess: preprocess.DefaultConfig(),
		OCR:        ocr.DefaultConfig(),
	}
}

// Builder constructs an Analyzer with fluent configuration.
type Builder struct {
	cfg    Config
	engine *ocr.Handle // optional injected engine handle
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithLexiconPath sets a YAML lexicon file replacing the built-in table.
func (b *Builder) WithLexiconPath(path string) *Builder {
	b.cfg.LexiconPath = path
	return b
}

// WithRulesPath sets a YAML interaction rule file replacing the built-in table.
func (b *Builder) WithRulesPath(path string) *Builder {
	b.cfg.RulesPath = path
	return b
}

// WithOCRBackend selects the recognition backend ("tesseract" or "onnx").
func (b *Builder) WithOCRBackend(backend string) *Builder {
	if backend != "" {
		b.cfg.OCR.Backend = backend
	}
	return b
}

// WithLanguage sets the tesseract recognition language.
func (b *Builder) WithLanguage(lang string) *Builder {
	if lang != "" {
		b.cfg.OCR.Language = lang
	}
	return b
}

// WithModelPaths sets the onnx recognition model and dictionary paths.
func (b *Builder) WithModelPaths(modelPath, dictPath string) *Builder {
	if modelPath != "" {
		b.cfg.OCR.ModelPath = modelPath
	}
	if dictPath != "" {
		b.cfg.OCR.DictPath = dictPath
	}
	return b
}

// WithGPU enables CUDA acceleration for the onnx backend.
func (b *Builder) WithGPU(enabled bool) *Builder {
	b.cfg.OCR.GPU.UseGPU = enabled
	return b
}

// WithGPUDevice selects the CUDA device for the onnx backend.
func (b *Builder) WithGPUDevice(id int) *Builder {
	b.cfg.OCR.GPU.DeviceID = id
	return b
}

// WithGPUMemoryLimit caps CUDA memory usage in bytes (0 = unlimited).
func (b *Builder) WithGPUMemoryLimit(bytes uint64) *Builder {
	b.cfg.OCR.GPU.GPUMemLimit = bytes
	return b
}

// WithThreads sets intra-op thread count for the onnx backend (if >0).
func (b *Builder) WithThreads(n int) *Builder {
	if n > 0 {
		b.cfg.OCR.NumThreads = n
	}
	return b
}

// WithTempDir sets where ephemeral enhanced images are written.
func (b *Builder) WithTempDir(dir string) *Builder {
	if dir != "" {
		b.cfg.Preprocess.TempDir = dir
	}
	return b
}

// WithPreprocessConfig overrides the enhancement parameters wholesale.
func (b *Builder) WithPreprocessConfig(cfg preprocess.Config) *Builder {
	b.cfg.Preprocess = cfg
	return b
}

// WithEngineHandle injects an already constructed engine handle, bypassing
// backend selection. Used by callers that manage the engine themselves and
// by tests.
func (b *Builder) WithEngineHandle(h *ocr.Handle) *Builder {
	b.engine = h
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks that the configuration looks sane.
func (b *Builder) Validate() error {
	if b.engine == nil {
		if err := b.cfg.OCR.Validate(); err != nil {
			return err
		}
	}
	if b.cfg.Preprocess.ThresholdWindow < 3 {
		return fmt.Errorf("threshold window must be >= 3, got %d", b.cfg.Preprocess.ThresholdWindow)
	}
	return nil
}

// Analyzer executes the prescription analysis pipeline. The lexicon and
// interaction tables are loaded once at construction and shared read-only by
// all concurrent requests; per-request state never outlives Analyze.
type Analyzer struct {
	cfg       Config
	engine    *ocr.Handle
	corrector *lexical.Corrector
	resolver  *lexical.Resolver
	rules     *interaction.Table
}

// Build initializes the pipeline components. The OCR engine itself
// initializes lazily on first use inside the handle.
func (b *Builder) Build() (*Analyzer, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	lex := lexicon.Default()
	if b.cfg.LexiconPath != "" {
		var err error
		if lex, err = lexicon.LoadFile(b.cfg.LexiconPath); err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
	}

	rules := interaction.Default()
	if b.cfg.RulesPath != "" {
		var err error
		if rules, err = interaction.LoadFile(b.cfg.RulesPath); err != nil {
			return nil, fmt.Errorf("load interaction rules: %w", err)
		}
	}

	engine := b.engine
	if engine == nil {
		engine = ocr.NewHandle(b.cfg.OCR)
	}

	return &Analyzer{
		cfg:       b.cfg,
		engine:    engine,
		corrector: lexical.NewCorrector(lex),
		resolver:  lexical.NewResolver(lex),
		rules:     rules,
	}, nil
}

// Config returns the pipeline configuration.
func (a *Analyzer) Config() Config { return a.cfg }

// Close releases the OCR engine.
func (a *Analyzer) Close() error {
	if a.engine != nil {
		return a.engine.Close()
	}
	return nil
}
