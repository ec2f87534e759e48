// Package config defines the application configuration and its loading from
// files, environment variables, and command-line flags.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/healthmate-tech/rxscan/internal/ocr"
	"github.com/healthmate-tech/rxscan/internal/pipeline"
	"github.com/healthmate-tech/rxscan/internal/preprocess"
)

// Config is the complete rxscan configuration. It covers every command and
// loads from config files, RXSCAN_* environment variables, and flags.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Vocabulary and rule files; empty selects the built-in tables.
	LexiconPath string `mapstructure:"lexicon_path" yaml:"lexicon_path" json:"lexicon_path"`
	RulesPath   string `mapstructure:"rules_path" yaml:"rules_path" json:"rules_path"`

	OCR        OCRConfig        `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
	Preprocess PreprocessConfig `mapstructure:"preprocess" yaml:"preprocess" json:"preprocess"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output" json:"output"`
	GPU        GPUConfig        `mapstructure:"gpu" yaml:"gpu" json:"gpu"`
}

// OCRConfig contains recognition engine settings.
type OCRConfig struct {
	Backend     string `mapstructure:"backend" yaml:"backend" json:"backend"`
	Language    string `mapstructure:"language" yaml:"language" json:"language"`
	ModelPath   string `mapstructure:"model_path" yaml:"model_path" json:"model_path"`
	DictPath    string `mapstructure:"dict_path" yaml:"dict_path" json:"dict_path"`
	ImageHeight int    `mapstructure:"image_height" yaml:"image_height" json:"image_height"`
	NumThreads  int    `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
}

// PreprocessConfig contains image enhancement settings.
type PreprocessConfig struct {
	ThresholdWindow int     `mapstructure:"threshold_window" yaml:"threshold_window" json:"threshold_window"`
	ThresholdBias   int     `mapstructure:"threshold_bias" yaml:"threshold_bias" json:"threshold_bias"`
	DilateRadius    int     `mapstructure:"dilate_radius" yaml:"dilate_radius" json:"dilate_radius"`
	BlurSigma       float64 `mapstructure:"blur_sigma" yaml:"blur_sigma" json:"blur_sigma"`
	TempDir         string  `mapstructure:"temp_dir" yaml:"temp_dir" json:"temp_dir"`
}

// OutputConfig contains result formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "text" or "json"
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// GPUConfig contains acceleration settings for the onnx backend.
type GPUConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Device      int    `mapstructure:"device" yaml:"device" json:"device"`
	MemoryLimit string `mapstructure:"memory_limit" yaml:"memory_limit" json:"memory_limit"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	ocrDefaults := ocr.DefaultConfig()
	preDefaults := preprocess.DefaultConfig()
	return Config{
		LogLevel: "info",
		OCR: OCRConfig{
			Backend:     ocrDefaults.Backend,
			Language:    ocrDefaults.Language,
			ImageHeight: ocrDefaults.ImageHeight,
		},
		Preprocess: PreprocessConfig{
			ThresholdWindow: preDefaults.ThresholdWindow,
			ThresholdBias:   preDefaults.ThresholdBias,
			DilateRadius:    preDefaults.DilateRadius,
			BlurSigma:       preDefaults.BlurSigma,
		},
		Output: OutputConfig{Format: "text"},
		GPU:    GPUConfig{MemoryLimit: "2GB"},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q (want debug, info, warn, or error)", c.LogLevel)
	}

	switch c.OCR.Backend {
	case ocr.BackendTesseract, ocr.BackendONNX:
	default:
		return fmt.Errorf("invalid ocr backend %q (want %s or %s)",
			c.OCR.Backend, ocr.BackendTesseract, ocr.BackendONNX)
	}
	if c.OCR.Backend == ocr.BackendONNX && c.OCR.ModelPath == "" {
		return fmt.Errorf("ocr backend %s requires a model path", ocr.BackendONNX)
	}
	if c.OCR.NumThreads < 0 {
		return fmt.Errorf("ocr num_threads must be >= 0, got %d", c.OCR.NumThreads)
	}

	if c.Preprocess.ThresholdWindow < 3 || c.Preprocess.ThresholdWindow%2 == 0 {
		return fmt.Errorf("preprocess threshold_window must be odd and >= 3, got %d",
			c.Preprocess.ThresholdWindow)
	}
	if c.Preprocess.DilateRadius < 0 {
		return fmt.Errorf("preprocess dilate_radius must be >= 0, got %d", c.Preprocess.DilateRadius)
	}
	if c.Preprocess.BlurSigma < 0 {
		return fmt.Errorf("preprocess blur_sigma must be >= 0, got %f", c.Preprocess.BlurSigma)
	}

	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid output format %q (want text or json)", c.Output.Format)
	}

	if c.GPU.Device < 0 {
		return fmt.Errorf("gpu device must be >= 0, got %d", c.GPU.Device)
	}
	if _, err := ParseMemorySize(c.GPU.MemoryLimit); err != nil {
		return fmt.Errorf("invalid gpu memory_limit: %w", err)
	}
	return nil
}

// ParseMemorySize parses sizes like "2GB", "512MB", "1024" into bytes.
// Empty input means no limit.
func ParseMemorySize(s string) (uint64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, nil
	}

	var multiplier uint64 = 1
	switch {
	case strings.HasSuffix(s, "KB"):
		multiplier = 1 << 10
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "MB"):
		multiplier = 1 << 20
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "GB"):
		multiplier = 1 << 30
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "K"):
		multiplier = 1 << 10
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M"):
		multiplier = 1 << 20
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "G"):
		multiplier = 1 << 30
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid memory size %q", s)
	}
	return value * multiplier, nil
}

// ToPipelineConfig converts the application config into the pipeline's
// component configuration.
func (c *Config) ToPipelineConfig() pipeline.Config {
	memLimit, _ := ParseMemorySize(c.GPU.MemoryLimit)
	return pipeline.Config{
		LexiconPath: c.LexiconPath,
		RulesPath:   c.RulesPath,
		Preprocess: preprocess.Config{
			ThresholdWindow: c.Preprocess.ThresholdWindow,
			ThresholdBias:   c.Preprocess.ThresholdBias,
			DilateRadius:    c.Preprocess.DilateRadius,
			BlurSigma:       c.Preprocess.BlurSigma,
			TempDir:         c.Preprocess.TempDir,
		},
		OCR: ocr.Config{
			Backend:     c.OCR.Backend,
			Language:    c.OCR.Language,
			ModelPath:   c.OCR.ModelPath,
			DictPath:    c.OCR.DictPath,
			ImageHeight: c.OCR.ImageHeight,
			NumThreads:  c.OCR.NumThreads,
			GPU: ocr.GPUConfig{
				UseGPU:      c.GPU.Enabled,
				DeviceID:    c.GPU.Device,
				GPUMemLimit: memLimit,
			},
		},
	}
}
