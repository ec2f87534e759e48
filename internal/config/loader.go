package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "rxscan"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "RXSCAN"
)

// Loader resolves configuration from files, environment, and flags.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader over the global viper instance so cobra flag
// bindings made at command setup are honored.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewIsolatedLoader creates a loader over a private viper instance. Used in
// tests to avoid cross-test state.
func NewIsolatedLoader() *Loader {
	return &Loader{v: viper.New()}
}

// Load resolves configuration from the search paths, environment variables,
// and defaults, then validates it. A missing config file is not an error.
func (l *Loader) Load() (*Config, error) {
	cfg, err := l.load("")
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithFile resolves configuration from a specific file and validates it.
// An empty path falls back to the standard search.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); err != nil {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}
	cfg, err := l.load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) load(configFile string) (*Config, error) {
	if configFile != "" {
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
	}

	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file found; defaults and env vars apply.
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// Set overrides a value in the configuration, taking precedence over files
// and environment variables.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// ConfigFileUsed returns the path of the config file actually read.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "rxscan"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "rxscan"))
	}

	l.v.AddConfigPath("/etc/rxscan")
}

// setupEnvironmentVariables enables RXSCAN_* environment overrides, with
// dots and dashes mapped to underscores (e.g. RXSCAN_OCR_BACKEND).
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults seeds viper with the default configuration so partial config
// files and env overrides merge onto a complete base.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)
	l.v.SetDefault("lexicon_path", defaults.LexiconPath)
	l.v.SetDefault("rules_path", defaults.RulesPath)

	l.v.SetDefault("ocr.backend", defaults.OCR.Backend)
	l.v.SetDefault("ocr.language", defaults.OCR.Language)
	l.v.SetDefault("ocr.model_path", defaults.OCR.ModelPath)
	l.v.SetDefault("ocr.dict_path", defaults.OCR.DictPath)
	l.v.SetDefault("ocr.image_height", defaults.OCR.ImageHeight)
	l.v.SetDefault("ocr.num_threads", defaults.OCR.NumThreads)

	l.v.SetDefault("preprocess.threshold_window", defaults.Preprocess.ThresholdWindow)
	l.v.SetDefault("preprocess.threshold_bias", defaults.Preprocess.ThresholdBias)
	l.v.SetDefault("preprocess.dilate_radius", defaults.Preprocess.DilateRadius)
	l.v.SetDefault("preprocess.blur_sigma", defaults.Preprocess.BlurSigma)
	l.v.SetDefault("preprocess.temp_dir", defaults.Preprocess.TempDir)

	l.v.SetDefault("output.format", defaults.Output.Format)
	l.v.SetDefault("output.file", defaults.Output.File)

	l.v.SetDefault("gpu.enabled", defaults.GPU.Enabled)
	l.v.SetDefault("gpu.device", defaults.GPU.Device)
	l.v.SetDefault("gpu.memory_limit", defaults.GPU.MemoryLimit)
}

// WriteConfigToFile writes the resolved configuration to a file.
func (l *Loader) WriteConfigToFile(filename string) error {
	return l.v.WriteConfigAs(filename)
}

// GenerateDefaultConfigFile writes a config file populated with defaults.
func GenerateDefaultConfigFile(filename string) error {
	loader := NewIsolatedLoader()
	loader.setDefaults()
	if filename == "" {
		filename = "rxscan.yaml"
	}
	return loader.WriteConfigToFile(filename)
}
