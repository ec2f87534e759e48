package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmate-tech/rxscan/internal/ocr"
	"github.com/healthmate-tech/rxscan/internal/preprocess"
)

func TestBuilder_Defaults(t *testing.T) {
	b := NewBuilder()
	cfg := b.Config()

	assert.Equal(t, ocr.BackendTesseract, cfg.OCR.Backend)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, 31, cfg.Preprocess.ThresholdWindow)
	assert.Empty(t, cfg.LexiconPath)
	assert.Empty(t, cfg.RulesPath)
}

func TestBuilder_FluentSetters(t *testing.T) {
	cfg := NewBuilder().
		WithOCRBackend(ocr.BackendONNX).
		WithLanguage("deu").
		WithModelPaths("/models/rec.onnx", "/models/charset.txt").
		WithGPU(true).
		WithThreads(4).
		WithTempDir("/var/tmp").
		WithLexiconPath("lex.yaml").
		WithRulesPath("rules.yaml").
		Config()

	assert.Equal(t, ocr.BackendONNX, cfg.OCR.Backend)
	assert.Equal(t, "deu", cfg.OCR.Language)
	assert.Equal(t, "/models/rec.onnx", cfg.OCR.ModelPath)
	assert.Equal(t, "/models/charset.txt", cfg.OCR.DictPath)
	assert.True(t, cfg.OCR.GPU.UseGPU)
	assert.Equal(t, 4, cfg.OCR.NumThreads)
	assert.Equal(t, "/var/tmp", cfg.Preprocess.TempDir)
	assert.Equal(t, "lex.yaml", cfg.LexiconPath)
	assert.Equal(t, "rules.yaml", cfg.RulesPath)
}

func TestBuilder_EmptySettersKeepDefaults(t *testing.T) {
	cfg := NewBuilder().
		WithOCRBackend("").
		WithLanguage("").
		WithThreads(0).
		WithTempDir("").
		Config()

	assert.Equal(t, ocr.BackendTesseract, cfg.OCR.Backend)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Empty(t, cfg.Preprocess.TempDir)
}

func TestBuilder_ValidateRejectsBadThresholdWindow(t *testing.T) {
	b := NewBuilder().
		WithEngineHandle(ocr.NewStaticHandle(&fakeEngine{})).
		WithPreprocessConfig(preprocess.Config{ThresholdWindow: 1})

	err := b.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "threshold window")

	_, err = b.Build()
	assert.Error(t, err)
}

func TestBuilder_InjectedHandleSkipsBackendValidation(t *testing.T) {
	b := NewBuilder().
		WithOCRBackend("no-such-backend").
		WithEngineHandle(ocr.NewStaticHandle(&fakeEngine{}))

	require.NoError(t, b.Validate())

	a, err := b.Build()
	require.NoError(t, err)
	defer a.Close()
}

func TestBuild_LoadsCustomLexiconAndRules(t *testing.T) {
	dir := t.TempDir()

	lexPath := filepath.Join(dir, "lexicon.yaml")
	require.NoError(t, os.WriteFile(lexPath, []byte(`
medications:
  - name: zedrafine
    aliases: [zedra]
  - name: morquilol
`), 0o600))

	rulesPath := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte(`
pairs:
  - a: zedrafine
    b: morquilol
    message: "Test interaction."
`), 0o600))

	engine := &fakeEngine{lines: []ocr.Line{
		{Text: "zedra 20mg", Confidence: 0.9},
		{Text: "morquilol 5mg", Confidence: 0.9},
	}}
	a, err := NewBuilder().
		WithEngineHandle(ocr.NewStaticHandle(engine)).
		WithTempDir(dir).
		WithLexiconPath(lexPath).
		WithRulesPath(rulesPath).
		Build()
	require.NoError(t, err)
	defer a.Close()

	result := a.Analyze(context.Background(), writeTestImage(t))

	require.Equal(t, StatusOK, result.Status)
	assert.Equal(t, []string{"Morquilol", "Zedrafine"}, result.Medications)
	require.Len(t, result.Interactions, 1)
	assert.Equal(t, "morquilol + zedrafine: Test interaction.", result.Interactions[0])
}

func TestBuild_MissingLexiconFile(t *testing.T) {
	_, err := NewBuilder().
		WithEngineHandle(ocr.NewStaticHandle(&fakeEngine{})).
		WithLexiconPath(filepath.Join(t.TempDir(), "missing.yaml")).
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load lexicon")
}

func TestBuild_MissingRulesFile(t *testing.T) {
	_, err := NewBuilder().
		WithEngineHandle(ocr.NewStaticHandle(&fakeEngine{})).
		WithRulesPath(filepath.Join(t.TempDir(), "missing.yaml")).
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load interaction rules")
}
