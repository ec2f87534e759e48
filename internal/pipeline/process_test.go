package pipeline

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmate-tech/rxscan/internal/ocr"
)

// fakeEngine returns canned lines, optionally overridable per call.
type fakeEngine struct {
	lines     []ocr.Line
	recognize func(path string) ([]ocr.Line, error)
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(_ context.Context, path string) ([]ocr.Line, error) {
	if f.recognize != nil {
		return f.recognize(path)
	}
	return f.lines, nil
}

func (f *fakeEngine) Close() error { return nil }

// writeTestImage writes a small decodable prescription-like PNG.
func writeTestImage(t *testing.T) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 80, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 80; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	for x := 10; x < 70; x++ {
		img.SetGray(x, 18, color.Gray{Y: 0})
		img.SetGray(x, 19, color.Gray{Y: 0})
	}

	path := filepath.Join(t.TempDir(), "prescription.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func newTestAnalyzer(t *testing.T, engine ocr.Engine) *Analyzer {
	t.Helper()
	a, err := NewBuilder().
		WithEngineHandle(ocr.NewStaticHandle(engine)).
		WithTempDir(t.TempDir()).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestAnalyze_ResolvesMedications(t *testing.T) {
	engine := &fakeEngine{lines: []ocr.Line{
		{Text: "AMOXICILIN 500MG", Confidence: 0.9},
		{Text: "LISINOPRIL 10MG", Confidence: 0.8},
	}}
	a := newTestAnalyzer(t, engine)

	result := a.Analyze(context.Background(), writeTestImage(t))

	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, []string{"Amoxicillin", "Lisinopril"}, result.Medications)
	assert.Empty(t, result.Interactions)
	assert.InDelta(t, 85.0, result.AccuracyScore, 1e-9)
	assert.Contains(t, strings.ToLower(result.RawTextSnippet), "lisinopril")
	assert.Equal(t, []string{"Amoxicillin", "Lisinopril"}, result.DisplayMedications())
}

func TestAnalyze_LowConfidenceBoostedByMatches(t *testing.T) {
	engine := &fakeEngine{lines: []ocr.Line{
		{Text: "ibuprofen", Confidence: 0.30},
	}}
	a := newTestAnalyzer(t, engine)

	result := a.Analyze(context.Background(), writeTestImage(t))

	require.Equal(t, StatusOK, result.Status)
	assert.Equal(t, []string{"Ibuprofen"}, result.Medications)
	assert.InDelta(t, 70.0, result.AccuracyScore, 1e-9)
}

func TestAnalyze_ReportsInteractionWarning(t *testing.T) {
	engine := &fakeEngine{lines: []ocr.Line{
		{Text: "IBUPROFEN 400MG", Confidence: 0.9},
		{Text: "LISINOPRIL 10MG", Confidence: 0.9},
	}}
	a := newTestAnalyzer(t, engine)

	result := a.Analyze(context.Background(), writeTestImage(t))

	require.Equal(t, StatusOK, result.Status)
	require.Len(t, result.Interactions, 1)
	assert.Contains(t, result.Interactions[0], "ibuprofen + lisinopril")
}

func TestAnalyze_NoTextExtracted(t *testing.T) {
	a := newTestAnalyzer(t, &fakeEngine{})

	result := a.Analyze(context.Background(), writeTestImage(t))

	assert.Equal(t, StatusNoText, result.Status)
	assert.Empty(t, result.Medications)
	assert.Empty(t, result.Interactions)
	assert.InDelta(t, 35.0, result.AccuracyScore, 1e-9)

	display := result.DisplayMedications()
	require.Len(t, display, 1)
	assert.True(t, strings.HasPrefix(display[0], DiagNoMatchPrefix))
}

func TestAnalyze_NoMedicationsMatched(t *testing.T) {
	engine := &fakeEngine{lines: []ocr.Line{
		{Text: "take two tablets after meals", Confidence: 0.95},
	}}
	a := newTestAnalyzer(t, engine)

	result := a.Analyze(context.Background(), writeTestImage(t))

	assert.Equal(t, StatusNoMedications, result.Status)
	assert.Empty(t, result.Medications)
	assert.InDelta(t, 35.0, result.AccuracyScore, 1e-9)
	assert.Contains(t, result.RawTextSnippet, "tablets")
}

func TestAnalyze_EngineUnavailable(t *testing.T) {
	handle := ocr.NewStaticHandle(&fakeEngine{})
	require.NoError(t, handle.Close())

	a, err := NewBuilder().WithEngineHandle(handle).Build()
	require.NoError(t, err)

	result := a.Analyze(context.Background(), writeTestImage(t))

	assert.Equal(t, StatusEngineUnavailable, result.Status)
	assert.Zero(t, result.AccuracyScore)
	assert.True(t, result.Status.Failed())

	display := result.DisplayMedications()
	require.Len(t, display, 1)
	assert.True(t, strings.HasPrefix(display[0], DiagErrorPrefix))
}

func TestAnalyze_UnreadableImage(t *testing.T) {
	a := newTestAnalyzer(t, &fakeEngine{lines: []ocr.Line{{Text: "ibuprofen", Confidence: 0.9}}})

	notAnImage := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(notAnImage, []byte("not pixels"), 0o600))

	result := a.Analyze(context.Background(), notAnImage)

	assert.Equal(t, StatusImageUnreadable, result.Status)
	assert.Zero(t, result.AccuracyScore)

	result = a.Analyze(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.Equal(t, StatusImageUnreadable, result.Status)
}

func TestAnalyze_RemovesEnhancedVariant(t *testing.T) {
	tempDir := t.TempDir()
	a, err := NewBuilder().
		WithEngineHandle(ocr.NewStaticHandle(&fakeEngine{lines: []ocr.Line{{Text: "aspirin", Confidence: 0.9}}})).
		WithTempDir(tempDir).
		Build()
	require.NoError(t, err)
	defer a.Close()

	result := a.Analyze(context.Background(), writeTestImage(t))
	require.Equal(t, StatusOK, result.Status)

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "enhanced variant should be removed after analysis")
}

func TestAnalyze_SinglePassFailureAbsorbed(t *testing.T) {
	var calls int
	engine := &fakeEngine{recognize: func(path string) ([]ocr.Line, error) {
		calls++
		if calls == 1 {
			return nil, &ocr.RecognitionError{Engine: "fake", Path: path, Err: os.ErrInvalid}
		}
		return []ocr.Line{{Text: "warfarin 5mg", Confidence: 0.9}}, nil
	}}
	a := newTestAnalyzer(t, engine)

	result := a.Analyze(context.Background(), writeTestImage(t))

	require.Equal(t, StatusOK, result.Status)
	assert.Equal(t, []string{"Warfarin"}, result.Medications)
	assert.GreaterOrEqual(t, calls, 2)
}
