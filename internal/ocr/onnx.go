package ocr

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	onnxrt "github.com/yalue/onnxruntime_go"
)

// ONNXEngine runs a CTC text recognition model (PaddleOCR-style rec models)
// through ONNX Runtime. Text rows are located with a horizontal ink
// projection over the binarized input, then each row is recognized
// independently.
type ONNXEngine struct {
	cfg         Config
	accelerated bool
	charset     []string

	mu        sync.RWMutex
	session   *onnxrt.DynamicAdvancedSession
	inputInfo onnxrt.InputOutputInfo
}

// newONNXEngine builds the engine with or without the CUDA provider. A CUDA
// setup failure is returned to the caller, which retries CPU-only.
func newONNXEngine(cfg Config, useGPU bool) (*ONNXEngine, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}
	charset, err := loadCharset(cfg.DictPath)
	if err != nil {
		return nil, err
	}

	setONNXLibraryPath()
	if !onnxrt.IsInitialized() {
		if err := onnxrt.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	inputs, outputs, err := onnxrt.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("inspect model: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("expected 1 input and 1 output, got %d/%d", len(inputs), len(outputs))
	}

	opts, err := onnxrt.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	defer func() { _ = opts.Destroy() }()

	if cfg.NumThreads > 0 {
		if err := opts.SetIntraOpNumThreads(cfg.NumThreads); err != nil {
			return nil, fmt.Errorf("set thread count: %w", err)
		}
	}
	if useGPU {
		if err := configureSessionForGPU(opts, cfg.GPU); err != nil {
			return nil, err
		}
	}

	session, err := onnxrt.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &ONNXEngine{
		cfg:         cfg,
		accelerated: useGPU,
		charset:     charset,
		session:     session,
		inputInfo:   inputs[0],
	}, nil
}

func (e *ONNXEngine) Name() string {
	if e.accelerated {
		return "onnx-cuda"
	}
	return "onnx-cpu"
}

// Recognize decodes the image, segments it into text rows and runs the
// recognition model over each row.
func (e *ONNXEngine) Recognize(ctx context.Context, imagePath string) ([]Line, error) {
	img, err := imaging.Open(imagePath)
	if err != nil {
		return nil, &RecognitionError{Engine: e.Name(), Path: imagePath, Err: err}
	}
	gray := imaging.Grayscale(img)
	rows := segmentRows(gray)

	lines := make([]Line, 0, len(rows))
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := e.recognizeRow(imaging.Crop(gray, row))
		if err != nil {
			return nil, &RecognitionError{Engine: e.Name(), Path: imagePath, Err: err}
		}
		if line.Text != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (e *ONNXEngine) recognizeRow(row image.Image) (Line, error) {
	targetH := e.cfg.ImageHeight
	if targetH <= 0 {
		targetH = 48
	}
	resized := imaging.Resize(row, 0, targetH, imaging.Lanczos)
	data, w, h := normalizeNCHW(resized)

	input, err := onnxrt.NewTensor(onnxrt.NewShape(1, 3, int64(h), int64(w)), data)
	if err != nil {
		return Line{}, fmt.Errorf("create input tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()

	e.mu.RLock()
	session := e.session
	e.mu.RUnlock()
	if session == nil {
		return Line{}, errors.New("session is closed")
	}

	outputs := []onnxrt.Value{nil}
	if err := session.Run([]onnxrt.Value{input}, outputs); err != nil {
		return Line{}, fmt.Errorf("inference: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				_ = o.Destroy()
			}
		}
	}()

	out, ok := outputs[0].(*onnxrt.Tensor[float32])
	if !ok {
		return Line{}, fmt.Errorf("expected float32 output tensor, got %T", outputs[0])
	}
	text, conf := e.decodeGreedy(out.GetData(), out.GetShape())
	return Line{Text: text, Confidence: conf}, nil
}

// Close destroys the session.
func (e *ONNXEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		if err := e.session.Destroy(); err != nil {
			return err
		}
		e.session = nil
	}
	return nil
}

// loadCharset reads a recognition dictionary: one token per line, index 0 is
// reserved for the CTC blank.
func loadCharset(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: configured dictionary path is expected
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer func() { _ = f.Close() }()

	var tokens []string
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		if line = strings.TrimRight(line, "\r\n"); line != "" {
			tokens = append(tokens, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("dictionary is empty: %s", path)
	}
	return tokens, nil
}
