// Package batch analyzes many prescription inputs concurrently. Inputs may
// be image files, directories of images, or scanned PDFs; PDFs expand into
// one task per page.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/healthmate-tech/rxscan/internal/pdfprep"
	"github.com/healthmate-tech/rxscan/internal/pipeline"
)

// Config holds batch processing settings.
type Config struct {
	Workers         int    // 0 = GOMAXPROCS
	Recursive       bool   // descend into subdirectories
	ContinueOnError bool   // skip inputs that fail to prepare instead of aborting
	PDFPages        string // page selection applied to every PDF input
}

// DefaultConfig returns batch defaults.
func DefaultConfig() Config {
	return Config{Workers: runtime.GOMAXPROCS(0), ContinueOnError: true}
}

// Item is the analysis outcome for one input image or PDF page.
type Item struct {
	File   string          `json:"file"`
	Page   int             `json:"page,omitempty"` // 1-based for PDF pages, 0 for plain images
	Result pipeline.Result `json:"result"`
}

// task is one unit of work handed to the pool.
type task struct {
	index   int
	file    string
	page    int
	path    string
	cleanup func()
}

// Process analyzes every discovered input through the shared analyzer using
// a bounded worker pool. Results come back in input order. The analyzer is
// safe for concurrent use, so workers share it directly.
func Process(ctx context.Context, analyzer *pipeline.Analyzer, inputs []string, cfg Config) ([]Item, error) {
	files, err := Discover(inputs, cfg.Recursive)
	if err != nil {
		return nil, err
	}

	tasks, cleanups, err := expand(files, cfg)
	defer func() {
		for _, c := range cleanups {
			c()
		}
	}()
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no analyzable inputs found")
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	items := make([]Item, len(tasks))
	queue := make(chan task)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range queue {
				res := analyzer.Analyze(ctx, t.path)
				items[t.index] = Item{File: t.file, Page: t.page, Result: res}
			}
		}()
	}

	for _, t := range tasks {
		queue <- t
	}
	close(queue)
	wg.Wait()

	return items, nil
}

// expand turns the file list into per-image tasks, extracting PDF pages.
// The returned cleanups release extracted page images and must run after
// all tasks finish.
func expand(files []string, cfg Config) ([]task, []func(), error) {
	var tasks []task
	var cleanups []func()

	for _, file := range files {
		if !isPDF(file) {
			tasks = append(tasks, task{index: len(tasks), file: file, path: file})
			continue
		}

		pages, err := pdfprep.Extract(file, cfg.PDFPages)
		if err != nil {
			if cfg.ContinueOnError {
				slog.Warn("Skipping PDF that failed to prepare", "file", file, "error", err)
				continue
			}
			return tasks, cleanups, fmt.Errorf("failed to prepare %s: %w", file, err)
		}
		cleanups = append(cleanups, pages.Cleanup)
		for _, page := range pages.All() {
			tasks = append(tasks, task{index: len(tasks), file: file, page: page.Number, path: page.Path})
		}
	}
	return tasks, cleanups, nil
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// Summary aggregates a finished batch for reporting.
type Summary struct {
	Total        int     `json:"total"`
	Succeeded    int     `json:"succeeded"`
	Failed       int     `json:"failed"`
	MeanAccuracy float64 `json:"meanAccuracy"`
}

// Summarize computes batch-level counts over the item results.
func Summarize(items []Item) Summary {
	s := Summary{Total: len(items)}
	var sum float64
	for _, it := range items {
		if it.Result.Status.Failed() {
			s.Failed++
		} else {
			s.Succeeded++
		}
		sum += it.Result.AccuracyScore
	}
	if len(items) > 0 {
		s.MeanAccuracy = sum / float64(len(items))
	}
	return s
}
