// Package pdfprep turns scanned prescription PDFs into per-page image files
// that the analysis pipeline can consume. Each embedded page image is
// extracted and rewritten as an ephemeral PNG.
package pdfprep

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Page is one extracted prescription page: its 1-based page number and the
// path of the rendered PNG.
type Page struct {
	Number int
	Path   string
}

// Pages holds the extracted page images for one PDF. Release with Cleanup
// once every page has been analyzed.
type Pages struct {
	pages []Page
	dir   string

	cleanupOnce sync.Once
}

// All returns the pages in ascending page order.
func (p *Pages) All() []Page { return p.pages }

// Cleanup removes the extracted page images. Safe to call more than once.
func (p *Pages) Cleanup() {
	p.cleanupOnce.Do(func() {
		if p.dir == "" {
			return
		}
		if err := os.RemoveAll(p.dir); err != nil {
			slog.Warn("Failed to remove extracted PDF pages", "dir", p.dir, "error", err)
		}
	})
}

// Extract pulls the page images out of a scanned PDF. pageRange selects
// pages like "1-3" or "1,4,7"; empty means all pages. Pages without an
// embedded image are skipped with a warning rather than failing the whole
// document.
func Extract(pdfPath, pageRange string) (*Pages, error) {
	selected, err := parsePageRange(pageRange)
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", pageRange, err)
	}

	workDir, err := os.MkdirTemp("", "rxscan-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("create extraction dir: %w", err)
	}

	var pageStrings []string
	if len(selected) > 0 {
		pageStrings = make([]string, len(selected))
		for i, n := range selected {
			pageStrings[i] = strconv.Itoa(n)
		}
	}

	if err := api.ExtractImagesFile(pdfPath, workDir, pageStrings, nil); err != nil {
		_ = os.RemoveAll(workDir)
		return nil, fmt.Errorf("extract images from %s: %w", pdfPath, err)
	}

	pages, err := collectPages(workDir)
	if err != nil {
		_ = os.RemoveAll(workDir)
		return nil, err
	}
	if len(pages) == 0 {
		_ = os.RemoveAll(workDir)
		return nil, fmt.Errorf("no page images found in %s", pdfPath)
	}
	return &Pages{pages: pages, dir: workDir}, nil
}

// collectPages walks the extraction directory and renders one PNG per page.
// When a page carries several embedded images only the largest is kept; the
// scan of a prescription is the dominant image on its page.
func collectPages(dir string) ([]Page, error) {
	best := make(map[int]image.Image)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		pageNum, err := pageFromFilename(info.Name())
		if err != nil {
			return nil
		}
		img, err := loadImage(path)
		if err != nil {
			slog.Warn("Skipping unreadable extracted image", "path", path, "error", err)
			return nil
		}
		if prev, ok := best[pageNum]; !ok || area(img) > area(prev) {
			best[pageNum] = img
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect extracted images: %w", err)
	}

	numbers := make([]int, 0, len(best))
	for n := range best {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	pages := make([]Page, 0, len(numbers))
	for _, n := range numbers {
		out := filepath.Join(dir, fmt.Sprintf("rendered-page-%04d.png", n))
		if err := imaging.Save(best[n], out); err != nil {
			slog.Warn("Failed to render page image", "page", n, "error", err)
			continue
		}
		pages = append(pages, Page{Number: n, Path: out})
	}
	return pages, nil
}

func area(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy()
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // G304: paths come from our own extraction dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	return img, err
}

// pageFromFilename parses the page number out of pdfcpu's extraction
// filenames (page_<num>_image_<idx>.<ext>).
func pageFromFilename(name string) (int, error) {
	if !strings.HasPrefix(name, "page_") {
		return 0, errors.New("not a page image file")
	}
	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return 0, errors.New("unexpected extraction filename")
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil || n < 1 {
		return 0, errors.New("bad page number")
	}
	return n, nil
}

// parsePageRange parses "1-5", "2", or "1,3,5-7" into a sorted page list.
// Empty input selects all pages.
func parsePageRange(pageRange string) ([]int, error) {
	if pageRange == "" {
		return nil, nil
	}

	seen := make(map[int]struct{})
	for _, part := range strings.Split(pageRange, ",") {
		pages, err := parseRangeToken(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		for _, p := range pages {
			seen[p] = struct{}{}
		}
	}

	out := make([]int, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Ints(out)
	return out, nil
}

func parseRangeToken(part string) ([]int, error) {
	if start, end, ok := strings.Cut(part, "-"); ok {
		lo, err := strconv.Atoi(strings.TrimSpace(start))
		if err != nil {
			return nil, fmt.Errorf("invalid start page %q", start)
		}
		hi, err := strconv.Atoi(strings.TrimSpace(end))
		if err != nil {
			return nil, fmt.Errorf("invalid end page %q", end)
		}
		if lo < 1 || lo > hi {
			return nil, fmt.Errorf("invalid range %q", part)
		}
		pages := make([]int, 0, hi-lo+1)
		for i := lo; i <= hi; i++ {
			pages = append(pages, i)
		}
		return pages, nil
	}
	page, err := strconv.Atoi(part)
	if err != nil || page < 1 {
		return nil, fmt.Errorf("invalid page number %q", part)
	}
	return []int{page}, nil
}
