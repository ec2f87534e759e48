package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// analyzableExtensions are the input types the pipeline accepts directly or
// via PDF page extraction.
var analyzableExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".pdf":  true,
}

// Discover resolves the input arguments into a flat list of analyzable
// files. Directory arguments are scanned for supported extensions; explicit
// file arguments are taken as-is so an unsupported file fails loudly later
// instead of being silently dropped.
func Discover(args []string, recursive bool) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		found, err := discoverInDirectory(arg, recursive)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func discoverInDirectory(dir string, recursive bool) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if analyzableExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
