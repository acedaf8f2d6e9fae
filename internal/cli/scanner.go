package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ncosentino/needlr/internal/errors"
)

// DirectoryScanner resolves the configured directory entries into package
// directories containing Go files. Entries may use the Go "./..." form for
// recursive scanning.
type DirectoryScanner struct{}

// NewDirectoryScanner creates a new directory scanner
func NewDirectoryScanner() *DirectoryScanner {
	return &DirectoryScanner{}
}

// ScanDirectories expands the given entries into a sorted list of absolute
// directories that contain at least one non-test Go file. Hidden
// directories, vendor and testdata are skipped during recursive scans.
func (s *DirectoryScanner) ScanDirectories(entries []string) ([]string, error) {
	found := make(map[string]bool)

	for _, entry := range entries {
		recursive := false
		dir := entry
		if strings.HasSuffix(entry, "/...") {
			recursive = true
			dir = strings.TrimSuffix(entry, "/...")
			if dir == "" {
				dir = "."
			}
		}

		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, errors.NewConfigurationError(
				fmt.Sprintf("cannot resolve directory %q", entry), err)
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			return nil, errors.NewConfigurationError(
				fmt.Sprintf("%q is not a directory", entry), err)
		}

		if !recursive {
			if ok, err := hasGoFiles(abs); err != nil {
				return nil, err
			} else if ok {
				found[abs] = true
			}
			continue
		}

		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if skipDir(d.Name()) && path != abs {
				return filepath.SkipDir
			}
			ok, err := hasGoFiles(path)
			if err != nil {
				return err
			}
			if ok {
				found[path] = true
			}
			return nil
		})
		if err != nil {
			return nil, errors.NewConfigurationError(
				fmt.Sprintf("failed to scan %q", entry), err)
		}
	}

	dirs := make([]string, 0, len(found))
	for dir := range found {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs, nil
}

func skipDir(name string) bool {
	if name == "vendor" || name == "testdata" {
		return true
	}
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

func hasGoFiles(dir string) (bool, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return false, errors.NewConfigurationError(
			fmt.Sprintf("failed to read directory %q", dir), err)
	}
	for _, item := range items {
		name := item.Name()
		if item.IsDir() || !strings.HasSuffix(name, ".go") {
			continue
		}
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		return true, nil
	}
	return false, nil
}
