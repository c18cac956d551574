// Package collector lists the files directly inside a directory.
package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileInfo holds metadata about a file.
type FileInfo struct {
	Path    string    // Full path to the file
	Dir     string    // Directory containing the file
	Name    string    // Original filename
	Size    int64     // File size in bytes
	ModTime time.Time // Modification time
}

// Options configures the collector behavior.
type Options struct {
	// SkipFiles is a list of filenames to skip (e.g., .DS_Store)
	SkipFiles []string
	// SkipPaths is a list of paths to skip regardless of name, such as the
	// active undo log when it lives inside the scanned directory.
	SkipPaths []string
}

// Collector collects regular files from a single directory level.
type Collector struct {
	skipFiles map[string]bool
	skipPaths map[string]bool
}

// New creates a new Collector with the given options.
func New(opts Options) *Collector {
	c := &Collector{
		skipFiles: make(map[string]bool),
		skipPaths: make(map[string]bool),
	}

	for _, f := range opts.SkipFiles {
		c.skipFiles[f] = true
	}
	for _, p := range opts.SkipPaths {
		if abs, err := filepath.Abs(p); err == nil {
			c.skipPaths[abs] = true
		}
	}

	return c
}

// Collect returns the regular files directly inside dir, in name order.
// Directories, symlinks and special files are not returned.
func (c *Collector) Collect(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		// Type bits come from Lstat, so a symlink to a file is not regular.
		if !entry.Type().IsRegular() {
			continue
		}

		if c.skipFiles[entry.Name()] {
			continue
		}

		fullPath := filepath.Join(dir, entry.Name())
		if c.skipPaths[fullPath] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}

		files = append(files, FileInfo{
			Path:    fullPath,
			Dir:     dir,
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return files, nil
}
