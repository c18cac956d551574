// Package safepath keeps category folders and moves inside the directory
// being organized. Category names come from user input, so a name such as
// "../elsewhere" must never create or move anything outside the root.
package safepath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"filesorter/pkg/mover"
)

var (
	// ErrPathEscape indicates an attempt to access a path outside the root.
	ErrPathEscape = errors.New("path escapes root directory")
	// ErrSymlinkEscape indicates an existing path component resolves outside the root.
	ErrSymlinkEscape = errors.New("symlink target escapes root directory")
	// ErrInvalidRoot indicates the root path is invalid.
	ErrInvalidRoot = errors.New("invalid root directory")
)

// Validator ensures all paths are contained within a root directory.
type Validator struct {
	root string // Absolute, cleaned, symlink-free path to root directory.
}

// New creates a new Validator for the given root directory.
// The root must be an existing directory.
func New(root string) (*Validator, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}

	resolvedRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}

	cleanRoot := filepath.Clean(resolvedRoot)

	info, err := os.Stat(cleanRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory", ErrInvalidRoot)
	}

	return &Validator{root: cleanRoot}, nil
}

// Root returns the absolute path to the root directory.
func (v *Validator) Root() string {
	return v.root
}

// ValidatePath checks if a path is lexically contained within root.
func (v *Validator) ValidatePath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve path", ErrPathEscape)
	}

	if !isSubPath(v.root, filepath.Clean(absPath)) {
		return ErrPathEscape
	}

	return nil
}

// CategoryDir returns the folder for a category name. The folder must be
// strictly below root.
func (v *Validator) CategoryDir(name string) (string, error) {
	dir := filepath.Join(v.root, name)
	if dir == v.root {
		return "", fmt.Errorf("%w: category %q resolves to the root itself", ErrPathEscape, name)
	}
	if err := v.ValidatePath(dir); err != nil {
		return "", fmt.Errorf("category %q: %w", name, err)
	}

	return dir, nil
}

// SafeMkdirAll creates dir and any missing parents after checking that dir
// and its existing components stay inside root. An existing directory is
// not an error.
func (v *Validator) SafeMkdirAll(dir string) error {
	if err := v.validatePathForMutation(dir); err != nil {
		return fmt.Errorf("%w: %s", err, dir)
	}

	return os.MkdirAll(dir, 0o755)
}

// SafeRename moves a file only if both source and destination are within root.
func (v *Validator) SafeRename(oldPath, newPath string) error {
	if err := v.validatePathForMutation(oldPath); err != nil {
		return fmt.Errorf("source %w: %s", err, oldPath)
	}
	if err := v.validatePathForMutation(newPath); err != nil {
		return fmt.Errorf("destination %w: %s", err, newPath)
	}

	return mover.Move(oldPath, newPath)
}

// isSubPath checks if child is a subpath of parent.
// Both paths must be absolute and clean.
func isSubPath(parent, child string) bool {
	if parent == child {
		return true
	}

	parentWithSep := parent
	if !strings.HasSuffix(parentWithSep, string(filepath.Separator)) {
		parentWithSep += string(filepath.Separator)
	}

	return strings.HasPrefix(child, parentWithSep)
}

func (v *Validator) validatePathForMutation(path string) error {
	if err := v.ValidatePath(path); err != nil {
		return err
	}

	resolvedPath, err := resolveExistingPath(path)
	if err != nil {
		return err
	}

	if err := v.ValidatePath(resolvedPath); err != nil {
		return fmt.Errorf("%w: %s -> %s", ErrSymlinkEscape, path, resolvedPath)
	}

	return nil
}

// resolveExistingPath resolves symlinks in the longest existing prefix of path.
func resolveExistingPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve path: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("cannot resolve symlinks: %w", err)
	}

	parent := filepath.Dir(absPath)
	if parent == absPath {
		return "", fmt.Errorf("cannot resolve symlinks: %w", err)
	}

	resolvedParent, err := resolveExistingPath(parent)
	if err != nil {
		return "", err
	}

	return filepath.Join(resolvedParent, filepath.Base(absPath)), nil
}
