// Package organizer moves files into category subdirectories of the folder
// they were found in and records where each file came from.
package organizer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"filesorter/pkg/category"
	"filesorter/pkg/collector"
	"filesorter/pkg/progress"
	"filesorter/pkg/safepath"
	"filesorter/pkg/undolog"
)

// ErrInvalidTable is returned when no category table is supplied.
var ErrInvalidTable = errors.New("category table is required")

// MoveOperation represents a single organize operation.
type MoveOperation struct {
	OriginalPath string
	NewPath      string
	Category     string
}

// Result contains the results of an organize run. When the run stops on an
// error, Result still describes every move completed before it.
type Result struct {
	Operations       []MoveOperation
	TotalFiles       int
	MovedCount       int
	CreatedDirsCount int
	Log              *undolog.Log
}

// Organizer sorts the files of one directory into category folders.
type Organizer struct {
	dryRun    bool
	table     *category.Table
	validator *safepath.Validator
}

// New creates a new Organizer rooted at rootDir.
func New(rootDir string, table *category.Table, dryRun bool) (*Organizer, error) {
	v, err := safepath.New(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	return NewWithValidator(v, table, dryRun)
}

// NewWithValidator creates a new Organizer with an existing validator.
func NewWithValidator(validator *safepath.Validator, table *category.Table, dryRun bool) (*Organizer, error) {
	if validator == nil {
		return nil, errors.New("validator is required")
	}
	if table == nil {
		return nil, ErrInvalidTable
	}

	return &Organizer{
		dryRun:    dryRun,
		table:     table.Clone(),
		validator: validator,
	}, nil
}

// OrganizeFiles moves every file into the folder of its category.
func (o *Organizer) OrganizeFiles(files []collector.FileInfo) (Result, error) {
	return o.OrganizeFilesWithProgress(files, nil)
}

// OrganizeFilesWithProgress moves files in order and reports per-file
// progress. It stops at the first file-system error; files moved before the
// error stay moved.
func (o *Organizer) OrganizeFilesWithProgress(files []collector.FileInfo, onProgress progress.Func) (Result, error) {
	result := Result{
		TotalFiles: len(files),
		Operations: make([]MoveOperation, 0, len(files)),
		Log:        undolog.New(),
	}

	ensured := make(map[string]bool)

	for i := range files {
		op, err := o.processFile(&files[i], ensured, &result)
		if err != nil {
			return result, fmt.Errorf("organize %s: %w", files[i].Name, err)
		}

		result.Operations = append(result.Operations, op)
		result.MovedCount++
		result.Log.Record(files[i].Name, op.OriginalPath, op.NewPath)

		progress.Emit(onProgress, i+1, len(files))
	}

	return result, nil
}

func (o *Organizer) processFile(file *collector.FileInfo, ensured map[string]bool, result *Result) (MoveOperation, error) {
	op := MoveOperation{
		OriginalPath: file.Path,
		Category:     o.table.Classify(file.Name),
	}

	targetDir, err := o.validator.CategoryDir(op.Category)
	if err != nil {
		return op, err
	}

	op.NewPath = filepath.Join(targetDir, file.Name)

	if err := o.ensureDir(targetDir, ensured, result); err != nil {
		return op, err
	}

	if o.dryRun {
		return op, nil
	}

	if err := o.validator.SafeRename(file.Path, op.NewPath); err != nil {
		return op, fmt.Errorf("failed to move: %w", err)
	}

	return op, nil
}

// ensureDir creates targetDir once per run. Existing folders are reused.
func (o *Organizer) ensureDir(targetDir string, ensured map[string]bool, result *Result) error {
	if ensured[targetDir] {
		return nil
	}

	if _, err := os.Stat(targetDir); os.IsNotExist(err) {
		result.CreatedDirsCount++
	}

	if !o.dryRun {
		if err := o.validator.SafeMkdirAll(targetDir); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	ensured[targetDir] = true
	return nil
}

// DryRun returns whether the organizer is in dry-run mode.
func (o *Organizer) DryRun() bool {
	return o.dryRun
}

// Root returns the directory being organized.
func (o *Organizer) Root() string {
	return o.validator.Root()
}
