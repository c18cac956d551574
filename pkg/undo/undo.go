// Package undo moves organized files back to where an undo log says they
// came from.
package undo

import (
	"fmt"
	"os"
	"path/filepath"

	"filesorter/pkg/mover"
	"filesorter/pkg/progress"
	"filesorter/pkg/undolog"
)

// Actions reported on RestoreOperation.
const (
	ActionRestore = "restore"
	ActionSkip    = "skip"
)

// RestoreOperation describes what happened to one log entry.
type RestoreOperation struct {
	Name        string
	CurrentPath string
	Original    string
	Action      string
	SkipReason  string
}

// Result contains the results of an undo run.
type Result struct {
	Operations    []RestoreOperation
	RestoredCount int
	SkippedCount  int
}

// Executor replays an undo log.
type Executor struct {
	dryRun bool
}

// New creates an Executor.
func New(dryRun bool) *Executor {
	return &Executor{dryRun: dryRun}
}

// CurrentPath returns where the file for entry is expected to be now. Entries
// that recorded their destination use it. Legacy entries fall back to the
// original directory joined with the file name.
func CurrentPath(entry undolog.Entry) string {
	if entry.Destination != "" {
		return entry.Destination
	}

	return filepath.Join(filepath.Dir(entry.Original), entry.Name)
}

// Run moves every logged file back to its original path. Entries whose file
// is no longer at its current location are skipped silently. A move failure
// stops the run and is returned with the partial result.
func (e *Executor) Run(log *undolog.Log, onProgress progress.Func) (Result, error) {
	entries := log.Entries()
	result := Result{Operations: make([]RestoreOperation, 0, len(entries))}

	for i, entry := range entries {
		op := e.restore(entry)
		if op.Action == ActionRestore && !e.dryRun {
			if err := mover.Move(op.CurrentPath, op.Original); err != nil {
				return result, fmt.Errorf("restore %s: %w", entry.Name, err)
			}
		}

		result.Operations = append(result.Operations, op)
		if op.Action == ActionSkip {
			result.SkippedCount++
		} else {
			result.RestoredCount++
		}

		progress.Emit(onProgress, i+1, len(entries))
	}

	return result, nil
}

func (e *Executor) restore(entry undolog.Entry) RestoreOperation {
	op := RestoreOperation{
		Name:        entry.Name,
		CurrentPath: CurrentPath(entry),
		Original:    entry.Original,
		Action:      ActionRestore,
	}

	if _, err := os.Lstat(op.CurrentPath); err != nil {
		op.Action = ActionSkip
		op.SkipReason = "file not found: " + op.CurrentPath
		return op
	}

	if filepath.Clean(op.CurrentPath) == filepath.Clean(op.Original) {
		op.Action = ActionSkip
		op.SkipReason = "already at original location"
	}

	return op
}

// DryRun returns whether the executor is in dry-run mode.
func (e *Executor) DryRun() bool {
	return e.dryRun
}
