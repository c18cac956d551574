package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"filesorter/pkg/undo"
	"filesorter/pkg/usecase"
)

func buildUndoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Move the files of the last organize run back",
		Long: `Reads the undo log written by the last organize run and moves each file
back to the path it had before. Files that are no longer where organize put
them are skipped. The undo log is deleted afterwards, so an organize run can
only be undone once.

Examples:
  filesorter undo --dry-run    # Preview what would be restored
  filesorter undo              # Restore files
  filesorter undo -v           # List every restored file`,
		Args: cobra.NoArgs,
		RunE: runUndo,
	}
}

func runUndo(_ *cobra.Command, _ []string) error {
	printDryRunBanner()

	progress := startProgress(os.Stderr)
	execution, err := newUseCaseService().RunUndo(usecase.UndoRequest{
		DryRun: dryRun,
		OnProgress: func(stage string, processed, total int) {
			progress.Report(stage, processed, total)
		},
	})
	progress.Stop()

	if err != nil {
		return err
	}

	printCommandHeader("UNDO", "Undo log", execution.UndoLogPath)
	fmt.Println()

	printDetailedOperations(execution.Result.Operations, printUndoOperation)

	fmt.Println(execution.Status())
	fmt.Println()

	printSummary(
		[]string{"Result", "Files"},
		[][]string{
			{"Restored", strconv.Itoa(execution.Result.RestoredCount)},
			{"Skipped", strconv.Itoa(execution.Result.SkippedCount)},
		},
		[]columnAlignment{alignLeft, alignRight},
	)
	printDryRunHint()

	return nil
}

func printUndoOperation(op undo.RestoreOperation) {
	switch op.Action {
	case undo.ActionSkip:
		fmt.Printf("SKIP: %s (%s)\n", op.Name, op.SkipReason)
	default:
		fmt.Printf("RESTORE: %s\n", op.Original)
		fmt.Printf("   FROM: %s\n", op.CurrentPath)
	}
}
