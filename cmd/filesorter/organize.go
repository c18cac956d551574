package main

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"filesorter/pkg/category"
	"filesorter/pkg/organizer"
	"filesorter/pkg/usecase"
)

var categoryOverrides []string

func buildOrganizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "organize [folder]",
		Short: "Sort the files of a folder into category subfolders",
		Long: `Moves every regular file directly inside the folder into a subfolder
named after its category. The first category listing the file's extension
wins; files no category claims go to Others. Extensions are matched without
regard to case.

The undo log is replaced with a record of this run once every file has
been moved. Running without a folder does nothing.

Examples:
  filesorter organize --dry-run ./Downloads              # Preview changes
  filesorter organize ./Downloads                        # Apply changes
  filesorter organize --category "Code=.go,.py" ./src    # Add a category
  filesorter organize --categories-file cats.yaml .      # Categories from YAML

Before:
  Downloads/
    a.jpg
    b.pdf
    c.exe

After:
  Downloads/
    Images/a.jpg
    Documents/b.pdf
    Others/c.exe`,
		Args: cobra.MaximumNArgs(1),
		RunE: runOrganize,
	}

	addCategoryFlags(cmd)

	return cmd
}

func addCategoryFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&categoryOverrides, "category", nil, `Add or override a category, e.g. "Code=.go,.py" (repeatable)`)
	cmd.Flags().String("categories-file", "", "YAML file mapping category names to extensions")
}

func runOrganize(_ *cobra.Command, args []string) error {
	targetDir := ""
	if len(args) > 0 {
		targetDir = args[0]
	}

	table, err := settings().Table(categoryOverrides)
	if err != nil {
		return err
	}

	if targetDir != "" {
		printDryRunBanner()
	}

	progress := startProgress(os.Stderr)
	execution, err := newUseCaseService().RunOrganize(usecase.OrganizeRequest{
		TargetDir: targetDir,
		Table:     table,
		DryRun:    dryRun,
		OnProgress: func(stage string, processed, total int) {
			progress.Report(stage, processed, total)
		},
	})
	progress.Stop()

	if err != nil {
		if moved := execution.Result.MovedCount; moved > 0 && !dryRun {
			fmt.Fprintf(os.Stderr, "%d files were moved before the failure; the undo log was not updated.\n", moved)
		}
		return err
	}

	if execution.Cancelled {
		fmt.Println(execution.Status())
		return nil
	}

	printCommandHeader("ORGANIZE", "Root directory", execution.RootDir)
	fmt.Printf("Found %d files in %v\n", execution.FileCount, execution.CollectDuration.Round(time.Millisecond))
	fmt.Println()

	printDetailedOperations(execution.Result.Operations, printOrganizeOperation)

	fmt.Println(execution.Status())
	if !dryRun {
		fmt.Printf("Undo log: %s\n", execution.UndoLogPath)
	}
	fmt.Println()

	rows := make([][]string, 0, len(execution.Summary))
	for _, count := range execution.Summary {
		rows = append(rows, []string{count.Category, strconv.Itoa(count.Files)})
	}
	printSummary([]string{"Category", "Files"}, rows, []columnAlignment{alignLeft, alignRight})
	printDryRunHint()

	return nil
}

func printOrganizeOperation(op organizer.MoveOperation) {
	fmt.Printf("MOVE: %s\n", op.OriginalPath)
	fmt.Printf("  TO: %s\n", op.NewPath)
}

func buildCategoriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Show the effective category table",
		Long: `Prints the categories in the order they are matched, after merging the
defaults with the config file, the categories file, and --category flags.
Files whose extension no category lists go to Others.`,
		Args: cobra.NoArgs,
		RunE: runCategories,
	}

	addCategoryFlags(cmd)

	return cmd
}

func runCategories(_ *cobra.Command, _ []string) error {
	table, err := settings().Table(categoryOverrides)
	if err != nil {
		return err
	}

	fmt.Println(renderTable(
		[]string{"#", "Category", "Extensions"},
		categoryRows(table),
		[]columnAlignment{alignRight, alignLeft, alignLeft},
	))

	return nil
}

func categoryRows(table *category.Table) [][]string {
	categories := table.Categories()
	rows := make([][]string, 0, len(categories)+1)
	for i, c := range categories {
		rows = append(rows, []string{strconv.Itoa(i + 1), c.Name, strings.Join(c.Extensions, ", ")})
	}
	if !slices.Contains(table.Names(), category.Others) {
		rows = append(rows, []string{"", category.Others, "(everything else)"})
	}

	return rows
}
