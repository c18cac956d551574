package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"filesorter/internal/config"
	"filesorter/internal/logging"
	"filesorter/pkg/undolog"
	"filesorter/pkg/usecase"
)

var (
	cfgFile   string
	dryRun    bool
	verbose   bool
	appConfig *config.Config
	appLogger = logging.Discard()
)

func main() {
	rootCmd := buildRootCommand()
	rootCmd.AddCommand(buildOrganizeCommand())
	rootCmd.AddCommand(buildUndoCommand())
	rootCmd.AddCommand(buildCategoriesCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", errorMessage(err))
		os.Exit(1)
	}
}

func buildRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filesorter",
		Short: "Sort the files of a folder into category subfolders, with undo",
		Long: `filesorter moves every file directly inside a folder into a subfolder
named after its category (Images, Videos, Documents, Music, Archives, or
Others), and records where each file came from so the run can be undone.

Commands:
  organize    Sorts the files of a folder into category subfolders
  undo        Moves the files of the last organize run back
  categories  Shows the effective category table

Examples:
  # Preview what organize would do
  filesorter organize --dry-run ~/Downloads

  # Sort the folder, adding a custom category
  filesorter organize --category "Code=.go,.py" ~/Downloads

  # Put everything back
  filesorter undo

Safety:
  Only files directly inside the target folder are moved, and only into
  category folders directly under it. Subfolders are never entered.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initConfig,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $HOME/.config/filesorter/config.yaml or ./config.yaml)")
	cmd.PersistentFlags().String("undo-log", undolog.DefaultPath, "Path of the undo log")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "console", "Log format (console, json)")
	cmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without making changes")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	return cmd
}

func initConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	slog.SetDefault(logger)
	appConfig = cfg
	appLogger = logger

	return nil
}

// settings returns the loaded configuration, or the built-in defaults when
// no command has loaded one.
func settings() *config.Config {
	if appConfig == nil {
		appConfig = &config.Config{
			UndoLog:            undolog.DefaultPath,
			RecordDestinations: true,
		}
	}

	return appConfig
}

func newUseCaseService() *usecase.Service {
	cfg := settings()

	return usecase.New(usecase.Options{
		UndoLogPath:        cfg.UndoLog,
		RecordDestinations: cfg.RecordDestinations,
		SkipFiles:          cfg.SkipFiles,
		Logger:             appLogger,
	})
}

func errorMessage(err error) string {
	if errors.Is(err, undolog.ErrNoUndoData) {
		return "No undo data available."
	}

	return err.Error()
}
