// Package usecase provides application-level orchestration for the organize
// and undo workflows. Front ends call RunOrganize and RunUndo and render the
// returned executions; nothing here depends on cobra or a terminal.
package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"filesorter/pkg/category"
	"filesorter/pkg/collector"
	"filesorter/pkg/filelock"
	"filesorter/pkg/organizer"
	"filesorter/pkg/progress"
	"filesorter/pkg/safepath"
	"filesorter/pkg/undo"
	"filesorter/pkg/undolog"
)

// Options configures a Service.
type Options struct {
	// UndoLogPath is where the undo log is kept. Relative paths resolve
	// against the working directory. Defaults to undolog.DefaultPath.
	UndoLogPath string
	// RecordDestinations stores the post-move path of every file in the log.
	RecordDestinations bool
	SkipFiles          []string
	Logger             *slog.Logger
}

// ProgressCallback receives workflow stage progress updates.
type ProgressCallback = progress.StageFunc

// Service orchestrates organize and undo runs.
type Service struct {
	undoLogPath        string
	recordDestinations bool
	skipFiles          []string
	logger             *slog.Logger
}

// New creates a use-case service.
func New(opts Options) *Service {
	logPath := opts.UndoLogPath
	if logPath == "" {
		logPath = undolog.DefaultPath
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Service{
		undoLogPath:        logPath,
		recordDestinations: opts.RecordDestinations,
		skipFiles:          append([]string(nil), opts.SkipFiles...),
		logger:             logger,
	}
}

// OrganizeRequest contains inputs for the organize workflow. An empty
// TargetDir means the folder selection was cancelled.
type OrganizeRequest struct {
	TargetDir  string
	Table      *category.Table
	DryRun     bool
	OnProgress ProgressCallback
}

// CategoryCount is one line of the post-organize summary.
type CategoryCount struct {
	Category string
	Files    int
}

// OrganizeExecution contains organize workflow outputs.
type OrganizeExecution struct {
	RootDir         string
	UndoLogPath     string
	Cancelled       bool
	DryRun          bool
	FileCount       int
	CollectDuration time.Duration
	Result          organizer.Result
	Summary         []CategoryCount
}

// Status returns the one-line status text for the run.
func (e OrganizeExecution) Status() string {
	if e.Cancelled {
		return "No folder selected."
	}
	if e.DryRun {
		return fmt.Sprintf("Would organize %d files.", e.Result.MovedCount)
	}

	return fmt.Sprintf("Organized %d files!", e.Result.MovedCount)
}

// UndoRequest contains inputs for the undo workflow.
type UndoRequest struct {
	DryRun     bool
	OnProgress ProgressCallback
}

// UndoExecution contains undo workflow outputs.
type UndoExecution struct {
	UndoLogPath string
	DryRun      bool
	Result      undo.Result
}

// Status returns the one-line status text for the run.
func (e UndoExecution) Status() string {
	if e.DryRun {
		return fmt.Sprintf("Would restore %d files.", e.Result.RestoredCount)
	}

	return "Undo completed! Files restored."
}

// UndoLogPath returns the absolute undo log location.
func (s *Service) UndoLogPath() (string, error) {
	abs, err := filepath.Abs(s.undoLogPath)
	if err != nil {
		return "", fmt.Errorf("resolve undo log path: %w", err)
	}

	return abs, nil
}

// RunOrganize sorts the files of req.TargetDir into category folders and,
// unless dry-running, replaces the undo log with a log of this run. If a move
// fails the run stops, the log on disk is left as it was and the partial
// execution is returned with the error.
func (s *Service) RunOrganize(req OrganizeRequest) (OrganizeExecution, error) {
	if strings.TrimSpace(req.TargetDir) == "" {
		return OrganizeExecution{Cancelled: true, DryRun: req.DryRun}, nil
	}
	if req.Table == nil {
		return OrganizeExecution{}, organizer.ErrInvalidTable
	}

	target, err := resolveWorkflowTarget(req.TargetDir)
	if err != nil {
		return OrganizeExecution{}, err
	}

	logPath, err := s.UndoLogPath()
	if err != nil {
		return OrganizeExecution{}, err
	}

	exec := OrganizeExecution{
		RootDir:     target.rootDir,
		UndoLogPath: logPath,
		DryRun:      req.DryRun,
	}

	if !req.DryRun {
		lock, lockErr := acquireWorkflowLock(logPath)
		if lockErr != nil {
			return exec, lockErr
		}
		defer lock.Close()
	}

	s.logger.Info("organize started", "root", target.rootDir, "dry_run", req.DryRun, "categories", req.Table.Len())

	files, collectDuration, err := s.collectFiles(target.rootDir, logPath)
	if err != nil {
		return exec, fmt.Errorf("failed to collect files: %w", err)
	}
	exec.FileCount = len(files)
	exec.CollectDuration = collectDuration

	o, err := organizer.NewWithValidator(target.validator, req.Table, req.DryRun)
	if err != nil {
		return exec, err
	}

	result, err := o.OrganizeFilesWithProgress(files, progress.ForStage(req.OnProgress, "organizing"))
	exec.Result = result
	s.logMoves(result.Operations)
	if err != nil {
		s.logger.Error("organize stopped", "root", target.rootDir, "moved", result.MovedCount, "error", err)
		return exec, err
	}

	if !req.DryRun {
		if err := undolog.Save(logPath, result.Log, undolog.SaveOptions{RecordDestinations: s.recordDestinations}); err != nil {
			return exec, fmt.Errorf("failed to write undo log: %w", err)
		}
		exec.Summary = Summarize(target.rootDir, req.Table)
	} else {
		exec.Summary = plannedSummary(result.Operations, req.Table)
	}

	s.logger.Info("organize finished",
		"root", target.rootDir,
		"moved", result.MovedCount,
		"dirs_created", result.CreatedDirsCount,
		"undo_log", logPath,
	)

	return exec, nil
}

// RunUndo moves every file in the undo log back to its original path and
// then deletes the log. It returns undolog.ErrNoUndoData when there is
// nothing to undo. A malformed log aborts the run before any file is moved.
func (s *Service) RunUndo(req UndoRequest) (UndoExecution, error) {
	logPath, err := s.UndoLogPath()
	if err != nil {
		return UndoExecution{}, err
	}

	exec := UndoExecution{UndoLogPath: logPath, DryRun: req.DryRun}

	if !undolog.Exists(logPath) {
		return exec, undolog.ErrNoUndoData
	}

	if !req.DryRun {
		lock, lockErr := acquireWorkflowLock(logPath)
		if lockErr != nil {
			return exec, lockErr
		}
		defer lock.Close()
	}

	log, err := undolog.Load(logPath)
	if err != nil {
		if errors.Is(err, undolog.ErrNoUndoData) {
			return exec, err
		}
		return exec, fmt.Errorf("read undo log: %w", err)
	}

	s.logger.Info("undo started", "undo_log", logPath, "entries", log.Len(), "dry_run", req.DryRun)

	result, err := undo.New(req.DryRun).Run(log, progress.ForStage(req.OnProgress, "undoing"))
	exec.Result = result
	s.logRestores(result.Operations)
	if err != nil {
		s.logger.Error("undo stopped", "restored", result.RestoredCount, "error", err)
		return exec, err
	}

	if !req.DryRun {
		if err := undolog.Remove(logPath); err != nil {
			return exec, err
		}
	}

	s.logger.Info("undo finished", "restored", result.RestoredCount, "skipped", result.SkippedCount)

	return exec, nil
}

// Summarize counts the entries of each existing category folder under root,
// in table order, followed by Others.
func Summarize(root string, table *category.Table) []CategoryCount {
	var counts []CategoryCount

	for _, name := range summaryNames(table) {
		entries, err := os.ReadDir(filepath.Join(root, name))
		if err != nil {
			continue
		}
		counts = append(counts, CategoryCount{Category: name, Files: len(entries)})
	}

	return counts
}

func plannedSummary(ops []organizer.MoveOperation, table *category.Table) []CategoryCount {
	planned := make(map[string]int)
	for _, op := range ops {
		planned[op.Category]++
	}

	var counts []CategoryCount
	for _, name := range summaryNames(table) {
		if n := planned[name]; n > 0 {
			counts = append(counts, CategoryCount{Category: name, Files: n})
		}
	}

	return counts
}

func summaryNames(table *category.Table) []string {
	names := table.Names()
	for _, name := range names {
		if name == category.Others {
			return names
		}
	}

	return append(names, category.Others)
}

func (s *Service) collectFiles(rootDir, logPath string) ([]collector.FileInfo, time.Duration, error) {
	startTime := time.Now()

	c := collector.New(collector.Options{
		SkipFiles: s.skipFiles,
		SkipPaths: stateFiles(logPath),
	})

	files, err := c.Collect(rootDir)
	if err != nil {
		return nil, 0, err
	}

	return files, time.Since(startTime), nil
}

func (s *Service) logMoves(ops []organizer.MoveOperation) {
	for _, op := range ops {
		s.logger.Debug("moved", "from", op.OriginalPath, "to", op.NewPath, "category", op.Category)
	}
}

func (s *Service) logRestores(ops []undo.RestoreOperation) {
	for _, op := range ops {
		if op.Action == undo.ActionSkip {
			s.logger.Debug("skipped", "name", op.Name, "reason", op.SkipReason)
			continue
		}
		s.logger.Debug("restored", "from", op.CurrentPath, "to", op.Original)
	}
}

// Workflow invariant: no path is opened or mutated before validator approval.
type workflowTarget struct {
	rootDir   string
	validator *safepath.Validator
}

func resolveWorkflowTarget(targetDir string) (workflowTarget, error) {
	info, err := os.Stat(targetDir)
	if err != nil {
		return workflowTarget{}, fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return workflowTarget{}, fmt.Errorf("%s is not a directory", targetDir)
	}

	validator, err := safepath.New(targetDir)
	if err != nil {
		return workflowTarget{}, fmt.Errorf("cannot create path validator: %w", err)
	}

	return workflowTarget{
		rootDir:   validator.Root(),
		validator: validator,
	}, nil
}

// stateFiles lists the undo log and its lock file, also under their
// symlink-resolved directory, so a scan of the directory holding them never
// picks them up.
func stateFiles(logPath string) []string {
	paths := []string{logPath, lockPath(logPath)}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(logPath)); err == nil {
		resolved := filepath.Join(dir, filepath.Base(logPath))
		paths = append(paths, resolved, lockPath(resolved))
	}

	return paths
}

func lockPath(logPath string) string {
	return logPath + ".lock"
}

// acquireWorkflowLock takes the advisory lock next to the undo log so two
// runs never read and write the log at the same time.
func acquireWorkflowLock(logPath string) (*filelock.Lock, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("create undo log directory: %w", err)
	}

	lock, err := filelock.Acquire(lockPath(logPath))
	if err != nil {
		return nil, fmt.Errorf("another filesorter process is using %s: %w", logPath, err)
	}

	return lock, nil
}
