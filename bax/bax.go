// Package bax wires the edit-block engine into an application: source
// content in, validated and applied blocks out, compacted text back to the
// caller. It is used by cmd/bax and usable as a library by a host assistant.
package bax

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"go.uber.org/zap"

	"bax/cli"
	"bax/internal/applier"
	"bax/internal/compactor"
	"bax/internal/config"
	"bax/internal/filectx"
	"bax/internal/logging"
	"bax/internal/nvim"
	"bax/internal/parser"
	"bax/internal/source"
	"bax/internal/state"
	"bax/internal/validator"
	"bax/model"
)

// App orchestrates the entire application logic.
type App struct {
	cfg          *cli.Config
	conf         *config.Config
	fctx         *filectx.Context
	stateManager *state.Manager
	src          *source.Provider
	log          *zap.Logger
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

// New creates a new App instance rooted at the detected project root.
func New(cfg *cli.Config) (*App, error) {
	root, err := config.DetectRoot(cfg.Root)
	if err != nil {
		return nil, err
	}
	conf, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	if cfg.Root == "" && conf.ProjectRoot != "" {
		root = filepath.Clean(conf.ProjectRoot)
	}

	stateManager, err := state.New(root)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize state manager: %w", err)
	}
	log, err := logging.New(stateManager.StateDir(), cfg.Debug)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:          cfg,
		conf:         conf,
		fctx:         filectx.New(root, conf.ReadOnly),
		stateManager: stateManager,
		src:          source.New(),
		log:          log,
	}, nil
}

// Close flushes the debug log.
func (a *App) Close() {
	_ = a.log.Sync()
}

// Execute runs the mode selected by the flags.
func (a *App) Execute(confirm applier.Confirmer) (summary model.Summary, err error) {
	// Centralized panic recovery to provide stack traces for unexpected errors.
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	switch {
	case a.cfg.Undo:
		return a.undoLastBatch()
	case a.cfg.Redo:
		return a.redoLastBatch()
	default:
		return a.processContent(confirm)
	}
}

// processContent reads the source and runs the engine over it.
func (a *App) processContent(confirm applier.Confirmer) (model.Summary, error) {
	content, err := a.src.GetContent()
	if err != nil {
		return model.Summary{}, err
	}
	if content == "" {
		return model.Summary{Message: "Source is empty. Nothing to process."}, nil
	}
	return a.Run(content, confirm)
}

// Run executes the full engine pipeline over content: fence unwrapping,
// preflight, parse, validation, application, history recording, compaction.
// A preflight failure comes back as an error whose message is the correction
// request to send to the model; everything past preflight is reported in the
// summary instead.
func (a *App) Run(content string, confirm applier.Confirmer) (model.Summary, error) {
	text := parser.UnwrapFences(content)

	if err := parser.Preflight(text); err != nil {
		return model.Summary{}, err
	}

	blocks := parser.Parse(text)
	a.log.Debug("parsed blocks", zap.Int("count", len(blocks)))

	if a.cfg.CompactOnly {
		return model.Summary{
			Message:   fmt.Sprintf("Compacted %d block(s); no files were touched.", len(blocks)),
			Compacted: compactor.Compact(text, blocks),
		}, nil
	}

	validator.Validate(blocks, a.fctx, a.log)

	ap := &applier.Applier{
		Confirm:        confirm,
		Journal:        a.stateManager,
		ConfirmCreates: a.conf.ConfirmCreates,
		Log:            a.log,
	}
	a.stateManager.BeginBatch()
	results := ap.Apply(blocks)

	if ops := state.OperationsFromResults(results); len(ops) > 0 {
		if err := a.stateManager.Record(ops); err != nil {
			a.log.Warn("failed to record batch history", zap.Error(err))
		}
	}

	if err := nvim.Sync(appliedPaths(results)); err != nil {
		a.log.Debug("editor sync failed", zap.Error(err))
	}

	summary := buildSummary(results)
	summary.Compacted = compactor.Compact(text, blocks)
	a.relativizeSummaryPaths(&summary)
	return summary, nil
}

// undoLastBatch restores the files of the most recent batch.
func (a *App) undoLastBatch() (model.Summary, error) {
	undone, failed := a.stateManager.Undo()
	if len(undone) == 0 && len(failed) == 0 {
		return model.Summary{Message: "No batch to undo."}, nil
	}
	summary := model.Summary{
		Modified: undone,
		Failed:   failed,
		Message:  "Undid last batch.",
	}
	_ = nvim.Sync(undone)
	a.relativizeSummaryPaths(&summary)
	return summary, nil
}

// redoLastBatch re-applies the batch that was last undone.
func (a *App) redoLastBatch() (model.Summary, error) {
	redone, failed := a.stateManager.Redo()
	if len(redone) == 0 && len(failed) == 0 {
		return model.Summary{Message: "No batch to redo."}, nil
	}
	summary := model.Summary{
		Modified: redone,
		Failed:   failed,
		Message:  "Redid last undone batch.",
	}
	_ = nvim.Sync(redone)
	a.relativizeSummaryPaths(&summary)
	return summary, nil
}

func buildSummary(results []model.Result) model.Summary {
	var s model.Summary
	for _, r := range results {
		b := r.Block
		if r.Applied {
			switch r.Action {
			case "create":
				s.Created = append(s.Created, b.AbsPath)
			case "delete":
				s.Deleted = append(s.Deleted, b.AbsPath)
			default:
				s.Modified = append(s.Modified, b.AbsPath)
			}
			continue
		}
		if b.Status == model.StatusValid {
			s.Skipped = append(s.Skipped, fmt.Sprintf("%s (%s)", b.FilePath, r.Reason))
		} else {
			s.Failed = append(s.Failed, fmt.Sprintf("%s: %s", b.FilePath, b.StatusMessage))
		}
	}
	return s
}

func appliedPaths(results []model.Result) []string {
	var paths []string
	for _, r := range results {
		if r.Applied && r.Action != "delete" {
			paths = append(paths, r.Block.AbsPath)
		}
	}
	return paths
}

// relativizeSummaryPaths converts absolute file paths in a summary to be
// relative to the current working directory for cleaner display.
func (a *App) relativizeSummaryPaths(summary *model.Summary) {
	wd, err := os.Getwd()
	if err != nil {
		return
	}

	makeRelative := func(absPaths []string) []string {
		relPaths := make([]string, len(absPaths))
		for i, p := range absPaths {
			rel, err := filepath.Rel(wd, p)
			if err != nil {
				relPaths[i] = p
			} else {
				relPaths[i] = rel
			}
		}
		return relPaths
	}

	summary.Created = makeRelative(summary.Created)
	summary.Modified = makeRelative(summary.Modified)
	summary.Deleted = makeRelative(summary.Deleted)
}
