// Package applier executes validated edit blocks against the file system,
// one block at a time in parse order. Destructive operations go through the
// confirmation collaborator; a decline skips that block only. Apply-time
// surprises (the file changed between validation and application) leave the
// file as found and are reported on the block's result, never raised.
package applier

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"bax/model"
)

// Journal preserves pre-images of files the applier is about to change, so
// a batch can be undone later. Nil disables journaling.
type Journal interface {
	// Snapshot copies the file's current content aside before an overwrite.
	Snapshot(absPath string) error
	// Discard moves the file aside instead of unlinking it.
	Discard(absPath string) error
}

// Applier applies valid blocks and reports one Result per input block.
type Applier struct {
	Confirm Confirmer
	Journal Journal
	// ConfirmCreates asks before writing files that do not exist yet.
	// Plain creation is not destructive, so this is off unless the host
	// policy wants it.
	ConfirmCreates bool
	Log            *zap.Logger
}

// Apply runs every block with status valid, in order. Blocks that failed
// validation are carried through as unapplied results so the caller can
// report the whole batch in one place. No rollback: a declined or failed
// block does not affect the ones before or after it.
func (a *Applier) Apply(blocks []*model.EditBlock) []model.Result {
	log := a.Log
	if log == nil {
		log = zap.NewNop()
	}
	results := make([]model.Result, 0, len(blocks))
	for _, b := range blocks {
		var res model.Result
		if b.Status != model.StatusValid {
			res = model.Result{Block: b, Reason: b.StatusMessage}
		} else {
			res = a.applyBlock(b)
		}
		log.Debug("applied block",
			zap.String("id", b.ID),
			zap.String("path", b.FilePath),
			zap.Bool("applied", res.Applied),
			zap.String("action", res.Action),
			zap.String("reason", res.Reason))
		results = append(results, res)
	}
	return results
}

func (a *Applier) applyBlock(b *model.EditBlock) model.Result {
	switch b.Operation {
	case model.OpAdd:
		return a.applyAdd(b)
	case model.OpEdit:
		return a.applyEdit(b)
	case model.OpRemove:
		return a.applyRemove(b)
	case model.OpReplace:
		return a.applyReplace(b)
	default:
		// ParseOperation never produces anything else.
		return model.Result{Block: b, Reason: fmt.Sprintf("unknown operation %q", b.Operation)}
	}
}

func (a *Applier) applyAdd(b *model.EditBlock) model.Result {
	exists := fileExists(b.AbsPath)
	if exists {
		// An add aimed at an existing file would clobber it, so it is
		// treated like a replace and needs consent.
		if !a.Confirm.Confirm(fmt.Sprintf("Overwrite existing file '%s'?", b.FilePath)) {
			return model.Result{Block: b, Reason: "overwrite declined"}
		}
	} else if !a.confirmCreate(b) {
		return model.Result{Block: b, Reason: "creation declined"}
	}

	if exists {
		if err := a.snapshot(b.AbsPath); err != nil {
			return model.Result{Block: b, Reason: err.Error()}
		}
	}
	if err := writeFile(b.AbsPath, trimTrailingNewline(b.ReplaceContent)); err != nil {
		return model.Result{Block: b, Reason: err.Error()}
	}
	action := "create"
	if exists {
		action = "modify"
	}
	return model.Result{Block: b, Applied: true, Action: action}
}

func (a *Applier) applyEdit(b *model.EditBlock) model.Result {
	data, err := os.ReadFile(b.AbsPath)
	if err != nil {
		if os.IsNotExist(err) && b.SearchContent == "" {
			// Edit with empty search against a missing file degrades to
			// creation, matching the append semantics below. Creation
			// consent applies the same as for an add; the operation word
			// must not change the policy.
			if !a.confirmCreate(b) {
				return model.Result{Block: b, Reason: "creation declined"}
			}
			if err := writeFile(b.AbsPath, trimTrailingNewline(b.ReplaceContent)); err != nil {
				return model.Result{Block: b, Reason: err.Error()}
			}
			return model.Result{Block: b, Applied: true, Action: "create"}
		}
		return model.Result{Block: b, Reason: fmt.Sprintf("cannot read file: %v", err)}
	}
	content := string(data)

	var updated string
	if b.SearchContent == "" {
		// Empty search means append.
		updated = content + b.ReplaceContent
	} else {
		if !strings.Contains(content, b.SearchContent) {
			// The file changed between validation and application. Leaving
			// it untouched beats guessing; the result says what happened.
			return model.Result{Block: b, Reason: "search content no longer present at apply time"}
		}
		updated = strings.Replace(content, b.SearchContent, b.ReplaceContent, 1)
	}

	if err := a.snapshot(b.AbsPath); err != nil {
		return model.Result{Block: b, Reason: err.Error()}
	}
	if err := writeFile(b.AbsPath, updated); err != nil {
		return model.Result{Block: b, Reason: err.Error()}
	}
	return model.Result{Block: b, Applied: true, Action: "modify"}
}

func (a *Applier) applyRemove(b *model.EditBlock) model.Result {
	if !fileExists(b.AbsPath) {
		return model.Result{Block: b, Reason: "file does not exist"}
	}
	if !a.Confirm.Confirm(fmt.Sprintf("Delete '%s'?", b.FilePath)) {
		return model.Result{Block: b, Reason: "deletion declined"}
	}
	if a.Journal != nil {
		if err := a.Journal.Discard(b.AbsPath); err != nil {
			return model.Result{Block: b, Reason: err.Error()}
		}
	} else if err := os.Remove(b.AbsPath); err != nil {
		return model.Result{Block: b, Reason: err.Error()}
	}
	return model.Result{Block: b, Applied: true, Action: "delete"}
}

func (a *Applier) applyReplace(b *model.EditBlock) model.Result {
	// Replace is destructive by declaration, so the prompt fires whether
	// or not the target exists yet.
	if !a.Confirm.Confirm(fmt.Sprintf("Replace all contents of '%s'?", b.FilePath)) {
		return model.Result{Block: b, Reason: "replacement declined"}
	}

	exists := fileExists(b.AbsPath)
	if exists {
		if err := a.snapshot(b.AbsPath); err != nil {
			return model.Result{Block: b, Reason: err.Error()}
		}
	}
	if err := writeFile(b.AbsPath, trimTrailingNewline(b.ReplaceContent)); err != nil {
		return model.Result{Block: b, Reason: err.Error()}
	}
	action := "create"
	if exists {
		action = "modify"
	}
	return model.Result{Block: b, Applied: true, Action: action}
}

// confirmCreate asks before a file that does not exist yet is written, when
// the host policy demands it. Every creation path goes through here so the
// block's operation word cannot route around the policy.
func (a *Applier) confirmCreate(b *model.EditBlock) bool {
	if !a.ConfirmCreates {
		return true
	}
	return a.Confirm.Confirm(fmt.Sprintf("Create new file '%s'?", b.FilePath))
}

func (a *Applier) snapshot(absPath string) error {
	if a.Journal == nil {
		return nil
	}
	return a.Journal.Snapshot(absPath)
}

func writeFile(absPath, content string) error {
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("cannot write file: %w", err)
	}
	return nil
}

func fileExists(absPath string) bool {
	info, err := os.Stat(absPath)
	return err == nil && !info.IsDir()
}

// trimTrailingNewline drops a single trailing newline from content written
// whole (add/replace); the tag-based format makes it ambiguous whether the
// model meant the final newline, and one is the conventional choice.
func trimTrailingNewline(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
