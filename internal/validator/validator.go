// Package validator checks parsed edit blocks against the live state of the
// project: path containment, read-only protection, and search-text presence.
// Failures become per-block statuses, never errors, so one pass can report
// every problem in a batch at once.
package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"bax/model"
)

// FileContext is the slice of the file-discovery layer the validator needs.
type FileContext interface {
	// Root is the absolute project root; targets outside it are rejected.
	Root() string
	// IsReadOnly reports whether the absolute path is reference-only.
	IsReadOnly(absPath string) bool
}

// Validate resolves and checks each block in order and records a terminal
// status on it. It owns the blocks for the duration of the pass: statuses
// are written exactly once, and search/replace content may be trimmed in
// place when only the whitespace-tolerant match succeeds (so the applier's
// exact match is guaranteed to land). The same slice is returned.
func Validate(blocks []*model.EditBlock, fctx FileContext, log *zap.Logger) []*model.EditBlock {
	for _, b := range blocks {
		validateBlock(b, fctx)
		log.Debug("validated block",
			zap.String("id", b.ID),
			zap.String("path", b.FilePath),
			zap.String("status", string(b.Status)),
			zap.String("message", b.StatusMessage))
	}
	return blocks
}

func validateBlock(b *model.EditBlock, fctx FileContext) {
	abs := b.FilePath
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(fctx.Root(), abs)
	}
	b.AbsPath = filepath.Clean(abs)

	// Containment applies even to files that do not exist yet; a creation
	// target outside the root is just as wrong as an edit target.
	if !underRoot(fctx.Root(), b.AbsPath) {
		b.SetStatus(model.StatusOutsideProject,
			fmt.Sprintf("%s is outside the project root", b.FilePath))
		return
	}

	if fctx.IsReadOnly(b.AbsPath) {
		b.SetStatus(model.StatusReadOnly,
			fmt.Sprintf("%s is read-only", b.FilePath))
		return
	}

	if b.SearchContent != "" {
		if !checkSearch(b) {
			return
		}
	}

	b.SetStatus(model.StatusValid, "")
}

// checkSearch verifies the search text is present in the target file.
// Exact substring match first; on failure, retry with both sides stripped of
// leading and trailing whitespace, and on success write the trimmed contents
// back into the block. Returns false when a terminal status was set.
func checkSearch(b *model.EditBlock) bool {
	data, err := os.ReadFile(b.AbsPath)
	if err != nil {
		// Missing, permission-denied and friends are deliberately folded
		// into one status; the message keeps the underlying cause.
		b.SetStatus(model.StatusSearchNotFound,
			fmt.Sprintf("cannot read file: %v", err))
		return false
	}
	if !utf8.Valid(data) {
		b.SetStatus(model.StatusSearchNotFound,
			fmt.Sprintf("cannot read file: %s is not valid UTF-8 text", b.FilePath))
		return false
	}

	content := string(data)
	if strings.Contains(content, b.SearchContent) {
		return true
	}

	trimmed := strings.TrimSpace(b.SearchContent)
	if trimmed != "" && strings.Contains(content, trimmed) {
		b.SearchContent = trimmed
		b.ReplaceContent = strings.TrimSpace(b.ReplaceContent)
		return true
	}

	b.SetStatus(model.StatusSearchNotFound,
		fmt.Sprintf("search content not found in %s", b.FilePath))
	return false
}

func underRoot(root, abs string) bool {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
