// Package filectx answers the engine's questions about the project tree:
// where the root is and which paths the user marked reference-only.
package filectx

import (
	"path"
	"path/filepath"
	"strings"
)

// Context is the file-context collaborator handed to the validator.
type Context struct {
	root     string
	readOnly []string
}

// New builds a context for an absolute project root. Patterns are
// slash-separated globs relative to the root; a pattern naming a directory
// protects everything under it, and a bare glob like "*.lock" also matches
// by base name anywhere in the tree.
func New(root string, readOnly []string) *Context {
	cleaned := make([]string, 0, len(readOnly))
	for _, p := range readOnly {
		p = strings.TrimSuffix(filepath.ToSlash(strings.TrimSpace(p)), "/")
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return &Context{root: filepath.Clean(root), readOnly: cleaned}
}

// Root returns the absolute project root.
func (c *Context) Root() string { return c.root }

// IsReadOnly reports whether the absolute path is protected from edits.
// Paths outside the root are not this predicate's concern; the validator
// rejects those on containment first.
func (c *Context) IsReadOnly(absPath string) bool {
	rel, err := filepath.Rel(c.root, absPath)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, pat := range c.readOnly {
		if ok, _ := path.Match(pat, rel); ok {
			return true
		}
		if rel == pat || strings.HasPrefix(rel, pat+"/") {
			return true
		}
		if !strings.Contains(pat, "/") {
			if ok, _ := path.Match(pat, path.Base(rel)); ok {
				return true
			}
		}
	}
	return false
}
