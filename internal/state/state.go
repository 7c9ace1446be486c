// Package state records applied batches so they can be undone and redone.
// Every batch keeps pre-image copies of the files it touched under
// .bax/backup/<batch-id>/; undo and redo swap those copies with the working
// tree, so both directions are cheap and exact.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"bax/model"
)

const (
	stateFileName = "history.json"
	backupDirName = "backup"
)

// Operation is one recorded file mutation.
type Operation struct {
	// Path is the absolute target path.
	Path string `json:"path"`
	// Action is "create", "modify" or "delete".
	Action string `json:"action"`
	// Hash is the sha256 of the file content after the batch applied,
	// empty for deletes. Undo refuses to touch a file whose content no
	// longer matches it.
	Hash string `json:"hash,omitempty"`
}

// Entry is one applied batch.
type Entry struct {
	ID         string      `json:"id"`
	Timestamp  int64       `json:"timestamp"`
	Operations []Operation `json:"operations"`
}

// State is the persisted history.
type State struct {
	History      []Entry `json:"history"`
	CurrentIndex int     `json:"current_index"`
}

// Manager handles the lifecycle of the state directory.
type Manager struct {
	root      string
	stateDir  string
	statePath string
	state     *State
	batchID   string
}

// New creates and loads a state manager rooted at the project root.
func New(root string) (*Manager, error) {
	stateDir := filepath.Join(root, ".bax")
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create state directory: %w", err)
	}
	m := &Manager{
		root:      root,
		stateDir:  stateDir,
		statePath: filepath.Join(stateDir, stateFileName),
	}
	if err := m.load(); err != nil {
		m.state = &State{CurrentIndex: -1}
	}
	return m, nil
}

// StateDir returns the absolute .bax directory.
func (m *Manager) StateDir() string { return m.stateDir }

func (m *Manager) load() error {
	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = &State{CurrentIndex: -1}
			return nil
		}
		return err
	}
	st := &State{CurrentIndex: -1}
	if err := json.Unmarshal(data, st); err != nil {
		return fmt.Errorf("invalid state file: %w", err)
	}
	m.state = st
	return nil
}

func (m *Manager) save() error {
	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.statePath, data, 0644)
}

// BeginBatch starts a new batch and returns its id. The applier's journal
// calls below file pre-images under this batch directory.
func (m *Manager) BeginBatch() string {
	m.batchID = uuid.NewString()
	return m.batchID
}

func (m *Manager) backupPath(batchID, absPath string) (string, error) {
	rel, err := filepath.Rel(m.root, absPath)
	if err != nil {
		return "", fmt.Errorf("cannot journal %s: %w", absPath, err)
	}
	return filepath.Join(m.stateDir, backupDirName, batchID, rel), nil
}

// Snapshot copies a file's current content into the batch backup before it
// is overwritten. The first snapshot of a path in a batch wins; later blocks
// touching the same file must not clobber the pre-image.
func (m *Manager) Snapshot(absPath string) error {
	dst, err := m.backupPath(m.currentBatch(), absPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dst); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("cannot create backup directory: %w", err)
	}
	return copyFile(absPath, dst)
}

// Discard moves a file into the batch backup instead of unlinking it, so a
// remove can be undone.
func (m *Manager) Discard(absPath string) error {
	dst, err := m.backupPath(m.currentBatch(), absPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("cannot create backup directory: %w", err)
	}
	return moveFile(absPath, dst)
}

func (m *Manager) currentBatch() string {
	if m.batchID == "" {
		m.BeginBatch()
	}
	return m.batchID
}

// Record appends the current batch to history. Any redo tail beyond the
// current index is dropped, like an editor's undo stack.
func (m *Manager) Record(ops []Operation) error {
	if len(ops) == 0 {
		return nil
	}
	if m.state.CurrentIndex < len(m.state.History)-1 {
		// The dropped entries can never be redone again, so their backup
		// pre-images go too.
		for _, e := range m.state.History[m.state.CurrentIndex+1:] {
			_ = os.RemoveAll(filepath.Join(m.stateDir, backupDirName, e.ID))
		}
		m.state.History = m.state.History[:m.state.CurrentIndex+1]
	}
	m.state.History = append(m.state.History, Entry{
		ID:         m.currentBatch(),
		Timestamp:  time.Now().UTC().Unix(),
		Operations: ops,
	})
	m.state.CurrentIndex++
	m.batchID = ""
	return m.save()
}

// Undo reverts the most recent batch. It returns the paths it restored and
// the paths it refused to touch (content drifted since the batch applied, or
// the backup copy is gone).
func (m *Manager) Undo() (undone, failed []string) {
	if m.state.CurrentIndex < 0 || m.state.CurrentIndex >= len(m.state.History) {
		return nil, nil
	}
	entry := m.state.History[m.state.CurrentIndex]
	for _, op := range entry.Operations {
		if m.undoOp(entry.ID, op) {
			undone = append(undone, op.Path)
		} else {
			failed = append(failed, op.Path)
		}
	}
	m.state.CurrentIndex--
	_ = m.save()
	return undone, failed
}

func (m *Manager) undoOp(batchID string, op Operation) bool {
	backup, err := m.backupPath(batchID, op.Path)
	if err != nil {
		return false
	}
	switch op.Action {
	case "create":
		if !hashMatches(op.Path, op.Hash) {
			return false
		}
		// Park the created file in the backup so redo can bring it back.
		if err := os.MkdirAll(filepath.Dir(backup), 0755); err != nil {
			return false
		}
		return moveFile(op.Path, backup) == nil
	case "modify":
		if !hashMatches(op.Path, op.Hash) {
			return false
		}
		return swapFiles(op.Path, backup) == nil
	case "delete":
		return moveFile(backup, op.Path) == nil
	default:
		return false
	}
}

// Redo re-applies the batch that was last undone.
func (m *Manager) Redo() (redone, failed []string) {
	next := m.state.CurrentIndex + 1
	if next >= len(m.state.History) {
		return nil, nil
	}
	entry := m.state.History[next]
	for _, op := range entry.Operations {
		if m.redoOp(entry.ID, op) {
			redone = append(redone, op.Path)
		} else {
			failed = append(failed, op.Path)
		}
	}
	m.state.CurrentIndex = next
	_ = m.save()
	return redone, failed
}

func (m *Manager) redoOp(batchID string, op Operation) bool {
	backup, err := m.backupPath(batchID, op.Path)
	if err != nil {
		return false
	}
	switch op.Action {
	case "create":
		return moveFile(backup, op.Path) == nil
	case "modify":
		// After an undo, the backup holds the post-batch content; swapping
		// again restores it and parks the pre-image back in the backup.
		return swapFiles(op.Path, backup) == nil
	case "delete":
		if err := os.MkdirAll(filepath.Dir(backup), 0755); err != nil {
			return false
		}
		return moveFile(op.Path, backup) == nil
	default:
		return false
	}
}

// OperationsFromResults converts applied block results into history
// operations, hashing the resulting file content for the drift check.
func OperationsFromResults(results []model.Result) []Operation {
	var ops []Operation
	for _, r := range results {
		if !r.Applied {
			continue
		}
		op := Operation{Path: r.Block.AbsPath, Action: r.Action}
		if r.Action != "delete" {
			if h, err := FileSHA256(r.Block.AbsPath); err == nil {
				op.Hash = h
			}
		}
		ops = append(ops, op)
	}
	return ops
}

// FileSHA256 returns the hex sha256 of a file's content.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashMatches(path, want string) bool {
	if want == "" {
		return false
	}
	got, err := FileSHA256(path)
	return err == nil && got == want
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// moveFile renames, falling back to copy+remove across filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// swapFiles exchanges the contents of two existing files. The temp file is
// created inside the backup directory so its name cannot collide with a
// real file in the working tree.
func swapFiles(a, b string) error {
	tmpf, err := os.CreateTemp(filepath.Dir(b), ".swap-*")
	if err != nil {
		return err
	}
	tmp := tmpf.Name()
	tmpf.Close()
	if err := os.Rename(a, tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(b, a); err != nil {
		_ = os.Rename(tmp, a)
		return err
	}
	return os.Rename(tmp, b)
}
