package bax

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bax/cli"
	"bax/internal/applier"
	"bax/internal/parser"
)

func newApp(t *testing.T, cfg *cli.Config) (*App, string) {
	t.Helper()
	root := t.TempDir()
	cfg.Root = root
	app, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(app.Close)
	return app, root
}

func editBlockText(path, op, id, search, replace string) string {
	return "<file path=\"" + path + "\" operation=\"" + op + "\" block_id=\"" + id + "\">\n" +
		"<search>\n" + search + "\n</search>\n" +
		"<replace>\n" + replace + "\n</replace>\n" +
		"</file>\n"
}

func TestRunEndToEnd(t *testing.T) {
	app, root := newApp(t, &cli.Config{Yes: true})

	existing := filepath.Join(root, "src", "hello.py")
	if err := os.MkdirAll(filepath.Dir(existing), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(existing, []byte("def hello():\n    print('hi')\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	content := "Two changes coming up.\n\n" +
		editBlockText("src/hello.py", "edit", "1", "print('hi')", "print('hello')") +
		"\n" +
		editBlockText("src/util.py", "add", "2", "", "def util():\n    pass") +
		"\nDone.\n"

	summary, err := app.Run(content, applier.AutoApprove{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(summary.Modified) != 1 || len(summary.Created) != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(summary.Failed) != 0 || len(summary.Skipped) != 0 {
		t.Fatalf("unexpected failures: %+v", summary)
	}

	got, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "def hello():\n    print('hello')\n" {
		t.Fatalf("edited file = %q", got)
	}

	created, err := os.ReadFile(filepath.Join(root, "src", "util.py"))
	if err != nil {
		t.Fatal(err)
	}
	if string(created) != "def util():\n    pass" {
		t.Fatalf("created file = %q", created)
	}

	if strings.Contains(summary.Compacted, "<file") {
		t.Fatal("compacted text still contains block regions")
	}
	for _, want := range []string{
		"Two changes coming up.",
		"Code change removed for brevity: `src/hello.py` (edit)",
		"Code change removed for brevity: `src/util.py` (add)",
		"Done.",
	} {
		if !strings.Contains(summary.Compacted, want) {
			t.Fatalf("compacted text missing %q:\n%s", want, summary.Compacted)
		}
	}
}

func TestRunPreflightFailureIsAnError(t *testing.T) {
	app, _ := newApp(t, &cli.Config{Yes: true})

	_, err := app.Run("<file path=\"a\" operation=\"edit\" block_id=\"1\">\n<search>\nx\n</search>\n", applier.AutoApprove{})
	var up *parser.UnparsableError
	if !errors.As(err, &up) {
		t.Fatalf("err = %v, want UnparsableError", err)
	}
}

func TestRunNoBlocksIsAnError(t *testing.T) {
	app, _ := newApp(t, &cli.Config{Yes: true})

	_, err := app.Run("no blocks here", applier.AutoApprove{})
	var nb *parser.NoBlocksError
	if !errors.As(err, &nb) {
		t.Fatalf("err = %v, want NoBlocksError", err)
	}
}

func TestRunCompactOnlyTouchesNoFiles(t *testing.T) {
	app, root := newApp(t, &cli.Config{CompactOnly: true})

	content := editBlockText("would-be-new.txt", "add", "1", "", "content")
	summary, err := app.Run(content, applier.AutoApprove{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "would-be-new.txt")); !os.IsNotExist(err) {
		t.Fatal("compact-only must not create files")
	}
	if !strings.Contains(summary.Compacted, "Code change removed for brevity:") {
		t.Fatalf("compacted = %q", summary.Compacted)
	}
	if !strings.Contains(summary.Message, "no files were touched") {
		t.Fatalf("message = %q", summary.Message)
	}
}

func TestRunReportsInvalidBlocks(t *testing.T) {
	app, _ := newApp(t, &cli.Config{Yes: true})

	content := editBlockText("/tmp/outside.py", "edit", "1", "x", "y")
	summary, err := app.Run(content, applier.AutoApprove{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(summary.Failed) != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if !strings.Contains(summary.Failed[0], "outside the project root") {
		t.Fatalf("failed entry = %q", summary.Failed[0])
	}
}

func TestRunDeclinedDeleteIsSkipped(t *testing.T) {
	app, root := newApp(t, &cli.Config{})

	target := filepath.Join(root, "keep.txt")
	if err := os.WriteFile(target, []byte("precious"), 0o644); err != nil {
		t.Fatal(err)
	}

	content := editBlockText("keep.txt", "remove", "1", "", "")
	decline := applier.ConfirmFunc(func(string) bool { return false })
	summary, err := app.Run(content, decline)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(summary.Skipped) != 1 || !strings.Contains(summary.Skipped[0], "deletion declined") {
		t.Fatalf("summary = %+v", summary)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("declined delete removed the file: %v", err)
	}
}

func TestRunThenUndo(t *testing.T) {
	app, root := newApp(t, &cli.Config{Yes: true})

	target := filepath.Join(root, "file.txt")
	if err := os.WriteFile(target, []byte("before\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := app.Run(editBlockText("file.txt", "edit", "1", "before", "after"), applier.AutoApprove{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, _ := os.ReadFile(target)
	if string(got) != "after\n" {
		t.Fatalf("after run, content = %q", got)
	}

	summary, err := app.undoLastBatch()
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if len(summary.Modified) != 1 {
		t.Fatalf("undo summary = %+v", summary)
	}
	got, _ = os.ReadFile(target)
	if string(got) != "before\n" {
		t.Fatalf("after undo, content = %q", got)
	}
}

func TestExecuteUndoRedoModes(t *testing.T) {
	app, root := newApp(t, &cli.Config{Yes: true})

	target := filepath.Join(root, "file.txt")
	if err := os.WriteFile(target, []byte("v1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := app.Run(editBlockText("file.txt", "edit", "1", "v1", "v2"), applier.AutoApprove{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	app.cfg.Undo = true
	if _, err := app.Execute(applier.AutoApprove{}); err != nil {
		t.Fatalf("Execute undo: %v", err)
	}
	got, _ := os.ReadFile(target)
	if string(got) != "v1\n" {
		t.Fatalf("after undo, content = %q", got)
	}

	app.cfg.Undo = false
	app.cfg.Redo = true
	if _, err := app.Execute(applier.AutoApprove{}); err != nil {
		t.Fatalf("Execute redo: %v", err)
	}
	got, _ = os.ReadFile(target)
	if string(got) != "v2\n" {
		t.Fatalf("after redo, content = %q", got)
	}

	app.cfg.Redo = false
	summary, err := app.undoLastBatch()
	if err != nil || len(summary.Modified) != 1 {
		t.Fatalf("second undo: %+v, %v", summary, err)
	}
}

func TestLibraryApplyAndParse(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("alpha\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	content := editBlockText("a.txt", "edit", "1", "alpha", "beta")

	blocks, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(blocks) != 1 || blocks[0].FilePath != "a.txt" {
		t.Fatalf("blocks = %+v", blocks)
	}

	summary, err := Apply(content, Config{Root: root, AutoApprove: true})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(summary.Modified) != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	got, _ := os.ReadFile(filepath.Join(root, "a.txt"))
	if string(got) != "beta\n" {
		t.Fatalf("content = %q", got)
	}
}

func TestLibraryCompact(t *testing.T) {
	content := "prose\n\n" + editBlockText("a.txt", "edit", "1", "x", "y") + "\nmore prose\n"
	got := Compact(content)
	if strings.Contains(got, "<file") {
		t.Fatalf("compacted = %q", got)
	}
	if !strings.Contains(got, "prose") || !strings.Contains(got, "more prose") {
		t.Fatalf("compacted = %q", got)
	}
}
