package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProjectRoot != "" || len(cfg.ReadOnly) != 0 || cfg.ConfirmCreates {
		t.Fatalf("expected zero-value config, got %+v", cfg)
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	content := "project_root: /srv/code\nread_only:\n  - vendor/\n  - \"*.lock\"\nconfirm_creates: true\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProjectRoot != "/srv/code" {
		t.Fatalf("ProjectRoot = %q", cfg.ProjectRoot)
	}
	if len(cfg.ReadOnly) != 2 || cfg.ReadOnly[0] != "vendor/" || cfg.ReadOnly[1] != "*.lock" {
		t.Fatalf("ReadOnly = %v", cfg.ReadOnly)
	}
	if !cfg.ConfirmCreates {
		t.Fatal("ConfirmCreates should be true")
	}
}

func TestLoadResolvesRelativeProjectRoot(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("project_root: ../sibling\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := filepath.Join(dir, "..", "sibling")
	if cfg.ProjectRoot != want {
		t.Fatalf("ProjectRoot = %q, want %q", cfg.ProjectRoot, want)
	}
}

func TestLoadBrokenFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("read_only: {not: [valid\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatal("expected a parse error for broken yaml")
	}
}

func TestDetectRootOverrideWins(t *testing.T) {
	dir := t.TempDir()
	root, err := DetectRoot(dir)
	if err != nil {
		t.Fatalf("DetectRoot: %v", err)
	}
	if root != dir {
		t.Fatalf("root = %q, want %q", root, dir)
	}
}

func TestDetectRootOverrideIsMadeAbsolute(t *testing.T) {
	root, err := DetectRoot(".")
	if err != nil {
		t.Fatalf("DetectRoot: %v", err)
	}
	if !filepath.IsAbs(root) {
		t.Fatalf("root %q is not absolute", root)
	}
}
