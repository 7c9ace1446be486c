// Package config loads the optional per-project .bax.yaml file and resolves
// the project root.
package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the per-project configuration file, looked up at the root.
const FileName = ".bax.yaml"

// StateDirName holds batch history, backups and debug logs under the root.
const StateDirName = ".bax"

// Config is the project configuration.
type Config struct {
	// ProjectRoot overrides root detection. Relative values are resolved
	// against the directory the config file lives in.
	ProjectRoot string `yaml:"project_root"`
	// ReadOnly lists glob patterns (relative to the root) for files the
	// engine must refuse to touch.
	ReadOnly []string `yaml:"read_only"`
	// ConfirmCreates asks before creating files that do not exist yet.
	ConfirmCreates bool `yaml:"confirm_creates"`
}

// Load reads FileName from dir. A missing file is not an error; defaults are
// returned. A file that exists but does not parse is an error, because
// silently ignoring a broken read_only list could let an edit through.
func Load(dir string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("could not read %s: %w", FileName, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", FileName, err)
	}
	if cfg.ProjectRoot != "" && !filepath.IsAbs(cfg.ProjectRoot) {
		cfg.ProjectRoot = filepath.Join(dir, cfg.ProjectRoot)
	}
	return cfg, nil
}

// DetectRoot resolves the project root, in precedence order: the explicit
// override (--root), the config's project_root, the enclosing git worktree,
// and finally the current working directory.
func DetectRoot(override string) (string, error) {
	if override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return "", fmt.Errorf("invalid root %q: %w", override, err)
		}
		return abs, nil
	}
	if root, err := findGitRoot(); err == nil {
		return root, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("could not get current working directory: %w", err)
	}
	return wd, nil
}

// findGitRoot finds the root of the enclosing git repository.
func findGitRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}
