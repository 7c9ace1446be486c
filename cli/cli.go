package cli

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Config holds all the command-line flag values.
type Config struct {
	Yes         bool
	CompactOnly bool
	NoTUI       bool
	Undo        bool
	Redo        bool
	Debug       bool
	Root        string
}

// ParseFlags defines and parses command-line flags using pflag.
func ParseFlags() (*Config, error) {
	cfg := &Config{}

	pflag.BoolVarP(&cfg.Yes, "yes", "y", false, "Approve every destructive operation without prompting.")
	pflag.BoolVarP(&cfg.CompactOnly, "compact-only", "c", false, "Parse and compact the response without touching any file.")
	pflag.BoolVar(&cfg.NoTUI, "no-tui", false, "Plain terminal output, no spinner or styled summary.")
	pflag.BoolVar(&cfg.Debug, "debug", false, "Write debug logs to .bax/debug.log.")
	pflag.StringVar(&cfg.Root, "root", "", "Project root (default: enclosing git root, then current directory).")

	// Mutually exclusive history group
	pflag.BoolVarP(&cfg.Undo, "undo", "u", false, "Undo the last applied batch.")
	pflag.BoolVarP(&cfg.Redo, "redo", "r", false, "Redo the last undone batch.")

	pflag.Usage = func() {
		fmt.Println("Usage: bax [flags]")
		fmt.Println("\nParse an assistant response from stdin (pipe) or the clipboard,")
		fmt.Println("apply its <file> edit blocks to the project, and print the")
		fmt.Println("compacted response to stdout.")
		fmt.Println("\nExample: pbpaste | bax -y")
		fmt.Println("\nFlags:")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if cfg.Undo && cfg.Redo {
		return nil, fmt.Errorf("error: --undo and --redo are mutually exclusive")
	}

	return cfg, nil
}
