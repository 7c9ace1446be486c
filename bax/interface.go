package bax

import (
	"fmt"

	"bax/cli"
	"bax/internal/applier"
	"bax/internal/compactor"
	"bax/internal/parser"
	"bax/model"
)

// Config for using bax as a library.
type Config struct {
	// Root is the project root; empty means git root, then working dir.
	Root string
	// AutoApprove applies destructive blocks without asking. A host with
	// its own confirmation UI should leave this false and call App.Run
	// with a Confirmer instead.
	AutoApprove bool
	// CompactOnly parses and compacts without touching files.
	CompactOnly bool
}

// Apply parses the given response text and applies its edit blocks.
func Apply(content string, config Config) (model.Summary, error) {
	cliCfg := &cli.Config{
		Root:        config.Root,
		Yes:         config.AutoApprove,
		CompactOnly: config.CompactOnly,
	}

	app, err := New(cliCfg)
	if err != nil {
		return model.Summary{}, fmt.Errorf("failed to initialize bax app: %w", err)
	}
	defer app.Close()

	var confirm applier.Confirmer
	if config.AutoApprove {
		confirm = applier.AutoApprove{}
	} else {
		// Without a UI, declining is the only safe answer.
		confirm = applier.ConfirmFunc(func(string) bool { return false })
	}

	return app.Run(content, confirm)
}

// Parse extracts the edit blocks from response text without applying them.
// The preflight checks still run; a structurally broken response is an error.
func Parse(content string) ([]*model.EditBlock, error) {
	text := parser.UnwrapFences(content)
	if err := parser.Preflight(text); err != nil {
		return nil, err
	}
	return parser.Parse(text), nil
}

// Compact rewrites the edit-block regions of content into summary lines.
func Compact(content string) string {
	text := parser.UnwrapFences(content)
	return compactor.Compact(text, parser.Parse(text))
}
