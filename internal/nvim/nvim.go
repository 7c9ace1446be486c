// Package nvim nudges a running Neovim instance to re-read buffers whose
// files were changed on disk by an applied batch. Best effort only: no
// running instance, or a failed RPC, is not an error worth surfacing.
package nvim

import (
	"os"

	"github.com/neovim/go-client/nvim"
)

// Sync runs checktime in the Neovim instance named by $NVIM_LISTEN_ADDRESS
// (or $NVIM, which newer versions export). Returns silently when neither is
// set.
func Sync(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	addr := os.Getenv("NVIM_LISTEN_ADDRESS")
	if addr == "" {
		addr = os.Getenv("NVIM")
	}
	if addr == "" {
		return nil
	}

	v, err := nvim.Dial(addr)
	if err != nil {
		return err
	}
	defer v.Close()

	// checktime with no argument visits every buffer; per-path commands
	// would need fnameescape handling for no benefit.
	return v.Command("checktime")
}
