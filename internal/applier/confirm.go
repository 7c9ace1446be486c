package applier

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirmer supplies the yes/no decision for destructive operations. The
// call blocks the batch until a decision comes back; timeout policy, if any,
// belongs to the implementation.
type Confirmer interface {
	Confirm(prompt string) bool
}

// AutoApprove answers yes to everything (--yes).
type AutoApprove struct{}

func (AutoApprove) Confirm(string) bool { return true }

// ConsoleConfirmer prompts on the terminal, used when the TUI is off.
type ConsoleConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (c *ConsoleConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(c.Out, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }
