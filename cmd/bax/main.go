package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"bax/bax"
	"bax/cli"
	"bax/internal/applier"
	"bax/internal/tui"
	"bax/model"
)

func main() {
	cfg, err := cli.ParseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app, err := bax.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// Stdin usually carries the piped response, so interactive keys come
	// from the controlling terminal instead.
	tty, ttyErr := os.Open("/dev/tty")
	if ttyErr == nil {
		defer tty.Close()
	}

	if cfg.NoTUI || (ttyErr != nil && !cfg.Yes) {
		runPlain(app, cfg, tty)
		return
	}

	var p *tea.Program
	confirm := pickConfirmer(cfg, func(prompt string) bool {
		reply := make(chan bool, 1)
		p.Send(tui.ConfirmRequest{Prompt: prompt, Reply: reply})
		return <-reply
	})

	opts := []tea.ProgramOption{tea.WithOutput(os.Stderr)}
	if ttyErr == nil {
		opts = append(opts, tea.WithInput(tty))
	}
	p = tea.NewProgram(tui.New(app, confirm), opts...)

	finalModel, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}

	final := finalModel.(tui.Model)
	if err := final.Err(); err != nil {
		exitWithError(err)
	}
	emitCompacted(final.Summary())
}

func pickConfirmer(cfg *cli.Config, tuiFn func(string) bool) applier.Confirmer {
	if cfg.Yes {
		return applier.AutoApprove{}
	}
	return applier.ConfirmFunc(tuiFn)
}

// runPlain executes without the TUI: prompts on the tty when available,
// summary as plain lines on stderr.
func runPlain(app *bax.App, cfg *cli.Config, tty *os.File) {
	var confirm applier.Confirmer
	switch {
	case cfg.Yes:
		confirm = applier.AutoApprove{}
	case tty != nil:
		confirm = &applier.ConsoleConfirmer{In: tty, Out: os.Stderr}
	default:
		// No terminal to ask on; destructive blocks are declined.
		confirm = applier.ConfirmFunc(func(string) bool { return false })
	}

	summary, err := app.Execute(confirm)
	if err != nil {
		exitWithError(err)
	}
	printPlainSummary(summary)
	emitCompacted(summary)
}

func printPlainSummary(s model.Summary) {
	if s.Message != "" {
		fmt.Fprintln(os.Stderr, s.Message)
	}
	section := func(title string, paths []string) {
		if len(paths) == 0 {
			return
		}
		fmt.Fprintf(os.Stderr, "%s\n", title)
		for _, p := range paths {
			fmt.Fprintf(os.Stderr, "  %s\n", p)
		}
	}
	section("Created:", s.Created)
	section("Modified:", s.Modified)
	section("Deleted:", s.Deleted)
	section("Skipped:", s.Skipped)
	section("Failed:", s.Failed)
}

// emitCompacted prints the compacted response to stdout so the caller can
// store it back into the conversation.
func emitCompacted(s model.Summary) {
	if s.Compacted == "" {
		return
	}
	fmt.Print(s.Compacted)
	if s.Compacted[len(s.Compacted)-1] != '\n' {
		fmt.Println()
	}
}

func exitWithError(err error) {
	var detailed *bax.DetailedError
	if errors.As(err, &detailed) {
		fmt.Fprintf(os.Stderr, "Error: %v\n%s", detailed.Err, detailed.Stack)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
