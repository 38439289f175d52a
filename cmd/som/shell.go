package main

import (
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"

	"github.com/chazu/som/compiler"
	"github.com/chazu/som/vm"
)

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  "  >>",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "  Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// runShell reads statements until quit or end of input and answers the
// process exit code.
func runShell(u *vm.Universe) int {
	initDisplay()
	pterm.Info.Println("SOM Shell. Type 'quit' to exit.")

	rl, err := readline.New("som> ")
	if err != nil {
		pterm.Error.Println(err.Error())
		return 3
	}
	defer rl.Close()

	shell := vm.NewShell(u)
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		if line == "quit" {
			break
		}

		_, err = shell.Eval(line)
		if code, ok := vm.ExitCode(err); ok {
			return code
		}
		if err != nil {
			pterm.Error.Println(compiler.Describe(err))
		}
	}
	pterm.Info.Println("Good bye!")
	return 0
}
