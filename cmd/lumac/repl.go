/******************************************************************************\
* The Luma Language                                                            *
*                                                                              *
* Copyright 2026 Leandro Motta Barros                                          *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"
	"github.com/mattn/go-isatty"

	"gitlab.com/stackedboxes/lumalang/pkg/vm"
)

// replCmd implements the "repl" subcommand, an interactive Luma session.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive Luma session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive Luma session. Each line is interpreted as it is
  entered; globals persist between lines. Type "exit" (or Ctrl+D) to leave.
`
}

func (*replCmd) SetFlags(f *flag.FlagSet) {}

func (*replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing the terminal: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	if isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Println("Welcome to Luma!")
	}

	theVM := vm.New(os.Stdout, os.Stderr)

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			return subcommands.ExitFailure
		}

		if line == "exit" {
			return subcommands.ExitSuccess
		}

		// Errors were already reported to stderr; just keep the session going.
		theVM.Interpret(line)
	}
}
