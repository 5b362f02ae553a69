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
	"os"

	"github.com/google/subcommands"
)

// Exit codes, following the BSD sysexits convention.
const (
	exitCodeSuccess          = 0
	exitCodeUsage            = 64
	exitCodeCompilationError = 65
	exitCodeRuntimeError     = 70
	exitCodeIOError          = 74
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&runCmd{}, "")
	subcommands.Register(&replCmd{}, "")
	subcommands.Register(&disasmCmd{}, "")
	subcommands.Register(&astCmd{}, "")

	flag.Parse()

	// As a convenience, "lumac file.luma" works the same as
	// "lumac run file.luma".
	if flag.NArg() == 1 && !isSubcommandName(flag.Arg(0)) {
		os.Exit(runFile(flag.Arg(0)))
	}

	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}

// isSubcommandName checks if name is the name of one of the registered
// subcommands.
func isSubcommandName(name string) bool {
	switch name {
	case "help", "flags", "commands", "run", "repl", "disasm", "ast":
		return true
	}
	return false
}
