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
	"os"

	"github.com/google/subcommands"

	"gitlab.com/stackedboxes/lumalang/pkg/backend"
	"gitlab.com/stackedboxes/lumalang/pkg/bytecode"
	"gitlab.com/stackedboxes/lumalang/pkg/frontend"
)

// disasmCmd implements the "disasm" subcommand, which compiles a Luma source
// file and dumps the disassembly of the generated bytecode.
type disasmCmd struct{}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "Compile a Luma source file and disassemble it" }
func (*disasmCmd) Usage() string {
	return `disasm <file>:
  Compile the Luma program in <file> and print the disassembly of the
  top-level chunk and of every function declared in it.
`
}

func (*disasmCmd) SetFlags(f *flag.FlagSet) {}

func (c *disasmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitStatus(exitCodeUsage)
	}

	source, err := os.ReadFile(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %v: %v\n", f.Arg(0), err)
		return subcommands.ExitStatus(exitCodeIOError)
	}

	root := frontend.Parse(string(source))
	if root == nil {
		return subcommands.ExitStatus(exitCodeCompilationError)
	}

	chunk, err := backend.GenerateCode(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitStatus(exitCodeCompilationError)
	}

	disassembleChunk(chunk, "script")
	return subcommands.ExitSuccess
}

// disassembleChunk prints the disassembly of a chunk, then of every function
// chunk reachable from its constant pool.
func disassembleChunk(chunk *bytecode.Chunk, name string) {
	fmt.Print(chunk.Disassemble(name))

	for _, constant := range chunk.Constants {
		if constant.IsFunction() {
			function := constant.AsFunction()
			fmt.Println()
			disassembleChunk(function.Chunk, function.Name)
		}
	}
}
