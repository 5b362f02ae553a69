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

	"gitlab.com/stackedboxes/lumalang/pkg/vm"
)

// runCmd implements the "run" subcommand, which executes a Luma source file.
type runCmd struct {
	trace bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute a Luma source file" }
func (*runCmd) Usage() string {
	return `run <file>:
  Execute the Luma program in <file>.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.trace, "trace", false, "Disassemble each instruction as it executes.")
}

func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitStatus(exitCodeUsage)
	}

	return subcommands.ExitStatus(runFileTracing(f.Arg(0), c.trace))
}

// runFile interprets the Luma program stored in the file at path and returns
// the process exit code to use.
func runFile(path string) int {
	return runFileTracing(path, false)
}

// runFileTracing is like runFile, but additionally allows enabling the VM
// execution tracing.
func runFileTracing(path string, trace bool) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %v: %v\n", path, err)
		return exitCodeIOError
	}

	theVM := vm.New(os.Stdout, os.Stderr)
	theVM.DebugTraceExecution = trace

	switch theVM.Interpret(string(source)) {
	case vm.InterpretCompileError:
		return exitCodeCompilationError
	case vm.InterpretRuntimeError:
		return exitCodeRuntimeError
	default:
		return exitCodeSuccess
	}
}
