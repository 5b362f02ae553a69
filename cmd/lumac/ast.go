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

	"gitlab.com/stackedboxes/lumalang/pkg/ast"
	"gitlab.com/stackedboxes/lumalang/pkg/frontend"
)

// astCmd implements the "ast" subcommand, which parses a Luma source file and
// dumps its syntax tree.
type astCmd struct{}

func (*astCmd) Name() string     { return "ast" }
func (*astCmd) Synopsis() string { return "Parse a Luma source file and print its AST" }
func (*astCmd) Usage() string {
	return `ast <file>:
  Parse the Luma program in <file> and print its Abstract Syntax Tree.
`
}

func (*astCmd) SetFlags(f *flag.FlagSet) {}

func (c *astCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	fmt.Print(ast.Dump(root))
	return subcommands.ExitSuccess
}
