/******************************************************************************\
* The Luma Language                                                            *
*                                                                              *
* Copyright 2026 Leandro Motta Barros                                          *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package frontend

import (
	"gitlab.com/stackedboxes/lumalang/pkg/ast"
)

// Parse parses a given Luma source code and returns its AST (Abstract Syntax
// Tree). Returns nil if the source contains syntax errors; the errors
// themselves are reported to the standard error stream as they are found.
func Parse(source string) ast.Node {
	p := newParser(source)
	return p.parse()
}
