/******************************************************************************\
* The Luma Language                                                            *
*                                                                              *
* Copyright 2026 Leandro Motta Barros                                          *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package ast

import (
	"fmt"
	"strings"
)

// Dump traverses the AST rooted at root and returns an S-expression-like
// textual representation of it, meant for debugging the frontend.
func Dump(root Node) string {
	p := &printer{}
	root.Walk(p)
	return p.out.String()
}

// printer is a Visitor that pretty-prints an AST.
type printer struct {
	out    strings.Builder
	indent int
}

func (p *printer) Enter(node Node) {
	p.out.WriteString(strings.Repeat("    ", p.indent))

	switch n := node.(type) {
	case *NumberLiteral:
		fmt.Fprintf(&p.out, "(number %v)\n", n.Value)
	case *StringLiteral:
		fmt.Fprintf(&p.out, "(string %q)\n", n.Value)
	case *BoolLiteral:
		fmt.Fprintf(&p.out, "(bool %v)\n", n.Value)
	case *NilLiteral:
		p.out.WriteString("(nil)\n")
	case *VarRef:
		fmt.Fprintf(&p.out, "(var-ref %v)\n", n.Name)
	case *Unary:
		fmt.Fprintf(&p.out, "(unary %v\n", n.Operator)
	case *Binary:
		fmt.Fprintf(&p.out, "(binary %v\n", n.Operator)
	case *Logical:
		fmt.Fprintf(&p.out, "(logical %v\n", n.Operator)
	case *Assignment:
		fmt.Fprintf(&p.out, "(assign %v\n", n.VarName)
	case *Print:
		p.out.WriteString("(print\n")
	case *IfStmt:
		p.out.WriteString("(if\n")
	case *WhileStmt:
		p.out.WriteString("(while\n")
	case *Block:
		p.out.WriteString("(block\n")
	case *ExprStmt:
		p.out.WriteString("(expr-stmt\n")
	case *FunctionDecl:
		fmt.Fprintf(&p.out, "(function %v (%v)\n", n.Name, strings.Join(n.Parameters, " "))
	case *Call:
		fmt.Fprintf(&p.out, "(call %v\n", n.FunctionName)
	case *ReturnStmt:
		p.out.WriteString("(return\n")
	case *VarDecl:
		fmt.Fprintf(&p.out, "(local %v\n", n.Name)
	default:
		fmt.Fprintf(&p.out, "(unknown %T\n", node)
	}

	p.indent++
}

func (p *printer) Event(node Node, event int) {
}

func (p *printer) Leave(node Node) {
	p.indent--

	switch node.(type) {
	case *NumberLiteral, *StringLiteral, *BoolLiteral, *NilLiteral, *VarRef:
		// Already closed on Enter.
	default:
		p.out.WriteString(strings.Repeat("    ", p.indent))
		p.out.WriteString(")\n")
	}
}
