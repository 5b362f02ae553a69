/******************************************************************************\
* The Luma Language                                                            *
*                                                                              *
* Copyright 2026 Leandro Motta Barros                                          *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package frontend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/stackedboxes/lumalang/pkg/ast"
)

// parseStatements parses source and returns the statements of the top-level
// block, failing the test if parsing fails.
func parseStatements(t *testing.T, source string) []ast.Node {
	root := Parse(source)
	require.NotNil(t, root)

	block, ok := root.(*ast.Block)
	require.True(t, ok)
	return block.Statements
}

// Tests the parsing of expressions, with focus on operator precedence and
// associativity.
func TestParserExpressions(t *testing.T) { // nolint:funlen
	// 1 + 2 * 3 must parse as 1 + (2 * 3).
	stmts := parseStatements(t, "print(1 + 2 * 3)")
	require.Len(t, stmts, 1)

	print, ok := stmts[0].(*ast.Print)
	require.True(t, ok)

	sum, ok := print.Expression.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "+", sum.Operator)

	one, ok := sum.LHS.(*ast.NumberLiteral)
	require.True(t, ok)
	assert.Equal(t, 1.0, one.Value)

	product, ok := sum.RHS.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "*", product.Operator)

	// 1 - 2 - 3 must parse as (1 - 2) - 3.
	stmts = parseStatements(t, "x = 1 - 2 - 3")
	require.Len(t, stmts, 1)

	assignment, ok := stmts[0].(*ast.Assignment)
	require.True(t, ok)
	assert.Equal(t, "x", assignment.VarName)

	outer, ok := assignment.Value.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "-", outer.Operator)

	inner, ok := outer.LHS.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "-", inner.Operator)

	// Comparisons bind tighter than "and", arithmetic tighter than
	// comparisons: a < 2 and b + 1 == 7 must parse as
	// (a < 2) and ((b + 1) == 7).
	stmts = parseStatements(t, "x = a < 2 and b + 1 == 7")
	require.Len(t, stmts, 1)

	assignment = stmts[0].(*ast.Assignment)
	logical, ok := assignment.Value.(*ast.Logical)
	require.True(t, ok)
	assert.Equal(t, "and", logical.Operator)

	less, ok := logical.LHS.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "<", less.Operator)

	equal, ok := logical.RHS.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "==", equal.Operator)

	_, ok = equal.LHS.(*ast.Binary)
	assert.True(t, ok)

	// "or" binds looser than "and".
	stmts = parseStatements(t, "x = a or b and c")
	assignment = stmts[0].(*ast.Assignment)
	logical = assignment.Value.(*ast.Logical)
	assert.Equal(t, "or", logical.Operator)
	rhs, ok := logical.RHS.(*ast.Logical)
	require.True(t, ok)
	assert.Equal(t, "and", rhs.Operator)

	// Concatenation binds looser than arithmetic.
	stmts = parseStatements(t, `x = "n = " .. 1 + 2`)
	assignment = stmts[0].(*ast.Assignment)
	concat, ok := assignment.Value.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "..", concat.Operator)
	_, ok = concat.RHS.(*ast.Binary)
	assert.True(t, ok)

	// Unary operators.
	stmts = parseStatements(t, "x = not -a")
	assignment = stmts[0].(*ast.Assignment)
	not, ok := assignment.Value.(*ast.Unary)
	require.True(t, ok)
	assert.Equal(t, "not", not.Operator)
	neg, ok := not.Operand.(*ast.Unary)
	require.True(t, ok)
	assert.Equal(t, "-", neg.Operator)

	// Grouping overrides precedence.
	stmts = parseStatements(t, "x = (1 + 2) * 3")
	assignment = stmts[0].(*ast.Assignment)
	product = assignment.Value.(*ast.Binary)
	assert.Equal(t, "*", product.Operator)
	_, ok = product.LHS.(*ast.Binary)
	assert.True(t, ok)
}

// Tests the parsing of statements.
func TestParserStatements(t *testing.T) { // nolint:funlen
	// Local declarations, with and without initializer.
	stmts := parseStatements(t, "local x = 10\nlocal y")
	require.Len(t, stmts, 2)

	decl, ok := stmts[0].(*ast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, "x", decl.Name)
	assert.NotNil(t, decl.Initializer)

	decl, ok = stmts[1].(*ast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, "y", decl.Name)
	assert.Nil(t, decl.Initializer)

	// If statement with an else branch.
	stmts = parseStatements(t, `if 1 < 2 then print("y") else print("n") end`)
	require.Len(t, stmts, 1)

	ifStmt, ok := stmts[0].(*ast.IfStmt)
	require.True(t, ok)
	assert.NotNil(t, ifStmt.Condition)
	require.NotNil(t, ifStmt.Then)
	require.NotNil(t, ifStmt.Else)

	thenBlock := ifStmt.Then.(*ast.Block)
	require.Len(t, thenBlock.Statements, 1)
	_, ok = thenBlock.Statements[0].(*ast.Print)
	assert.True(t, ok)

	// If statement without an else branch.
	stmts = parseStatements(t, "if x then print(x) end")
	ifStmt = stmts[0].(*ast.IfStmt)
	assert.Nil(t, ifStmt.Else)

	// While statement.
	stmts = parseStatements(t, "while x < 3 do x = x + 1 end")
	require.Len(t, stmts, 1)

	whileStmt, ok := stmts[0].(*ast.WhileStmt)
	require.True(t, ok)
	body := whileStmt.Body.(*ast.Block)
	require.Len(t, body.Statements, 1)
	_, ok = body.Statements[0].(*ast.Assignment)
	assert.True(t, ok)

	// Function declaration and call.
	stmts = parseStatements(t, "function add(a, b) return a + b end\nprint(add(2, 3))")
	require.Len(t, stmts, 2)

	function, ok := stmts[0].(*ast.FunctionDecl)
	require.True(t, ok)
	assert.Equal(t, "add", function.Name)
	assert.Equal(t, []string{"a", "b"}, function.Parameters)
	require.Len(t, function.Body.Statements, 1)

	ret, ok := function.Body.Statements[0].(*ast.ReturnStmt)
	require.True(t, ok)
	_, ok = ret.Value.(*ast.Binary)
	assert.True(t, ok)

	print := stmts[1].(*ast.Print)
	call, ok := print.Expression.(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, "add", call.FunctionName)
	assert.Len(t, call.Arguments, 2)

	// A call with no arguments, used as a statement.
	stmts = parseStatements(t, "tick()")
	require.Len(t, stmts, 1)

	exprStmt, ok := stmts[0].(*ast.ExprStmt)
	require.True(t, ok)
	call = exprStmt.Expression.(*ast.Call)
	assert.Equal(t, "tick", call.FunctionName)
	assert.Len(t, call.Arguments, 0)
}

// Tests that node line numbers survive parsing.
func TestParserLines(t *testing.T) {
	stmts := parseStatements(t, "x = 1\n\nprint(x)\nwhile true do\nend")
	require.Len(t, stmts, 3)
	assert.Equal(t, 1, stmts[0].Line())
	assert.Equal(t, 3, stmts[1].Line())
	assert.Equal(t, 4, stmts[2].Line())
}

// Tests that syntax errors make Parse return nil.
func TestParserErrors(t *testing.T) {
	assert.Nil(t, Parse("print(1"))
	assert.Nil(t, Parse("1 = 2"))
	assert.Nil(t, Parse("print 1"))
	assert.Nil(t, Parse("if x print(x) end"))
	assert.Nil(t, Parse("while x print(x) end"))
	assert.Nil(t, Parse("function () end"))
	assert.Nil(t, Parse("local = 3"))
	assert.Nil(t, Parse("x = "))
	assert.Nil(t, Parse("x = (1 + )"))
	assert.Nil(t, Parse("end"))

	// Errors after the first one are swallowed, but still no tree comes out.
	assert.Nil(t, Parse("x = \ny = \nz = "))
}
