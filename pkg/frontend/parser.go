/******************************************************************************\
* The Luma Language                                                            *
*                                                                              *
* Copyright 2026 Leandro Motta Barros                                          *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package frontend

import (
	"fmt"
	"os"
	"strconv"

	"gitlab.com/stackedboxes/lumalang/pkg/ast"
)

// maxArguments is the maximum number of arguments (and parameters) a function
// can have. The argument count must fit into the single operand byte of a CALL
// instruction.
const maxArguments = 255

// precedence is the precedence of expressions.
type precedence int

const (
	precNone       precedence = iota // Means: cannot be the "center" of an expression.
	precAssignment                   // =
	precOr                           // or
	precAnd                          // and
	precEquality                     // == ~=
	precComparison                   // < > <= >=
	precConcat                       // ..
	precTerm                         // + -
	precFactor                       // * /
	precUnary                        // not -
	precCall                         // ()
	precPrimary
)

// prefixParseFn is a function used to parse code for a certain kind of prefix
// expression.
type prefixParseFn = func(p *parser) ast.Node

// infixParseFn is a function used to parse code for a certain kind of infix
// expression. lhs is the left-hand side expression previously parsed.
type infixParseFn = func(p *parser, lhs ast.Node) ast.Node

// parseRule encodes one rule of our Pratt parser.
type parseRule struct {
	prefix     prefixParseFn // For expressions using the token as a prefix operator.
	infix      infixParseFn  // For expressions using the token as an infix operator.
	precedence precedence    // When the token is used as a binary operator.
}

// parser is a parser for the Luma language. It converts source code into an
// AST.
type parser struct {
	// currentToken is the current token we are parsing.
	currentToken *token

	// previousToken is the previous token we have parsed.
	previousToken *token

	// hadError indicates whether we found at least one syntax error.
	hadError bool

	// panicMode indicates whether we are in panic mode. This has nothing to do
	// with Go panics. Right after finding a syntax error it is hard to generate
	// good error messages because the parser is "out of sync" with the code, so
	// we enter panic mode (during which we don't report any errors).
	panicMode bool

	// The scanner from where we get our tokens.
	scanner *scanner
}

// newParser returns a new parser that will parse source.
func newParser(source string) *parser {
	return &parser{
		scanner: newScanner(source),
	}
}

// parse parses source and returns the root of the resulting AST. Returns nil
// in case of error.
func (p *parser) parse() ast.Node {
	p.advance()

	script := &ast.Block{
		BaseNode: ast.BaseNode{LineNumber: 1},
	}

	for !p.check(tokenKindEOF) {
		stmt := p.statement()
		if stmt != nil {
			script.Statements = append(script.Statements, stmt)
		}
		if p.panicMode {
			p.synchronize()
		}
	}

	if p.hadError {
		return nil
	}

	return script
}

// synchronize skips tokens until it finds something that looks like a
// statement boundary, so that one syntax error doesn't turn the rest of the
// source into a cascade of nonsensical errors. We don't leave panic mode: per
// our coarse error recovery, only the first error is ever reported.
func (p *parser) synchronize() {
	for p.currentToken.kind != tokenKindEOF {
		switch p.currentToken.kind {
		case tokenKindFunction, tokenKindIf, tokenKindWhile, tokenKindLocal,
			tokenKindPrint, tokenKindReturn:
			return
		}
		p.advance()
	}
}

//
// Statements
//

// statement parses a statement.
func (p *parser) statement() ast.Node {
	switch {
	case p.match(tokenKindPrint):
		return p.printStatement()
	case p.match(tokenKindIf):
		return p.ifStatement()
	case p.match(tokenKindWhile):
		return p.whileStatement()
	case p.match(tokenKindFunction):
		return p.functionDeclaration()
	case p.match(tokenKindReturn):
		return p.returnStatement()
	case p.match(tokenKindLocal):
		return p.localDeclaration()
	default:
		return p.expressionStatement()
	}
}

// printStatement parses a print statement. The "print" keyword is expected to
// have been just consumed.
func (p *parser) printStatement() ast.Node {
	line := p.previousToken.line
	p.consume(tokenKindLeftParen, "Expect '(' after 'print'.")
	expr := p.expression()
	p.consume(tokenKindRightParen, "Expect ')' after expression.")
	if expr == nil {
		return nil
	}

	return &ast.Print{
		BaseNode:   ast.BaseNode{LineNumber: line},
		Expression: expr,
	}
}

// ifStatement parses an if statement. The "if" keyword is expected to have
// been just consumed.
func (p *parser) ifStatement() ast.Node {
	line := p.previousToken.line
	condition := p.expression()
	p.consume(tokenKindThen, "Expect 'then' after if condition.")

	thenBlock := p.block(tokenKindElse, tokenKindEnd)

	var elseBlock ast.Node
	if p.match(tokenKindElse) {
		elseBlock = p.block(tokenKindEnd)
	}

	p.consume(tokenKindEnd, "Expect 'end' after if branches.")
	if condition == nil {
		return nil
	}

	return &ast.IfStmt{
		BaseNode:  ast.BaseNode{LineNumber: line},
		Condition: condition,
		Then:      thenBlock,
		Else:      elseBlock,
	}
}

// whileStatement parses a while statement. The "while" keyword is expected to
// have been just consumed.
func (p *parser) whileStatement() ast.Node {
	line := p.previousToken.line
	condition := p.expression()
	p.consume(tokenKindDo, "Expect 'do' after while condition.")

	body := p.block(tokenKindEnd)

	p.consume(tokenKindEnd, "Expect 'end' after while body.")
	if condition == nil {
		return nil
	}

	return &ast.WhileStmt{
		BaseNode:  ast.BaseNode{LineNumber: line},
		Condition: condition,
		Body:      body,
	}
}

// functionDeclaration parses a function declaration. The "function" keyword is
// expected to have been just consumed.
func (p *parser) functionDeclaration() ast.Node {
	line := p.previousToken.line
	p.consume(tokenKindIdentifier, "Expect function name.")
	name := p.previousToken.lexeme

	p.consume(tokenKindLeftParen, "Expect '(' after function name.")
	var parameters []string
	if !p.check(tokenKindRightParen) {
		for {
			p.consume(tokenKindIdentifier, "Expect parameter name.")
			if len(parameters) == maxArguments {
				p.error("Can't have more than 255 parameters.")
			}
			parameters = append(parameters, p.previousToken.lexeme)
			if !p.match(tokenKindComma) {
				break
			}
		}
	}
	p.consume(tokenKindRightParen, "Expect ')' after parameters.")

	body := p.block(tokenKindEnd)

	p.consume(tokenKindEnd, "Expect 'end' after function body.")

	return &ast.FunctionDecl{
		BaseNode:   ast.BaseNode{LineNumber: line},
		Name:       name,
		Parameters: parameters,
		Body:       body,
	}
}

// returnStatement parses a return statement. The "return" keyword is expected
// to have been just consumed.
func (p *parser) returnStatement() ast.Node {
	line := p.previousToken.line
	value := p.expression()
	if value == nil {
		return nil
	}

	return &ast.ReturnStmt{
		BaseNode: ast.BaseNode{LineNumber: line},
		Value:    value,
	}
}

// localDeclaration parses a local variable declaration. The "local" keyword is
// expected to have been just consumed.
func (p *parser) localDeclaration() ast.Node {
	line := p.previousToken.line
	p.consume(tokenKindIdentifier, "Expect variable name after 'local'.")
	name := p.previousToken.lexeme

	var initializer ast.Node
	if p.match(tokenKindEqual) {
		initializer = p.expression()
	}

	return &ast.VarDecl{
		BaseNode:    ast.BaseNode{LineNumber: line},
		Name:        name,
		Initializer: initializer,
	}
}

// expressionStatement parses either an assignment or an expression used as a
// statement. The two cannot be told apart before parsing the leading
// expression, so we parse it first and then look for an "=".
func (p *parser) expressionStatement() ast.Node {
	expr := p.expression()

	if p.match(tokenKindEqual) {
		line := p.previousToken.line
		varRef, ok := expr.(*ast.VarRef)
		if !ok {
			p.error("Invalid assignment target.")
		}

		value := p.expression()
		if !ok || value == nil {
			return nil
		}

		return &ast.Assignment{
			BaseNode: ast.BaseNode{LineNumber: line},
			VarName:  varRef.Name,
			Value:    value,
		}
	}

	if expr == nil {
		return nil
	}

	return &ast.ExprStmt{
		BaseNode:   ast.BaseNode{LineNumber: expr.Line()},
		Expression: expr,
	}
}

// block parses a sequence of statements that ends right before any of the
// given terminator tokens (or the end of the input). The terminator itself is
// not consumed.
func (p *parser) block(terminators ...tokenKind) *ast.Block {
	block := &ast.Block{
		BaseNode: ast.BaseNode{LineNumber: p.currentToken.line},
	}

	for !p.check(tokenKindEOF) && !p.checkAny(terminators...) {
		stmt := p.statement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		if p.panicMode {
			return block
		}
	}

	return block
}

//
// Expressions
//

// parsePrecedence parses expressions with a precedence level equal to or
// greater than prec.
func (p *parser) parsePrecedence(prec precedence) ast.Node {
	p.advance()
	prefixRule := rules[p.previousToken.kind].prefix
	if prefixRule == nil {
		p.error("Expect expression.")
		return nil
	}

	node := prefixRule(p)

	for prec <= rules[p.currentToken.kind].precedence {
		p.advance()
		infixRule := rules[p.previousToken.kind].infix
		node = infixRule(p, node)
	}

	return node
}

// expression parses an expression.
func (p *parser) expression() ast.Node {
	return p.parsePrecedence(precAssignment)
}

// numberLiteral parses a number literal. The number literal token is expected
// to have been just consumed.
func (p *parser) numberLiteral() ast.Node {
	value, err := strconv.ParseFloat(p.previousToken.lexeme, 64)
	if err != nil {
		panic("Parser got invalid number lexeme: " + p.previousToken.lexeme)
	}

	return &ast.NumberLiteral{
		BaseNode: ast.BaseNode{
			LineNumber:   p.previousToken.line,
			SourceLexeme: p.previousToken.lexeme,
		},
		Value: value,
	}
}

// stringLiteral parses a string literal. The string literal token is expected
// to have been just consumed.
func (p *parser) stringLiteral() ast.Node {
	value := p.previousToken.lexeme[1 : len(p.previousToken.lexeme)-1] // remove the quotes

	return &ast.StringLiteral{
		BaseNode: ast.BaseNode{
			LineNumber:   p.previousToken.line,
			SourceLexeme: p.previousToken.lexeme,
		},
		Value: value,
	}
}

// literal parses a "true", "false" or "nil" literal. The corresponding keyword
// is expected to have been just consumed.
func (p *parser) literal() ast.Node {
	base := ast.BaseNode{
		LineNumber:   p.previousToken.line,
		SourceLexeme: p.previousToken.lexeme,
	}

	switch p.previousToken.kind {
	case tokenKindTrue:
		return &ast.BoolLiteral{BaseNode: base, Value: true}
	case tokenKindFalse:
		return &ast.BoolLiteral{BaseNode: base, Value: false}
	case tokenKindNil:
		return &ast.NilLiteral{BaseNode: base}
	default:
		panic(fmt.Sprintf("Unexpected token kind on literal: %v", p.previousToken.kind))
	}
}

// variable parses a variable reference. The identifier token is expected to
// have been just consumed.
func (p *parser) variable() ast.Node {
	return &ast.VarRef{
		BaseNode: ast.BaseNode{
			LineNumber:   p.previousToken.line,
			SourceLexeme: p.previousToken.lexeme,
		},
		Name: p.previousToken.lexeme,
	}
}

// grouping parses a parenthesized expression. The left paren token is expected
// to have been just consumed.
func (p *parser) grouping() ast.Node {
	expr := p.expression()
	p.consume(tokenKindRightParen, "Expect ')' after expression.")
	return expr
}

// unary parses a unary expression. The operator token is expected to have been
// just consumed.
func (p *parser) unary() ast.Node {
	operatorLexeme := p.previousToken.lexeme
	line := p.previousToken.line

	// Parse the operand.
	operand := p.parsePrecedence(precUnary)
	if operand == nil {
		return nil
	}

	return &ast.Unary{
		BaseNode: ast.BaseNode{
			LineNumber:   line,
			SourceLexeme: operatorLexeme,
		},
		Operator: operatorLexeme,
		Operand:  operand,
	}
}

// binary parses a binary operator expression. The left operand and the
// operator token are expected to have been just consumed.
func (p *parser) binary(lhs ast.Node) ast.Node {
	// Remember the operator.
	operatorKind := p.previousToken.kind
	operatorLexeme := p.previousToken.lexeme
	line := p.previousToken.line

	// Parse the right operand.
	rule := rules[operatorKind]
	rhs := p.parsePrecedence(rule.precedence + 1)
	if lhs == nil || rhs == nil {
		return nil
	}

	return &ast.Binary{
		BaseNode: ast.BaseNode{
			LineNumber:   line,
			SourceLexeme: operatorLexeme,
		},
		Operator: operatorLexeme,
		LHS:      lhs,
		RHS:      rhs,
	}
}

// logical parses a logical ("and"/"or") operator expression. The left operand
// and the operator token are expected to have been just consumed.
func (p *parser) logical(lhs ast.Node) ast.Node {
	operatorKind := p.previousToken.kind
	operatorLexeme := p.previousToken.lexeme
	line := p.previousToken.line

	rule := rules[operatorKind]
	rhs := p.parsePrecedence(rule.precedence + 1)
	if lhs == nil || rhs == nil {
		return nil
	}

	return &ast.Logical{
		BaseNode: ast.BaseNode{
			LineNumber:   line,
			SourceLexeme: operatorLexeme,
		},
		Operator: operatorLexeme,
		LHS:      lhs,
		RHS:      rhs,
	}
}

// call parses a function call. The callee and the left paren token are
// expected to have been just consumed.
func (p *parser) call(lhs ast.Node) ast.Node {
	line := p.previousToken.line

	varRef, ok := lhs.(*ast.VarRef)
	if !ok {
		p.error("Can only call named functions.")
	}

	var arguments []ast.Node
	if !p.check(tokenKindRightParen) {
		for {
			arg := p.expression()
			if len(arguments) == maxArguments {
				p.error("Can't have more than 255 arguments.")
			}
			if arg != nil {
				arguments = append(arguments, arg)
			}
			if !p.match(tokenKindComma) {
				break
			}
		}
	}
	p.consume(tokenKindRightParen, "Expect ')' after arguments.")

	if !ok {
		return nil
	}

	return &ast.Call{
		BaseNode: ast.BaseNode{
			LineNumber:   line,
			SourceLexeme: varRef.Name,
		},
		FunctionName: varRef.Name,
		Arguments:    arguments,
	}
}

//
// Parser infrastructure
//

// advance advances the parser by one token. This will report errors for each
// error token found; callers will only see the non-error tokens.
func (p *parser) advance() {
	p.previousToken = p.currentToken

	for {
		p.currentToken = p.scanner.token()
		if p.currentToken.kind != tokenKindError {
			break
		}

		p.errorAtCurrent(p.currentToken.lexeme)
	}
}

// check checks if the current token is of a given kind. Doesn't consume
// anything.
func (p *parser) check(kind tokenKind) bool {
	return p.currentToken.kind == kind
}

// checkAny checks if the current token is of any of the given kinds. Doesn't
// consume anything.
func (p *parser) checkAny(kinds ...tokenKind) bool {
	for _, kind := range kinds {
		if p.currentToken.kind == kind {
			return true
		}
	}
	return false
}

// match checks if the current token is of a given kind. If it is, consumes it
// and returns true. Otherwise, leaves it there and returns false.
func (p *parser) match(kind tokenKind) bool {
	if !p.check(kind) {
		return false
	}
	p.advance()
	return true
}

// consume consumes the current token (and advances the parser), assuming it is
// of a given kind. If it is not of this kind, reports this as an error with a
// given error message.
func (p *parser) consume(kind tokenKind, message string) {
	if p.currentToken.kind == kind {
		p.advance()
		return
	}

	p.errorAtCurrent(message)
}

// errorAtCurrent reports an error at the current (p.currentToken) token.
func (p *parser) errorAtCurrent(message string) {
	p.errorAt(p.currentToken, message)
}

// error reports an error at the token we just consumed (p.previousToken).
func (p *parser) error(message string) {
	p.errorAt(p.previousToken, message)
}

// errorAt reports an error at a given token, with a given error message.
func (p *parser) errorAt(tok *token, message string) {
	if p.panicMode {
		return
	}

	p.panicMode = true

	fmt.Fprintf(os.Stderr, "[line %v] Error", tok.line)

	switch tok.kind {
	case tokenKindEOF:
		fmt.Fprintf(os.Stderr, " at end")
	case tokenKindError:
		// Nothing.
	default:
		fmt.Fprintf(os.Stderr, " at '%v'", tok.lexeme)
	}

	fmt.Fprintf(os.Stderr, ": %v\n", message)
	p.hadError = true
}

func init() {
	initRules()
}

// rules is the table of parsing rules for our Pratt parser.
var rules []parseRule

// initRules initializes the rules array.
//
// Using block comments to convince gofmt to keep things aligned is ugly as
// hell.
func initRules() {
	rules = make([]parseRule, numberOfTokenKinds)

	//                                        prefix                         infix                     precedence
	//                                       ----------------------------   -----------------------   --------------
	rules[tokenKindLeftParen] = /*     */ parseRule{(*parser).grouping /**/, (*parser).call /*    */, precCall}
	rules[tokenKindRightParen] = /*    */ parseRule{nil /*               */, nil /*              */, precNone}
	rules[tokenKindComma] = /*         */ parseRule{nil /*               */, nil /*              */, precNone}
	rules[tokenKindMinus] = /*         */ parseRule{(*parser).unary /*   */, (*parser).binary /* */, precTerm}
	rules[tokenKindPlus] = /*          */ parseRule{nil /*               */, (*parser).binary /* */, precTerm}
	rules[tokenKindSlash] = /*         */ parseRule{nil /*               */, (*parser).binary /* */, precFactor}
	rules[tokenKindStar] = /*          */ parseRule{nil /*               */, (*parser).binary /* */, precFactor}
	rules[tokenKindEqual] = /*         */ parseRule{nil /*               */, nil /*              */, precNone}
	rules[tokenKindEqualEqual] = /*    */ parseRule{nil /*               */, (*parser).binary /* */, precEquality}
	rules[tokenKindTildeEqual] = /*    */ parseRule{nil /*               */, (*parser).binary /* */, precEquality}
	rules[tokenKindGreater] = /*       */ parseRule{nil /*               */, (*parser).binary /* */, precComparison}
	rules[tokenKindGreaterEqual] = /*  */ parseRule{nil /*               */, (*parser).binary /* */, precComparison}
	rules[tokenKindLess] = /*          */ parseRule{nil /*               */, (*parser).binary /* */, precComparison}
	rules[tokenKindLessEqual] = /*     */ parseRule{nil /*               */, (*parser).binary /* */, precComparison}
	rules[tokenKindDotDot] = /*        */ parseRule{nil /*               */, (*parser).binary /* */, precConcat}
	rules[tokenKindIdentifier] = /*    */ parseRule{(*parser).variable /**/, nil /*              */, precNone}
	rules[tokenKindStringLiteral] = /* */ parseRule{(*parser).stringLiteral, nil /*              */, precNone}
	rules[tokenKindNumberLiteral] = /* */ parseRule{(*parser).numberLiteral, nil /*              */, precNone}
	rules[tokenKindAnd] = /*           */ parseRule{nil /*               */, (*parser).logical /**/, precAnd}
	rules[tokenKindDo] = /*            */ parseRule{nil /*               */, nil /*              */, precNone}
	rules[tokenKindElse] = /*          */ parseRule{nil /*               */, nil /*              */, precNone}
	rules[tokenKindEnd] = /*           */ parseRule{nil /*               */, nil /*              */, precNone}
	rules[tokenKindFalse] = /*         */ parseRule{(*parser).literal /* */, nil /*              */, precNone}
	rules[tokenKindFunction] = /*      */ parseRule{nil /*               */, nil /*              */, precNone}
	rules[tokenKindIf] = /*            */ parseRule{nil /*               */, nil /*              */, precNone}
	rules[tokenKindLocal] = /*         */ parseRule{nil /*               */, nil /*              */, precNone}
	rules[tokenKindNil] = /*           */ parseRule{(*parser).literal /* */, nil /*              */, precNone}
	rules[tokenKindNot] = /*           */ parseRule{(*parser).unary /*   */, nil /*              */, precNone}
	rules[tokenKindOr] = /*            */ parseRule{nil /*               */, (*parser).logical /**/, precOr}
	rules[tokenKindPrint] = /*         */ parseRule{nil /*               */, nil /*              */, precNone}
	rules[tokenKindReturn] = /*        */ parseRule{nil /*               */, nil /*              */, precNone}
	rules[tokenKindThen] = /*          */ parseRule{nil /*               */, nil /*              */, precNone}
	rules[tokenKindTrue] = /*          */ parseRule{(*parser).literal /* */, nil /*              */, precNone}
	rules[tokenKindWhile] = /*         */ parseRule{nil /*               */, nil /*              */, precNone}
	rules[tokenKindError] = /*         */ parseRule{nil /*               */, nil /*              */, precNone}
	rules[tokenKindEOF] = /*           */ parseRule{nil /*               */, nil /*              */, precNone}
}
