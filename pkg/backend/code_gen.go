/******************************************************************************\
* The Luma Language                                                            *
*                                                                              *
* Copyright 2026 Leandro Motta Barros                                          *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package backend

import (
	"gitlab.com/stackedboxes/lumalang/pkg/ast"
	"gitlab.com/stackedboxes/lumalang/pkg/bytecode"
)

//
// The ast.Visitor interface
//

func (cg *codeGenerator) Enter(node ast.Node) {
	cg.pushIntoNodeStack(node)

	switch n := node.(type) {
	case *ast.Call:
		// The callee is resolved by name through the globals, and must be on
		// the stack before the arguments.
		cg.emitBytes(bytecode.OpGetGlobal, cg.stringConstant(n.FunctionName))

	case *ast.WhileStmt:
		cg.pushLoop(len(cg.currentChunk().Code))

	case *ast.FunctionDecl:
		chunk := &bytecode.Chunk{
			Arity:  len(n.Parameters),
			Locals: make([]string, 0, len(n.Parameters)+1),
		}

		// Slot 0 holds the callee; the arguments land on slots 1 to arity.
		chunk.Locals = append(chunk.Locals, n.Name)
		chunk.Locals = append(chunk.Locals, n.Parameters...)

		cg.pushChunk(chunk)
	}
}

func (cg *codeGenerator) Event(node ast.Node, event int) {
	switch event {
	case ast.EventAfterIfCondition, ast.EventAfterWhileCondition:
		// JUMP_IF_FALSE leaves the condition on the stack, so the truthy path
		// starts by popping it.
		site := cg.emitJump(bytecode.OpJumpIfFalse)
		cg.pushJump(site)
		cg.emitBytes(bytecode.OpPop)

	case ast.EventAfterThenBlock:
		exitJump := cg.emitJump(bytecode.OpJump)
		cg.patchToHere(cg.popJump())
		cg.emitBytes(bytecode.OpPop)
		cg.pushJump(exitJump)

	case ast.EventBeforeElse, ast.EventAfterElse:
		break

	case ast.EventAfterLogicalBinaryOp:
		n, ok := node.(*ast.Logical)
		if !ok {
			cg.ice("logical operator event on a %T node", node)
		}

		switch n.Operator {
		case "and":
			// On a falsey left operand, skip the right operand entirely,
			// leaving the left operand as the result.
			site := cg.emitJump(bytecode.OpJumpIfFalse)
			cg.pushJump(site)
			cg.emitBytes(bytecode.OpPop)

		case "or":
			// On a truthy left operand, skip the right operand entirely,
			// leaving the left operand as the result.
			elseJump := cg.emitJump(bytecode.OpJumpIfFalse)
			endJump := cg.emitJump(bytecode.OpJump)
			cg.patchToHere(elseJump)
			cg.emitBytes(bytecode.OpPop)
			cg.pushJump(endJump)

		default:
			cg.ice("unknown logical operator: %v", n.Operator)
		}

	default:
		cg.ice("unknown event: %v", event)
	}
}

func (cg *codeGenerator) Leave(node ast.Node) { // nolint:funlen,gocyclo
	switch n := node.(type) {
	case *ast.NumberLiteral:
		cg.emitConstant(bytecode.NewValueNumber(n.Value))

	case *ast.StringLiteral:
		cg.emitBytes(bytecode.OpConstant, cg.stringConstant(n.Value))

	case *ast.BoolLiteral:
		if n.Value {
			cg.emitBytes(bytecode.OpTrue)
		} else {
			cg.emitBytes(bytecode.OpFalse)
		}

	case *ast.NilLiteral:
		cg.emitBytes(bytecode.OpNil)

	case *ast.VarRef:
		localSlot := cg.resolveLocal(n.Name)
		if localSlot < 0 {
			// It's a global.
			cg.emitBytes(bytecode.OpGetGlobal, cg.stringConstant(n.Name))
		} else {
			// It's a local.
			cg.emitBytes(bytecode.OpGetLocal, uint8(localSlot))
		}

	case *ast.Unary:
		switch n.Operator {
		case "-":
			cg.emitBytes(bytecode.OpNegate)
		case "not":
			cg.emitBytes(bytecode.OpNot)
		default:
			cg.ice("unknown unary operator: %v", n.Operator)
		}

	case *ast.Binary:
		switch n.Operator {
		case "==":
			cg.emitBytes(bytecode.OpEqual)
		case "~=":
			cg.emitBytes(bytecode.OpNotEqual)
		case ">":
			cg.emitBytes(bytecode.OpGreater)
		case ">=":
			cg.emitBytes(bytecode.OpGreaterEqual)
		case "<":
			cg.emitBytes(bytecode.OpLess)
		case "<=":
			cg.emitBytes(bytecode.OpLessEqual)
		case "+":
			cg.emitBytes(bytecode.OpAdd)
		case "-":
			cg.emitBytes(bytecode.OpSubtract)
		case "*":
			cg.emitBytes(bytecode.OpMultiply)
		case "/":
			cg.emitBytes(bytecode.OpDivide)
		case "..":
			cg.emitBytes(bytecode.OpConcat)
		default:
			cg.ice("unknown binary operator: %v", n.Operator)
		}

	case *ast.Logical:
		cg.patchToHere(cg.popJump())

	case *ast.Assignment:
		// Assignments always target globals. SET_GLOBAL leaves the value on
		// the stack, so at statement level we pop it right away.
		cg.emitBytes(bytecode.OpSetGlobal, cg.stringConstant(n.VarName))
		cg.emitBytes(bytecode.OpPop)

	case *ast.Print:
		cg.emitBytes(bytecode.OpPrint)

	case *ast.IfStmt:
		cg.patchToHere(cg.popJump())

	case *ast.WhileStmt:
		cg.emitLoop(cg.popLoop())
		cg.patchToHere(cg.popJump())
		cg.emitBytes(bytecode.OpPop)

	case *ast.Block:
		break

	case *ast.ExprStmt:
		cg.emitBytes(bytecode.OpPop)

	case *ast.FunctionDecl:
		// Close the function chunk with an implicit "return nil", then bind
		// the resulting Function value to the function's name as a global.
		cg.emitBytes(bytecode.OpNil, bytecode.OpReturn)
		chunk := cg.popChunk()

		function := &bytecode.Function{
			Chunk: chunk,
			Name:  n.Name,
		}
		cg.emitConstant(bytecode.NewValueFunction(function))
		cg.emitBytes(bytecode.OpSetGlobal, cg.stringConstant(n.Name))
		cg.emitBytes(bytecode.OpPop)

	case *ast.Call:
		cg.emitBytes(bytecode.OpCall, uint8(len(n.Arguments)))

	case *ast.ReturnStmt:
		cg.emitBytes(bytecode.OpReturn)

	case *ast.VarDecl:
		if n.Initializer == nil {
			cg.emitBytes(bytecode.OpNil)
		}

		// The initializer value is already sitting exactly on the new slot:
		// SET_LOCAL just formalizes it (and, since it leaves the value on the
		// stack, the slot stays live with no extra pop).
		slot := cg.declareLocal(n.Name)
		cg.emitBytes(bytecode.OpSetLocal, uint8(slot))

	default:
		cg.ice("unexpected node of type %T", node)
	}

	cg.popFromNodeStack()
}
