/******************************************************************************\
* The Luma Language                                                            *
*                                                                              *
* Copyright 2026 Leandro Motta Barros                                          *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/stackedboxes/lumalang/pkg/bytecode"
	"gitlab.com/stackedboxes/lumalang/pkg/frontend"
)

// generate parses source and generates code for it, failing the test on any
// error.
func generate(t *testing.T, source string) *bytecode.Chunk {
	root := frontend.Parse(source)
	require.NotNil(t, root)

	chunk, err := GenerateCode(root)
	require.NoError(t, err)
	return chunk
}

// allChunks returns chunk and every function chunk transitively reachable from
// its constant pool.
func allChunks(chunk *bytecode.Chunk) []*bytecode.Chunk {
	chunks := []*bytecode.Chunk{chunk}
	for _, constant := range chunk.Constants {
		if constant.IsFunction() {
			chunks = append(chunks, allChunks(constant.AsFunction().Chunk)...)
		}
	}
	return chunks
}

// Tests the code generated for a simple arithmetic expression: operands are
// emitted left to right, operators afterwards.
func TestCodeGenExpression(t *testing.T) {
	chunk := generate(t, "print(1 + 2 * 3)")

	assert.Equal(t, []uint8{
		bytecode.OpConstant, 0,
		bytecode.OpConstant, 1,
		bytecode.OpConstant, 2,
		bytecode.OpMultiply,
		bytecode.OpAdd,
		bytecode.OpPrint,
		bytecode.OpNil,
		bytecode.OpReturn,
	}, chunk.Code)

	require.Equal(t, 3, len(chunk.Constants))
	assert.Equal(t, 1.0, chunk.Constants[0].AsNumber())
	assert.Equal(t, 2.0, chunk.Constants[1].AsNumber())
	assert.Equal(t, 3.0, chunk.Constants[2].AsNumber())
}

// Tests the code generated for the short-circuiting "and" operator.
func TestCodeGenAnd(t *testing.T) {
	chunk := generate(t, "x = a and b")

	// Offsets:  0           2              5    6           8
	assert.Equal(t, []uint8{
		bytecode.OpGetGlobal, 0, // a
		bytecode.OpJumpIfFalse, 0, 3,
		bytecode.OpPop,
		bytecode.OpGetGlobal, 1, // b
		bytecode.OpSetGlobal, 2, // x
		bytecode.OpPop,
		bytecode.OpNil,
		bytecode.OpReturn,
	}, chunk.Code)
}

// Tests the code generated for the short-circuiting "or" operator.
func TestCodeGenOr(t *testing.T) {
	chunk := generate(t, "x = a or b")

	// Offsets:  0           2              5       8    9           11
	assert.Equal(t, []uint8{
		bytecode.OpGetGlobal, 0, // a
		bytecode.OpJumpIfFalse, 0, 3,
		bytecode.OpJump, 0, 3,
		bytecode.OpPop,
		bytecode.OpGetGlobal, 1, // b
		bytecode.OpSetGlobal, 2, // x
		bytecode.OpPop,
		bytecode.OpNil,
		bytecode.OpReturn,
	}, chunk.Code)
}

// Tests the code generated for an if statement with an else branch. The
// condition must be popped once on each path.
func TestCodeGenIfElse(t *testing.T) {
	chunk := generate(t, "if c then print(1) else print(2) end")

	assert.Equal(t, []uint8{
		bytecode.OpGetGlobal, 0, // c
		bytecode.OpJumpIfFalse, 0, 7, // -> 12
		bytecode.OpPop,
		bytecode.OpConstant, 1, // 1
		bytecode.OpPrint,
		bytecode.OpJump, 0, 4, // -> 16
		bytecode.OpPop,
		bytecode.OpConstant, 2, // 2
		bytecode.OpPrint,
		bytecode.OpNil,
		bytecode.OpReturn,
	}, chunk.Code)
}

// Tests the code generated for an if statement without an else branch.
func TestCodeGenIf(t *testing.T) {
	chunk := generate(t, "if c then print(1) end")

	assert.Equal(t, []uint8{
		bytecode.OpGetGlobal, 0, // c
		bytecode.OpJumpIfFalse, 0, 7, // -> 12
		bytecode.OpPop,
		bytecode.OpConstant, 1, // 1
		bytecode.OpPrint,
		bytecode.OpJump, 0, 1, // -> 13
		bytecode.OpPop,
		bytecode.OpNil,
		bytecode.OpReturn,
	}, chunk.Code)
}

// Tests the code generated for a while statement, backward jump included.
func TestCodeGenWhile(t *testing.T) {
	chunk := generate(t, "while x < 3 do x = x + 1 end")

	assert.Equal(t, []uint8{
		bytecode.OpGetGlobal, 0, // x
		bytecode.OpConstant, 1, // 3
		bytecode.OpLess,
		bytecode.OpJumpIfFalse, 0, 12, // -> 20
		bytecode.OpPop,
		bytecode.OpGetGlobal, 0, // x
		bytecode.OpConstant, 2, // 1
		bytecode.OpAdd,
		bytecode.OpSetGlobal, 0, // x
		bytecode.OpPop,
		bytecode.OpJump, 0xFF, 0xEC, // -20, -> 0
		bytecode.OpPop,
		bytecode.OpNil,
		bytecode.OpReturn,
	}, chunk.Code)

	// Double-check the backward displacement decodes to the loop start.
	offset := bytecode.DecodeJumpOffset(chunk.Code[18], chunk.Code[19])
	assert.Equal(t, 0, 20+offset)
}

// Tests the code generated for a function declaration and a call to it.
func TestCodeGenFunction(t *testing.T) {
	chunk := generate(t, `
function add(a, b)
	return a + b
end
print(add(2, 3))
`)

	assert.Equal(t, []uint8{
		bytecode.OpConstant, 0, // <function add>
		bytecode.OpSetGlobal, 1, // add
		bytecode.OpPop,
		bytecode.OpGetGlobal, 1, // add
		bytecode.OpConstant, 2, // 2
		bytecode.OpConstant, 3, // 3
		bytecode.OpCall, 2,
		bytecode.OpPrint,
		bytecode.OpNil,
		bytecode.OpReturn,
	}, chunk.Code)

	require.True(t, chunk.Constants[0].IsFunction())
	function := chunk.Constants[0].AsFunction()
	assert.Equal(t, "add", function.Name)
	assert.Equal(t, 2, function.Chunk.Arity)
	assert.Equal(t, []string{"add", "a", "b"}, function.Chunk.Locals)

	// The parameters resolve to local slots 1 and 2; slot 0 is the callee.
	assert.Equal(t, []uint8{
		bytecode.OpGetLocal, 1, // a
		bytecode.OpGetLocal, 2, // b
		bytecode.OpAdd,
		bytecode.OpReturn,
		bytecode.OpNil,
		bytecode.OpReturn,
	}, function.Chunk.Code)
}

// Tests the code generated for local variable declarations and reads.
func TestCodeGenLocals(t *testing.T) {
	chunk := generate(t, "local x = 10\nprint(x)")

	assert.Equal(t, []string{"script", "x"}, chunk.Locals)
	assert.Equal(t, []uint8{
		bytecode.OpConstant, 0, // 10
		bytecode.OpSetLocal, 1,
		bytecode.OpGetLocal, 1,
		bytecode.OpPrint,
		bytecode.OpNil,
		bytecode.OpReturn,
	}, chunk.Code)

	// A declaration without initializer starts as nil.
	chunk = generate(t, "local x\nprint(x)")
	assert.Equal(t, []uint8{
		bytecode.OpNil,
		bytecode.OpSetLocal, 1,
		bytecode.OpGetLocal, 1,
		bytecode.OpPrint,
		bytecode.OpNil,
		bytecode.OpReturn,
	}, chunk.Code)
}

// Tests that reads of names that are not locals fall back to globals, even
// inside functions.
func TestCodeGenGlobalFallback(t *testing.T) {
	chunk := generate(t, `
function f(a)
	return a + g
end
`)

	function := chunk.Constants[0].AsFunction()
	assert.Equal(t, []uint8{
		bytecode.OpGetLocal, 1, // a
		bytecode.OpGetGlobal, 0, // g
		bytecode.OpAdd,
		bytecode.OpReturn,
		bytecode.OpNil,
		bytecode.OpReturn,
	}, function.Chunk.Code)
}

// Tests that constants are deduplicated within a chunk.
func TestCodeGenConstantDedup(t *testing.T) {
	chunk := generate(t, `print(1)
print(1)
print("a")
print("a")
x = 1
`)

	// One entry for 1, one for "a", one for "x". The repeated uses share them.
	require.Equal(t, 3, len(chunk.Constants))
	assert.Equal(t, 1.0, chunk.Constants[0].AsNumber())
	assert.Equal(t, "a", chunk.Constants[1].AsString())
	assert.Equal(t, "x", chunk.Constants[2].AsString())
}

// instructionOperandSize returns how many operand bytes follow a given opcode.
func instructionOperandSize(op uint8) int {
	switch op {
	case bytecode.OpConstant, bytecode.OpGetGlobal, bytecode.OpSetGlobal,
		bytecode.OpGetLocal, bytecode.OpSetLocal, bytecode.OpCall:
		return 1
	case bytecode.OpJump, bytecode.OpJumpIfFalse:
		return 2
	default:
		return 0
	}
}

// checkChunkInvariants decodes every instruction of a chunk and checks that
// all operands are in bounds: constant indices into the pool, local slots into
// the locals table, and jump displacements landing on instruction boundaries
// inside the code.
func checkChunkInvariants(t *testing.T, chunk *bytecode.Chunk) {
	require.Equal(t, len(chunk.Code), len(chunk.Lines))

	// First pass: collect the instruction boundaries.
	boundaries := map[int]bool{}
	for offset := 0; offset < len(chunk.Code); {
		boundaries[offset] = true
		size := 1 + instructionOperandSize(chunk.Code[offset])
		require.LessOrEqual(t, offset+size, len(chunk.Code))
		offset += size
	}
	boundaries[len(chunk.Code)] = true

	// Second pass: check the operands.
	for offset := 0; offset < len(chunk.Code); {
		op := chunk.Code[offset]

		switch op {
		case bytecode.OpConstant, bytecode.OpGetGlobal, bytecode.OpSetGlobal:
			index := int(chunk.Code[offset+1])
			assert.Less(t, index, len(chunk.Constants))

		case bytecode.OpGetLocal, bytecode.OpSetLocal:
			slot := int(chunk.Code[offset+1])
			assert.Less(t, slot, len(chunk.Locals))

		case bytecode.OpJump, bytecode.OpJumpIfFalse:
			displacement := bytecode.DecodeJumpOffset(
				chunk.Code[offset+1], chunk.Code[offset+2])
			target := offset + 3 + displacement
			assert.GreaterOrEqual(t, target, 0)
			assert.LessOrEqual(t, target, len(chunk.Code))
			assert.True(t, boundaries[target],
				"jump at %v lands mid-instruction at %v", offset, target)
		}

		offset += 1 + instructionOperandSize(op)
	}
}

// Tests the bytecode-level invariants on a program mixing function
// declarations, locals, loops, ifs, short-circuit operators and calls.
func TestCodeGenInvariants(t *testing.T) {
	source := `
function fib(n)
	if n < 2 then
		return n
	end
	return fib(n - 1) + fib(n - 2)
end

function describe(n)
	local prefix = "fib = "
	return prefix .. "?"
end

i = 0
while i < 10 do
	if i > 2 and i < 8 or i == 0 then
		print(fib(i))
	else
		print(describe(i))
	end
	i = i + 1
end
print(not (1 > 2) == true)
print(-i)
print(nil)
print(true and false)
`

	chunk := generate(t, source)
	for _, c := range allChunks(chunk) {
		checkChunkInvariants(t, c)

		// Every chunk ends with a return.
		require.NotEmpty(t, c.Code)
		assert.Equal(t, bytecode.OpReturn, c.Code[len(c.Code)-1])
	}
}

// Tests code generation errors.
func TestCodeGenErrors(t *testing.T) {
	root := frontend.Parse("local x = 1\nlocal x = 2")
	require.NotNil(t, root)
	chunk, err := GenerateCode(root)
	assert.Nil(t, chunk)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already defined")
}
