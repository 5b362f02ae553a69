/******************************************************************************\
* The Luma Language                                                            *
*                                                                              *
* Copyright 2026 Leandro Motta Barros                                          *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package backend

import (
	"fmt"
	"math"

	"gitlab.com/stackedboxes/lumalang/pkg/ast"
	"gitlab.com/stackedboxes/lumalang/pkg/bytecode"
)

// GenerateCode generates the bytecode for a given AST. On success, returns the
// top-level chunk; the chunks of the functions declared in the script are
// reachable from it through Function constants.
func GenerateCode(root ast.Node) (chunk *bytecode.Chunk, err error) {
	cg := &codeGenerator{
		nodeStack: make([]ast.Node, 0, 64),
		interner:  bytecode.NewStringInterner(),
	}

	scriptChunk := &bytecode.Chunk{
		Locals: []string{"script"},
	}
	cg.chunks = append(cg.chunks, scriptChunk)

	defer func() {
		if r := recover(); r != nil {
			chunk = nil
			if e, ok := r.(*codeGeneratorError); ok {
				err = e
				return
			}
			panic(fmt.Sprintf("Unexpected error type: %T", r))
		}
	}()

	root.Walk(cg)
	cg.emitBytes(bytecode.OpNil, bytecode.OpReturn)
	return scriptChunk, nil
}

// codeGeneratorError is a type used in panics to report an error in code
// generation.
type codeGeneratorError struct {
	msg string
}

func (e *codeGeneratorError) Error() string {
	return e.msg
}

// patchSite is the offset into the current chunk's code of a placeholder jump
// operand awaiting later fill-in.
type patchSite int

// codeGenerator is a visitor that generates a compiled Chunk from an AST.
type codeGenerator struct {
	// chunks is the stack of chunks being generated. The bottom entry is the
	// top-level script chunk; a new chunk is pushed for the duration of each
	// function declaration. The current chunk is on the top.
	chunks []*bytecode.Chunk

	// nodeStack is used to keep track of the nodes being processed. The
	// current one is on the top.
	nodeStack []ast.Node

	// jumpStack holds the patch sites of the forward jumps whose targets are
	// not known yet. Because the AST traversal is properly nested, each
	// construct finds its own patch sites on the top of the stack.
	jumpStack []patchSite

	// loopStack holds the code offsets where the enclosing "while" loops
	// start, innermost on top.
	loopStack []int

	// interner interns every string that goes into a constant pool.
	interner *bytecode.StringInterner
}

// currentChunk returns the chunk we are currently emitting code to.
func (cg *codeGenerator) currentChunk() *bytecode.Chunk {
	return cg.chunks[len(cg.chunks)-1]
}

// pushChunk makes chunk the current chunk. Used when we start generating code
// for a function declaration.
func (cg *codeGenerator) pushChunk(chunk *bytecode.Chunk) {
	cg.chunks = append(cg.chunks, chunk)
}

// popChunk undoes the most recent pushChunk, returning the popped chunk.
func (cg *codeGenerator) popChunk() *bytecode.Chunk {
	chunk := cg.currentChunk()
	cg.chunks = cg.chunks[:len(cg.chunks)-1]
	return chunk
}

//
// Emission of bytecode
//

// emitBytes writes one or more bytes to the current chunk.
func (cg *codeGenerator) emitBytes(bytes ...uint8) {
	for _, b := range bytes {
		cg.currentChunk().Write(b, cg.currentLine())
	}
}

// emitConstant emits the bytecode to push a given constant value into the
// stack.
func (cg *codeGenerator) emitConstant(value bytecode.Value) {
	cg.emitBytes(bytecode.OpConstant, cg.makeConstant(value))
}

// makeConstant adds a value to the current chunk's constant pool and returns
// its index, reusing an existing entry if one with the same value is already
// there.
func (cg *codeGenerator) makeConstant(value bytecode.Value) uint8 {
	chunk := cg.currentChunk()

	if i := chunk.SearchConstant(value); i >= 0 {
		return uint8(i)
	}

	if len(chunk.Constants) == bytecode.MaxConstantsPerChunk {
		cg.error("Too many constants in one chunk.")
	}

	return uint8(chunk.AddConstant(value))
}

// stringConstant adds an interned copy of a string to the current chunk's
// constant pool and returns its index. Used for string literals and for the
// names of globals.
func (cg *codeGenerator) stringConstant(s string) uint8 {
	return cg.makeConstant(bytecode.NewValueString(cg.interner.Intern(s)))
}

//
// Jumps
//

// emitJump emits a jump instruction of a given opcode with a placeholder
// displacement, and returns the patch site to fill in later via patchToHere.
func (cg *codeGenerator) emitJump(op uint8) patchSite {
	cg.emitBytes(op, 0x00, 0x00)
	return patchSite(len(cg.currentChunk().Code) - 2)
}

// patchToHere sets the displacement at a given patch site so that the jump
// lands on the next instruction to be emitted.
func (cg *codeGenerator) patchToHere(site patchSite) {
	chunk := cg.currentChunk()

	offset := len(chunk.Code) - int(site) - 2
	if offset > math.MaxInt16 {
		cg.error("Too much code to jump over.")
	}

	msb, lsb := bytecode.EncodeJumpOffset(offset)
	chunk.Code[site] = msb
	chunk.Code[site+1] = lsb
}

// emitLoop emits an unconditional jump back to the code offset loopStart.
func (cg *codeGenerator) emitLoop(loopStart int) {
	cg.emitBytes(bytecode.OpJump)

	offset := loopStart - len(cg.currentChunk().Code) - 2
	if offset < math.MinInt16 {
		cg.error("Loop body too large.")
	}

	msb, lsb := bytecode.EncodeJumpOffset(offset)
	cg.emitBytes(msb, lsb)
}

// pushJump pushes a patch site into the jump stack.
func (cg *codeGenerator) pushJump(site patchSite) {
	cg.jumpStack = append(cg.jumpStack, site)
}

// popJump pops a patch site from the jump stack.
func (cg *codeGenerator) popJump() patchSite {
	site := cg.jumpStack[len(cg.jumpStack)-1]
	cg.jumpStack = cg.jumpStack[:len(cg.jumpStack)-1]
	return site
}

// pushLoop pushes a loop start offset into the loop stack.
func (cg *codeGenerator) pushLoop(loopStart int) {
	cg.loopStack = append(cg.loopStack, loopStart)
}

// popLoop pops a loop start offset from the loop stack.
func (cg *codeGenerator) popLoop() int {
	loopStart := cg.loopStack[len(cg.loopStack)-1]
	cg.loopStack = cg.loopStack[:len(cg.loopStack)-1]
	return loopStart
}

//
// Locals
//

// resolveLocal finds the slot of the local variable named name in the current
// chunk. Returns a negative value if there is no local with this name, in
// which case the name refers to a global.
func (cg *codeGenerator) resolveLocal(name string) int {
	for i, local := range cg.currentChunk().Locals {
		if local == name {
			return i
		}
	}

	return -1
}

// declareLocal appends a new local variable to the current chunk's locals
// table and returns its slot.
func (cg *codeGenerator) declareLocal(name string) int {
	chunk := cg.currentChunk()

	for _, local := range chunk.Locals {
		if local == name {
			cg.error("Local variable %q already defined. Shadowing not allowed.", name)
		}
	}

	if len(chunk.Locals) == bytecode.MaxLocalsPerChunk {
		cg.error("Too many local variables in one function.")
	}

	chunk.Locals = append(chunk.Locals, name)
	return len(chunk.Locals) - 1
}

//
// Other functions
//

// pushIntoNodeStack pushes a given node to the node stack.
func (cg *codeGenerator) pushIntoNodeStack(node ast.Node) {
	cg.nodeStack = append(cg.nodeStack, node)
}

// popFromNodeStack pops a node from the node stack.
func (cg *codeGenerator) popFromNodeStack() {
	cg.nodeStack = cg.nodeStack[:len(cg.nodeStack)-1]
}

// currentLine returns the source code line corresponding to whatever we are
// currently compiling. Returns -1 when nothing is being compiled anymore
// (which is the case for the implicit return at the end of the script).
func (cg *codeGenerator) currentLine() int {
	if len(cg.nodeStack) == 0 {
		return -1
	}
	return cg.nodeStack[len(cg.nodeStack)-1].Line()
}

// error panics, reporting an error on the current node with a given error
// message.
func (cg *codeGenerator) error(format string, a ...interface{}) {
	e := &codeGeneratorError{
		msg: fmt.Sprintf("[line %v]: %v", cg.currentLine(),
			fmt.Sprintf(format, a...)),
	}
	panic(e)
}

// ice reports an internal compiler error.
func (cg *codeGenerator) ice(format string, a ...interface{}) {
	cg.error(fmt.Sprintf("Internal compiler error: %v", fmt.Sprintf(format, a...)))
}
