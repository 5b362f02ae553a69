/******************************************************************************\
* The Luma Language                                                            *
*                                                                              *
* Copyright 2026 Leandro Motta Barros                                          *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package bytecode

import (
	"fmt"
	"io"
	"strings"
)

const (
	OpConstant uint8 = iota
	OpTrue
	OpFalse
	OpNil
	OpPop
	OpGetGlobal
	OpSetGlobal
	OpGetLocal
	OpSetLocal
	OpEqual
	OpNotEqual
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate
	OpConcat
	OpJump
	OpJumpIfFalse
	OpCall
	OpReturn
	OpPrint
)

const (
	// MaxConstantsPerChunk is the maximum number of constants we can have on a
	// single chunk. Constants are referenced by a one-byte index, so this is
	// 2^8.
	MaxConstantsPerChunk = 256

	// MaxLocalsPerChunk is the maximum number of local slots a single chunk
	// can use. Local slots are referenced by a one-byte index, so this is 2^8.
	MaxLocalsPerChunk = 256
)

// A Chunk is a chunk of bytecode, representing one compiled function body (or
// the top-level script body).
type Chunk struct {
	// The code itself.
	Code []uint8

	// The constant values used in Code. This includes the nested Function
	// values for every function declared inside this chunk.
	Constants []Value

	// The source code line that generated each instruction. We have one entry
	// for each entry in Code. Very space-inefficient, but very simple.
	Lines []int

	// Locals contains the names of the local slots used by this chunk, in
	// slot order. Slot 0 is the callee itself; for a function chunk, slots
	// 1..Arity are the parameters, and further slots are the "local" variables
	// declared in the body.
	Locals []string

	// Arity is the number of parameters this chunk expects. Zero for the
	// top-level script chunk.
	Arity int
}

// Write writes a byte to the chunk. line is the source code line number that
// generated this byte.
func (c *Chunk) Write(b uint8, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// AddConstant adds a constant to the chunk and returns the index of the new
// constant into c.Constants.
func (c *Chunk) AddConstant(value Value) int {
	c.Constants = append(c.Constants, value)
	return len(c.Constants) - 1
}

// SearchConstant searches the constant pool for a constant with the given
// value. If found, it returns the index of this constant into c.Constants. If
// not found, it returns a negative value.
func (c *Chunk) SearchConstant(value Value) int {
	for i, v := range c.Constants {
		if ValuesEqual(value, v) {
			return i
		}
	}

	return -1
}

// Disassemble disassembles the chunk and returns a string representation of
// it. The chunk name (passed as name) is included in the disassembly.
func (c *Chunk) Disassemble(name string) string {
	var out strings.Builder

	fmt.Fprintf(&out, "== %v ==\n", name)

	for offset := 0; offset < len(c.Code); {
		offset = c.DisassembleInstruction(&out, offset)
	}

	return out.String()
}

// DisassembleInstruction disassembles the instruction at a given offset and
// returns the offset of the next instruction to disassemble. Output is written
// to out.
func (c *Chunk) DisassembleInstruction(out io.Writer, offset int) int { // nolint:gocyclo
	fmt.Fprintf(out, "%04v ", offset)

	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		fmt.Fprint(out, "   | ")
	} else {
		fmt.Fprintf(out, "%4d ", c.Lines[offset])
	}

	instruction := c.Code[offset]

	switch instruction {
	case OpConstant:
		return c.disassembleConstantInstruction(out, "CONSTANT", offset)

	case OpTrue:
		return c.disassembleSimpleInstruction(out, "TRUE", offset)

	case OpFalse:
		return c.disassembleSimpleInstruction(out, "FALSE", offset)

	case OpNil:
		return c.disassembleSimpleInstruction(out, "NIL", offset)

	case OpPop:
		return c.disassembleSimpleInstruction(out, "POP", offset)

	case OpGetGlobal:
		return c.disassembleConstantInstruction(out, "GET_GLOBAL", offset)

	case OpSetGlobal:
		return c.disassembleConstantInstruction(out, "SET_GLOBAL", offset)

	case OpGetLocal:
		return c.disassembleLocalInstruction(out, "GET_LOCAL", offset)

	case OpSetLocal:
		return c.disassembleLocalInstruction(out, "SET_LOCAL", offset)

	case OpEqual:
		return c.disassembleSimpleInstruction(out, "EQUAL", offset)

	case OpNotEqual:
		return c.disassembleSimpleInstruction(out, "NOT_EQUAL", offset)

	case OpGreater:
		return c.disassembleSimpleInstruction(out, "GREATER", offset)

	case OpGreaterEqual:
		return c.disassembleSimpleInstruction(out, "GREATER_EQUAL", offset)

	case OpLess:
		return c.disassembleSimpleInstruction(out, "LESS", offset)

	case OpLessEqual:
		return c.disassembleSimpleInstruction(out, "LESS_EQUAL", offset)

	case OpAdd:
		return c.disassembleSimpleInstruction(out, "ADD", offset)

	case OpSubtract:
		return c.disassembleSimpleInstruction(out, "SUBTRACT", offset)

	case OpMultiply:
		return c.disassembleSimpleInstruction(out, "MULTIPLY", offset)

	case OpDivide:
		return c.disassembleSimpleInstruction(out, "DIVIDE", offset)

	case OpNot:
		return c.disassembleSimpleInstruction(out, "NOT", offset)

	case OpNegate:
		return c.disassembleSimpleInstruction(out, "NEGATE", offset)

	case OpConcat:
		return c.disassembleSimpleInstruction(out, "CONCAT", offset)

	case OpJump:
		return c.disassembleJumpInstruction(out, "JUMP", offset)

	case OpJumpIfFalse:
		return c.disassembleJumpInstruction(out, "JUMP_IF_FALSE", offset)

	case OpCall:
		return c.disassembleByteInstruction(out, "CALL", offset)

	case OpReturn:
		return c.disassembleSimpleInstruction(out, "RETURN", offset)

	case OpPrint:
		return c.disassembleSimpleInstruction(out, "PRINT", offset)

	default:
		fmt.Fprintf(out, "Unknown opcode %d\n", instruction)
		return offset + 1
	}
}

// disassembleSimpleInstruction disassembles a simple instruction at a given
// offset. name is the instruction name, and the output is written to out.
// Returns the offset to the next instruction.
//
// A simple instruction is one composed of a single byte (just the opcode, no
// operands).
func (c *Chunk) disassembleSimpleInstruction(out io.Writer, name string, offset int) int {
	fmt.Fprintf(out, "%v\n", name)
	return offset + 1
}

// disassembleConstantInstruction disassembles an instruction with a one-byte
// constant pool index operand at a given offset. name is the instruction name,
// and the output is written to out. Returns the offset to the next
// instruction.
func (c *Chunk) disassembleConstantInstruction(out io.Writer, name string, offset int) int {
	index := c.Code[offset+1]
	fmt.Fprintf(out, "%-16s %4d '%v'\n", name, index, c.Constants[index])

	return offset + 2
}

// disassembleLocalInstruction disassembles an instruction with a one-byte
// local slot operand at a given offset. name is the instruction name, and the
// output is written to out. Returns the offset to the next instruction.
func (c *Chunk) disassembleLocalInstruction(out io.Writer, name string, offset int) int {
	slot := c.Code[offset+1]
	localName := "?"
	if int(slot) < len(c.Locals) {
		localName = c.Locals[slot]
	}
	fmt.Fprintf(out, "%-16s %4d '%v'\n", name, slot, localName)

	return offset + 2
}

// disassembleByteInstruction disassembles an instruction with a plain one-byte
// operand at a given offset. name is the instruction name, and the output is
// written to out. Returns the offset to the next instruction.
func (c *Chunk) disassembleByteInstruction(out io.Writer, name string, offset int) int {
	operand := c.Code[offset+1]
	fmt.Fprintf(out, "%-16s %4d\n", name, operand)

	return offset + 2
}

// disassembleJumpInstruction disassembles an instruction with a two-byte
// signed jump displacement operand at a given offset. name is the instruction
// name, and the output is written to out. Returns the offset to the next
// instruction.
func (c *Chunk) disassembleJumpInstruction(out io.Writer, name string, offset int) int {
	jump := DecodeJumpOffset(c.Code[offset+1], c.Code[offset+2])
	fmt.Fprintf(out, "%-16s %4d -> %d\n", name, offset, offset+3+jump)

	return offset + 3
}

// DecodeJumpOffset converts the two operand bytes of a jump instruction (most
// significant byte first) to the signed displacement they encode. The
// displacement is counted from the byte right after the two operand bytes.
func DecodeJumpOffset(msb, lsb byte) int {
	return int(int16(uint16(msb)<<8 | uint16(lsb)))
}

// EncodeJumpOffset converts a signed jump displacement to the two operand
// bytes that encode it, most significant byte first. The caller is responsible
// for ensuring the displacement fits into a signed 16-bit integer.
func EncodeJumpOffset(offset int) (msb, lsb byte) {
	return byte(uint16(offset) >> 8), byte(uint16(offset) & 0xFF)
}
