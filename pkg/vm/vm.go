/******************************************************************************\
* The Luma Language                                                            *
*                                                                              *
* Copyright 2026 Leandro Motta Barros                                          *
* Licensed under the MIT license (see LICENSE.txt for details)                 *
\******************************************************************************/

package vm

import (
	"fmt"
	"io"
	"os"

	"gitlab.com/stackedboxes/lumalang/pkg/backend"
	"gitlab.com/stackedboxes/lumalang/pkg/bytecode"
	"gitlab.com/stackedboxes/lumalang/pkg/frontend"
	"gitlab.com/stackedboxes/lumalang/pkg/table"
)

const (
	// FramesMax is the maximum depth of the call frame stack. A program
	// recursing deeper than this gets a runtime error.
	FramesMax = 64

	// StackMax is the size of the value stack, in values.
	StackMax = FramesMax * 256
)

// InterpretResult is the result of interpreting some Luma code.
type InterpretResult int

const (
	// InterpretOK is used to indicate that the interpretation worked without
	// errors.
	InterpretOK InterpretResult = iota

	// InterpretCompileError is used to indicate a compilation error.
	InterpretCompileError

	// InterpretRuntimeError is used to indicate a runtime error.
	InterpretRuntimeError
)

// callFrame contains the information needed at runtime about an ongoing
// function call.
type callFrame struct {
	// chunk is the chunk with the code being executed in this frame.
	chunk *bytecode.Chunk

	// ip is the instruction pointer, which points to the next instruction to
	// be executed (it's an index into chunk.Code).
	ip int

	// base is the index into the VM value stack where this frame's slot 0
	// lives. The callee itself is on slot 0, the arguments on slots 1 to
	// arity.
	base int
}

// runtimeError is a type used in panics to abort the interpretation loop when
// a runtime error is found. The diagnostic is written out before panicking.
type runtimeError struct {
	msg string
}

// VM is a Luma Virtual Machine.
type VM struct {
	// Set DebugTraceExecution to true to make the VM disassemble the code as
	// it runs through it.
	DebugTraceExecution bool

	// out is where the VM sends the program's output (i.e., whatever it
	// prints).
	out io.Writer

	// errOut is where the VM sends its diagnostics.
	errOut io.Writer

	// globals holds the global variables.
	globals *table.Table

	// stack is the VM value stack, used for storing values during
	// interpretation. Only the first stackTop entries are live.
	stack []bytecode.Value

	// stackTop is the number of live entries in stack. In other words, the
	// index where the next pushed value will land.
	stackTop int

	// frames is the stack of call frames. It has one entry for every function
	// that has started running but hasn't returned yet.
	frames [FramesMax]callFrame

	// frameCount is the number of frames in use.
	frameCount int
}

// New returns a new Virtual Machine. out is where the VM sends the program
// output; errOut is where it sends diagnostics.
func New(out, errOut io.Writer) *VM {
	return &VM{
		out:     out,
		errOut:  errOut,
		globals: table.New(),
		stack:   make([]bytecode.Value, StackMax),
	}
}

// Interpret interprets a given program, passed as source code: parses it,
// generates bytecode for it and runs this bytecode.
func (vm *VM) Interpret(source string) InterpretResult {
	root := frontend.Parse(source)
	if root == nil {
		return InterpretCompileError
	}

	chunk, err := backend.GenerateCode(root)
	if err != nil {
		fmt.Fprintf(vm.errOut, "%v\n", err)
		return InterpretCompileError
	}

	return vm.RunChunk(chunk)
}

// RunChunk executes a compiled top-level chunk.
func (vm *VM) RunChunk(chunk *bytecode.Chunk) (result InterpretResult) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*runtimeError); ok {
				result = InterpretRuntimeError
				return
			}
			panic(fmt.Sprintf("Unexpected error type: %T", r))
		}
	}()

	vm.stackTop = 0
	vm.frameCount = 0

	// A normal function call starts by pushing the callee. Here we have an
	// implicit call to the top-level script, so we push it too: this keeps the
	// implicit call consistent with calls made by the user and gives slot 0 of
	// the initial frame its expected contents.
	script := &bytecode.Function{
		Chunk: chunk,
		Name:  "script",
	}
	vm.push(bytecode.NewValueFunction(script))
	vm.callFunction(script, 0)

	vm.run()
	return InterpretOK
}

// run runs the code loaded into vm. It's the instruction dispatch loop.
func (vm *VM) run() { // nolint:funlen,gocyclo
	frame := &vm.frames[vm.frameCount-1]

	for {
		if vm.DebugTraceExecution {
			fmt.Print("          ")

			for _, v := range vm.stack[:vm.stackTop] {
				fmt.Printf("[ %v ]", v)
			}

			fmt.Print("\n")

			frame.chunk.DisassembleInstruction(os.Stdout, frame.ip)
		}

		instruction := frame.chunk.Code[frame.ip]
		frame.ip++

		switch instruction {
		case bytecode.OpConstant:
			vm.push(vm.readConstant(frame))

		case bytecode.OpTrue:
			vm.push(bytecode.NewValueBool(true))

		case bytecode.OpFalse:
			vm.push(bytecode.NewValueBool(false))

		case bytecode.OpNil:
			vm.push(bytecode.NewValueNil())

		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpGetGlobal:
			name := vm.readString(frame)
			value, ok := vm.globals.Get(name)
			if !ok {
				vm.runtimeError("Undefined variable '%v'.", name)
			}
			vm.push(value)

		case bytecode.OpSetGlobal:
			// Assigning to an unknown global creates it. The value is left on
			// the stack: assignments are expressions from the bytecode's point
			// of view.
			name := vm.readString(frame)
			vm.globals.Set(name, vm.peek(0))

		case bytecode.OpGetLocal:
			slot := vm.readByte(frame)
			vm.push(vm.stack[frame.base+int(slot)])

		case bytecode.OpSetLocal:
			slot := vm.readByte(frame)
			vm.stack[frame.base+int(slot)] = vm.peek(0)

		case bytecode.OpEqual:
			a, b := vm.popNumberOperands()
			vm.push(bytecode.NewValueBool(a == b))

		case bytecode.OpNotEqual:
			a, b := vm.popNumberOperands()
			vm.push(bytecode.NewValueBool(a != b))

		case bytecode.OpGreater:
			a, b := vm.popNumberOperands()
			vm.push(bytecode.NewValueBool(a > b))

		case bytecode.OpGreaterEqual:
			a, b := vm.popNumberOperands()
			vm.push(bytecode.NewValueBool(a >= b))

		case bytecode.OpLess:
			a, b := vm.popNumberOperands()
			vm.push(bytecode.NewValueBool(a < b))

		case bytecode.OpLessEqual:
			a, b := vm.popNumberOperands()
			vm.push(bytecode.NewValueBool(a <= b))

		case bytecode.OpAdd:
			a, b := vm.popNumberOperands()
			vm.push(bytecode.NewValueNumber(a + b))

		case bytecode.OpSubtract:
			a, b := vm.popNumberOperands()
			vm.push(bytecode.NewValueNumber(a - b))

		case bytecode.OpMultiply:
			a, b := vm.popNumberOperands()
			vm.push(bytecode.NewValueNumber(a * b))

		case bytecode.OpDivide:
			a, b := vm.popNumberOperands()
			vm.push(bytecode.NewValueNumber(a / b))

		case bytecode.OpNot:
			vm.push(bytecode.NewValueBool(vm.pop().IsFalsey()))

		case bytecode.OpNegate:
			value := vm.pop()
			if !value.IsNumber() {
				vm.runtimeError("Operand must be a number.")
			}
			vm.push(bytecode.NewValueNumber(-value.AsNumber()))

		case bytecode.OpConcat:
			b := vm.pop()
			a := vm.pop()
			if !a.IsString() || !b.IsString() {
				vm.runtimeError("Operands must be strings.")
			}
			vm.push(bytecode.NewValueString(a.AsString() + b.AsString()))

		case bytecode.OpJump:
			offset := vm.readJumpOffset(frame)
			frame.ip += offset

		case bytecode.OpJumpIfFalse:
			// The condition is left on the stack: the compiler emits the POP,
			// which is what makes short-circuit "and"/"or" work.
			offset := vm.readJumpOffset(frame)
			if vm.peek(0).IsFalsey() {
				frame.ip += offset
			}

		case bytecode.OpCall:
			argCount := int(vm.readByte(frame))
			vm.callValue(vm.peek(argCount), argCount)
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpReturn:
			result := vm.pop()
			vm.frameCount--
			if vm.frameCount == 0 {
				return
			}

			// Discard the returning frame's slots (callee and arguments
			// included) and leave just the result for the caller.
			vm.stackTop = frame.base
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpPrint:
			fmt.Fprintf(vm.out, "%v\n", vm.pop())

		default:
			vm.runtimeError("Unexpected instruction: %v", instruction)
		}
	}
}

//
// Reading from the bytecode
//

// readByte reads a one-byte operand from the frame's chunk and advances the
// instruction pointer past it.
func (vm *VM) readByte(frame *callFrame) uint8 {
	b := frame.chunk.Code[frame.ip]
	frame.ip++
	return b
}

// readConstant reads a one-byte constant pool index from the frame's chunk and
// returns the corresponding constant value.
func (vm *VM) readConstant(frame *callFrame) bytecode.Value {
	return frame.chunk.Constants[vm.readByte(frame)]
}

// readString reads a one-byte constant pool index from the frame's chunk and
// returns the corresponding constant, which is assumed to be a string.
func (vm *VM) readString(frame *callFrame) string {
	return vm.readConstant(frame).AsString()
}

// readJumpOffset reads the two-byte signed jump displacement from the frame's
// chunk and advances the instruction pointer past it.
func (vm *VM) readJumpOffset(frame *callFrame) int {
	offset := bytecode.DecodeJumpOffset(
		frame.chunk.Code[frame.ip], frame.chunk.Code[frame.ip+1])
	frame.ip += 2
	return offset
}

//
// Stack manipulation
//

// push pushes a value into the VM stack.
func (vm *VM) push(value bytecode.Value) {
	if vm.stackTop == StackMax {
		vm.runtimeError("Stack overflow.")
	}
	vm.stack[vm.stackTop] = value
	vm.stackTop++
}

// pop pops a value from the VM stack and returns it.
func (vm *VM) pop() bytecode.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

// peek returns a value on the stack that is a given distance from the top.
// Passing 0 means "give me the value on the top of the stack". The stack is
// not changed at all.
func (vm *VM) peek(distance int) bytecode.Value {
	return vm.stack[vm.stackTop-1-distance]
}

// popNumberOperands pops the two operands of a binary numeric operation from
// the stack, raising a runtime error unless both are numbers.
func (vm *VM) popNumberOperands() (a, b float64) {
	bv := vm.pop()
	av := vm.pop()
	if !av.IsNumber() || !bv.IsNumber() {
		vm.runtimeError("Operands must be numbers.")
	}
	return av.AsNumber(), bv.AsNumber()
}

//
// Function calls
//

// callValue calls callee, which must be a function value whose arity matches
// argCount. Assumes that the callee and its arguments are already on the
// stack.
func (vm *VM) callValue(callee bytecode.Value, argCount int) {
	if !callee.IsFunction() {
		vm.runtimeError("Can only call functions.")
	}
	vm.callFunction(callee.AsFunction(), argCount)
}

// callFunction pushes a new call frame that will run function. Assumes that
// the function value and its arguments are already on the stack.
func (vm *VM) callFunction(function *bytecode.Function, argCount int) {
	if argCount != function.Chunk.Arity {
		vm.runtimeError("Expected %d arguments but got %d.",
			function.Chunk.Arity, argCount)
	}

	if vm.frameCount == FramesMax {
		vm.runtimeError("Stack overflow.")
	}

	vm.frames[vm.frameCount] = callFrame{
		chunk: function.Chunk,
		base:  vm.stackTop - argCount - 1,
	}
	vm.frameCount++
}

//
// Error reporting
//

// runtimeError stops the execution and reports a runtime error with a given
// message and fmt.Printf-like arguments.
func (vm *VM) runtimeError(format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	fmt.Fprintf(vm.errOut, "%v\n", msg)

	frame := &vm.frames[vm.frameCount-1]
	line := frame.chunk.Lines[frame.ip-1]
	fmt.Fprintf(vm.errOut, "[line %d] in script\n", line)

	panic(&runtimeError{msg: msg})
}
