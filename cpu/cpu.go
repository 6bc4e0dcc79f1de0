// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cpu implements the instruction table and the execution engine
// of an 8-bit 6502-subset CPU.
//
// The instruction table is shared with the assembler and the
// disassembler, so every encoding the assembler produces is decoded
// here by the same (mnemonic, mode) entry.
package cpu

// Origin is the address at which programs are loaded and started.
const Origin = 0x0200

// CPU represents a single CPU. It contains a pointer to the memory
// associated with the CPU.
//
// A CPU is not safe for concurrent use; the caller drives it by calling
// Step and Reset from a single goroutine.
type CPU struct {
	Reg         Registers       // CPU registers
	Mem         Memory          // assigned memory
	Cycles      uint64          // total executed CPU cycles
	Steps       uint64          // total executed instructions
	LastPC      uint16          // Previous program counter
	InstSet     *InstructionSet // Instruction set used by the CPU
	running     bool
	pageCrossed bool
	deltaCycles int8
	debugger    *Debugger
	storeByte   func(cpu *CPU, addr uint16, v byte)
}

// NewCPU creates an emulated CPU bound to the specified memory. The CPU
// starts out running, with its registers cleared and SP = $FF.
func NewCPU(m Memory) *CPU {
	cpu := &CPU{
		Mem:       m,
		InstSet:   GetInstructionSet(),
		storeByte: (*CPU).storeByteNormal,
	}

	cpu.Reset()
	return cpu
}

// Reset clears all registers, flags and counters, sets the stack pointer
// to $FF and puts the CPU back into the running state. Memory is not
// modified.
func (cpu *CPU) Reset() {
	cpu.Reg.Init()
	cpu.Cycles = 0
	cpu.Steps = 0
	cpu.LastPC = 0
	cpu.running = true
}

// Load zero-fills memory, copies the machine code to the standard origin
// address and points the program counter at it.
func (cpu *CPU) Load(code []byte) {
	cpu.LoadAt(Origin, code)
}

// LoadAt zero-fills memory, copies the machine code to the origin
// address, and sets PC to the origin and SP to $FF.
func (cpu *CPU) LoadAt(origin uint16, code []byte) {
	cpu.Mem.Clear()
	cpu.Mem.StoreBytes(origin, code)
	cpu.Reg.PC = origin
	cpu.Reg.SP = 0xff
}

// Running returns true until the CPU executes a BRK instruction.
func (cpu *CPU) Running() bool {
	return cpu.running
}

// SetPC updates the CPU program counter to 'addr'.
func (cpu *CPU) SetPC(addr uint16) {
	cpu.Reg.PC = addr
}

// GetInstruction returns the instruction whose opcode is at the requested
// address.
func (cpu *CPU) GetInstruction(addr uint16) *Instruction {
	opcode := cpu.Mem.LoadByte(addr)
	return cpu.InstSet.Lookup(opcode)
}

// NextAddr returns the address of the next instruction following the
// instruction at addr.
func (cpu *CPU) NextAddr(addr uint16) uint16 {
	return addr + uint16(cpu.GetInstruction(addr).Length)
}

// Step the cpu by one instruction. Step returns true if the CPU is still
// running after the instruction. Once the CPU has halted, Step does
// nothing and returns false.
func (cpu *CPU) Step() bool {
	if !cpu.running {
		return false
	}

	// Grab the next opcode at the current PC
	opcode := cpu.Mem.LoadByte(cpu.Reg.PC)

	// Look up the instruction data for the opcode. Unused opcodes decode
	// to a 1-byte no-op.
	inst := cpu.InstSet.Lookup(opcode)

	// Fetch the operand (if any) and advance the PC
	var buf [2]byte
	operand := buf[:inst.Length-1]
	cpu.Mem.LoadBytes(cpu.Reg.PC+1, operand)
	cpu.LastPC = cpu.Reg.PC
	cpu.Reg.PC += uint16(inst.Length)

	// Execute the instruction
	cpu.pageCrossed = false
	cpu.deltaCycles = 0
	inst.fn(cpu, inst, operand)

	// Update the CPU cycle counter, with special-case logic
	// to handle a page boundary crossing
	cpu.Cycles += uint64(int8(inst.Cycles) + cpu.deltaCycles)
	if cpu.pageCrossed {
		cpu.Cycles += uint64(inst.BPCycles)
	}
	cpu.Steps++

	// Report breakpoints once the instruction's effects are complete.
	if cpu.debugger != nil {
		cpu.debugger.onStepDone(cpu)
	}

	return cpu.running
}

// AttachDebugger attaches a debugger to the CPU. The debugger receives
// notifications whenever the CPU executes an instruction or stores a byte
// to memory.
func (cpu *CPU) AttachDebugger(debugger *Debugger) {
	cpu.debugger = debugger
	cpu.storeByte = (*CPU).storeByteDebugger
}

// DetachDebugger detaches the currently debugger from the CPU.
func (cpu *CPU) DetachDebugger() {
	cpu.debugger = nil
	cpu.storeByte = (*CPU).storeByteNormal
}

// Resolve the effective address of a memory operand.
func (cpu *CPU) address(mode Mode, operand []byte) uint16 {
	switch mode {
	case ZPG, ABS:
		return operandToAddress(operand)
	case ZPX:
		return offsetZeroPage(operandToAddress(operand), cpu.Reg.X)
	default:
		panic("Invalid addressing mode")
	}
}

// Load a byte value from using the requested addressing mode
// and the operand to determine where to load it from.
func (cpu *CPU) load(mode Mode, operand []byte) byte {
	if mode == IMM {
		return operand[0]
	}
	return cpu.Mem.LoadByte(cpu.address(mode, operand))
}

// Store a byte value using the specified addressing mode and the
// variable-sized instruction operand to determine where to store it.
func (cpu *CPU) store(mode Mode, operand []byte, v byte) {
	cpu.storeByte(cpu, cpu.address(mode, operand), v)
}

// Execute a branch using the instruction operand.
func (cpu *CPU) branch(operand []byte) {
	offset := operand[0]
	oldPC := cpu.Reg.PC
	cpu.Reg.PC += uint16(int8(offset))
	cpu.deltaCycles++
	if ((cpu.Reg.PC ^ oldPC) & 0xff00) != 0 {
		cpu.pageCrossed = true
	}
}

// Store the byte value 'v' add the address 'addr'.
func (cpu *CPU) storeByteNormal(addr uint16, v byte) {
	cpu.Mem.StoreByte(addr, v)
}

// Store the byte value 'v' at the address 'addr' and note any data
// breakpoint it hits.
func (cpu *CPU) storeByteDebugger(addr uint16, v byte) {
	cpu.Mem.StoreByte(addr, v)
	cpu.debugger.onDataStore(addr, v)
}

// Push a value 'v' onto the stack.
func (cpu *CPU) push(v byte) {
	cpu.storeByte(cpu, stackAddress(cpu.Reg.SP), v)
	cpu.Reg.SP--
}

// Push the address 'addr' onto the stack.
func (cpu *CPU) pushAddress(addr uint16) {
	cpu.push(byte(addr >> 8))
	cpu.push(byte(addr))
}

// Pop a value from the stack and return it.
func (cpu *CPU) pop() byte {
	cpu.Reg.SP++
	return cpu.Mem.LoadByte(stackAddress(cpu.Reg.SP))
}

// Pop a 16-bit address off the stack.
func (cpu *CPU) popAddress() uint16 {
	lo := cpu.pop()
	hi := cpu.pop()
	return uint16(lo) | (uint16(hi) << 8)
}

// Update the Zero and Negative flags based on the value of 'v'.
func (cpu *CPU) updateNZ(v byte) {
	cpu.Reg.Zero = (v == 0)
	cpu.Reg.Sign = ((v & 0x80) != 0)
}

// Compare a register to a value. Only the flags are affected.
func (cpu *CPU) compare(reg, v byte) {
	cpu.Reg.Carry = (reg >= v)
	cpu.updateNZ(reg - v)
}

// Add with carry
func (cpu *CPU) adc(inst *Instruction, operand []byte) {
	acc := uint32(cpu.Reg.A)
	add := uint32(cpu.load(inst.Mode, operand))
	v := acc + add + uint32(boolToByte(cpu.Reg.Carry))
	r := byte(v)

	cpu.Reg.Carry = v > 0xff
	cpu.Reg.Overflow = ((cpu.Reg.A^r)&(byte(add)^r)&0x80 != 0)
	cpu.Reg.A = r
	cpu.updateNZ(r)
}

// Boolean AND
func (cpu *CPU) and(inst *Instruction, operand []byte) {
	cpu.Reg.A &= cpu.load(inst.Mode, operand)
	cpu.updateNZ(cpu.Reg.A)
}

// Branch if Carry Clear
func (cpu *CPU) bcc(inst *Instruction, operand []byte) {
	if !cpu.Reg.Carry {
		cpu.branch(operand)
	}
}

// Branch if Carry Set
func (cpu *CPU) bcs(inst *Instruction, operand []byte) {
	if cpu.Reg.Carry {
		cpu.branch(operand)
	}
}

// Branch if EQual (to zero)
func (cpu *CPU) beq(inst *Instruction, operand []byte) {
	if cpu.Reg.Zero {
		cpu.branch(operand)
	}
}

// Branch if MInus (negative)
func (cpu *CPU) bmi(inst *Instruction, operand []byte) {
	if cpu.Reg.Sign {
		cpu.branch(operand)
	}
}

// Branch if Not Equal (not zero)
func (cpu *CPU) bne(inst *Instruction, operand []byte) {
	if !cpu.Reg.Zero {
		cpu.branch(operand)
	}
}

// Branch if PLus (positive)
func (cpu *CPU) bpl(inst *Instruction, operand []byte) {
	if !cpu.Reg.Sign {
		cpu.branch(operand)
	}
}

// Break. Halts the CPU.
func (cpu *CPU) brk(inst *Instruction, operand []byte) {
	cpu.running = false
}

// Clear Carry flag
func (cpu *CPU) clc(inst *Instruction, operand []byte) {
	cpu.Reg.Carry = false
}

// Compare to accumulator
func (cpu *CPU) cmp(inst *Instruction, operand []byte) {
	cpu.compare(cpu.Reg.A, cpu.load(inst.Mode, operand))
}

// Compare to X register
func (cpu *CPU) cpx(inst *Instruction, operand []byte) {
	cpu.compare(cpu.Reg.X, cpu.load(inst.Mode, operand))
}

// Compare to Y register
func (cpu *CPU) cpy(inst *Instruction, operand []byte) {
	cpu.compare(cpu.Reg.Y, cpu.load(inst.Mode, operand))
}

// Decrement X register
func (cpu *CPU) dex(inst *Instruction, operand []byte) {
	cpu.Reg.X--
	cpu.updateNZ(cpu.Reg.X)
}

// Decrement Y register
func (cpu *CPU) dey(inst *Instruction, operand []byte) {
	cpu.Reg.Y--
	cpu.updateNZ(cpu.Reg.Y)
}

// Boolean XOR
func (cpu *CPU) eor(inst *Instruction, operand []byte) {
	cpu.Reg.A ^= cpu.load(inst.Mode, operand)
	cpu.updateNZ(cpu.Reg.A)
}

// Increment X register
func (cpu *CPU) inx(inst *Instruction, operand []byte) {
	cpu.Reg.X++
	cpu.updateNZ(cpu.Reg.X)
}

// Increment Y register
func (cpu *CPU) iny(inst *Instruction, operand []byte) {
	cpu.Reg.Y++
	cpu.updateNZ(cpu.Reg.Y)
}

// Jump to memory address
func (cpu *CPU) jmp(inst *Instruction, operand []byte) {
	cpu.Reg.PC = operandToAddress(operand)
}

// Jump to subroutine. The pushed return address is the address of the
// last byte of the JSR instruction.
func (cpu *CPU) jsr(inst *Instruction, operand []byte) {
	cpu.pushAddress(cpu.Reg.PC - 1)
	cpu.Reg.PC = operandToAddress(operand)
}

// load Accumulator
func (cpu *CPU) lda(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.load(inst.Mode, operand)
	cpu.updateNZ(cpu.Reg.A)
}

// load the X register
func (cpu *CPU) ldx(inst *Instruction, operand []byte) {
	cpu.Reg.X = cpu.load(inst.Mode, operand)
	cpu.updateNZ(cpu.Reg.X)
}

// load the Y register
func (cpu *CPU) ldy(inst *Instruction, operand []byte) {
	cpu.Reg.Y = cpu.load(inst.Mode, operand)
	cpu.updateNZ(cpu.Reg.Y)
}

// No-operation
func (cpu *CPU) nop(inst *Instruction, operand []byte) {
	// Do nothing
}

// Boolean OR
func (cpu *CPU) ora(inst *Instruction, operand []byte) {
	cpu.Reg.A |= cpu.load(inst.Mode, operand)
	cpu.updateNZ(cpu.Reg.A)
}

// Return from Subroutine
func (cpu *CPU) rts(inst *Instruction, operand []byte) {
	addr := cpu.popAddress()
	cpu.Reg.PC = addr + 1
}

// Subtract with Carry
func (cpu *CPU) sbc(inst *Instruction, operand []byte) {
	acc := cpu.Reg.A
	sub := cpu.load(inst.Mode, operand)
	borrow := 1 - boolToByte(cpu.Reg.Carry)
	v := int(acc) - int(sub) - int(borrow)
	r := byte(v)

	cpu.Reg.Carry = v >= 0
	cpu.Reg.Overflow = ((acc^sub)&(acc^r)&0x80 != 0)
	cpu.Reg.A = r
	cpu.updateNZ(r)
}

// Set Carry flag
func (cpu *CPU) sec(inst *Instruction, operand []byte) {
	cpu.Reg.Carry = true
}

// Store Accumulator
func (cpu *CPU) sta(inst *Instruction, operand []byte) {
	cpu.store(inst.Mode, operand, cpu.Reg.A)
}

// Store X register
func (cpu *CPU) stx(inst *Instruction, operand []byte) {
	cpu.store(inst.Mode, operand, cpu.Reg.X)
}

// Store Y register
func (cpu *CPU) sty(inst *Instruction, operand []byte) {
	cpu.store(inst.Mode, operand, cpu.Reg.Y)
}

// Transfer Accumulator to X register
func (cpu *CPU) tax(inst *Instruction, operand []byte) {
	cpu.Reg.X = cpu.Reg.A
	cpu.updateNZ(cpu.Reg.X)
}

// Transfer Accumulator to Y register
func (cpu *CPU) tay(inst *Instruction, operand []byte) {
	cpu.Reg.Y = cpu.Reg.A
	cpu.updateNZ(cpu.Reg.Y)
}

// Transfer X register to Accumulator
func (cpu *CPU) txa(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.Reg.X
	cpu.updateNZ(cpu.Reg.A)
}

// Transfer Y register to Accumulator
func (cpu *CPU) tya(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.Reg.Y
	cpu.updateNZ(cpu.Reg.A)
}
