// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"strings"
	"sync"
)

// An opsym is an internal symbol used to associate an opcode's data
// with its instructions.
type opsym byte

const (
	symADC opsym = iota
	symAND
	symBCC
	symBCS
	symBEQ
	symBMI
	symBNE
	symBPL
	symBRK
	symCLC
	symCMP
	symCPX
	symCPY
	symDEX
	symDEY
	symEOR
	symINX
	symINY
	symJMP
	symJSR
	symLDA
	symLDX
	symLDY
	symNOP
	symORA
	symRTS
	symSBC
	symSEC
	symSTA
	symSTX
	symSTY
	symTAX
	symTAY
	symTXA
	symTYA
)

type instfunc func(c *CPU, inst *Instruction, operand []byte)

// Emulator implementation for each opcode
type opcodeImpl struct {
	sym  opsym
	name string
	fn   instfunc
}

var impl = []opcodeImpl{
	{symADC, "ADC", (*CPU).adc},
	{symAND, "AND", (*CPU).and},
	{symBCC, "BCC", (*CPU).bcc},
	{symBCS, "BCS", (*CPU).bcs},
	{symBEQ, "BEQ", (*CPU).beq},
	{symBMI, "BMI", (*CPU).bmi},
	{symBNE, "BNE", (*CPU).bne},
	{symBPL, "BPL", (*CPU).bpl},
	{symBRK, "BRK", (*CPU).brk},
	{symCLC, "CLC", (*CPU).clc},
	{symCMP, "CMP", (*CPU).cmp},
	{symCPX, "CPX", (*CPU).cpx},
	{symCPY, "CPY", (*CPU).cpy},
	{symDEX, "DEX", (*CPU).dex},
	{symDEY, "DEY", (*CPU).dey},
	{symEOR, "EOR", (*CPU).eor},
	{symINX, "INX", (*CPU).inx},
	{symINY, "INY", (*CPU).iny},
	{symJMP, "JMP", (*CPU).jmp},
	{symJSR, "JSR", (*CPU).jsr},
	{symLDA, "LDA", (*CPU).lda},
	{symLDX, "LDX", (*CPU).ldx},
	{symLDY, "LDY", (*CPU).ldy},
	{symNOP, "NOP", (*CPU).nop},
	{symORA, "ORA", (*CPU).ora},
	{symRTS, "RTS", (*CPU).rts},
	{symSBC, "SBC", (*CPU).sbc},
	{symSEC, "SEC", (*CPU).sec},
	{symSTA, "STA", (*CPU).sta},
	{symSTX, "STX", (*CPU).stx},
	{symSTY, "STY", (*CPU).sty},
	{symTAX, "TAX", (*CPU).tax},
	{symTAY, "TAY", (*CPU).tay},
	{symTXA, "TXA", (*CPU).txa},
	{symTYA, "TYA", (*CPU).tya},
}

// Mode describes a memory addressing mode.
type Mode byte

// All supported memory addressing modes
const (
	IMM Mode = iota // Immediate
	IMP             // Implied (no operand)
	REL             // Relative
	ZPG             // Zero Page
	ZPX             // Zero Page,X
	ABS             // Absolute
)

var modeNames = []string{"IMM", "IMP", "REL", "ZPG", "ZPX", "ABS"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "???"
}

// Opcode data for an (opcode, mode) pair
type opcodeData struct {
	sym      opsym // internal opcode symbol
	mode     Mode  // addressing mode
	opcode   byte  // opcode hex value
	length   byte  // length of opcode + operand in bytes
	cycles   byte  // number of CPU cycles to execute command
	bpcycles byte  // additional CPU cycles if a taken branch crosses a page
}

// All valid (opcode, mode) pairs
var data = []opcodeData{
	{symLDA, IMM, 0xa9, 2, 2, 0},
	{symLDA, ZPG, 0xa5, 2, 3, 0},
	{symLDA, ZPX, 0xb5, 2, 4, 0},
	{symLDA, ABS, 0xad, 3, 4, 0},

	{symLDX, IMM, 0xa2, 2, 2, 0},
	{symLDX, ZPG, 0xa6, 2, 3, 0},

	{symLDY, IMM, 0xa0, 2, 2, 0},
	{symLDY, ZPG, 0xa4, 2, 3, 0},

	{symSTA, ZPG, 0x85, 2, 3, 0},
	{symSTA, ZPX, 0x95, 2, 4, 0},
	{symSTA, ABS, 0x8d, 3, 4, 0},

	{symSTX, ZPG, 0x86, 2, 3, 0},

	{symSTY, ZPG, 0x84, 2, 3, 0},

	{symADC, IMM, 0x69, 2, 2, 0},
	{symADC, ZPG, 0x65, 2, 3, 0},

	{symSBC, IMM, 0xe9, 2, 2, 0},

	{symAND, IMM, 0x29, 2, 2, 0},
	{symORA, IMM, 0x09, 2, 2, 0},
	{symEOR, IMM, 0x49, 2, 2, 0},

	{symCMP, IMM, 0xc9, 2, 2, 0},
	{symCMP, ZPG, 0xc5, 2, 3, 0},
	{symCMP, ZPX, 0xd5, 2, 4, 0},

	{symCPX, IMM, 0xe0, 2, 2, 0},
	{symCPX, ZPG, 0xe4, 2, 3, 0},

	{symCPY, IMM, 0xc0, 2, 2, 0},
	{symCPY, ZPG, 0xc4, 2, 3, 0},

	{symINX, IMP, 0xe8, 1, 2, 0},
	{symINY, IMP, 0xc8, 1, 2, 0},
	{symDEX, IMP, 0xca, 1, 2, 0},
	{symDEY, IMP, 0x88, 1, 2, 0},

	{symCLC, IMP, 0x18, 1, 2, 0},
	{symSEC, IMP, 0x38, 1, 2, 0},

	{symTAX, IMP, 0xaa, 1, 2, 0},
	{symTAY, IMP, 0xa8, 1, 2, 0},
	{symTXA, IMP, 0x8a, 1, 2, 0},
	{symTYA, IMP, 0x98, 1, 2, 0},

	{symJMP, ABS, 0x4c, 3, 3, 0},
	{symJSR, ABS, 0x20, 3, 6, 0},
	{symRTS, IMP, 0x60, 1, 6, 0},

	{symBCC, REL, 0x90, 2, 2, 1},
	{symBCS, REL, 0xb0, 2, 2, 1},
	{symBEQ, REL, 0xf0, 2, 2, 1},
	{symBNE, REL, 0xd0, 2, 2, 1},
	{symBMI, REL, 0x30, 2, 2, 1},
	{symBPL, REL, 0x10, 2, 2, 1},

	{symBRK, IMP, 0x00, 1, 0, 0},
	{symNOP, IMP, 0xea, 1, 2, 0},
}

// Every opcode byte the table doesn't define decodes to this.
var unused = opcodeData{mode: IMP, length: 1, cycles: 2}

// An Instruction describes a CPU instruction, including its name,
// its addressing mode, its opcode value, its operand size, and its CPU cycle
// cost.
type Instruction struct {
	Name     string   // all-caps name of the instruction
	Mode     Mode     // addressing mode
	Opcode   byte     // hexadecimal opcode value
	Length   byte     // combined size of opcode and operand, in bytes
	Cycles   byte     // number of CPU cycles to execute the instruction
	BPCycles byte     // additional cycles required if boundary page crossed
	fn       instfunc // emulator implementation of the function
}

// Defined returns true if the instruction is part of the instruction set,
// as opposed to an unused opcode that executes as a no-op.
func (inst *Instruction) Defined() bool {
	return inst.Name != unusedName
}

// An InstructionSet defines the set of all possible instructions that
// can run on the emulated CPU.
type InstructionSet struct {
	instructions [256]Instruction          // all instructions by opcode
	variants     map[string][]*Instruction // variants of each instruction
}

// Lookup retrieves a CPU instruction corresponding to the requested opcode.
func (s *InstructionSet) Lookup(opcode byte) *Instruction {
	return &s.instructions[opcode]
}

// GetInstructions returns all CPU instructions whose name matches the
// provided string.
func (s *InstructionSet) GetInstructions(name string) []*Instruction {
	return s.variants[strings.ToUpper(name)]
}

// Find returns the instruction matching both the name and the addressing
// mode, or nil if the pair is not part of the instruction set.
func (s *InstructionSet) Find(name string, mode Mode) *Instruction {
	for _, inst := range s.GetInstructions(name) {
		if inst.Mode == mode {
			return inst
		}
	}
	return nil
}

// IsMnemonic returns true if name is the mnemonic of at least one
// instruction.
func (s *InstructionSet) IsMnemonic(name string) bool {
	return len(s.GetInstructions(name)) > 0
}

const unusedName = "???"

// Create the instruction set.
func newInstructionSet() *InstructionSet {
	set := &InstructionSet{}

	// Create a map from symbol to implementation for fast lookups.
	symToImpl := make(map[opsym]*opcodeImpl, len(impl))
	for i := range impl {
		symToImpl[impl[i].sym] = &impl[i]
	}

	// Everything starts out unused; the table then claims its opcodes.
	for i := range set.instructions {
		set.instructions[i] = Instruction{
			Name:   unusedName,
			Mode:   unused.mode,
			Opcode: byte(i),
			Length: unused.length,
			Cycles: unused.cycles,
			fn:     (*CPU).nop,
		}
	}

	set.variants = make(map[string][]*Instruction)
	for _, d := range data {
		inst := &set.instructions[d.opcode]
		if inst.Name != unusedName {
			panic("duplicate opcode in instruction table")
		}

		impl := symToImpl[d.sym]
		inst.Name = impl.name
		inst.Mode = d.mode
		inst.Length = d.length
		inst.Cycles = d.cycles
		inst.BPCycles = d.bpcycles
		inst.fn = impl.fn

		set.variants[inst.Name] = append(set.variants[inst.Name], inst)
	}

	for i := range set.instructions {
		if set.instructions[i].fn == nil {
			panic("missing instruction")
		}
	}
	return set
}

var (
	instructionSet     *InstructionSet
	instructionSetOnce sync.Once
)

// GetInstructionSet returns the instruction set shared by the CPU, the
// assembler and the disassembler. It is built on first use and never
// modified afterwards.
func GetInstructionSet() *InstructionSet {
	instructionSetOnce.Do(func() {
		instructionSet = newInstructionSet()
	})
	return instructionSet
}
