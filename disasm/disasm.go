// Copyright 2014 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm implements a disassembler for the 6502 instruction
// subset executed by package cpu.
package disasm

import (
	"fmt"

	"github.com/beevik/sim6502/cpu"
)

// Disassembler formatting for addressing modes
var modeFormat = []string{
	"#$%s",  // IMM
	"%s",    // IMP
	"$%s",   // REL
	"$%s",   // ZPG
	"$%s,X", // ZPX
	"$%s",   // ABS
}

var hex = "0123456789ABCDEF"

// Return a hexadecimal string representation of the byte slice, treating
// it as a little-endian value.
func hexString(b []byte) string {
	hexlen := len(b) * 2
	hexbuf := make([]byte, hexlen)
	j := hexlen - 1
	for _, n := range b {
		hexbuf[j] = hex[n&0xf]
		hexbuf[j-1] = hex[n>>4]
		j -= 2
	}
	return string(hexbuf)
}

// Disassemble the machine code in memory 'm' at address 'addr'. Return a
// 'line' string representing the disassembled instruction and a 'next'
// address that starts the following line of machine code. Opcodes that
// aren't part of the instruction set disassemble as "???".
func Disassemble(m cpu.Memory, addr uint16) (line string, next uint16) {
	opcode := m.LoadByte(addr)
	inst := cpu.GetInstructionSet().Lookup(opcode)

	var buf [2]byte
	operand := buf[:inst.Length-1]
	m.LoadBytes(addr+1, operand)

	if inst.Mode == cpu.REL {
		// Convert relative offset to absolute address.
		braddr := addr + uint16(inst.Length) + uint16(int8(operand[0]))
		operand = []byte{byte(braddr), byte(braddr >> 8)}
	}

	format := "%s " + modeFormat[inst.Mode]
	line = fmt.Sprintf(format, inst.Name, hexString(operand))
	if inst.Mode == cpu.IMP {
		line = inst.Name
	}
	next = addr + uint16(inst.Length)
	return line, next
}

// Return a string of the status bits, upper-case when set and lower-case
// when clear. Unused bits show as '-'.
func flagString(r *cpu.Registers) string {
	b := []byte("nv----zc")
	set := []bool{r.Sign, r.Overflow, false, false, false, false, r.Zero, r.Carry}
	for i, s := range set {
		if s {
			b[i] -= 'a' - 'A'
		}
	}
	return string(b)
}

// GetRegisterString returns a string describing the contents of the
// registers and flags.
func GetRegisterString(r *cpu.Registers) string {
	return fmt.Sprintf("A=%02X X=%02X Y=%02X PS=[%s] SP=%02X PC=%04X",
		r.A, r.X, r.Y, flagString(r), r.SP, r.PC)
}

// GetCompactRegisterString returns a compact string describing the
// contents of the registers and flags.
func GetCompactRegisterString(r *cpu.Registers) string {
	return fmt.Sprintf("%02X %02X %02X %s %02X",
		r.A, r.X, r.Y, flagString(r), r.SP)
}
