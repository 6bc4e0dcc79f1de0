// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// Registers contains the state of all CPU registers.
type Registers struct {
	A        byte   // accumulator
	X        byte   // X indexing register
	Y        byte   // Y indexing register
	SP       byte   // stack pointer ($100 + SP = stack memory location)
	PC       uint16 // program counter
	Carry    bool   // PS: Carry bit
	Zero     bool   // PS: Zero bit
	Overflow bool   // PS: Overflow bit
	Sign     bool   // PS: Sign (negative) bit
}

// Bits assigned to the processor status byte
const (
	CarryBit    = 1 << 0
	ZeroBit     = 1 << 1
	OverflowBit = 1 << 6
	SignBit     = 1 << 7
)

// SavePS packs the four status flags into a processor status byte.
func (r *Registers) SavePS() byte {
	var ps byte
	if r.Carry {
		ps |= CarryBit
	}
	if r.Zero {
		ps |= ZeroBit
	}
	if r.Overflow {
		ps |= OverflowBit
	}
	if r.Sign {
		ps |= SignBit
	}
	return ps
}

// RestorePS restores the CPU processor status from a byte.
func (r *Registers) RestorePS(ps byte) {
	r.Carry = ((ps & CarryBit) != 0)
	r.Zero = ((ps & ZeroBit) != 0)
	r.Overflow = ((ps & OverflowBit) != 0)
	r.Sign = ((ps & SignBit) != 0)
}

func boolToByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// Init initializes all registers. A, X, Y = 0. SP = 0xff. PC = 0. PS = 0.
func (r *Registers) Init() {
	r.A = 0
	r.X = 0
	r.Y = 0
	r.SP = 0xff
	r.PC = 0
	r.RestorePS(0)
}
