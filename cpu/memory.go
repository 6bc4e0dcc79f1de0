// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// MemorySize is the size of the CPU's 16-bit address space.
const MemorySize = 64 * 1024

// The Memory interface presents an interface to the CPU through which all
// memory accesses occur.
type Memory interface {
	// LoadByte loads a single byte from the address and returns it.
	LoadByte(addr uint16) byte

	// LoadBytes loads multiple bytes from the address and stores them into
	// the buffer 'b'. Bytes past the end of the address space read as 0.
	LoadBytes(addr uint16, b []byte)

	// LoadAddress loads a little-endian 16-bit address value from the
	// requested address and returns it.
	LoadAddress(addr uint16) uint16

	// StoreByte stores a byte to the requested address.
	StoreByte(addr uint16, v byte)

	// StoreBytes stores multiple bytes to the requested address. Bytes
	// that would fall past the end of the address space are dropped.
	StoreBytes(addr uint16, b []byte)

	// Clear zero-fills the entire address space.
	Clear()
}

// FlatMemory represents an entire 16-bit address space as a singular
// 64K buffer.
type FlatMemory struct {
	b [MemorySize]byte
}

// NewFlatMemory creates a new 16-bit memory space.
func NewFlatMemory() *FlatMemory {
	return &FlatMemory{}
}

// LoadByte loads a single byte from the address and returns it.
func (m *FlatMemory) LoadByte(addr uint16) byte {
	return m.b[addr]
}

// LoadBytes loads multiple bytes from the address and returns them.
func (m *FlatMemory) LoadBytes(addr uint16, b []byte) {
	n := copy(b, m.b[addr:])
	clear(b[n:])
}

// LoadAddress loads a 16-bit address value from the requested address and
// returns it. The high byte of an address stored at $FFFF comes from $0000.
func (m *FlatMemory) LoadAddress(addr uint16) uint16 {
	return uint16(m.b[addr]) | uint16(m.b[addr+1])<<8
}

// StoreByte stores a byte at the requested address.
func (m *FlatMemory) StoreByte(addr uint16, v byte) {
	m.b[addr] = v
}

// StoreBytes stores multiple bytes to the requested address.
func (m *FlatMemory) StoreBytes(addr uint16, b []byte) {
	copy(m.b[addr:], b)
}

// Clear zero-fills the memory.
func (m *FlatMemory) Clear() {
	clear(m.b[:])
}

// Offset a zero-page address 'addr' by 'offset'. The result wraps within
// the zero page and never reaches the stack page.
func offsetZeroPage(addr uint16, offset byte) uint16 {
	return (addr + uint16(offset)) & 0xff
}

// Convert a 1- or 2-byte operand into an address.
func operandToAddress(operand []byte) uint16 {
	switch {
	case len(operand) == 1:
		return uint16(operand[0])
	case len(operand) == 2:
		return uint16(operand[0]) | uint16(operand[1])<<8
	}
	return 0
}

// Given a 1-byte stack pointer register, return the stack
// corresponding memory address.
func stackAddress(offset byte) uint16 {
	return uint16(0x100) + uint16(offset)
}
