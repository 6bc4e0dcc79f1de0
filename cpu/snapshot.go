// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// A Snapshot is a read-only copy of the machine state, taken between
// instructions for presentation.
type Snapshot struct {
	Reg     Registers
	Cycles  uint64
	Steps   uint64
	LastPC  uint16
	Running bool
	Mem     [MemorySize]byte
}

// Snapshot copies the registers, flags, counters, running state and the
// entire address space.
func (cpu *CPU) Snapshot() *Snapshot {
	s := &Snapshot{
		Reg:     cpu.Reg,
		Cycles:  cpu.Cycles,
		Steps:   cpu.Steps,
		LastPC:  cpu.LastPC,
		Running: cpu.running,
	}
	cpu.Mem.LoadBytes(0, s.Mem[:])
	return s
}

// Page returns the 256 bytes of the memory page that contains addr.
func (s *Snapshot) Page(addr uint16) []byte {
	start := int(addr) &^ 0xff
	return s.Mem[start : start+0x100]
}
