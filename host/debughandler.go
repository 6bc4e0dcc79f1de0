// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import "github.com/beevik/sim6502/cpu"

// A debugHandler stops the host's execution loop when the cpu debugger
// reports a breakpoint.
type debugHandler struct {
	host *Host
}

// OnBreakpoint is called before the instruction at the breakpoint's
// address executes.
func (d *debugHandler) OnBreakpoint(c *cpu.CPU, b *cpu.Breakpoint) {
	h := d.host
	h.state = stateBreakpoint
	h.printf("Breakpoint hit at $%04X.\n", b.Address)
	h.displayPC()
}

// OnDataBreakpoint is called once the instruction that stored to a watched
// address has finished, so memory and cycle counts include its effects.
// The PC has already moved past that instruction, so it is shown
// separately.
func (d *debugHandler) OnDataBreakpoint(c *cpu.CPU, b *cpu.DataBreakpoint) {
	h := d.host
	h.state = stateBreakpoint
	h.printf("Data breakpoint hit on address $%04X.\n", b.Address)

	if c.LastPC != c.Reg.PC {
		line, _ := h.disassemble(c.LastPC, displayAll)
		h.println(line)
	}
	h.displayPC()
}
