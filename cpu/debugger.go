// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"cmp"
	"maps"
	"slices"
)

// A Debugger watches a CPU it is attached to. It reports execution
// breakpoints when the program counter lands on a watched address and data
// breakpoints when a byte is stored to a watched address.
type Debugger struct {
	handler         BreakpointHandler
	breakpoints     map[uint16]*Breakpoint
	dataBreakpoints map[uint16]*DataBreakpoint
	dataHits        []*DataBreakpoint // hits waiting for the step to finish
}

// The BreakpointHandler interface should be implemented by any object that
// wishes to receive debugger breakpoint notifications.
type BreakpointHandler interface {
	OnBreakpoint(cpu *CPU, b *Breakpoint)
	OnDataBreakpoint(cpu *CPU, b *DataBreakpoint)
}

// A Breakpoint represents an address that will cause the debugger to stop
// code execution when the program counter reaches it.
type Breakpoint struct {
	Address  uint16 // address of execution breakpoint
	Disabled bool   // this breakpoint is currently disabled
}

// A DataBreakpoint represents an address that will cause the debugger to
// stop executing code when a byte is stored to it.
type DataBreakpoint struct {
	Address     uint16 // breakpoint triggered by stores to this address
	Disabled    bool   // this breakpoint is currently disabled
	Conditional bool   // only trigger when Value is stored
	Value       byte   // the value that must be stored if Conditional
}

// NewDebugger creates a new CPU debugger that reports to the handler.
func NewDebugger(handler BreakpointHandler) *Debugger {
	return &Debugger{
		handler:         handler,
		breakpoints:     make(map[uint16]*Breakpoint),
		dataBreakpoints: make(map[uint16]*DataBreakpoint),
	}
}

// GetBreakpoint looks up a breakpoint by address and returns it if found.
// Otherwise it returns nil.
func (d *Debugger) GetBreakpoint(addr uint16) *Breakpoint {
	return d.breakpoints[addr]
}

// GetBreakpoints returns all breakpoints sorted by address.
func (d *Debugger) GetBreakpoints() []*Breakpoint {
	return slices.SortedFunc(maps.Values(d.breakpoints), func(a, b *Breakpoint) int {
		return cmp.Compare(a.Address, b.Address)
	})
}

// AddBreakpoint sets a breakpoint at addr, replacing any breakpoint
// already there.
func (d *Debugger) AddBreakpoint(addr uint16) *Breakpoint {
	b := &Breakpoint{Address: addr}
	d.breakpoints[addr] = b
	return b
}

// RemoveBreakpoint removes the breakpoint at addr. It returns false if
// there was none.
func (d *Debugger) RemoveBreakpoint(addr uint16) bool {
	_, ok := d.breakpoints[addr]
	delete(d.breakpoints, addr)
	return ok
}

// GetDataBreakpoint looks up a data breakpoint on the provided address
// and returns it if found. Otherwise it returns nil.
func (d *Debugger) GetDataBreakpoint(addr uint16) *DataBreakpoint {
	return d.dataBreakpoints[addr]
}

// GetDataBreakpoints returns all data breakpoints sorted by address.
func (d *Debugger) GetDataBreakpoints() []*DataBreakpoint {
	return slices.SortedFunc(maps.Values(d.dataBreakpoints), func(a, b *DataBreakpoint) int {
		return cmp.Compare(a.Address, b.Address)
	})
}

// AddDataBreakpoint adds an unconditional data breakpoint on the requested
// address.
func (d *Debugger) AddDataBreakpoint(addr uint16) *DataBreakpoint {
	b := &DataBreakpoint{Address: addr}
	d.dataBreakpoints[addr] = b
	return b
}

// AddConditionalDataBreakpoint adds a data breakpoint that triggers only
// when value is stored to addr.
func (d *Debugger) AddConditionalDataBreakpoint(addr uint16, value byte) *DataBreakpoint {
	b := &DataBreakpoint{Address: addr, Conditional: true, Value: value}
	d.dataBreakpoints[addr] = b
	return b
}

// RemoveDataBreakpoint removes a (conditional or unconditional) data
// breakpoint at the requested address. It returns false if there was none.
func (d *Debugger) RemoveDataBreakpoint(addr uint16) bool {
	_, ok := d.dataBreakpoints[addr]
	delete(d.dataBreakpoints, addr)
	return ok
}

// Report the data breakpoints hit during the step that just finished, then
// any breakpoint on the new program counter.
func (d *Debugger) onStepDone(cpu *CPU) {
	hits := d.dataHits
	d.dataHits = d.dataHits[:0]
	if d.handler == nil {
		return
	}
	for _, b := range hits {
		d.handler.OnDataBreakpoint(cpu, b)
	}
	if b, ok := d.breakpoints[cpu.Reg.PC]; ok && !b.Disabled {
		d.handler.OnBreakpoint(cpu, b)
	}
}

func (d *Debugger) onDataStore(addr uint16, v byte) {
	if b, ok := d.dataBreakpoints[addr]; ok && !b.Disabled {
		if !b.Conditional || b.Value == v {
			d.dataHits = append(d.dataHits, b)
		}
	}
}
