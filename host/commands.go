// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"
	"reflect"
	"strings"
)

func (h *Host) cmdHelp(c *command, args []string) error {
	if len(args) == 0 {
		h.displayCommands(cmds)
		return nil
	}

	s := h.lookup(strings.Join(args, " "))
	if s == nil {
		return nil
	}
	if s.c.usage != "" {
		h.printf("Syntax: %s\n\n", s.c.usage)
	}
	switch {
	case s.c.description != "":
		h.printf("Description:\n%s\n\n", indentWrap(3, s.c.description))
	case s.c.brief != "":
		h.printf("Description:\n%s.\n\n", indentWrap(3, s.c.brief))
	}
	return nil
}

func (h *Host) cmdAssemble(c *command, args []string) error {
	if len(args) < 1 {
		h.displayHelpText(c)
		return nil
	}
	if err := h.assemble(args[0]); err != nil {
		h.printf("Failed to assemble '%s': %v\n", args[0], err)
	}
	return nil
}

func (h *Host) cmdLoad(c *command, args []string) error {
	if len(args) < 1 {
		h.displayHelpText(c)
		return nil
	}
	if err := h.load(args[0]); err != nil {
		h.printf("Failed to load '%s': %v\n", args[0], err)
	}
	return nil
}

func (h *Host) cmdReset(c *command, args []string) error {
	h.reset()
	h.printf("CPU reset. PC=$%04X.\n", h.cpu.Reg.PC)
	return nil
}

// Parse the single address argument shared by the breakpoint commands.
func (h *Host) breakpointAddr(c *command, args []string) (uint16, bool) {
	if len(args) < 1 {
		h.displayHelpText(c)
		return 0, false
	}
	addr, err := h.parseExpr(args[0])
	if err != nil {
		h.printf("%v\n", err)
		return 0, false
	}
	return addr, true
}

func (h *Host) cmdBreakpointList(c *command, args []string) error {
	h.println("Addr  Enabled")
	h.println("----- -------")
	for _, b := range h.debugger.GetBreakpoints() {
		h.printf("$%04X %v\n", b.Address, !b.Disabled)
	}
	return nil
}

func (h *Host) cmdBreakpointAdd(c *command, args []string) error {
	if addr, ok := h.breakpointAddr(c, args); ok {
		h.debugger.AddBreakpoint(addr)
		h.printf("Breakpoint added at $%04X.\n", addr)
	}
	return nil
}

func (h *Host) cmdBreakpointRemove(c *command, args []string) error {
	if addr, ok := h.breakpointAddr(c, args); ok {
		if h.debugger.RemoveBreakpoint(addr) {
			h.printf("Breakpoint at $%04X removed.\n", addr)
		} else {
			h.printf("No breakpoint was set on $%04X.\n", addr)
		}
	}
	return nil
}

func (h *Host) cmdBreakpointEnable(c *command, args []string) error {
	h.enableBreakpoint(c, args, true)
	return nil
}

func (h *Host) cmdBreakpointDisable(c *command, args []string) error {
	h.enableBreakpoint(c, args, false)
	return nil
}

func (h *Host) enableBreakpoint(c *command, args []string, enable bool) {
	addr, ok := h.breakpointAddr(c, args)
	if !ok {
		return
	}

	b := h.debugger.GetBreakpoint(addr)
	if b == nil {
		h.printf("No breakpoint was set on $%04X.\n", addr)
		return
	}

	b.Disabled = !enable
	if enable {
		h.printf("Breakpoint at $%04X enabled.\n", addr)
	} else {
		h.printf("Breakpoint at $%04X disabled.\n", addr)
	}
}

func (h *Host) cmdDataBreakpointList(c *command, args []string) error {
	h.println("Addr  Enabled  Value")
	h.println("----- -------  -----")
	for _, b := range h.debugger.GetDataBreakpoints() {
		if b.Conditional {
			h.printf("$%04X %-5v    $%02X\n", b.Address, !b.Disabled, b.Value)
		} else {
			h.printf("$%04X %-5v    <none>\n", b.Address, !b.Disabled)
		}
	}
	return nil
}

func (h *Host) cmdDataBreakpointAdd(c *command, args []string) error {
	addr, ok := h.breakpointAddr(c, args)
	if !ok {
		return nil
	}

	if len(args) > 1 {
		value, err := h.parseExpr(args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.debugger.AddConditionalDataBreakpoint(addr, byte(value))
		h.printf("Conditional data breakpoint added at $%04X for value $%02X.\n", addr, byte(value))
	} else {
		h.debugger.AddDataBreakpoint(addr)
		h.printf("Data breakpoint added at $%04X.\n", addr)
	}
	return nil
}

func (h *Host) cmdDataBreakpointRemove(c *command, args []string) error {
	if addr, ok := h.breakpointAddr(c, args); ok {
		if h.debugger.RemoveDataBreakpoint(addr) {
			h.printf("Data breakpoint at $%04X removed.\n", addr)
		} else {
			h.printf("No data breakpoint was set on $%04X.\n", addr)
		}
	}
	return nil
}

func (h *Host) cmdDisassemble(c *command, args []string) error {
	addr, err := h.parseAddr(args, h.settings.NextDisasmAddr)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	lines, err := h.parseCount(args, 1, h.settings.DisasmLines)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	for range lines {
		d, next := h.disassemble(addr, displaySource)
		h.println(d)
		addr = next
	}

	h.settings.NextDisasmAddr = addr
	h.repeatWith("$", fmt.Sprintf("0d%d", lines))
	return nil
}

// Make an empty line continue from where the current command left off.
func (h *Host) repeatWith(args ...string) {
	if h.lastCmd != nil {
		h.lastCmd.args = args
	}
}

func (h *Host) cmdEvaluate(c *command, args []string) error {
	if len(args) < 1 {
		h.displayHelpText(c)
		return nil
	}

	v, err := h.exprParser.Parse(strings.Join(args, " "), h)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.printf("$%04X (%d)\n", uint16(v), v)
	return nil
}

func (h *Host) cmdLabels(c *command, args []string) error {
	p := h.program
	if p == nil || p.sourceMap == nil || len(p.sourceMap.Labels) == 0 {
		h.println("No labels.")
		return nil
	}
	for _, l := range p.sourceMap.Labels {
		h.printf("%-16s $%04X\n", l.Name, l.Address)
	}
	return nil
}

func (h *Host) cmdList(c *command, args []string) error {
	p := h.program
	if p == nil || p.sourceMap == nil || len(p.lines) == 0 {
		h.println("No source code available.")
		return nil
	}

	addr, err := h.parseAddr(args, h.cpu.Reg.PC)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	lines, err := h.parseCount(args, 1, h.settings.SourceLines)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	line, ok := p.sourceMap.AddressToLine()[addr]
	if !ok {
		h.printf("No source line at $%04X.\n", addr)
		return nil
	}

	h.listSource(line, lines)
	return nil
}

func (h *Host) cmdMemoryDump(c *command, args []string) error {
	addr, err := h.parseAddr(args, h.settings.NextMemDumpAddr)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	bytes, err := h.parseCount(args, 1, h.settings.MemDumpBytes)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.dumpMemory(addr, uint16(bytes))

	h.settings.NextMemDumpAddr = addr + uint16(bytes)
	h.repeatWith("$", fmt.Sprintf("0d%d", bytes))
	return nil
}

func (h *Host) cmdMemorySet(c *command, args []string) error {
	if len(args) < 2 {
		h.displayHelpText(c)
		return nil
	}

	addr, err := h.parseExpr(args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	values := make([]byte, 0, len(args)-1)
	for _, a := range args[1:] {
		v, err := h.parseExpr(a)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		values = append(values, byte(v))
	}

	h.cpu.Mem.StoreBytes(addr, values)
	h.printf("Stored %d bytes at $%04X.\n", len(values), addr)
	return nil
}

func (h *Host) cmdQuit(c *command, args []string) error {
	return errQuit
}

func (h *Host) cmdRegister(c *command, args []string) error {
	switch len(args) {
	case 0:
		d, _ := h.disassemble(h.cpu.Reg.PC, displayAll)
		h.println(d)
	case 1:
		h.displayHelpText(c)
	default:
		v, err := h.exprParser.Parse(strings.Join(args[1:], " "), h)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		msg, err := h.setRegister(args[0], v)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.println(msg)
	}
	return nil
}

func (h *Host) cmdRun(c *command, args []string) error {
	limit, err := h.parseCount(args, 0, h.settings.RunLimit)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	if !h.cpu.Running() {
		h.println("CPU is halted. Reset to run again.")
		return nil
	}

	h.printf("Running from $%04X. Press ctrl-C to break.\n", h.cpu.Reg.PC)
	h.run(limit)
	return nil
}

func (h *Host) cmdScript(c *command, args []string) error {
	if len(args) < 1 {
		h.displayHelpText(c)
		return nil
	}
	if err := h.RunScript(args[0]); err != nil {
		h.printf("Script failed: %v\n", err)
	}
	return nil
}

func (h *Host) cmdSet(c *command, args []string) error {
	switch len(args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)
		h.flush()

	case 1:
		h.displayHelpText(c)

	default:
		key, value := args[0], strings.Join(args[1:], " ")

		var err error
		switch h.settings.Kind(key) {
		case reflect.Invalid:
			// Not a setting, so try a register.
			var v int64
			v, err = h.exprParser.Parse(value, h)
			if err == nil {
				var msg string
				if msg, err = h.setRegister(key, v); err == nil {
					h.println(msg)
					return nil
				}
				err = fmt.Errorf("%w: %s", errSettingNotFound, key)
			}
		case reflect.Bool:
			var v bool
			v, err = stringToBool(value)
			if err == nil {
				err = h.settings.Set(key, v)
			}
		default:
			var v int64
			v, err = h.exprParser.Parse(value, h)
			if err == nil {
				err = h.settings.Set(key, v)
			}
		}

		if err == nil {
			h.printf("Setting %s updated.\n", h.settings.Name(key))
		} else {
			h.printf("%v\n", err)
		}

		h.onSettingsUpdate()
	}

	return nil
}

func (h *Host) cmdSnapshot(c *command, args []string) error {
	renderSnapshot(h.output, h.cpu.Snapshot(), h.program)
	h.flush()
	return nil
}

func (h *Host) cmdStep(c *command, args []string) error {
	count, err := h.parseCount(args, 0, 1)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	if !h.cpu.Running() {
		h.println("CPU is halted. Reset to run again.")
		return nil
	}

	h.step(max(count, 1))
	return nil
}
