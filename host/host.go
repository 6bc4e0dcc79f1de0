// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host drives a simulated 6502-subset system: one CPU, 64K of flat
// memory, the assembler, a debugger with execution and data breakpoints,
// an expression evaluator and a Starlark scripting layer.
//
// Within the host it is possible to assemble a program and load it at
// $0200, reset and reload it, step or run it, inspect and modify registers
// and memory, disassemble code, list the source lines behind an address,
// and render snapshots of the machine state.
package host

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/cmd"
	"github.com/beevik/sim6502/asm"
	"github.com/beevik/sim6502/cpu"
	"github.com/beevik/sim6502/disasm"
)

type displayFlags uint8

const (
	displayRegisters displayFlags = 1 << iota
	displayCycles
	displaySource

	displayAll = displayRegisters | displayCycles | displaySource
)

type state byte

const (
	stateProcessingCommands state = iota
	stateRunning
	stateBreakpoint
)

// A program is the machine code most recently assembled or loaded, along
// with its source map and source text when they are available.
type program struct {
	filename  string
	origin    uint16
	code      []byte
	sourceMap *asm.SourceMap
	lines     []string
}

// A selection is a command together with its arguments.
type selection struct {
	c    *command
	args []string
}

// A Host represents a fully emulated 6502-subset system with 64K of memory,
// a built-in assembler, a built-in debugger, and other useful tools.
type Host struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	mem         *cpu.FlatMemory
	cpu         *cpu.CPU
	debugger    *cpu.Debugger
	lastCmd     *selection
	state       state
	exprParser  *exprParser
	program     *program
	settings    *settings
}

// New creates a new host environment that writes to standard output until
// RunCommands is called.
func New() *Host {
	h := &Host{
		output:     bufio.NewWriter(os.Stdout),
		state:      stateProcessingCommands,
		exprParser: newExprParser(),
		settings:   newSettings(),
	}

	// Create the emulated CPU and memory.
	h.mem = cpu.NewFlatMemory()
	h.cpu = cpu.NewCPU(h.mem)
	h.cpu.SetPC(cpu.Origin)

	// Create a CPU debugger and attach it to the CPU.
	h.debugger = cpu.NewDebugger(&debugHandler{host: h})
	h.cpu.AttachDebugger(h.debugger)

	return h
}

// RunCommands accepts host commands from a reader and outputs the results
// to a writer. If the commands are interactive, a prompt is displayed while
// the host waits for the next command to be entered. An empty line repeats
// the previous command.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	h.input = bufio.NewScanner(r)
	h.output = bufio.NewWriter(w)
	h.interactive = interactive

	if interactive {
		h.println()
	}

	h.displayPC()

	for {
		h.prompt()

		line, err := h.getLine()
		if err != nil {
			break
		}

		var s *selection
		switch {
		case strings.TrimSpace(line) != "":
			s = h.lookup(line)
		case h.lastCmd != nil:
			s = &selection{c: h.lastCmd.c, args: h.lastCmd.args}
		}
		if s == nil {
			continue
		}
		h.lastCmd = s

		err = s.c.handler(h, s.c, s.args)
		if err != nil {
			break
		}
	}
	h.flush()
}

// Break interrupts a running CPU.
func (h *Host) Break() {
	h.println()

	if h.state == stateRunning {
		h.displayPC()
	}
	if h.state == stateProcessingCommands {
		h.prompt()
	}
	h.state = stateProcessingCommands
}

// AssembleFile assembles a source file, writing the machine code and
// source map next to it. Warnings are written to the host output.
func (h *Host) AssembleFile(filename string, verbose bool) error {
	var options asm.Option
	if verbose {
		options |= asm.Verbose
	}
	err := asm.AssembleFile(filename, options, h.output)
	h.flush()
	return err
}

func (h *Host) lookup(line string) *selection {
	n, args, err := cmds.Lookup(line)
	switch {
	case errors.Is(err, cmd.ErrNotFound):
		h.println("Command not found.")
		return nil
	case errors.Is(err, cmd.ErrAmbiguous):
		h.println("Command is ambiguous.")
		return nil
	case err != nil:
		h.printf("ERROR: %v.\n", err)
		return nil
	}

	switch n := n.(type) {
	case *cmd.Command:
		if c, ok := n.Data.(*command); ok {
			return &selection{c: c, args: args}
		}
	case *cmd.Tree:
		h.displayCommands(n)
	}
	return nil
}

func (h *Host) print(args ...any) {
	fmt.Fprint(h.output, args...)
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) getLine() (string, error) {
	if h.input.Scan() {
		return h.input.Text(), nil
	}
	if h.input.Err() != nil {
		return "", h.input.Err()
	}
	return "", io.EOF
}

func (h *Host) prompt() {
	if h.interactive {
		h.print("* ")
		h.flush()
	}
}

func (h *Host) displayPC() {
	if h.interactive {
		d, _ := h.disassemble(h.cpu.Reg.PC, displayAll)
		h.println(d)
	}
}

// Assemble a source file, write its binary and source map, and load the
// result.
func (h *Host) assemble(filename string) error {
	if filepath.Ext(filename) == "" {
		filename += ".asm"
	}
	if err := asm.AssembleFile(filename, 0, h.output); err != nil {
		return err
	}
	prefix := strings.TrimSuffix(filename, filepath.Ext(filename))
	return h.load(prefix + ".bin")
}

// Load a binary file and its source map, if any, and make it the current
// program.
func (h *Host) load(filename string) error {
	if filepath.Ext(filename) == "" {
		filename += ".bin"
	}

	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	a := &asm.Assembly{Origin: cpu.Origin}
	if _, err := a.ReadFrom(file); err != nil {
		return err
	}

	p := &program{filename: filename, origin: a.Origin, code: a.Code}

	prefix := strings.TrimSuffix(filename, filepath.Ext(filename))
	mapFilename := prefix + ".map"
	if m, err := os.Open(mapFilename); err == nil {
		sm := &asm.SourceMap{}
		_, err = sm.ReadFrom(m)
		m.Close()
		switch {
		case err != nil:
			h.printf("Failed to read '%s': %v\n", filepath.Base(mapFilename), err)
		case sm.CRC != crc32.ChecksumIEEE(a.Code):
			h.printf("Source map '%s' does not match the binary.\n", filepath.Base(mapFilename))
		default:
			p.sourceMap = sm
			p.origin = sm.Origin
			p.lines = readSource(sm)
		}
	}

	h.loadProgram(p)
	h.printf("Loaded '%s' to $%04X..$%04X.\n", filepath.Base(filename),
		p.origin, int(p.origin)+max(len(p.code), 1)-1)
	return nil
}

// Read the source file named by a source map. Missing files yield no lines.
func readSource(sm *asm.SourceMap) []string {
	if len(sm.Files) == 0 || sm.Files[0] == "" {
		return nil
	}
	data, err := os.ReadFile(sm.Files[0])
	if err != nil {
		return nil
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

func (h *Host) loadProgram(p *program) {
	h.program = p
	h.reset()
}

// Reset the CPU and reload the current program, if there is one.
func (h *Host) reset() {
	h.cpu.Reset()
	if p := h.program; p != nil {
		h.cpu.LoadAt(p.origin, p.code)
	} else {
		h.cpu.SetPC(cpu.Origin)
	}
	h.state = stateProcessingCommands
	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	h.settings.NextMemDumpAddr = h.cpu.Reg.PC
}

// Execute up to limit instructions, or without a limit if limit is not
// positive. Execution stops early when the CPU halts, a breakpoint is hit
// or the host is interrupted. The after callback, if provided, is called
// after each instruction with the number executed so far.
func (h *Host) execute(limit int, after func(n int)) (n int, stopped state) {
	h.state = stateRunning
	for h.state == stateRunning && h.cpu.Running() && (limit <= 0 || n < limit) {
		h.cpu.Step()
		n++
		if after != nil {
			after(n)
		}
	}
	stopped = h.state
	h.state = stateProcessingCommands

	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return n, stopped
}

// Step the CPU count times, displaying the trailing instructions.
func (h *Host) step(count int) int {
	n, _ := h.execute(count, func(n int) {
		remaining := count - n
		switch {
		case remaining == h.settings.MaxStepLines:
			h.println("...")
		case remaining < h.settings.MaxStepLines:
			h.displayPC()
		}
	})
	if !h.cpu.Running() {
		h.displayHalt()
	}
	return n
}

// Run the CPU until it stops, reporting why it stopped.
func (h *Host) run(limit int) int {
	n, stopped := h.execute(limit, nil)
	switch {
	case !h.cpu.Running():
		h.displayHalt()
	case stopped == stateRunning:
		h.printf("Run limit of %d instructions reached.\n", limit)
		h.displayPC()
	}
	return n
}

func (h *Host) displayHalt() {
	h.printf("CPU halted at $%04X after %d steps and %d cycles.\n",
		h.cpu.LastPC, h.cpu.Steps, h.cpu.Cycles)
	if h.settings.ShowPages {
		renderSnapshot(h.output, h.cpu.Snapshot(), h.program)
		h.flush()
	}
}

func (h *Host) onSettingsUpdate() {
	h.exprParser.hexMode = h.settings.HexMode
}

func (h *Host) parseExpr(expr string) (uint16, error) {
	v, err := h.exprParser.Parse(expr, h)
	if err != nil {
		return 0, err
	}

	if v < 0 {
		v = 0x10000 + v
	}
	return uint16(v), nil
}

// Parse an address argument, falling back to a default when absent. The
// "$" argument means def and "." means the program counter.
func (h *Host) parseAddr(args []string, def uint16) (uint16, error) {
	if len(args) == 0 {
		return def, nil
	}
	switch args[0] {
	case "$":
		return def, nil
	case ".":
		return h.cpu.Reg.PC, nil
	default:
		return h.parseExpr(args[0])
	}
}

// Parse a count argument at args[i], falling back to def when absent.
func (h *Host) parseCount(args []string, i, def int) (int, error) {
	if len(args) <= i {
		return def, nil
	}
	v, err := h.exprParser.Parse(args[i], h)
	return int(v), err
}

func (h *Host) disassemble(addr uint16, flags displayFlags) (str string, next uint16) {
	line, _ := disasm.Disassemble(h.cpu.Mem, addr)
	next = h.cpu.NextAddr(addr)

	b := make([]byte, next-addr)
	h.cpu.Mem.LoadBytes(addr, b)

	str = fmt.Sprintf("%04X-   %-8s    %-15s", addr, codeString(b), line)

	if (flags & displayRegisters) != 0 {
		if h.settings.CompactMode {
			str += " " + disasm.GetCompactRegisterString(&h.cpu.Reg)
		} else {
			str += " " + disasm.GetRegisterString(&h.cpu.Reg)
		}
	}

	if (flags & displayCycles) != 0 {
		str += fmt.Sprintf(" C=%-12d", h.cpu.Cycles)
	}

	if (flags & displaySource) != 0 {
		if src, ok := h.sourceLine(addr); ok {
			str += " ; " + src
		}
	}

	return str, next
}

// Return the trimmed source text of the instruction at addr.
func (h *Host) sourceLine(addr uint16) (string, bool) {
	p := h.program
	if p == nil || p.sourceMap == nil {
		return "", false
	}
	_, line := p.sourceMap.Search(addr)
	if line < 0 || line >= len(p.lines) {
		return "", false
	}
	return strings.TrimSpace(p.lines[line]), true
}

func (h *Host) dumpMemory(addr0, bytes uint16) {
	if bytes == 0 {
		return
	}

	addr1 := addr0 + bytes - 1
	if addr1 < addr0 {
		addr1 = 0xffff
	}

	buf := []byte("    -" + strings.Repeat(" ", 35))

	// Don't align display for short dumps.
	if addr1-addr0 < 8 {
		addrToBuf(addr0, buf[0:4])
		for a, c1, c2 := addr0, 6, 32; a <= addr1 && a >= addr0; a, c1, c2 = a+1, c1+3, c2+1 {
			m := h.cpu.Mem.LoadByte(a)
			byteToBuf(m, buf[c1:c1+2])
			buf[c2] = toPrintableChar(m)
		}
		h.println(string(buf))
		return
	}

	// Align addr0 and addr1 to 8-byte boundaries.
	start := uint32(addr0) & 0xfff8
	stop := min((uint32(addr1)+8)&0xffff8, 0x10000)

	a := uint16(start)
	for r := start; r < stop; r += 8 {
		addrToBuf(a, buf[0:4])
		for c1, c2 := 6, 32; c1 < 29; c1, c2, a = c1+3, c2+1, a+1 {
			if a >= addr0 && a <= addr1 {
				m := h.cpu.Mem.LoadByte(a)
				byteToBuf(m, buf[c1:c1+2])
				buf[c2] = toPrintableChar(m)
			} else {
				buf[c1] = ' '
				buf[c1+1] = ' '
				buf[c2] = ' '
			}
		}
		h.println(string(buf))
	}
}

// List n source lines centered on a zero-based line index. The line
// holding the program counter is marked.
func (h *Host) listSource(center, n int) {
	p := h.program
	pcLine, ok := p.sourceMap.AddressToLine()[h.cpu.Reg.PC]
	if !ok {
		pcLine = -1
	}

	start := max(center-n/2, 0)
	stop := min(start+n, len(p.lines))
	for i := start; i < stop; i++ {
		marker := "  "
		if i == pcLine {
			marker = "> "
		}
		if addr, ok := p.sourceMap.LineToAddress(i); ok {
			h.printf("%s%4d  %04X  %s\n", marker, i+1, addr, p.lines[i])
		} else {
			h.printf("%s%4d        %s\n", marker, i+1, p.lines[i])
		}
	}
}

func (h *Host) displayHelpText(c *command) {
	if c.usage != "" {
		h.printf("Syntax: %s\n", c.usage)
	} else {
		h.println("<no help text>")
	}
}

func (h *Host) displayCommands(t *cmd.Tree) {
	g, ok := groups[t]
	if !ok {
		return
	}
	h.printf("%s commands:\n", g.title)
	for _, e := range g.entries {
		h.printf("    %-15s  %s\n", e.name, e.brief)
	}
}

func (h *Host) resolveIdentifier(s string) (int64, error) {
	switch strings.ToLower(s) {
	case "a":
		return int64(h.cpu.Reg.A), nil
	case "x":
		return int64(h.cpu.Reg.X), nil
	case "y":
		return int64(h.cpu.Reg.Y), nil
	case "sp":
		return int64(h.cpu.Reg.SP) | 0x0100, nil
	case ".", "pc":
		return int64(h.cpu.Reg.PC), nil
	}

	if p := h.program; p != nil && p.sourceMap != nil {
		if addr, ok := p.sourceMap.Label(s); ok {
			return int64(addr), nil
		}
	}

	return 0, fmt.Errorf("%w: %s", errIdentifierNotFound, s)
}

// Assign a value to a register or status flag and describe the result.
func (h *Host) setRegister(name string, v int64) (string, error) {
	r := &h.cpu.Reg
	name = strings.ToLower(name)
	switch name {
	case "a":
		r.A = byte(v)
	case "x":
		r.X = byte(v)
	case "y":
		r.Y = byte(v)
	case "sp":
		r.SP = byte(v)
	case ".", "pc":
		r.PC = uint16(v)
		return fmt.Sprintf("Register PC set to $%04X.", r.PC), nil
	case "n", "sign":
		r.Sign = v != 0
	case "v", "overflow":
		r.Overflow = v != 0
	case "z", "zero":
		r.Zero = v != 0
	case "c", "carry":
		r.Carry = v != 0
	default:
		return "", fmt.Errorf("%w: %s", errRegisterUnknown, name)
	}

	switch name {
	case "a", "x", "y", "sp":
		return fmt.Sprintf("Register %s set to $%02X.", strings.ToUpper(name), byte(v)), nil
	default:
		return fmt.Sprintf("Flag %s set to %v.", strings.ToUpper(name), v != 0), nil
	}
}
