// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm implements a permissive two-pass assembler for the 6502
// instruction subset executed by package cpu.
//
// The first pass binds labels and fixes the address, addressing mode and
// length of every instruction. The second pass resolves operand values and
// emits machine code using the modes chosen by the first pass, so the two
// passes always agree on the layout. Questionable input never stops
// assembly: it is encoded on a best-effort basis and reported in
// Assembly.Warnings.
package asm

import (
	"bufio"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/beevik/sim6502/cpu"
)

// Option type used by the Assemble function.
type Option uint

// Options for the Assemble function.
const (
	Verbose Option = 1 << iota // verbose output during assembly
)

// Assembly contains the assembled machine code and other data associated
// with the machine code.
type Assembly struct {
	Code      []byte     // Assembled machine code
	Origin    uint16     // Address of the first byte of Code
	SourceMap *SourceMap // Address to source line mappings and labels
	Warnings  []Warning  // Problems found during assembly
}

// ReadFrom reads machine code from a binary input source.
func (a *Assembly) ReadFrom(r io.Reader) (n int64, err error) {
	a.Warnings = nil
	a.Code, err = io.ReadAll(r)
	n = int64(len(a.Code))
	if n > cpu.MemorySize {
		return n, ErrCodeTooLarge
	}
	return n, err
}

// WriteTo saves machine code as binary data into an output writer.
func (a *Assembly) WriteTo(w io.Writer) (n int64, err error) {
	nn, err := w.Write(a.Code)
	return int64(nn), err
}

type assembler struct {
	instSet  *cpu.InstructionSet // shared instruction table
	origin   int                 // address of the first instruction
	pc       int                 // the program counter
	file     string              // name of the source
	lines    []string            // source lines
	labels   map[string]int      // uppercased label -> address
	records  []record            // instruction records in address order
	code     []byte              // generated machine code
	warnings []Warning           // problems found so far
	out      io.Writer           // output used for verbose output
	verbose  bool                // verbose output
}

// AssembleFile reads a file containing assembly code, assembles it, and
// produces a binary output file and a source map file next to it.
func AssembleFile(path string, options Option, out io.Writer) error {
	inFile, err := os.Open(path)
	if err != nil {
		return err
	}
	defer inFile.Close()

	assembly, err := Assemble(inFile, path, out, options)
	if err != nil {
		return err
	}
	for _, w := range assembly.Warnings {
		fmt.Fprintln(out, w)
	}

	ext := filepath.Ext(path)
	prefix := path[:len(path)-len(ext)]
	binPath := prefix + ".bin"
	binFile, err := os.OpenFile(binPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer binFile.Close()

	_, err = assembly.WriteTo(binFile)
	if err != nil {
		return err
	}

	mapPath := prefix + ".map"
	mapFile, err := os.OpenFile(mapPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer mapFile.Close()

	_, err = assembly.SourceMap.WriteTo(mapFile)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Assembled '%s' to produce '%s' and '%s'.\n",
		filepath.Base(path),
		filepath.Base(binPath),
		filepath.Base(mapPath))
	return nil
}

// Assemble reads source lines from the provided stream and assembles them
// into machine code starting at cpu.Origin. The only error returned is a
// failure to read the stream.
func Assemble(r io.Reader, filename string, out io.Writer, options Option) (*Assembly, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return assemble(lines, filename, out, options), nil
}

// AssembleLines assembles source lines that are already in memory. Verbose
// output, if requested, goes to standard output.
func AssembleLines(lines []string, options Option) *Assembly {
	return assemble(lines, "", os.Stdout, options)
}

func assemble(lines []string, filename string, out io.Writer, options Option) *Assembly {
	if out == nil {
		out = os.Stdout
	}

	a := &assembler{
		instSet: cpu.GetInstructionSet(),
		origin:  cpu.Origin,
		pc:      cpu.Origin,
		file:    filename,
		lines:   lines,
		labels:  make(map[string]int),
		out:     out,
		verbose: (options & Verbose) != 0,
	}

	a.layout()
	a.generateCode()

	sourceMap := &SourceMap{
		Origin: uint16(a.origin),
		Size:   uint32(len(a.code)),
		CRC:    crc32.ChecksumIEEE(a.code),
		Files:  []string{filename},
		Labels: a.exportLabels(),
		Lines:  a.sourceLines(),
	}

	return &Assembly{
		Code:      a.code,
		Origin:    uint16(a.origin),
		SourceMap: sourceMap,
		Warnings:  a.warnings,
	}
}

// Pass 1. Bind labels to addresses and decide the addressing mode and
// length of every instruction.
func (a *assembler) layout() {
	a.logSection("Pass 1: layout")

	for index, text := range a.lines {
		code := stripComment(text)
		if code == "" {
			continue
		}

		if label, rest, ok := splitLabel(code); ok {
			a.storeLabel(index, label)
			code = rest
			if code == "" {
				continue
			}
		}

		r := record{index: index, text: text, addr: uint16(a.pc), code: code}
		r.mnemonic, r.operand = splitInstruction(code)
		a.size(&r)

		a.logLine(&r, "%04X %-3s len=%d", r.addr, r.mode, r.length)
		a.records = append(a.records, r)
		a.pc += r.length
	}
}

func (a *assembler) storeLabel(index int, label string) {
	if label == "" {
		a.addWarning(index, ErrLabelEmpty, "")
		return
	}
	if _, dup := a.labels[label]; dup {
		a.addWarning(index, ErrLabelDuplicate, label)
	}
	a.labels[label] = a.pc
	a.log("%-3d      | %-20s | %s", index+1, fmt.Sprintf("%s = $%04X", label, a.pc), a.lines[index])
}

// Choose the addressing mode and length of an instruction record.
func (a *assembler) size(r *record) {
	variants := a.instSet.GetInstructions(r.mnemonic)
	if len(variants) == 0 {
		r.mode = cpu.IMP
		r.length = unknownLength(r.operand)
		a.addWarning(r.index, ErrMnemonicUnknown, r.mnemonic)
		return
	}

	if inst, ok := fixedMode(variants); ok {
		switch {
		case inst.Mode == cpu.IMP && !r.operand.empty():
			a.addWarning(r.index, ErrOperandIgnored, r.operand.raw)
		case inst.Mode != cpu.IMP && r.operand.empty():
			a.addWarning(r.index, ErrOperandMissing, r.mnemonic)
		}
		r.inst, r.mode, r.length = inst, inst.Mode, int(inst.Length)
		return
	}

	if r.operand.empty() {
		a.addWarning(r.index, ErrOperandMissing, r.mnemonic)
	}

	mode := requestedMode(r.operand)
	inst := a.instSet.Find(r.mnemonic, mode)
	if inst == nil {
		for _, m := range modeFallbacks[mode] {
			if inst = a.instSet.Find(r.mnemonic, m); inst != nil {
				break
			}
		}
		if inst == nil {
			inst = variants[0]
		}
		a.addWarning(r.index, ErrModeUnsupported, fmt.Sprintf("%s %s, using %s", r.mnemonic, mode, inst.Mode))
	}

	r.inst, r.mode, r.length = inst, inst.Mode, int(inst.Length)
}

// Pass 2. Resolve operand values and emit machine code.
func (a *assembler) generateCode() {
	a.logSection("Pass 2: code generation")

	a.code = make([]byte, 0, a.pc-a.origin)
	for i := range a.records {
		r := &a.records[i]
		start := len(a.code)

		if r.inst == nil {
			a.code = append(a.code, slices.Repeat([]byte{nopOpcode}, r.length)...)
		} else {
			a.code = append(a.code, r.inst.Opcode)
			a.code = append(a.code, a.encodeOperand(r)...)
		}

		a.logBytes(int(r.addr), a.code[start:])
	}
}

const nopOpcode = 0xea

// Produce the operand bytes of an instruction record.
func (a *assembler) encodeOperand(r *record) []byte {
	switch r.mode {
	case cpu.IMP:
		return nil

	case cpu.REL:
		target := a.value(r)
		diff := target - (int(r.addr) + 2)
		if diff < -128 || diff > 127 {
			a.addWarning(r.index, ErrBranchRange, r.operand.raw)
		}
		return []byte{byte(diff)}

	case cpu.ABS:
		v := a.value(r)
		if v > 0xffff {
			a.addWarning(r.index, ErrOperandTruncated, r.operand.raw)
		}
		return []byte{byte(v), byte(v >> 8)}

	default:
		v := a.value(r)
		if v > 0xff {
			a.addWarning(r.index, ErrOperandTruncated, r.operand.raw)
		}
		return []byte{byte(v)}
	}
}

// Resolve the value of an instruction operand. Invalid literals and
// undefined labels resolve to zero.
func (a *assembler) value(r *record) int {
	expr := r.operand.expr
	if expr == "" {
		return 0
	}

	v, isLiteral, err := parseLiteral(expr)
	switch {
	case isLiteral && err != nil:
		a.addWarning(r.index, ErrLiteralInvalid, expr)
		return 0
	case isLiteral:
		return v
	}

	addr, ok := a.labels[strings.ToUpper(expr)]
	if !ok {
		a.addWarning(r.index, ErrLabelUndefined, expr)
		return 0
	}
	return addr
}

func (a *assembler) exportLabels() []Label {
	labels := make([]Label, 0, len(a.labels))
	for name, addr := range a.labels {
		labels = append(labels, Label{Name: name, Address: uint16(addr)})
	}
	return sortLabels(labels)
}

func (a *assembler) sourceLines() []SourceLine {
	lines := make([]SourceLine, 0, len(a.records))
	for _, r := range a.records {
		lines = append(lines, SourceLine{Address: r.addr, Line: r.index})
	}
	slices.SortStableFunc(lines, func(x, y SourceLine) int {
		return int(x.Address) - int(y.Address)
	})
	return lines
}

// Append a warning to the assembler's warning list.
func (a *assembler) addWarning(index int, err error, detail string) {
	w := Warning{File: a.file, Line: index, Err: err, Detail: detail}
	a.warnings = append(a.warnings, w)
	if a.verbose {
		fmt.Fprintf(a.out, "Warning: %v\n", w)
	}
}

// In verbose mode, log a string to the output.
func (a *assembler) log(format string, args ...any) {
	if a.verbose {
		fmt.Fprintf(a.out, format, args...)
		fmt.Fprintf(a.out, "\n")
	}
}

// In verbose mode, log a string and its associated line
// of assembly code.
func (a *assembler) logLine(r *record, format string, args ...any) {
	if a.verbose {
		detail := fmt.Sprintf(format, args...)
		fmt.Fprintf(a.out, "%-3d      | %-20s | %s\n", r.index+1, detail, r.code)
	}
}

// In verbose mode, log a series of bytes with starting address.
func (a *assembler) logBytes(addr int, b []byte) {
	if a.verbose {
		a.log("%04X-*  % X", addr, b)
	}
}

// In verbose mode, log a section header to the output.
func (a *assembler) logSection(name string) {
	if a.verbose {
		fmt.Fprintln(a.out, strings.Repeat("-", len(name)+6))
		fmt.Fprintf(a.out, "-- %s --\n", name)
		fmt.Fprintln(a.out, strings.Repeat("-", len(name)+6))
	}
}
