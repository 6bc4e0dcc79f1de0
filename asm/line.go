// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/beevik/sim6502/cpu"
)

// A record is one instruction line, laid out in pass 1 and encoded in
// pass 2. Pass 2 never changes the mode or the length.
type record struct {
	index    int              // zero-based source line index
	text     string           // raw source line
	addr     uint16           // address of the first byte
	code     string           // line without comment and label
	mnemonic string           // uppercased mnemonic
	operand  operand          // parsed operand
	mode     cpu.Mode         // addressing mode chosen in pass 1
	length   int              // encoded length chosen in pass 1
	inst     *cpu.Instruction // nil if the mnemonic is unknown
}

// An operand holds the operand text of an instruction split into its
// syntactic parts.
type operand struct {
	raw       string // operand text as written
	expr      string // value text, without '#' and ',X'
	immediate bool   // written with a leading '#'
	indexedX  bool   // written with a trailing ',X'
}

func (o operand) empty() bool {
	return o.raw == ""
}

// Remove a trailing comment and surrounding whitespace.
func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// Split off a leading "LABEL:" prefix. The label is uppercased.
func splitLabel(code string) (label, rest string, ok bool) {
	label, rest, ok = strings.Cut(code, ":")
	if !ok {
		return "", code, false
	}
	return strings.ToUpper(strings.TrimSpace(label)), strings.TrimSpace(rest), true
}

// Split an instruction into its uppercased mnemonic and its operand.
func splitInstruction(code string) (mnemonic string, o operand) {
	i := strings.IndexFunc(code, unicode.IsSpace)
	if i < 0 {
		return strings.ToUpper(code), operand{}
	}
	return strings.ToUpper(code[:i]), parseOperand(strings.TrimSpace(code[i:]))
}

func parseOperand(raw string) operand {
	o := operand{raw: raw}
	if raw == "" {
		return o
	}

	compact := strings.ToUpper(strings.ReplaceAll(raw, " ", ""))
	o.indexedX = strings.HasSuffix(compact, ",X")
	o.immediate = strings.HasPrefix(raw, "#")

	expr, _, _ := strings.Cut(raw, ",")
	expr = strings.TrimSpace(expr)
	if o.immediate {
		expr = strings.TrimSpace(expr[1:])
	}
	o.expr = expr
	return o
}

// Parse a '$' hex literal or a decimal literal starting with a digit.
// isLiteral is false when s is a symbol. An invalid literal evaluates to
// zero and returns an error.
func parseLiteral(s string) (v int, isLiteral bool, err error) {
	switch {
	case strings.HasPrefix(s, "$"):
		n, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return 0, true, err
		}
		return int(n), true, nil

	case s != "" && s[0] >= '0' && s[0] <= '9':
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return 0, true, err
		}
		return int(n), true, nil

	default:
		return 0, false, nil
	}
}

// Estimate an operand's value for sizing. Symbols and invalid literals
// count as zero.
func sizingValue(o operand) int {
	v, _, _ := parseLiteral(o.expr)
	return v
}

// The addressing mode an operand asks for, before checking what the
// mnemonic supports.
func requestedMode(o operand) cpu.Mode {
	switch {
	case o.immediate:
		return cpu.IMM
	case o.indexedX:
		return cpu.ZPX
	case sizingValue(o) < 0x100:
		return cpu.ZPG
	default:
		return cpu.ABS
	}
}

// Modes tried, in order, when a mnemonic lacks the requested mode.
var modeFallbacks = map[cpu.Mode][]cpu.Mode{
	cpu.IMM: {cpu.ZPG, cpu.ABS},
	cpu.ZPX: {cpu.ZPG, cpu.ABS},
	cpu.ZPG: {cpu.ABS},
	cpu.ABS: {cpu.ZPG},
}

// Mnemonics that take a single fixed mode regardless of the operand.
func fixedMode(variants []*cpu.Instruction) (*cpu.Instruction, bool) {
	if len(variants) != 1 {
		return nil, false
	}
	switch variants[0].Mode {
	case cpu.IMP, cpu.REL, cpu.ABS:
		return variants[0], true
	}
	return nil, false
}

// Length of an instruction whose mnemonic is not in the table.
func unknownLength(o operand) int {
	switch {
	case o.empty():
		return 1
	case o.immediate:
		return 2
	case strings.HasPrefix(o.expr, "$") && len(o.expr) <= 3:
		return 2
	default:
		return 3
	}
}
