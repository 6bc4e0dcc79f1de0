// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/sim6502/cpu"
	"github.com/beevik/sim6502/disasm"
)

// Write a snapshot of the machine: registers and flags, counters, the
// source line at the program counter, and hex dumps of the zero page and
// the page holding the program.
func renderSnapshot(w io.Writer, s *cpu.Snapshot, p *program) {
	fmt.Fprintln(w, disasm.GetRegisterString(&s.Reg))

	status := "running"
	if !s.Running {
		status = "halted"
	}
	fmt.Fprintf(w, "Cycles=%d Steps=%d LastPC=$%04X (%s)\n", s.Cycles, s.Steps, s.LastPC, status)

	origin := uint16(cpu.Origin)
	if p != nil {
		origin = p.origin
		if p.sourceMap != nil {
			if _, line := p.sourceMap.Search(s.Reg.PC); line >= 0 && line < len(p.lines) {
				fmt.Fprintf(w, "Line %d: %s\n", line+1, strings.TrimSpace(p.lines[line]))
			}
		}
	}

	fmt.Fprintln(w, "Zero page:")
	renderPage(w, 0x0000, s.Page(0x0000))

	page := origin &^ 0xff
	fmt.Fprintf(w, "Page $%04X:\n", page)
	renderPage(w, page, s.Page(page))
}

// Write a 256-byte page as 16 rows of hex bytes and printable characters.
func renderPage(w io.Writer, addr uint16, b []byte) {
	var chars [16]byte
	for r := 0; r+16 <= len(b); r += 16 {
		row := b[r : r+16]
		for i, v := range row {
			chars[i] = toPrintableChar(v)
		}
		fmt.Fprintf(w, "%04X- % X  %s\n", addr+uint16(r), row, chars[:])
	}
}
