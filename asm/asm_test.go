// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beevik/sim6502/cpu"
)

func assembleString(code string) *Assembly {
	return AssembleLines(strings.Split(code, "\n"), 0)
}

func codeString(code []byte) string {
	return fmt.Sprintf("%X", code)
}

func checkASM(t *testing.T, asm string, expected string) *Assembly {
	t.Helper()
	a := assembleString(asm)
	s := codeString(a.Code)
	if s != expected {
		t.Error("code doesn't match expected")
		t.Errorf("got: %s\n", s)
		t.Errorf("exp: %s\n", expected)
	}
	return a
}

func countWarnings(a *Assembly, target error) int {
	n := 0
	for _, w := range a.Warnings {
		if errors.Is(w, target) {
			n++
		}
	}
	return n
}

func TestAddressingIMM(t *testing.T) {
	asm := `
	LDA #$20
	LDX #$20
	LDY #$20
	ADC #$20
	SBC #$20
	CMP #$20
	CPX #$20
	CPY #$20
	AND #$20
	ORA #$20
	EOR #$20`

	a := checkASM(t, asm, "A920A220A0206920E920C920E020C020292009204920")
	assert.Empty(t, a.Warnings)
}

func TestAddressingZPG(t *testing.T) {
	asm := `
	LDA $20
	LDX $20
	LDY $20
	STA $20
	STX $20
	STY $20
	ADC $20
	CMP $20
	CPX $20
	CPY $20`

	a := checkASM(t, asm, "A520A620A4208520862084206520C520E420C420")
	assert.Empty(t, a.Warnings)
}

func TestAddressingZPX(t *testing.T) {
	asm := `
	LDA $20,X
	STA $20, X
	CMP $20,x`

	checkASM(t, asm, "B5209520D520")
}

func TestAddressingABS(t *testing.T) {
	asm := `
	LDA $2000
	STA $2000
	JMP $1234
	JSR $1234
	LDA 300`

	checkASM(t, asm, "AD00208D00204C3412203412AD2C01")
}

func TestAddressingIMP(t *testing.T) {
	asm := `
	BRK
	NOP
	CLC
	SEC
	INX
	INY
	DEX
	DEY
	TAX
	TAY
	TXA
	TYA
	RTS`

	checkASM(t, asm, "00EA1838E8C8CA88AAA88A9860")
}

func TestDecimal(t *testing.T) {
	checkASM(t, "LDA #10\nSTA 255\nSTA 256", "A90A85FF8D0001")
}

// Every table entry assembles to its own opcode and decodes back to the
// same mnemonic and mode.
func TestRoundTrip(t *testing.T) {
	operands := map[cpu.Mode]string{
		cpu.IMM: "#$12",
		cpu.IMP: "",
		cpu.REL: "$0210",
		cpu.ZPG: "$12",
		cpu.ZPX: "$12,X",
		cpu.ABS: "$1234",
	}
	operandBytes := map[cpu.Mode][]byte{
		cpu.IMM: {0x12},
		cpu.IMP: {},
		cpu.REL: {0x0e},
		cpu.ZPG: {0x12},
		cpu.ZPX: {0x12},
		cpu.ABS: {0x34, 0x12},
	}

	set := cpu.GetInstructionSet()
	for op := 0; op < 256; op++ {
		inst := set.Lookup(byte(op))
		if !inst.Defined() {
			continue
		}

		line := strings.TrimSpace(inst.Name + " " + operands[inst.Mode])
		a := AssembleLines([]string{line}, 0)
		require.Len(t, a.Code, int(inst.Length), line)
		assert.Empty(t, a.Warnings, line)

		decoded := set.Lookup(a.Code[0])
		assert.Equal(t, inst.Opcode, decoded.Opcode, line)
		assert.Equal(t, inst.Name, decoded.Name, line)
		assert.Equal(t, inst.Mode, decoded.Mode, line)
		assert.Equal(t, operandBytes[inst.Mode], a.Code[1:], line)
	}
}

func TestLabels(t *testing.T) {
	a := checkASM(t, "LOOP: LDA #1\nJMP LOOP", "A9014C0002")

	m := a.SourceMap.AddressToLine()
	assert.Equal(t, map[uint16]int{0x0200: 0, 0x0202: 1}, m)
	assert.Equal(t, uint16(cpu.Origin), a.Origin)

	addr, ok := a.SourceMap.Label("loop")
	assert.True(t, ok)
	assert.Equal(t, uint16(0x0200), addr)
}

func TestCommentsAndCase(t *testing.T) {
	asm := `  lda #$0a ; load
; only a comment

loop: inx ; x
	bne LOOP
Done:
	brk`

	a := checkASM(t, asm, "A90AE8D0FD00")
	assert.Equal(t, map[uint16]int{0x0200: 0, 0x0202: 3, 0x0203: 4, 0x0205: 6}, a.SourceMap.AddressToLine())

	addr, ok := a.SourceMap.Label("DONE")
	assert.True(t, ok)
	assert.Equal(t, uint16(0x0205), addr)
	assert.Empty(t, a.Warnings)
}

func TestBranches(t *testing.T) {
	asm := `
START: LDX #2
LOOP:  DEX
       BNE LOOP
       BEQ DONE
       NOP
DONE:  BRK`

	checkASM(t, asm, "A202CAD0FDF001EA00")
}

// The displacement is always target - (branch address + 2), mod 256.
func TestBranchOffsets(t *testing.T) {
	for _, target := range []int{0x0182, 0x01c0, 0x0200, 0x0202, 0x0240, 0x0281} {
		line := fmt.Sprintf("BCS $%04X", target)
		a := AssembleLines([]string{line}, 0)
		require.Len(t, a.Code, 2)
		assert.Equal(t, byte(target-(cpu.Origin+2)), a.Code[1], line)
	}
}

func TestBranchRange(t *testing.T) {
	lines := []string{"BNE FAR"}
	for i := 0; i < 200; i++ {
		lines = append(lines, "NOP")
	}
	lines = append(lines, "FAR: BRK")

	a := AssembleLines(lines, 0)
	assert.Len(t, a.Code, 2+200+1)
	assert.Equal(t, 1, countWarnings(a, ErrBranchRange))
}

func TestForwardReferenceKeepsLayout(t *testing.T) {
	asm := `
	JMP END
	LDA END
END: BRK`

	a := checkASM(t, asm, "4C0502A50500")
	assert.Equal(t, 1, countWarnings(a, ErrOperandTruncated))
}

func TestUnknownMnemonic(t *testing.T) {
	asm := "FOO #1\nPHA\nBAR $1234\nLDA #1"

	a := checkASM(t, asm, "EAEAEAEAEAEAA901")
	assert.Equal(t, 3, countWarnings(a, ErrMnemonicUnknown))
	assert.Equal(t, map[uint16]int{0x0200: 0, 0x0202: 1, 0x0203: 2, 0x0206: 3}, a.SourceMap.AddressToLine())
}

func TestUndefinedLabel(t *testing.T) {
	a := checkASM(t, "JMP NOWHERE\nBEQ NOWHERE", "4C0000F0FB")
	assert.Equal(t, 2, countWarnings(a, ErrLabelUndefined))
}

func TestInvalidLiteral(t *testing.T) {
	a := checkASM(t, "LDA #$XY\nLDA $12G4\nLDX #9Z", "A900A500A200")
	assert.Equal(t, 3, countWarnings(a, ErrLiteralInvalid))
}

func TestModeFallback(t *testing.T) {
	a := checkASM(t, "STA #5\nADC $1234\nAND $10\nSTX $10,X", "8505653429108610")
	assert.Equal(t, 4, countWarnings(a, ErrModeUnsupported))
	assert.Equal(t, 1, countWarnings(a, ErrOperandTruncated))
}

func TestOperandWarnings(t *testing.T) {
	a := checkASM(t, "INX 5\nLDA\nJMP", "E8A5004C0000")
	assert.Equal(t, 1, countWarnings(a, ErrOperandIgnored))
	assert.Equal(t, 2, countWarnings(a, ErrOperandMissing))
}

func TestDuplicateLabel(t *testing.T) {
	a := checkASM(t, "A: NOP\nA: NOP\nJMP A", "EAEA4C0102")
	assert.Equal(t, 1, countWarnings(a, ErrLabelDuplicate))
}

func TestWarningText(t *testing.T) {
	a := AssembleLines([]string{"NOP", "JMP NOWHERE"}, 0)
	require.Len(t, a.Warnings, 1)
	w := a.Warnings[0]
	assert.Equal(t, 1, w.Line)
	assert.Equal(t, "NOWHERE", w.Detail)
	assert.Equal(t, ":2: label undefined: NOWHERE", w.Error())
}

func TestAssembleReadError(t *testing.T) {
	_, err := Assemble(iotest.ErrReader(errors.New("boom")), "bad.asm", nil, 0)
	assert.EqualError(t, err, "boom")
}

func TestAssembleReader(t *testing.T) {
	a, err := Assemble(strings.NewReader("LDA #1\r\nBRK\r\n"), "test.asm", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xa9, 0x01, 0x00}, a.Code)
	assert.Equal(t, []string{"test.asm"}, a.SourceMap.Files)

	file, line := a.SourceMap.Search(0x0202)
	assert.Equal(t, "test.asm", file)
	assert.Equal(t, 1, line)

	_, line = a.SourceMap.Search(0x0201)
	assert.Equal(t, -1, line)
}

func TestVerbose(t *testing.T) {
	var out bytes.Buffer
	_, err := Assemble(strings.NewReader("START: LDA #1\nJMP START\nFOO"), "v.asm", &out, Verbose)
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "-- Pass 1: layout --")
	assert.Contains(t, s, "-- Pass 2: code generation --")
	assert.Contains(t, s, "START = $0200")
	assert.Contains(t, s, "0200-*  A9 01")
	assert.Contains(t, s, "0202-*  4C 00 02")
	assert.Contains(t, s, "Warning: v.asm:3: mnemonic unknown: FOO")
}

func TestSourceMapPersistence(t *testing.T) {
	a := assembleString("START: LDX #3\nLOOP: DEX\nBNE LOOP")

	var buf bytes.Buffer
	_, err := a.SourceMap.WriteTo(&buf)
	require.NoError(t, err)

	var sm SourceMap
	_, err = sm.ReadFrom(&buf)
	require.NoError(t, err)
	assert.Equal(t, *a.SourceMap, sm)
	assert.Equal(t, uint32(5), sm.Size)

	addr, ok := sm.LineToAddress(2)
	assert.True(t, ok)
	assert.Equal(t, uint16(0x0203), addr)
}

func TestAssembleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.asm")
	require.NoError(t, os.WriteFile(path, []byte("LDA #$42\nSTA $10\nBRK\n"), 0600))

	var out bytes.Buffer
	require.NoError(t, AssembleFile(path, 0, &out))
	assert.Contains(t, out.String(), "Assembled 'prog.asm' to produce 'prog.bin' and 'prog.map'.")

	bin, err := os.ReadFile(filepath.Join(dir, "prog.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xa9, 0x42, 0x85, 0x10, 0x00}, bin)

	mapFile, err := os.Open(filepath.Join(dir, "prog.map"))
	require.NoError(t, err)
	defer mapFile.Close()

	var sm SourceMap
	_, err = sm.ReadFrom(mapFile)
	require.NoError(t, err)
	assert.Equal(t, uint16(cpu.Origin), sm.Origin)
	assert.Len(t, sm.Lines, 3)

	var loaded Assembly
	binFile, err := os.Open(filepath.Join(dir, "prog.bin"))
	require.NoError(t, err)
	defer binFile.Close()
	_, err = loaded.ReadFrom(binFile)
	require.NoError(t, err)
	assert.Equal(t, bin, loaded.Code)
}

func TestAssembleFileMissing(t *testing.T) {
	err := AssembleFile(filepath.Join(t.TempDir(), "missing.asm"), 0, &bytes.Buffer{})
	assert.Error(t, err)
}
