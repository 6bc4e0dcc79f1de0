package disasm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/beevik/sim6502/asm"
	"github.com/beevik/sim6502/cpu"
)

func TestDisassemble(t *testing.T) {
	a := asm.AssembleLines([]string{
		"START: LDA #$5E",
		"STA $15",
		"STA $1500",
		"CMP $10,X",
		"LOOP: DEX",
		"BNE LOOP",
		"BEQ NEXT",
		"NEXT: JSR START",
		"RTS",
	}, 0)

	mem := cpu.NewFlatMemory()
	mem.StoreBytes(cpu.Origin, a.Code)

	expected := []string{
		"LDA #$5E",
		"STA $15",
		"STA $1500",
		"CMP $10,X",
		"DEX",
		"BNE $0209",
		"BEQ $020E",
		"JSR $0200",
		"RTS",
	}

	addr := uint16(cpu.Origin)
	for _, exp := range expected {
		line, next := Disassemble(mem, addr)
		assert.Equal(t, exp, line)
		assert.Greater(t, next, addr)
		addr = next
	}
	assert.Equal(t, uint16(cpu.Origin+len(a.Code)), addr)
}

func TestDisassembleUnused(t *testing.T) {
	mem := cpu.NewFlatMemory()
	mem.StoreBytes(0xfffe, []byte{0x02, 0xad})

	line, next := Disassemble(mem, 0xfffe)
	assert.Equal(t, "???", line)
	assert.Equal(t, uint16(0xffff), next)

	// Operand bytes past $FFFF wrap to the bottom of memory.
	line, next = Disassemble(mem, 0xffff)
	assert.Equal(t, "LDA $0000", line)
	assert.Equal(t, uint16(0x0002), next)
}

func TestRegisterStrings(t *testing.T) {
	r := cpu.Registers{A: 0x12, X: 0x34, Y: 0x56, SP: 0xfd, PC: 0x0203, Sign: true, Carry: true}
	assert.Equal(t, "A=12 X=34 Y=56 PS=[Nv----zC] SP=FD PC=0203", GetRegisterString(&r))
	assert.Equal(t, "12 34 56 Nv----zC FD", GetCompactRegisterString(&r))
}
