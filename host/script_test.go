// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScriptHost() (*Host, *bytes.Buffer) {
	var buf bytes.Buffer
	h := New()
	h.output = bufio.NewWriter(&buf)
	return h, &buf
}

func TestScript(t *testing.T) {
	path := writeSource(t, storeProgram)
	script := fmt.Sprintf(`
assemble(%q)
print("pc=%%d" %% reg("pc"))
print("running", step(2))
print("a=%%d" %% reg("a"))
n = run()
print("halted", running(), mem(0x10), n, steps(), cycles())
poke(0x30, 0x99)
print("poke", mem(0x30))
poke(0x31, 0x12)
print("word", word(0x30))
print("eval", eval("<$1234"))
reset()
print("reset", reg("pc"), steps(), flag("c"))
`, path)

	h, buf := newScriptHost()
	require.NoError(t, h.runScript("test.star", []byte(script)))

	out := buf.String()
	assert.Contains(t, out, "pc=512\n")
	assert.Contains(t, out, "running True\n")
	assert.Contains(t, out, "a=5\n")
	assert.Contains(t, out, "halted False 5 1 3 5\n")
	assert.Contains(t, out, "poke 153\n")
	assert.Contains(t, out, "word 4761\n")
	assert.Contains(t, out, "eval 52\n")
	assert.Contains(t, out, "reset 512 0 False\n")
}

func TestScriptBreakpoint(t *testing.T) {
	path := writeSource(t, loopProgram)
	script := fmt.Sprintf(`
assemble(%q)
n = run(limit=100)
print("stopped", n, reg("pc"), reg("x"))
`, path)

	h, buf := newScriptHost()
	runCommands(h, "breakpoint add $0203")
	h.output = bufio.NewWriter(buf)
	require.NoError(t, h.runScript("bp.star", []byte(script)))

	assert.Contains(t, buf.String(), "Breakpoint hit at $0203.")
	assert.Contains(t, buf.String(), "stopped 2 515 2")
}

func TestScriptErrors(t *testing.T) {
	h, _ := newScriptHost()

	err := h.runScript("bad.star", []byte(`reg("q")`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown register: q")

	err = h.runScript("bad.star", []byte(`eval("1/0")`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "divide by zero")

	err = h.runScript("bad.star", []byte(`assemble("nowhere.asm")`))
	require.Error(t, err)
}

func TestScriptCommand(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "poke.star")
	require.NoError(t, os.WriteFile(scriptPath, []byte("poke(0x40, 7)\nprint('done')\n"), 0600))

	h := New()
	out := runCommands(h, "script "+scriptPath, "script "+filepath.Join(dir, "missing.star"))
	assert.Contains(t, out, "done")
	assert.Contains(t, out, "Script failed:")
	assert.Equal(t, byte(7), h.mem.LoadByte(0x40))
	assert.True(t, strings.HasPrefix(out, "done\n"))
}
