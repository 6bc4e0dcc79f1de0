// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"
	"os"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

type builtinFunc func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error)

// RunScript executes a Starlark script that drives the host. Output from
// the script's print calls goes to the host output.
func (h *Host) RunScript(filename string) error {
	src, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return h.runScript(filename, src)
}

func (h *Host) runScript(filename string, src []byte) error {
	thread := &starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			h.println(msg)
		},
	}

	_, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, filename, src, h.scriptBuiltins())
	h.flush()
	return err
}

// The predeclared names visible to scripts. Starlark reserves "load", so
// binary files are loaded with load_binary.
func (h *Host) scriptBuiltins() starlark.StringDict {
	fns := map[string]builtinFunc{
		"assemble":    h.scriptAssemble,
		"load_binary": h.scriptLoad,
		"reset":       h.scriptReset,
		"step":        h.scriptStep,
		"run":         h.scriptRun,
		"reg":         h.scriptReg,
		"flag":        h.scriptFlag,
		"mem":         h.scriptMem,
		"word":        h.scriptWord,
		"poke":        h.scriptPoke,
		"eval":        h.scriptEval,
		"cycles":      h.scriptCycles,
		"steps":       h.scriptSteps,
		"running":     h.scriptRunning,
	}

	dict := make(starlark.StringDict, len(fns))
	for name, fn := range fns {
		dict[name] = starlark.NewBuiltin(name, fn)
	}
	return dict
}

func (h *Host) scriptAssemble(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var path string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "path", &path); err != nil {
		return nil, err
	}
	if err := h.assemble(path); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

func (h *Host) scriptLoad(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var path string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "path", &path); err != nil {
		return nil, err
	}
	if err := h.load(path); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

func (h *Host) scriptReset(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	h.reset()
	return starlark.None, nil
}

// step(n=1) executes up to n instructions and reports whether the CPU is
// still running.
func (h *Host) scriptStep(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	n := 1
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "n?", &n); err != nil {
		return nil, err
	}
	h.execute(max(n, 1), nil)
	return starlark.Bool(h.cpu.Running()), nil
}

// run(limit=RunLimit) runs until the CPU halts, a breakpoint is hit or the
// limit is reached, and returns the number of instructions executed.
func (h *Host) scriptRun(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	limit := h.settings.RunLimit
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "limit?", &limit); err != nil {
		return nil, err
	}
	n, _ := h.execute(limit, nil)
	return starlark.MakeInt(n), nil
}

func (h *Host) scriptReg(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name); err != nil {
		return nil, err
	}

	r := &h.cpu.Reg
	switch strings.ToLower(name) {
	case "a":
		return starlark.MakeInt(int(r.A)), nil
	case "x":
		return starlark.MakeInt(int(r.X)), nil
	case "y":
		return starlark.MakeInt(int(r.Y)), nil
	case "sp":
		return starlark.MakeInt(int(r.SP)), nil
	case "pc":
		return starlark.MakeInt(int(r.PC)), nil
	case "ps":
		return starlark.MakeInt(int(r.SavePS())), nil
	default:
		return nil, fmt.Errorf("%s: %w: %s", b.Name(), errRegisterUnknown, name)
	}
}

func (h *Host) scriptFlag(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name); err != nil {
		return nil, err
	}

	r := &h.cpu.Reg
	switch strings.ToLower(name) {
	case "n", "sign":
		return starlark.Bool(r.Sign), nil
	case "v", "overflow":
		return starlark.Bool(r.Overflow), nil
	case "z", "zero":
		return starlark.Bool(r.Zero), nil
	case "c", "carry":
		return starlark.Bool(r.Carry), nil
	default:
		return nil, fmt.Errorf("%s: %w: %s", b.Name(), errRegisterUnknown, name)
	}
}

func (h *Host) scriptMem(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addr int
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "addr", &addr); err != nil {
		return nil, err
	}
	return starlark.MakeInt(int(h.cpu.Mem.LoadByte(uint16(addr)))), nil
}

// word(addr) reads a little-endian 16-bit value, such as a stored pointer.
func (h *Host) scriptWord(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addr int
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "addr", &addr); err != nil {
		return nil, err
	}
	return starlark.MakeInt(int(h.cpu.Mem.LoadAddress(uint16(addr)))), nil
}

func (h *Host) scriptPoke(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addr, value int
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "addr", &addr, "value", &value); err != nil {
		return nil, err
	}
	h.cpu.Mem.StoreByte(uint16(addr), byte(value))
	return starlark.None, nil
}

// eval(expr) evaluates a debugger expression, so labels and registers are
// available to scripts by name.
func (h *Host) scriptEval(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var expr string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "expr", &expr); err != nil {
		return nil, err
	}
	v, err := h.exprParser.Parse(expr, h)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return starlark.MakeInt64(v), nil
}

func (h *Host) scriptCycles(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	return starlark.MakeUint64(h.cpu.Cycles), nil
}

func (h *Host) scriptSteps(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	return starlark.MakeUint64(h.cpu.Steps), nil
}

func (h *Host) scriptRunning(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	return starlark.Bool(h.cpu.Running()), nil
}
