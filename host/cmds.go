// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import "github.com/beevik/cmd"

// A command is stored as the data of each node in the command tree.
type command struct {
	name        string
	brief       string
	description string
	usage       string
	handler     func(h *Host, c *command, args []string) error
}

// A group holds the help listing for one command tree.
type group struct {
	title   string
	entries []groupEntry
}

type groupEntry struct {
	name  string
	brief string
}

// A commandSet adds commands to a tree and records them for help.
type commandSet struct {
	tree  *cmd.Tree
	group *group
}

var (
	cmds   *cmd.Tree
	groups = make(map[*cmd.Tree]*group)
)

func newCommandSet(t *cmd.Tree, title string) commandSet {
	g := &group{title: title}
	groups[t] = g
	return commandSet{tree: t, group: g}
}

func (s commandSet) add(c *command) {
	s.tree.AddCommand(cmd.CommandDescriptor{
		Name:        c.name,
		Brief:       c.brief,
		Description: c.description,
		Usage:       c.usage,
		Data:        c,
	})
	if c.brief != "" {
		s.group.entries = append(s.group.entries, groupEntry{c.name, c.brief})
	}
}

func (s commandSet) subtree(name, brief, title string) commandSet {
	t := s.tree.AddSubtree(cmd.TreeDescriptor{Name: name, Brief: brief})
	s.group.entries = append(s.group.entries, groupEntry{name, brief})
	return newCommandSet(t, title)
}

func init() {
	cmds = cmd.NewTree(cmd.TreeDescriptor{Name: "sim6502"})
	root := newCommandSet(cmds, "sim6502")

	root.add(&command{
		name:        "help",
		description: "Display help for a command.",
		usage:       "help [<command>]",
		handler:     (*Host).cmdHelp,
	})
	root.add(&command{
		name:  "assemble",
		brief: "Assemble a file and load it",
		description: "Run the assembler on the specified file and load the" +
			" resulting machine code at $0200. Warnings are listed but never" +
			" prevent the program from loading. A binary file and a source" +
			" map file are written next to the source file.",
		usage:   "assemble <filename>",
		handler: (*Host).cmdAssemble,
	})

	// Breakpoint commands
	bp := root.subtree("breakpoint", "Breakpoint commands", "Breakpoint")
	bp.add(&command{
		name:        "list",
		brief:       "List breakpoints",
		description: "List all current breakpoints.",
		usage:       "breakpoint list",
		handler:     (*Host).cmdBreakpointList,
	})
	bp.add(&command{
		name:  "add",
		brief: "Add a breakpoint",
		description: "Add a breakpoint at the specified address." +
			" The breakpoint starts enabled.",
		usage:   "breakpoint add <address>",
		handler: (*Host).cmdBreakpointAdd,
	})
	bp.add(&command{
		name:        "remove",
		brief:       "Remove a breakpoint",
		description: "Remove a breakpoint at the specified address.",
		usage:       "breakpoint remove <address>",
		handler:     (*Host).cmdBreakpointRemove,
	})
	bp.add(&command{
		name:        "enable",
		brief:       "Enable a breakpoint",
		description: "Enable a previously added breakpoint.",
		usage:       "breakpoint enable <address>",
		handler:     (*Host).cmdBreakpointEnable,
	})
	bp.add(&command{
		name:  "disable",
		brief: "Disable a breakpoint",
		description: "Disable a previously added breakpoint. This" +
			" prevents the breakpoint from being hit when running the CPU.",
		usage:   "breakpoint disable <address>",
		handler: (*Host).cmdBreakpointDisable,
	})

	// Data breakpoint commands
	db := root.subtree("databreakpoint", "Data breakpoint commands", "Data breakpoint")
	db.add(&command{
		name:        "list",
		brief:       "List data breakpoints",
		description: "List all current data breakpoints.",
		usage:       "databreakpoint list",
		handler:     (*Host).cmdDataBreakpointList,
	})
	db.add(&command{
		name:  "add",
		brief: "Add a data breakpoint",
		description: "Add a new data breakpoint at the specified" +
			" memory address. When the CPU stores data at this address, the" +
			" breakpoint will stop the CPU. Optionally, a byte value may be" +
			" specified, and the CPU will stop only when this value is stored.",
		usage:   "databreakpoint add <address> [<value>]",
		handler: (*Host).cmdDataBreakpointAdd,
	})
	db.add(&command{
		name:        "remove",
		brief:       "Remove a data breakpoint",
		description: "Remove a previously added data breakpoint.",
		usage:       "databreakpoint remove <address>",
		handler:     (*Host).cmdDataBreakpointRemove,
	})

	root.add(&command{
		name:  "disassemble",
		brief: "Disassemble code",
		description: "Disassemble machine code starting at the requested" +
			" address. The number of instruction lines to disassemble may be" +
			" specified as an option. If no address is specified, the" +
			" disassembly continues from where the last disassembly left off.",
		usage:   "disassemble [<address>] [<lines>]",
		handler: (*Host).cmdDisassemble,
	})
	root.add(&command{
		name:        "evaluate",
		brief:       "Evaluate an expression",
		description: "Evaluate a mathematical expression.",
		usage:       "evaluate <expression>",
		handler:     (*Host).cmdEvaluate,
	})
	root.add(&command{
		name:        "labels",
		brief:       "List program labels",
		description: "Display the labels bound by the most recent assembly.",
		usage:       "labels",
		handler:     (*Host).cmdLabels,
	})
	root.add(&command{
		name:  "list",
		brief: "List source code lines",
		description: "List the source code corresponding to the machine code" +
			" at the specified address, or at the program counter if no" +
			" address is given.",
		usage:   "list [<address>] [<lines>]",
		handler: (*Host).cmdList,
	})
	root.add(&command{
		name:  "load",
		brief: "Load a binary file",
		description: "Load the contents of a binary file into memory at" +
			" $0200. If the file has an associated source map, it will be" +
			" loaded too.",
		usage:   "load <filename>",
		handler: (*Host).cmdLoad,
	})

	// Memory commands
	me := root.subtree("memory", "Memory commands", "Memory")
	me.add(&command{
		name:  "dump",
		brief: "Dump memory at address",
		description: "Dump the contents of memory starting from the" +
			" specified address. The number of bytes to dump may be" +
			" specified as an option. If no address is specified, the" +
			" memory dump continues from where the last dump left off.",
		usage:   "memory dump [<address>] [<bytes>]",
		handler: (*Host).cmdMemoryDump,
	})
	me.add(&command{
		name:  "set",
		brief: "Set memory at address",
		description: "Set the contents of memory starting from the specified" +
			" address. The values to assign should be a series of" +
			" space-separated byte values. You may use an expression for each" +
			" byte value.",
		usage:   "memory set <address> <byte> [<byte> ...]",
		handler: (*Host).cmdMemorySet,
	})

	root.add(&command{
		name:        "quit",
		brief:       "Quit the program",
		description: "Quit the program.",
		usage:       "quit",
		handler:     (*Host).cmdQuit,
	})
	root.add(&command{
		name:  "register",
		brief: "View or change register values",
		description: "When used without arguments, this command displays the current" +
			" contents of the CPU registers. When used with arguments, this" +
			" command changes the value of a register or one of the CPU's status" +
			" flags. Allowed register names include A, X, Y, PC and SP. Allowed status" +
			" flag names include N (Sign), Z (Zero), C (Carry) and V (Overflow).",
		usage:   "register [<name> <value>]",
		handler: (*Host).cmdRegister,
	})
	root.add(&command{
		name:  "reset",
		brief: "Reset the CPU",
		description: "Clear the registers, flags and counters and reload the" +
			" current program.",
		usage:   "reset",
		handler: (*Host).cmdReset,
	})
	root.add(&command{
		name:  "run",
		brief: "Run the CPU",
		description: "Run the CPU until it halts, a breakpoint is hit, the" +
			" instruction limit is reached or the user types Ctrl-C. The limit" +
			" defaults to the RunLimit setting.",
		usage:   "run [<max>]",
		handler: (*Host).cmdRun,
	})
	root.add(&command{
		name:  "script",
		brief: "Run a Starlark script",
		description: "Load a Starlark script from disk and execute it. The" +
			" script may assemble, load, step and run programs and inspect the" +
			" machine state.",
		usage:   "script <filename>",
		handler: (*Host).cmdScript,
	})
	root.add(&command{
		name:  "set",
		brief: "Set a configuration variable",
		description: "Set the value of a configuration variable. To see the" +
			" current values of all configuration variables, type set" +
			" without any arguments.",
		usage:   "set [<var> <value>]",
		handler: (*Host).cmdSet,
	})
	root.add(&command{
		name:  "snapshot",
		brief: "Display the machine state",
		description: "Display the registers, counters, current source line" +
			" and the contents of the zero page and the program page.",
		usage:   "snapshot",
		handler: (*Host).cmdSnapshot,
	})
	root.add(&command{
		name:  "step",
		brief: "Step the CPU",
		description: "Step the CPU by a single instruction. The number of" +
			" steps may be specified as an option.",
		usage:   "step [<count>]",
		handler: (*Host).cmdStep,
	})

	// Add command shortcuts.
	cmds.AddShortcut("a", "assemble")
	cmds.AddShortcut("b", "breakpoint")
	cmds.AddShortcut("bp", "breakpoint")
	cmds.AddShortcut("ba", "breakpoint add")
	cmds.AddShortcut("br", "breakpoint remove")
	cmds.AddShortcut("bl", "breakpoint list")
	cmds.AddShortcut("be", "breakpoint enable")
	cmds.AddShortcut("bd", "breakpoint disable")
	cmds.AddShortcut("d", "disassemble")
	cmds.AddShortcut("db", "databreakpoint")
	cmds.AddShortcut("dbp", "databreakpoint")
	cmds.AddShortcut("dbl", "databreakpoint list")
	cmds.AddShortcut("dba", "databreakpoint add")
	cmds.AddShortcut("dbr", "databreakpoint remove")
	cmds.AddShortcut("e", "evaluate")
	cmds.AddShortcut("l", "list")
	cmds.AddShortcut("m", "memory dump")
	cmds.AddShortcut("ms", "memory set")
	cmds.AddShortcut("r", "register")
	cmds.AddShortcut("s", "step")
	cmds.AddShortcut("?", "help")
	cmds.AddShortcut(".", "register")
}
