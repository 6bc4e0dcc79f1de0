// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"encoding/json"
	"io"
	"slices"
	"sort"
	"strings"
)

// A SourceMap describes the mapping between source code line numbers and
// assembly code addresses, along with the labels bound during assembly.
type SourceMap struct {
	Origin uint16
	Size   uint32
	CRC    uint32
	Files  []string
	Labels []Label
	Lines  []SourceLine
}

// A Label is a name bound to an address by a "NAME:" prefix.
type Label struct {
	Name    string
	Address uint16
}

// A SourceLine represents a mapping between a machine code address and
// the source code file and line used to generate it.
type SourceLine struct {
	Address   uint16 // Machine code address
	FileIndex int    // Source code file index
	Line      int    // Zero-based source code line index
}

// Search searches the source map for a mapping with the requested address.
// It returns a line of -1 if there is none.
func (s *SourceMap) Search(addr uint16) (filename string, line int) {
	i := sort.Search(len(s.Lines), func(i int) bool {
		return s.Lines[i].Address >= addr
	})
	if i < len(s.Lines) && s.Lines[i].Address == addr {
		return s.Files[s.Lines[i].FileIndex], s.Lines[i].Line
	}
	return "", -1
}

// AddressToLine returns the address-to-line map as a Go map. When two
// mappings share an address, the later one wins.
func (s *SourceMap) AddressToLine() map[uint16]int {
	m := make(map[uint16]int, len(s.Lines))
	for _, l := range s.Lines {
		m[l.Address] = l.Line
	}
	return m
}

// LineToAddress returns the address of the code generated by a source line.
func (s *SourceMap) LineToAddress(line int) (addr uint16, ok bool) {
	for _, l := range s.Lines {
		if l.Line == line {
			return l.Address, true
		}
	}
	return 0, false
}

// Label returns the address bound to a label. Label names are not
// case-sensitive.
func (s *SourceMap) Label(name string) (addr uint16, ok bool) {
	name = strings.ToUpper(name)
	i, found := slices.BinarySearchFunc(s.Labels, name, func(l Label, name string) int {
		return strings.Compare(l.Name, name)
	})
	if !found {
		return 0, false
	}
	return s.Labels[i].Address, true
}

// ReadFrom reads the contents of an exported source map file.
func (s *SourceMap) ReadFrom(r io.Reader) (n int64, err error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	err = json.Unmarshal(b, s)
	if err != nil {
		return 0, err
	}
	s.Labels = sortLabels(s.Labels)
	return int64(len(b)), nil
}

// WriteTo writes the contents of the source map to an output stream.
func (s *SourceMap) WriteTo(w io.Writer) (n int64, err error) {
	b, err := json.Marshal(*s)
	if err != nil {
		return 0, err
	}

	nn, err := w.Write(b)
	return int64(nn), err
}

func sortLabels(labels []Label) []Label {
	slices.SortFunc(labels, func(a, b Label) int {
		return strings.Compare(a.Name, b.Name)
	})
	return labels
}
