// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/beevik/prefixtree/v2"
)

var (
	errSettingNotFound = errors.New(f("setting not found"))
	errSettingType     = errors.New(f("invalid type"))
)

type settings struct {
	HexMode         bool   `doc:"hexadecimal input mode"`
	CompactMode     bool   `doc:"compact register display"`
	MemDumpBytes    int    `doc:"default number of memory bytes to dump"`
	DisasmLines     int    `doc:"default number of lines to disassemble"`
	SourceLines     int    `doc:"default number of source lines to display"`
	MaxStepLines    int    `doc:"max lines to disassemble when stepping"`
	RunLimit        int    `doc:"max instructions per run, 0 for no limit"`
	ShowPages       bool   `doc:"show zero page and program page on halt"`
	NextDisasmAddr  uint16 `doc:"address of next disassembly"`
	NextMemDumpAddr uint16 `doc:"address of next memory dump"`
}

func newSettings() *settings {
	return &settings{
		HexMode:         false,
		CompactMode:     false,
		MemDumpBytes:    64,
		DisasmLines:     10,
		SourceLines:     10,
		MaxStepLines:    20,
		RunLimit:        1000000,
		ShowPages:       false,
		NextDisasmAddr:  0,
		NextMemDumpAddr: 0,
	}
}

type settingsField struct {
	name  string
	index int
	kind  reflect.Kind
	typ   reflect.Type
	doc   string
}

var (
	settingsTree   = prefixtree.New[*settingsField]()
	settingsFields []settingsField
)

func init() {
	settingsType := reflect.TypeOf(settings{})
	settingsFields = make([]settingsField, settingsType.NumField())
	for i := range settingsFields {
		field := settingsType.Field(i)
		doc, _ := field.Tag.Lookup("doc")
		settingsFields[i] = settingsField{
			name:  field.Name,
			index: i,
			kind:  field.Type.Kind(),
			typ:   field.Type,
			doc:   doc,
		}
		settingsTree.Add(strings.ToLower(field.Name), &settingsFields[i])
	}
}

// Display writes every setting, its value and its description.
func (s *settings) Display(w io.Writer) {
	value := reflect.ValueOf(s).Elem()
	for i, field := range settingsFields {
		v := value.Field(i)
		var line string
		switch field.kind {
		case reflect.Uint16:
			line = fmt.Sprintf("    %-16s $%04X", field.name, uint16(v.Uint()))
		default:
			line = fmt.Sprintf("    %-16s %v", field.name, v)
		}
		fmt.Fprintf(w, "%-28s (%s)\n", line, field.doc)
	}
}

// Kind returns the kind of the setting matching the key or key prefix.
func (s *settings) Kind(key string) reflect.Kind {
	field, err := settingsTree.FindValue(strings.ToLower(key))
	if err != nil {
		return reflect.Invalid
	}
	return field.kind
}

// Name returns the full name of the setting matching the key or key
// prefix.
func (s *settings) Name(key string) string {
	field, err := settingsTree.FindValue(strings.ToLower(key))
	if err != nil {
		return ""
	}
	return field.name
}

// Set assigns a value to the setting matching the key or key prefix.
func (s *settings) Set(key string, value any) error {
	field, err := settingsTree.FindValue(strings.ToLower(key))
	if err != nil {
		return errSettingNotFound
	}

	vIn := reflect.ValueOf(value)
	if (field.kind == reflect.Bool) != (vIn.Kind() == reflect.Bool) ||
		!vIn.Type().ConvertibleTo(field.typ) {
		return errSettingType
	}

	reflect.ValueOf(s).Elem().Field(field.index).Set(vIn.Convert(field.typ))
	return nil
}
