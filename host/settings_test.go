// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettingsSet(t *testing.T) {
	s := newSettings()

	assert.NoError(t, s.Set("hex", true))
	assert.True(t, s.HexMode)

	assert.NoError(t, s.Set("DisasmLines", int64(5)))
	assert.Equal(t, 5, s.DisasmLines)

	assert.NoError(t, s.Set("nextdisasmaddr", int64(0x0300)))
	assert.Equal(t, uint16(0x0300), s.NextDisasmAddr)

	assert.ErrorIs(t, s.Set("next", int64(1)), errSettingNotFound)
	assert.ErrorIs(t, s.Set("bogus", int64(1)), errSettingNotFound)
	assert.ErrorIs(t, s.Set("hexmode", int64(1)), errSettingType)
	assert.ErrorIs(t, s.Set("runlimit", true), errSettingType)
}

func TestSettingsKind(t *testing.T) {
	s := newSettings()
	assert.Equal(t, reflect.Bool, s.Kind("showp"))
	assert.Equal(t, reflect.Int, s.Kind("runl"))
	assert.Equal(t, reflect.Uint16, s.Kind("nextmem"))
	assert.Equal(t, reflect.Invalid, s.Kind("zzz"))
	assert.Equal(t, "MaxStepLines", s.Name("max"))
}

func TestSettingsDisplay(t *testing.T) {
	s := newSettings()
	s.NextMemDumpAddr = 0x1234

	var buf bytes.Buffer
	s.Display(&buf)

	out := buf.String()
	assert.Contains(t, out, "HexMode")
	assert.Contains(t, out, "$1234")
	assert.Contains(t, out, "max instructions per run")
}
