// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type identifiers map[string]int64

func (m identifiers) resolveIdentifier(s string) (int64, error) {
	if v, ok := m[s]; ok {
		return v, nil
	}
	return 0, errIdentifierNotFound
}

func TestExprParse(t *testing.T) {
	ids := identifiers{"x": 5, "START": 0x0200, ".": 0x0203}

	tests := []struct {
		expr string
		want int64
	}{
		{"1+2*3", 7},
		{"(1+2)*3", 9},
		{"10-4-3", 3},
		{"$ff", 0xff},
		{"0x10", 0x10},
		{"%101", 5},
		{"%1 + %10", 3},
		{"2*%11", 6},
		{"0d10", 10},
		{"-1", -1},
		{"~0", -1},
		{"<$1234", 0x34},
		{">$1234", 0x12},
		{"1<<4", 16},
		{"$f0>>4", 0x0f},
		{"$ff & $0f | $30", 0x3f},
		{"6 ^ 3", 5},
		{"7 % 4", 3},
		{"7%3", 1},
		{"7%10", 7},
		{"7%1", 0},
		{"6 %10", 6},
		{"7%%11", 1},
		{"17 / 5", 3},
		{"'A'", 65},
		{"x+1", 6},
		{"START + 2", 0x0202},
		{">START", 0x02},
		{". - 3", 0x0200},
	}

	p := newExprParser()
	for _, test := range tests {
		v, err := p.Parse(test.expr, ids)
		require.NoError(t, err, test.expr)
		assert.Equal(t, test.want, v, test.expr)
	}
}

func TestExprHexMode(t *testing.T) {
	p := newExprParser()
	p.hexMode = true
	ids := identifiers{"x": 5}

	tests := []struct {
		expr string
		want int64
	}{
		{"10", 0x10},
		{"ff", 0xff},
		{"0d10", 10},
		{"x", 5},
		{"c0 + 1", 0xc1},
	}

	for _, test := range tests {
		v, err := p.Parse(test.expr, ids)
		require.NoError(t, err, test.expr)
		assert.Equal(t, test.want, v, test.expr)
	}
}

func TestExprErrors(t *testing.T) {
	p := newExprParser()
	ids := identifiers{}

	tests := []struct {
		expr string
		want error
	}{
		{"1/0", errDivideByZero},
		{"1%0", errDivideByZero},
		{"1 +", errExprParse},
		{"(1", errExprParse},
		{"", errExprParse},
		{"1f", errNumberInvalid},
		{"%102", errNumberInvalid},
		{"1%%0", errDivideByZero},
		{"nowhere", errIdentifierNotFound},
		{"2 * nowhere", errIdentifierNotFound},
	}

	for _, test := range tests {
		_, err := p.Parse(test.expr, ids)
		assert.ErrorIs(t, err, test.want, test.expr)
	}
}
