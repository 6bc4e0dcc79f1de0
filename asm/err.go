// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"errors"

	"github.com/beevik/sim6502/translate"
)

var f = translate.From

var (
	ErrLabelUndefined   = errors.New(f("label undefined"))
	ErrLabelDuplicate   = errors.New(f("label duplicated"))
	ErrLabelEmpty       = errors.New(f("label empty"))
	ErrLiteralInvalid   = errors.New(f("literal invalid"))
	ErrMnemonicUnknown  = errors.New(f("mnemonic unknown"))
	ErrModeUnsupported  = errors.New(f("addressing mode unsupported"))
	ErrOperandMissing   = errors.New(f("operand missing"))
	ErrOperandIgnored   = errors.New(f("operand ignored"))
	ErrOperandTruncated = errors.New(f("operand truncated"))
	ErrBranchRange      = errors.New(f("branch out of range"))
	ErrCodeTooLarge     = errors.New(f("code exceeded 64K"))
)

// A Warning describes a questionable source line. The assembler always
// produces code for such a line; warnings never change the bytes emitted.
type Warning struct {
	File   string // source file name
	Line   int    // zero-based source line index
	Err    error  // one of the Err* values
	Detail string // offending text or extra context
}

func (w Warning) Error() string {
	if w.Detail == "" {
		return f("%s:%d: %v", w.File, w.Line+1, w.Err)
	}
	return f("%s:%d: %v: %s", w.File, w.Line+1, w.Err, w.Detail)
}

func (w Warning) Unwrap() error {
	return w.Err
}
