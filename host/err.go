// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"

	"github.com/beevik/sim6502/translate"
)

var f = translate.From

var (
	errQuit               = errors.New(f("exiting program"))
	errIdentifierNotFound = errors.New(f("identifier not found"))
	errRegisterUnknown    = errors.New(f("unknown register"))
	errBoolInvalid        = errors.New(f("invalid bool value"))
)
