// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	errExprParse     = errors.New(f("expression syntax error"))
	errDivideByZero  = errors.New(f("divide by zero"))
	errNumberInvalid = errors.New(f("invalid number"))
)

// Expression grammar, lowest precedence first.

type exprOr struct {
	Head *exprXor   `@@`
	Tail []*exprXor `( "|" @@ )*`
}

type exprXor struct {
	Head *exprAnd   `@@`
	Tail []*exprAnd `( "^" @@ )*`
}

type exprAnd struct {
	Head *exprShift   `@@`
	Tail []*exprShift `( "&" @@ )*`
}

type exprShift struct {
	Head *exprSum   `@@`
	Tail []*opShift `@@*`
}

type opShift struct {
	Op      string   `@( "<<" | ">>" )`
	Operand *exprSum `@@`
}

type exprSum struct {
	Head *exprProduct `@@`
	Tail []*opSum     `@@*`
}

type opSum struct {
	Op      string       `@( "+" | "-" )`
	Operand *exprProduct `@@`
}

type exprProduct struct {
	Head *exprUnary   `@@`
	Tail []*opProduct `@@*`
}

type opProduct struct {
	Op      string     `@( "*" | "/" | "%" )`
	Operand *exprUnary `@@`
}

type exprUnary struct {
	Op      string       `  @( "-" | "+" | "~" | "<" | ">" )`
	Operand *exprUnary   `  @@`
	Primary *exprPrimary `| @@`
}

// A '%' where a value starts prefixes a binary literal. After a value it
// is the modulo operator.
type exprPrimary struct {
	Binary *string `  "%" @Number`
	Number *string `| @Number`
	Char   *string `| @Char`
	Ident  *string `| @Ident`
	Sub    *exprOr `| "(" @@ ")"`
}

var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Number", Pattern: `\$[0-9a-fA-F]+|0[xX][0-9a-fA-F]+|0[dD][0-9]+|[0-9][0-9a-fA-F]*`},
	{Name: "Char", Pattern: `'.'`},
	{Name: "Ident", Pattern: `[a-zA-Z_.][a-zA-Z0-9_]*`},
	{Name: "Op", Pattern: `<<|>>|[-+*/%&|^~<>()]`},
})

var exprGrammar = participle.MustBuild[exprOr](
	participle.Lexer(exprLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

type resolver interface {
	resolveIdentifier(s string) (int64, error)
}

// An exprParser evaluates debugger expressions such as "$0200+2",
// "<LOOP" or "(pc & $ff00) >> 8".
type exprParser struct {
	hexMode bool
}

func newExprParser() *exprParser {
	return &exprParser{}
}

// Parse evaluates an expression, using r to look up identifiers.
func (p *exprParser) Parse(expr string, r resolver) (int64, error) {
	tree, err := exprGrammar.ParseString("", expr)
	if err != nil {
		return 0, errExprParse
	}
	e := evaluator{hexMode: p.hexMode, r: r}
	return e.or(tree)
}

type evaluator struct {
	hexMode bool
	r       resolver
}

func (e *evaluator) or(x *exprOr) (int64, error) {
	v, err := e.xor(x.Head)
	for _, t := range x.Tail {
		if err != nil {
			return 0, err
		}
		var w int64
		w, err = e.xor(t)
		v |= w
	}
	return v, err
}

func (e *evaluator) xor(x *exprXor) (int64, error) {
	v, err := e.and(x.Head)
	for _, t := range x.Tail {
		if err != nil {
			return 0, err
		}
		var w int64
		w, err = e.and(t)
		v ^= w
	}
	return v, err
}

func (e *evaluator) and(x *exprAnd) (int64, error) {
	v, err := e.shift(x.Head)
	for _, t := range x.Tail {
		if err != nil {
			return 0, err
		}
		var w int64
		w, err = e.shift(t)
		v &= w
	}
	return v, err
}

func (e *evaluator) shift(x *exprShift) (int64, error) {
	v, err := e.sum(x.Head)
	for _, t := range x.Tail {
		if err != nil {
			return 0, err
		}
		var w int64
		w, err = e.sum(t.Operand)
		switch t.Op {
		case "<<":
			v <<= uint64(w)
		case ">>":
			v >>= uint64(w)
		}
	}
	return v, err
}

func (e *evaluator) sum(x *exprSum) (int64, error) {
	v, err := e.product(x.Head)
	for _, t := range x.Tail {
		if err != nil {
			return 0, err
		}
		var w int64
		w, err = e.product(t.Operand)
		switch t.Op {
		case "+":
			v += w
		case "-":
			v -= w
		}
	}
	return v, err
}

func (e *evaluator) product(x *exprProduct) (int64, error) {
	v, err := e.unary(x.Head)
	for _, t := range x.Tail {
		if err != nil {
			return 0, err
		}
		var w int64
		w, err = e.unary(t.Operand)
		if err != nil {
			return 0, err
		}
		switch t.Op {
		case "*":
			v *= w
		case "/", "%":
			if w == 0 {
				return 0, errDivideByZero
			}
			if t.Op == "/" {
				v /= w
			} else {
				v %= w
			}
		}
	}
	return v, err
}

func (e *evaluator) unary(x *exprUnary) (int64, error) {
	if x.Primary != nil {
		return e.primary(x.Primary)
	}

	v, err := e.unary(x.Operand)
	if err != nil {
		return 0, err
	}
	switch x.Op {
	case "-":
		return -v, nil
	case "~":
		return ^v, nil
	case "<":
		return v & 0xff, nil
	case ">":
		return (v >> 8) & 0xff, nil
	default:
		return v, nil
	}
}

func (e *evaluator) primary(x *exprPrimary) (int64, error) {
	switch {
	case x.Binary != nil:
		v, err := strconv.ParseInt(*x.Binary, 2, 64)
		if err != nil {
			return 0, errNumberInvalid
		}
		return v, nil
	case x.Number != nil:
		return e.number(*x.Number)
	case x.Char != nil:
		return int64((*x.Char)[1]), nil
	case x.Ident != nil:
		// In hex mode, identifiers that look like hex numbers are numbers.
		if e.hexMode {
			if v, err := strconv.ParseInt(*x.Ident, 16, 64); err == nil {
				return v, nil
			}
		}
		return e.r.resolveIdentifier(*x.Ident)
	default:
		return e.or(x.Sub)
	}
}

func (e *evaluator) number(s string) (int64, error) {
	base := 10
	if e.hexMode {
		base = 16
	}

	switch {
	case strings.HasPrefix(s, "$"):
		base, s = 16, s[1:]
	case len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X"):
		base, s = 16, s[2:]
	case len(s) > 2 && (s[:2] == "0d" || s[:2] == "0D"):
		base, s = 10, s[2:]
	}

	v, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, errNumberInvalid
	}
	return v, nil
}
