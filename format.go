// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

// A Radix selects the presentation of a value for display.
//
type Radix int

// Supported radixes.
//
const (
	Hex Radix = iota
	Unsigned
	Signed
	Binary
)

// FloatingToken is how a Floating value is displayed.
//
const FloatingToken = "off"

var radixNames = [...]string{Hex: "hex", Unsigned: "unsigned", Signed: "signed", Binary: "binary"}

func (r Radix) String() string {
	if r < 0 || int(r) >= len(radixNames) {
		return "Radix(?)"
	}
	return radixNames[r]
}

// ParseRadix returns the Radix with the given name.
//
func ParseRadix(s string) (Radix, error) {
	for i, n := range radixNames {
		if n == strings.ToLower(s) {
			return Radix(i), nil
		}
	}
	return Hex, errors.Errorf("unknown radix %q", s)
}

// Format returns a textual representation of v in the given radix.
//
// Single bit values are always displayed as 0 or 1. Hex and Binary values are
// zero padded to the value's width.
//
func (v Value) Format(r Radix) string {
	if v.IsFloating() {
		return FloatingToken
	}
	x := v.Big()
	if v.bits == 1 {
		return x.Text(10)
	}
	switch r {
	case Unsigned:
		return x.Text(10)
	case Signed:
		if v.Bit(v.bits - 1) {
			x.Sub(x, new(big.Int).Lsh(big.NewInt(1), uint(v.bits)))
		}
		return x.Text(10)
	case Binary:
		return pad(x.Text(2), v.bits)
	default:
		return "0x" + pad(x.Text(16), (v.bits+3)/4)
	}
}

func pad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}
