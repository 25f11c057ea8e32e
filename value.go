// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"math/big"
	"math/bits"
)

// A Value is the state of a signal: either Floating (no driver) or a
// concrete vector of bits.
//
// The zero Value is Floating. Values are immutable by convention: all
// operations return new values and never modify their operands.
//
type Value struct {
	bits  int      // width, 0 for Floating
	words []uint64 // lsb first, unused high bits always 0
}

// Floating is the value of an undriven signal.
//
var Floating = Value{}

func wordCount(bits int) int {
	return (bits + 63) / 64
}

func checkWidth(bits int) {
	if bits < 1 {
		panic("invalid value width")
	}
}

// Zero returns an all-zero value of the given width.
//
func Zero(bits int) Value {
	checkWidth(bits)
	return Value{bits: bits, words: make([]uint64, wordCount(bits))}
}

// Ones returns an all-ones value of the given width.
//
func Ones(bits int) Value {
	v := Zero(bits)
	for i := range v.words {
		v.words[i] = ^uint64(0)
	}
	v.mask()
	return v
}

// Uint returns a value of the given width set to x. Bits of x above the width
// are discarded.
//
func Uint(bits int, x uint64) Value {
	v := Zero(bits)
	v.words[0] = x
	v.mask()
	return v
}

// Bool returns a single bit value.
//
func Bool(b bool) Value {
	if b {
		return Uint(1, 1)
	}
	return Uint(1, 0)
}

// FromBig returns a value of the given width set to x. Negative values are
// converted to their two's complement representation. Bits above the width
// are discarded.
//
func FromBig(bits int, x *big.Int) Value {
	v := Zero(bits)
	t := new(big.Int).Set(x)
	if t.Sign() < 0 {
		m := new(big.Int).Lsh(big.NewInt(1), uint(len(v.words)*64))
		t.Mod(t, m)
	}
	for i := range v.words {
		lo := new(big.Int).And(t, new(big.Int).SetUint64(^uint64(0)))
		v.words[i] = lo.Uint64()
		t.Rsh(t, 64)
	}
	v.mask()
	return v
}

// clear unused high bits.
func (v *Value) mask() {
	if r := uint(v.bits % 64); r != 0 {
		v.words[len(v.words)-1] &= 1<<r - 1
	}
}

func (v Value) clone() Value {
	if v.bits == 0 {
		return Floating
	}
	w := make([]uint64, len(v.words))
	copy(w, v.words)
	return Value{bits: v.bits, words: w}
}

// Bits returns the width of v. It returns 0 for Floating.
//
func (v Value) Bits() int { return v.bits }

// IsFloating returns true if v is Floating.
//
func (v Value) IsFloating() bool { return v.bits == 0 }

// IsZero returns true if v is a concrete value with all bits cleared.
// Floating is not zero.
//
func (v Value) IsZero() bool {
	if v.bits == 0 {
		return false
	}
	for _, w := range v.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// IsHigh returns true if v is a concrete value with at least one bit set.
//
func (v Value) IsHigh() bool {
	return v.bits != 0 && !v.IsZero()
}

// Bit returns the state of bit i. Floating has no bits set.
//
func (v Value) Bit(i int) bool {
	if i < 0 || i >= v.bits {
		return false
	}
	return v.words[i/64]&(1<<uint(i%64)) != 0
}

// OnesCount returns the number of bits set in v.
//
func (v Value) OnesCount() int {
	n := 0
	for _, w := range v.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Uint64 returns the low 64 bits of v.
//
func (v Value) Uint64() uint64 {
	if v.bits == 0 {
		return 0
	}
	return v.words[0]
}

// Int64 returns v interpreted as a two's complement signed integer. The
// result is only meaningful for widths up to 64 bits.
//
func (v Value) Int64() int64 {
	x := v.Uint64()
	if v.bits == 0 || v.bits >= 64 {
		return int64(x)
	}
	if v.Bit(v.bits - 1) {
		x |= ^uint64(0) << uint(v.bits)
	}
	return int64(x)
}

// Big returns v as an unsigned big integer. Floating returns nil.
//
func (v Value) Big() *big.Int {
	if v.bits == 0 {
		return nil
	}
	x := new(big.Int)
	for i := len(v.words) - 1; i >= 0; i-- {
		x.Lsh(x, 64)
		x.Or(x, new(big.Int).SetUint64(v.words[i]))
	}
	return x
}

// Equal returns true if v and w have the same width and bits. Two Floating
// values are equal.
//
func (v Value) Equal(w Value) bool {
	if v.bits != w.bits {
		return false
	}
	for i := range v.words {
		if v.words[i] != w.words[i] {
			return false
		}
	}
	return true
}

// OrZero returns v, or an all-zero value of the given width if v is
// Floating.
//
func (v Value) OrZero(bits int) Value {
	if v.bits == 0 {
		return Zero(bits)
	}
	return v
}

func (v Value) binop(w Value, op func(a, b uint64) uint64) Value {
	if v.bits == 0 || v.bits != w.bits {
		panic("bitwise operation on floating or mismatched values")
	}
	r := Zero(v.bits)
	for i := range r.words {
		r.words[i] = op(v.words[i], w.words[i])
	}
	r.mask()
	return r
}

// And returns v & w. Both values must be concrete and of the same width.
//
func (v Value) And(w Value) Value {
	return v.binop(w, func(a, b uint64) uint64 { return a & b })
}

// Or returns v | w. Both values must be concrete and of the same width.
//
func (v Value) Or(w Value) Value {
	return v.binop(w, func(a, b uint64) uint64 { return a | b })
}

// Xor returns v ^ w. Both values must be concrete and of the same width.
//
func (v Value) Xor(w Value) Value {
	return v.binop(w, func(a, b uint64) uint64 { return a ^ b })
}

// Not returns ^v. v must be concrete.
//
func (v Value) Not() Value {
	if v.bits == 0 {
		panic("bitwise operation on floating value")
	}
	r := Zero(v.bits)
	for i := range r.words {
		r.words[i] = ^v.words[i]
	}
	r.mask()
	return r
}

// Slice returns the n bits of v starting at bit lo. Slicing Floating returns
// Floating.
//
func (v Value) Slice(lo, n int) Value {
	if v.bits == 0 {
		return Floating
	}
	if lo < 0 || lo+n > v.bits {
		panic("slice out of range")
	}
	r := Zero(n)
	for i := 0; i < n; i++ {
		if v.Bit(lo + i) {
			r.words[i/64] |= 1 << uint(i%64)
		}
	}
	return r
}

// Insert returns a copy of v where bits lo to lo+w.Bits()-1 are replaced with
// the bits of w. Inserting Floating returns a copy of v.
//
func (v Value) Insert(lo int, w Value) Value {
	if v.bits == 0 {
		panic("insert into floating value")
	}
	r := v.clone()
	n := w.bits
	if lo < 0 || lo+n > v.bits {
		panic("insert out of range")
	}
	for i := 0; i < n; i++ {
		m := uint64(1) << uint((lo+i)%64)
		if w.Bit(i) {
			r.words[(lo+i)/64] |= m
		} else {
			r.words[(lo+i)/64] &^= m
		}
	}
	return r
}

// String returns v formatted as Hex.
//
func (v Value) String() string {
	return v.Format(Hex)
}
