// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"strconv"

	"github.com/pkg/errors"
)

// A Range is a sub-range of bits in a bus: Bits bits starting at bit Lo.
//
type Range struct {
	Lo   int
	Bits int
}

// Consecutive returns ranges of the given widths laid out from bit 0 up.
//
func Consecutive(widths ...int) []Range {
	rs := make([]Range, len(widths))
	lo := 0
	for i, w := range widths {
		rs[i] = Range{lo, w}
		lo += w
	}
	return rs
}

// checkRanges validates non-overlapping ranges and returns the bus width.
func checkRanges(name string, rs []Range) (int, error) {
	if len(rs) == 0 {
		return 0, errors.Wrapf(ErrInvalidParameter, "%s: no bus sub-range", name)
	}
	bits := 0
	var used Value
	for _, r := range rs {
		if r.Lo < 0 || r.Bits < 1 {
			return 0, errors.Wrapf(ErrInvalidParameter, "%s: invalid sub-range %d:%d", name, r.Lo, r.Bits)
		}
		if r.Lo+r.Bits > bits {
			bits = r.Lo + r.Bits
		}
	}
	used = Zero(bits)
	for _, r := range rs {
		if used.Slice(r.Lo, r.Bits).IsHigh() {
			return 0, errors.Wrapf(ErrInvalidParameter, "%s: overlapping sub-range %d:%d", name, r.Lo, r.Bits)
		}
		used = used.Insert(r.Lo, Ones(r.Bits))
	}
	return bits, nil
}

// A Binder combines independently wired sub-ranges into a wider bus.
//
//	Inputs: in0, in1, ...
//	Outputs: out
//
// Bits not covered by any sub-range are always 0. The output is Floating if
// all inputs are Floating, and tri-state if all attached inputs are on
// tri-state nets. Binders have no propagation delay.
//
type Binder struct {
	elementBase
	ranges []Range
	bits   int
	in     []*Terminal
	out    *Terminal
}

// NewBinder returns a new binder mapping input i to bits ranges[i].
//
func NewBinder(name string, ranges ...Range) (*Binder, error) {
	bits, err := checkRanges(name, ranges)
	if err != nil {
		return nil, err
	}
	b := &Binder{
		elementBase: elementBase{name: name, kind: KindBinder},
		ranges:      append([]Range(nil), ranges...),
		bits:        bits,
	}
	for i, r := range ranges {
		b.in = append(b.in, b.terminal(tIn+strconv.Itoa(i), In, r.Bits))
	}
	b.out = b.terminal(tOut, Out, bits)
	b.out.triState = true
	return b, nil
}

// Bits returns the output width.
//
func (b *Binder) Bits() int { return b.bits }

// InitSim implements Element.
//
func (b *Binder) InitSim(s *Simulator) {
	s.Recompute(0, b)
}

// React implements Element.
//
func (b *Binder) React(now Time, s *Simulator, p Payload) {
	if p.IsCommit() {
		b.unexpected(p)
	}
	v := Zero(b.bits)
	floating, tri := true, true
	for i, t := range b.in {
		if x := t.value; !x.IsFloating() {
			floating = false
			v = v.Insert(b.ranges[i].Lo, x)
		}
		if t.Attached() && !t.NetTriState() {
			tri = false
		}
	}
	if floating {
		v = Floating
	}
	s.SetTriState(b.out, tri)
	s.Drive(b.out, v)
}

// A Splitter splits a bus into independently wired sub-ranges.
//
//	Inputs: in
//	Outputs: out0, out1, ...
//
// A Floating input makes all outputs Floating. Outputs are tri-state if the
// input is on a tri-state net. Splitters have no propagation delay.
//
type Splitter struct {
	elementBase
	ranges []Range
	bits   int
	in     *Terminal
	out    []*Terminal
}

// NewSplitter returns a new splitter mapping bits ranges[i] to output i.
//
func NewSplitter(name string, ranges ...Range) (*Splitter, error) {
	bits, err := checkRanges(name, ranges)
	if err != nil {
		return nil, err
	}
	sp := &Splitter{
		elementBase: elementBase{name: name, kind: KindSplitter},
		ranges:      append([]Range(nil), ranges...),
		bits:        bits,
	}
	sp.in = sp.terminal(tIn, In, bits)
	for i, r := range ranges {
		t := sp.terminal(tOut+strconv.Itoa(i), Out, r.Bits)
		t.triState = true
		sp.out = append(sp.out, t)
	}
	return sp, nil
}

// Bits returns the input width.
//
func (sp *Splitter) Bits() int { return sp.bits }

// InitSim implements Element.
//
func (sp *Splitter) InitSim(s *Simulator) {
	s.Recompute(0, sp)
}

// React implements Element.
//
func (sp *Splitter) React(now Time, s *Simulator, p Payload) {
	if p.IsCommit() {
		sp.unexpected(p)
	}
	v := sp.in.value
	tri := sp.in.NetTriState()
	for i, t := range sp.out {
		s.SetTriState(t, tri)
		s.Drive(t, v.Slice(sp.ranges[i].Lo, sp.ranges[i].Bits))
	}
}
