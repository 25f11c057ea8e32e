// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package evlib provides a library of reusable circuits for evsim.
//
// Each function returns a new circuit with input and output pins, ready to be
// simulated on its own or instantiated into another circuit with
// AddSubcircuit. d is the propagation delay of every gate in the circuit.
// Functions panic on invalid parameters.
//
package evlib

import (
	"strconv"

	"github.com/db47h/evsim"
)

// common pin names
const (
	pA   = "a"
	pB   = "b"
	pIn  = "in"
	pSel = "sel"
	pOut = "out"
)

type builder struct {
	c   *evsim.Circuit
	err error
}

func newBuilder(name string) *builder {
	return &builder{c: evsim.NewCircuit(name)}
}

func (b *builder) add(e evsim.Element, err error) {
	if b.err != nil {
		return
	}
	if err != nil {
		b.err = err
		return
	}
	b.err = b.c.Add(e)
}

func (b *builder) in(bits int, names ...string) {
	for _, n := range names {
		b.add(evsim.NewInputPin(n, bits))
	}
}

func (b *builder) out(bits int, names ...string) {
	for _, n := range names {
		b.add(evsim.NewOutputPin(n, bits))
	}
}

func (b *builder) gate(op evsim.Op, name string, inputs, bits int, d evsim.Time) {
	b.add(evsim.NewGate(op, name, inputs, bits, d))
}

func (b *builder) sub(name string, child *evsim.Circuit) {
	if b.err != nil {
		return
	}
	_, b.err = b.c.AddSubcircuit(name, child)
}

func (b *builder) wire(conns string) {
	if b.err != nil {
		return
	}
	b.err = b.c.Wire(conns)
}

func (b *builder) done() *evsim.Circuit {
	if b.err != nil {
		panic(b.err)
	}
	return b.c
}

// Xor returns an exclusive or built from four NAND gates.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a ^ b
//
func Xor(d evsim.Time) *evsim.Circuit {
	b := newBuilder("Xor")
	b.in(1, pA, pB)
	b.out(1, pOut)
	for _, n := range []string{"n0", "n1", "n2", "n3"} {
		b.gate(evsim.OpNand, n, 2, 1, d)
	}
	b.wire("a.out=n0.a, b.out=n0.b," +
		"a.out=n1.a, n0.out=n1.b," +
		"n0.out=n2.a, b.out=n2.b," +
		"n1.out=n3.a, n2.out=n3.b," +
		"n3.out=out.in")
	return b.done()
}

// HalfAdder returns a half adder.
//
//	Inputs: a, b
//	Outputs: s, c
//	Function: s = lsb(a + b)
//	          c = msb(a + b)
//
func HalfAdder(d evsim.Time) *evsim.Circuit {
	b := newBuilder("HalfAdder")
	b.in(1, pA, pB)
	b.out(1, "s", "c")
	b.gate(evsim.OpXor, "x", 2, 1, d)
	b.gate(evsim.OpAnd, "n", 2, 1, d)
	b.wire("a.out=x.a, b.out=x.b, a.out=n.a, b.out=n.b, x.out=s.in, n.out=c.in")
	return b.done()
}

// FullAdder returns a full adder built from two half adders.
//
//	Inputs: a, b, cin
//	Outputs: s, cout
//	Function: s = lsb(a + b + cin)
//	          cout = msb(a + b + cin)
//
func FullAdder(d evsim.Time) *evsim.Circuit {
	b := newBuilder("FullAdder")
	b.in(1, pA, pB, "cin")
	b.out(1, "s", "cout")
	b.sub("h0", HalfAdder(d))
	b.sub("h1", HalfAdder(d))
	b.gate(evsim.OpOr, "c", 2, 1, d)
	b.wire("a.out=h0.a, b.out=h0.b," +
		"h0.s=h1.a, cin.out=h1.b," +
		"h0.c=c.a, h1.c=c.b," +
		"h1.s=s.in, c.out=cout.in")
	return b.done()
}

// Adder returns a ripple carry adder.
//
//	Inputs: a[bits], b[bits]
//	Outputs: out[bits], c
//	Function: out = lsb(a + b)
//	          c = carry out
//
func Adder(bits int, d evsim.Time) *evsim.Circuit {
	b := newBuilder("Adder" + strconv.Itoa(bits))
	b.in(bits, pA, pB)
	b.out(bits, pOut)
	b.out(1, "c")
	ones := make([]int, bits)
	for i := range ones {
		ones[i] = 1
	}
	b.add(evsim.NewSplitter("sa", evsim.Consecutive(ones...)...))
	b.add(evsim.NewSplitter("sb", evsim.Consecutive(ones...)...))
	b.add(evsim.NewBinder("so", evsim.Consecutive(ones...)...))
	b.add(evsim.NewConstant("zero", evsim.Zero(1)))
	b.wire("a.out=sa.in, b.out=sb.in, so.out=out.in")
	for i := 0; i < bits; i++ {
		n := strconv.Itoa(i)
		fa := "fa" + n
		b.sub(fa, FullAdder(d))
		b.wire("sa.out" + n + "=" + fa + ".a, sb.out" + n + "=" + fa + ".b, " + fa + ".s=so.in" + n)
		if i > 0 {
			b.wire("fa" + strconv.Itoa(i-1) + ".cout=" + fa + ".cin")
		}
	}
	b.wire("zero.out=fa0.cin, fa" + strconv.Itoa(bits-1) + ".cout=c.in")
	return b.done()
}

// Mux returns a multiplexer.
//
//	Inputs: a[bits], b[bits], sel
//	Outputs: out[bits]
//	Function: if sel == 0 { out = a } else { out = b }
//
func Mux(bits int, d evsim.Time) *evsim.Circuit {
	b := newBuilder("Mux" + strconv.Itoa(bits))
	b.in(bits, pA, pB)
	b.in(1, pSel)
	b.out(bits, pOut)
	b.gate(evsim.OpNot, "nsel", 1, 1, d)
	b.add(evsim.NewExtender("xa", bits, d))
	b.add(evsim.NewExtender("xb", bits, d))
	b.gate(evsim.OpAnd, "ga", 2, bits, d)
	b.gate(evsim.OpAnd, "gb", 2, bits, d)
	b.gate(evsim.OpOr, "o", 2, bits, d)
	b.wire("sel.out=nsel.in, nsel.out=xa.in, sel.out=xb.in," +
		"a.out=ga.a, xa.out=ga.b," +
		"b.out=gb.a, xb.out=gb.b," +
		"ga.out=o.a, gb.out=o.b, o.out=out.in")
	return b.done()
}

// DMux returns a demultiplexer.
//
//	Inputs: in, sel
//	Outputs: a, b
//	Function: if sel == 0 { a = in; b = 0 } else { a = 0; b = in }
//
func DMux(d evsim.Time) *evsim.Circuit {
	b := newBuilder("DMux")
	b.in(1, pIn, pSel)
	b.out(1, pA, pB)
	b.gate(evsim.OpNot, "nsel", 1, 1, d)
	b.gate(evsim.OpAnd, "ga", 2, 1, d)
	b.gate(evsim.OpAnd, "gb", 2, 1, d)
	b.wire("sel.out=nsel.in," +
		"in.out=ga.a, nsel.out=ga.b," +
		"in.out=gb.a, sel.out=gb.b," +
		"ga.out=a.in, gb.out=b.in")
	return b.done()
}

// SRLatch returns a set/reset latch built from two cross-coupled NOR gates.
//
//	Inputs: s, r
//	Outputs: q, nq
//	Function: s = 1 sets q, r = 1 resets q. s and r must not both be 1.
//
// Releasing s and r at the same time, which includes starting a simulation
// with both inputs at 0, makes the latch oscillate.
//
func SRLatch(d evsim.Time) *evsim.Circuit {
	b := newBuilder("SRLatch")
	b.in(1, "s", "r")
	b.out(1, "q", "nq")
	b.gate(evsim.OpNor, "gq", 2, 1, d)
	b.gate(evsim.OpNor, "gnq", 2, 1, d)
	b.wire("r.out=gq.a, gnq.out=gq.b," +
		"s.out=gnq.a, gq.out=gnq.b," +
		"gq.out=q.in, gnq.out=nq.in")
	return b.done()
}

// DLatch returns a level sensitive data latch. A consensus term keeps the
// output steady when en falls.
//
//	Inputs: d, en
//	Outputs: q
//	Function: if en == 1 { q = d }
//
func DLatch(d evsim.Time) *evsim.Circuit {
	b := newBuilder("DLatch")
	b.in(1, "d", "en")
	b.out(1, "q")
	b.gate(evsim.OpNot, "nen", 1, 1, d)
	b.gate(evsim.OpAnd, "load", 2, 1, d)
	b.gate(evsim.OpAnd, "hold", 2, 1, d)
	b.gate(evsim.OpAnd, "keep", 2, 1, d)
	b.gate(evsim.OpOr, "o", 3, 1, d)
	b.wire("en.out=nen.in," +
		"d.out=load.a, en.out=load.b," +
		"o.out=hold.a, nen.out=hold.b," +
		"d.out=keep.a, o.out=keep.b," +
		"load.out=o.a, hold.out=o.b, keep.out=o.c," +
		"o.out=q.in")
	return b.done()
}

// Register returns a bank of bits DLatch sharing the same enable input.
//
//	Inputs: in[bits], load
//	Outputs: out[bits]
//	Function: if load == 1 { out = in }
//
func Register(bits int, d evsim.Time) *evsim.Circuit {
	b := newBuilder("Register" + strconv.Itoa(bits))
	b.in(bits, pIn)
	b.in(1, "load")
	b.out(bits, pOut)
	ones := make([]int, bits)
	for i := range ones {
		ones[i] = 1
	}
	b.add(evsim.NewSplitter("si", evsim.Consecutive(ones...)...))
	b.add(evsim.NewBinder("so", evsim.Consecutive(ones...)...))
	b.wire("in.out=si.in, so.out=out.in")
	for i := 0; i < bits; i++ {
		n := strconv.Itoa(i)
		l := "l" + n
		b.sub(l, DLatch(d))
		b.wire("si.out" + n + "=" + l + ".d, load.out=" + l + ".en, " + l + ".q=so.in" + n)
	}
	return b.done()
}
