// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// common terminal names
const (
	tIn  = "in"
	tOut = "out"
	tEn  = "en"
)

// inputName returns the name of the i-th input of a multi-input gate:
// a, b, c, ... then in26, in27, ...
func inputName(i int) string {
	if i < 26 {
		return string(rune('a' + i))
	}
	return tIn + strconv.Itoa(i)
}

// gateState is the reaction state of delay bearing elements.
type gateState uint8

const (
	idle    gateState = iota // output settled
	pending                  // commit events in flight
)

// delayed implements the two-phase compute-then-commit delay model shared by
// gates, extenders and tri-state buffers.
//
type delayed struct {
	delay    Time
	out      *Terminal
	state    gateState
	toBe     Value
	inflight int
}

// reset initializes the output to v0. If settle is not Floating, a commit
// of settle is also posted at time 0.
func (d *delayed) reset(s *Simulator, e Element, v0, settle Value) {
	d.state = idle
	d.inflight = 0
	d.toBe = v0
	s.Drive(d.out, v0)
	if !settle.IsFloating() {
		d.post(s, e, 0, settle)
	}
}

func (d *delayed) post(s *Simulator, e Element, at Time, v Value) {
	d.toBe = v
	d.state = pending
	d.inflight++
	s.Commit(at, e, v)
}

// update handles a freshly computed output value v. Nothing is posted if v
// is already the value to be committed.
func (d *delayed) update(now Time, s *Simulator, e Element, v Value) {
	if v.Equal(d.toBe) {
		return
	}
	d.post(s, e, now+d.delay, v)
}

func (d *delayed) commit(s *Simulator, v Value) {
	d.inflight--
	if d.inflight <= 0 {
		d.inflight = 0
		d.state = idle
	}
	s.Drive(d.out, v)
}

// Delay returns the propagation delay.
//
func (d *delayed) Delay() Time { return d.delay }

// SetDelay sets the propagation delay. It must not be called while a
// simulation is running.
//
func (d *delayed) SetDelay(t Time) { d.delay = t }

// Pending returns true if the element has computed an output value that has
// not been committed yet.
//
func (d *delayed) Pending() bool { return d.state == pending }

// ToBe returns the last computed output value.
//
func (d *delayed) ToBe() Value { return d.toBe }

// Out returns the output terminal.
//
func (d *delayed) Out() *Terminal { return d.out }

// Op is a boolean gate function.
//
type Op int

// Gate functions.
//
const (
	OpAnd Op = iota
	OpOr
	OpXor
	OpNand
	OpNor
	OpXnor
	OpNot
	OpBuffer
)

var opNames = [...]string{
	OpAnd:    "AND",
	OpOr:     "OR",
	OpXor:    "XOR",
	OpNand:   "NAND",
	OpNor:    "NOR",
	OpXnor:   "XNOR",
	OpNot:    "NOT",
	OpBuffer: "BUF",
}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return "Op(" + strconv.Itoa(int(o)) + ")"
	}
	return opNames[o]
}

// ParseOp returns the gate function with the given name (case insensitive).
//
func ParseOp(name string) (Op, error) {
	for i, n := range opNames {
		if strings.EqualFold(n, name) {
			return Op(i), nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidParameter, "unknown gate function %q", name)
}

// inverting returns true for functions whose output is high when all their
// inputs are low.
func (o Op) inverting() bool {
	return o == OpNand || o == OpNor || o == OpXnor || o == OpNot
}

func (o Op) unary() bool { return o == OpNot || o == OpBuffer }

// A Gate is a combinational element reducing its inputs with a boolean
// function. Floating inputs count as all-zero bits.
//
//	Inputs: a, b, c, ... (in for NOT and BUF)
//	Outputs: out
//
type Gate struct {
	elementBase
	delayed
	op   Op
	bits int
	in   []*Terminal
}

// NewGate returns a new gate computing op over the given number of inputs of
// the given width.
//
func NewGate(op Op, name string, inputs, bits int, delay Time) (*Gate, error) {
	if op < 0 || int(op) >= len(opNames) {
		return nil, errors.Wrapf(ErrInvalidParameter, "%s: gate function %d", name, op)
	}
	if op.unary() {
		if inputs != 1 {
			return nil, errors.Wrapf(ErrInvalidParameter, "%s: %v gate with %d inputs", name, op, inputs)
		}
	} else if inputs < 1 {
		return nil, errors.Wrapf(ErrInvalidParameter, "%s: %v gate with %d inputs", name, op, inputs)
	}
	if bits < 1 {
		return nil, errors.Wrapf(ErrInvalidParameter, "%s: %d bits wide", name, bits)
	}
	g := &Gate{
		elementBase: elementBase{name: name, kind: KindGate},
		op:          op,
		bits:        bits,
	}
	g.delay = delay
	if op.unary() {
		g.in = []*Terminal{g.terminal(tIn, In, bits)}
	} else {
		for i := 0; i < inputs; i++ {
			g.in = append(g.in, g.terminal(inputName(i), In, bits))
		}
	}
	g.out = g.terminal(tOut, Out, bits)
	return g, nil
}

func mustGate(op Op, name string, inputs, bits int, delay Time) *Gate {
	g, err := NewGate(op, name, inputs, bits, delay)
	if err != nil {
		panic(err)
	}
	return g
}

// And returns an AND gate. It panics on invalid parameters.
//
//	Function: out = a & b & ...
//
func And(name string, inputs, bits int, delay Time) *Gate {
	return mustGate(OpAnd, name, inputs, bits, delay)
}

// Or returns an OR gate. It panics on invalid parameters.
//
//	Function: out = a | b | ...
//
func Or(name string, inputs, bits int, delay Time) *Gate {
	return mustGate(OpOr, name, inputs, bits, delay)
}

// Xor returns an XOR gate. It panics on invalid parameters.
//
//	Function: out = a ^ b ^ ...
//
func Xor(name string, inputs, bits int, delay Time) *Gate {
	return mustGate(OpXor, name, inputs, bits, delay)
}

// Nand returns a NAND gate. It panics on invalid parameters.
//
//	Function: out = ^(a & b & ...)
//
func Nand(name string, inputs, bits int, delay Time) *Gate {
	return mustGate(OpNand, name, inputs, bits, delay)
}

// Nor returns a NOR gate. It panics on invalid parameters.
//
//	Function: out = ^(a | b | ...)
//
func Nor(name string, inputs, bits int, delay Time) *Gate {
	return mustGate(OpNor, name, inputs, bits, delay)
}

// Xnor returns a XNOR gate. It panics on invalid parameters.
//
//	Function: out = ^(a ^ b ^ ...)
//
func Xnor(name string, inputs, bits int, delay Time) *Gate {
	return mustGate(OpXnor, name, inputs, bits, delay)
}

// Not returns a NOT gate. It panics on invalid parameters.
//
//	Function: out = ^in
//
func Not(name string, bits int, delay Time) *Gate {
	return mustGate(OpNot, name, 1, bits, delay)
}

// Buffer returns a delay buffer. It panics on invalid parameters.
//
//	Function: out = in
//
func Buffer(name string, bits int, delay Time) *Gate {
	return mustGate(OpBuffer, name, 1, bits, delay)
}

// Op returns the gate function.
//
func (g *Gate) Op() Op { return g.op }

// Bits returns the gate width.
//
func (g *Gate) Bits() int { return g.bits }

// In returns the i-th input terminal.
//
func (g *Gate) In(i int) *Terminal { return g.in[i] }

// Eval returns the output value for the current input values.
//
func (g *Gate) Eval() Value {
	v := g.in[0].value.OrZero(g.bits)
	for _, t := range g.in[1:] {
		x := t.value.OrZero(g.bits)
		switch g.op {
		case OpAnd, OpNand:
			v = v.And(x)
		case OpOr, OpNor:
			v = v.Or(x)
		case OpXor, OpXnor:
			v = v.Xor(x)
		}
	}
	if g.op.inverting() {
		v = v.Not()
	}
	return v
}

// InitSim implements Element.
//
func (g *Gate) InitSim(s *Simulator) {
	settle := Floating
	if g.op.inverting() {
		settle = Ones(g.bits)
	}
	g.reset(s, g, Zero(g.bits), settle)
}

// React implements Element.
//
func (g *Gate) React(now Time, s *Simulator, p Payload) {
	if p.IsCommit() {
		g.commit(s, p.Value())
		return
	}
	g.update(now, s, g, g.Eval())
}

// An Extender replicates a single bit input across a wider output.
//
//	Inputs: in (1 bit)
//	Outputs: out
//	Function: out = Floating if in is Floating, all ones if in is 1, all zeros otherwise.
//
type Extender struct {
	elementBase
	delayed
	bits int
	in   *Terminal
}

// NewExtender returns a new extender with an output of the given width.
//
func NewExtender(name string, bits int, delay Time) (*Extender, error) {
	if bits < 1 {
		return nil, errors.Wrapf(ErrInvalidParameter, "%s: %d bits wide", name, bits)
	}
	x := &Extender{elementBase: elementBase{name: name, kind: KindExtender}, bits: bits}
	x.delay = delay
	x.in = x.terminal(tIn, In, 1)
	x.out = x.terminal(tOut, Out, bits)
	return x, nil
}

// Eval returns the output value for the current input value.
//
func (x *Extender) Eval() Value {
	v := x.in.value
	switch {
	case v.IsFloating():
		return Floating
	case v.IsHigh():
		return Ones(x.bits)
	default:
		return Zero(x.bits)
	}
}

// InitSim implements Element. The output starts Floating, the value computed
// for an undriven input.
//
func (x *Extender) InitSim(s *Simulator) {
	x.reset(s, x, Floating, Floating)
}

// React implements Element.
//
func (x *Extender) React(now Time, s *Simulator, p Payload) {
	if p.IsCommit() {
		x.commit(s, p.Value())
		return
	}
	x.update(now, s, x, x.Eval())
}

// A TriBuffer is a buffer with an enable input and a tri-state output.
//
//	Inputs: in, en (1 bit)
//	Outputs: out (tri-state)
//	Function: out = in if en is 1, Floating otherwise.
//
type TriBuffer struct {
	elementBase
	delayed
	bits int
	in   *Terminal
	en   *Terminal
}

// NewTriBuffer returns a new tri-state buffer of the given width.
//
func NewTriBuffer(name string, bits int, delay Time) (*TriBuffer, error) {
	if bits < 1 {
		return nil, errors.Wrapf(ErrInvalidParameter, "%s: %d bits wide", name, bits)
	}
	b := &TriBuffer{elementBase: elementBase{name: name, kind: KindTriBuffer}, bits: bits}
	b.delay = delay
	b.in = b.terminal(tIn, In, bits)
	b.en = b.terminal(tEn, In, 1)
	b.out = b.terminal(tOut, Out, bits)
	b.out.triState = true
	return b, nil
}

// Eval returns the output value for the current input values.
//
func (b *TriBuffer) Eval() Value {
	if !b.en.value.IsHigh() {
		return Floating
	}
	return b.in.value.OrZero(b.bits)
}

// InitSim implements Element.
//
func (b *TriBuffer) InitSim(s *Simulator) {
	b.reset(s, b, Floating, Floating)
}

// React implements Element.
//
func (b *TriBuffer) React(now Time, s *Simulator, p Payload) {
	if p.IsCommit() {
		b.commit(s, p.Value())
		return
	}
	b.update(now, s, b, b.Eval())
}
