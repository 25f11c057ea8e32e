// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import "strconv"

// Time is a point in simulated time.
//
type Time uint64

// Kind enumerates the element kinds known to the simulator.
//
type Kind int

// Element kinds.
//
const (
	KindGate Kind = iota
	KindExtender
	KindTriBuffer
	KindBinder
	KindSplitter
	KindInputPin
	KindOutputPin
	KindStop
	KindClock
	KindConstant
	KindSubcircuit
)

var kindNames = [...]string{
	KindGate:       "gate",
	KindExtender:   "extender",
	KindTriBuffer:  "tribuffer",
	KindBinder:     "binder",
	KindSplitter:   "splitter",
	KindInputPin:   "input",
	KindOutputPin:  "output",
	KindStop:       "stop",
	KindClock:      "clock",
	KindConstant:   "constant",
	KindSubcircuit: "subcircuit",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// A Payload is what an event carries to its target: either the Recompute
// sentinel or a value to commit.
//
type Payload struct {
	commit bool
	value  Value
}

// Recompute is the payload of events notifying an element that its inputs
// changed.
//
var Recompute = Payload{}

// Commit returns a payload asking an element to commit v on its output.
//
func Commit(v Value) Payload { return Payload{commit: true, value: v} }

// IsCommit returns true if p is a commit payload.
//
func (p Payload) IsCommit() bool { return p.commit }

// Value returns the value carried by a commit payload.
//
func (p Payload) Value() Value { return p.value }

func (p Payload) String() string {
	if !p.commit {
		return "recompute"
	}
	return "commit " + p.value.String()
}

// An Event is a payload scheduled for delivery to an element at a given
// time.
//
type Event struct {
	Time    Time
	Target  Element
	Payload Payload

	seq uint64
}

// An Element is a reactive component of a circuit.
//
// The set of element kinds is closed: elements are created with the
// constructors of this package (NewGate, NewBinder, NewInputPin, ...).
//
type Element interface {
	// Name returns the element name, unique within its circuit.
	Name() string
	// Kind returns the element kind.
	Kind() Kind
	// Terminals returns the element's terminals.
	Terminals() []*Terminal
	// InitSim resets the element state and posts or drives its initial
	// values. It is called by Simulator.Init once the topology is complete.
	InitSim(s *Simulator)
	// React handles an event addressed to the element.
	React(now Time, s *Simulator, p Payload)

	base() *elementBase
}

type elementBase struct {
	name  string
	kind  Kind
	terms []*Terminal
	c     *Circuit
	ready bool
}

func (b *elementBase) base() *elementBase { return b }

// Name returns the element name.
//
func (b *elementBase) Name() string { return b.name }

// Kind returns the element kind.
//
func (b *elementBase) Kind() Kind { return b.kind }

// Terminals returns the element's terminals.
//
func (b *elementBase) Terminals() []*Terminal { return b.terms }

// Circuit returns the circuit the element has been added to.
//
func (b *elementBase) Circuit() *Circuit { return b.c }

// QualifiedName returns the element's name prefixed by the names of the
// enclosing sub-circuit instances, separated by '/'.
//
func (b *elementBase) QualifiedName() string {
	if b.c == nil {
		return b.name
	}
	return b.c.path() + b.name
}

// Terminal returns the terminal with the given name, or nil.
//
func (b *elementBase) Terminal(name string) *Terminal {
	for _, t := range b.terms {
		if t.name == name {
			return t
		}
	}
	return nil
}

func (b *elementBase) terminal(name string, dir Dir, bits int) *Terminal {
	t := newTerminal(name, dir, bits)
	b.terms = append(b.terms, t)
	return t
}

// unexpected is called by elements receiving a payload they have no
// behavior for.
//
func (b *elementBase) unexpected(p Payload) {
	panic(b.kind.String() + " " + b.QualifiedName() + ": unexpected " + p.String())
}
