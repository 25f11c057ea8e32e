// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

// Dir is the direction of a terminal.
//
type Dir uint8

// Terminal directions.
//
const (
	In Dir = iota
	Out
)

func (d Dir) String() string {
	if d == Out {
		return "out"
	}
	return "in"
}

// TermID identifies a terminal within its circuit.
//
type TermID int

// A Terminal is a named, fixed width attachment point on an element.
//
// Input terminals cache the last value delivered by their net. Output
// terminals cache the last value they drove and carry a tri-state flag.
// A terminal refers to its net by identifier only; attachments are changed by
// the circuit's wiring methods, never by the owning element.
//
type Terminal struct {
	id       TermID
	c        *Circuit
	owner    Element
	name     string
	dir      Dir
	bits     int
	value    Value
	triState bool
	net      NetID
}

func newTerminal(name string, dir Dir, bits int) *Terminal {
	return &Terminal{name: name, dir: dir, bits: bits, net: NoNet, id: -1}
}

// ID returns the terminal's identifier in its circuit.
//
func (t *Terminal) ID() TermID { return t.id }

// Name returns the terminal name.
//
func (t *Terminal) Name() string { return t.name }

// QualifiedName returns the terminal name prefixed by the qualified name of
// its owner: "sub/elem.term".
//
func (t *Terminal) QualifiedName() string {
	if t.owner == nil {
		return t.name
	}
	return t.owner.base().QualifiedName() + "." + t.name
}

// Dir returns the terminal direction.
//
func (t *Terminal) Dir() Dir { return t.dir }

// Owner returns the element owning t.
//
func (t *Terminal) Owner() Element { return t.owner }

// DeclaredBits returns the declared width of t. 0 means that the width is
// inferred from the attached net.
//
func (t *Terminal) DeclaredBits() int { return t.bits }

// Bits returns the width of t, or that of its net if t has no declared width.
//
func (t *Terminal) Bits() int {
	if t.bits == 0 && t.net != NoNet {
		return t.c.nets[t.net].bits
	}
	return t.bits
}

// Value returns the cached value of t.
//
func (t *Terminal) Value() Value { return t.value }

// TriState returns true if t is an output that may release the net.
//
func (t *Terminal) TriState() bool { return t.triState }

// Net returns the net t is attached to, or NoNet.
//
func (t *Terminal) Net() NetID { return t.net }

// Attached returns true if t is attached to a net.
//
func (t *Terminal) Attached() bool { return t.net != NoNet }

// NetTriState returns the tri-state flag of the net t is attached to. An
// unattached terminal sees no driver at all and reports true.
//
func (t *Terminal) NetTriState() bool {
	if t.net == NoNet {
		return true
	}
	return t.c.nets[t.net].triState
}
