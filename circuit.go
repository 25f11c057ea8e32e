// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"strings"
	"unicode"

	"github.com/db47h/evsim/internal/hdl"
	"github.com/pkg/errors"
)

// Circuit is a set of elements and the nets wiring their terminals together.
//
// A circuit is built by adding elements with Add and wiring their terminals
// with Connect or Wire. It can be embedded as a sub-circuit into another with
// AddSubcircuit. The topology must not be changed while a Simulator is
// running.
//
type Circuit struct {
	name   string
	parent *Circuit
	inst   *Subcircuit // instance element in parent

	elems  []Element
	byName map[string]Element
	pins   []Element // boundary pins, in insertion order

	terms   []*Terminal
	nets    map[NetID]*Net
	nextNet NetID
	wires   map[wire]struct{}
	adj     map[TermID][]TermID
}

// NewCircuit returns a new empty circuit.
//
func NewCircuit(name string) *Circuit {
	return &Circuit{
		name:   name,
		byName: make(map[string]Element),
		nets:   make(map[NetID]*Net),
		wires:  make(map[wire]struct{}),
		adj:    make(map[TermID][]TermID),
	}
}

// Name returns the circuit name.
//
func (c *Circuit) Name() string { return c.name }

// Parent returns the circuit c is instantiated in, or nil for a top level
// circuit.
//
func (c *Circuit) Parent() *Circuit { return c.parent }

// path returns the qualified prefix of elements in c.
func (c *Circuit) path() string {
	if c.inst == nil {
		return ""
	}
	return c.parent.path() + c.inst.name + "/"
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

// Add adds elements to c and registers their terminals.
//
func (c *Circuit) Add(elems ...Element) error {
	for _, e := range elems {
		if err := c.add(e); err != nil {
			return err
		}
	}
	return nil
}

func (c *Circuit) add(e Element) error {
	b := e.base()
	if !validName(b.name) {
		return errors.Wrapf(ErrInvalidParameter, "element name %q", b.name)
	}
	if b.c != nil {
		return errors.Wrap(ErrAlreadyAdded, b.name)
	}
	if _, ok := c.byName[b.name]; ok {
		return errors.Wrap(ErrDuplicateName, b.name)
	}
	b.c = c
	c.byName[b.name] = e
	c.elems = append(c.elems, e)
	for _, t := range b.terms {
		t.id = TermID(len(c.terms))
		t.c = c
		t.owner = e
		c.terms = append(c.terms, t)
	}
	switch e.(type) {
	case *InputPin, *OutputPin:
		c.pins = append(c.pins, e)
	}
	return nil
}

// Elements returns the elements of c in insertion order.
//
func (c *Circuit) Elements() []Element { return c.elems }

// Element returns the element with the given name in c, or nil.
//
func (c *Circuit) Element(name string) Element { return c.byName[name] }

// Pins returns the input and output pins of c, in insertion order.
//
func (c *Circuit) Pins() []Element { return c.pins }

// Terminal returns the terminal with the given identifier.
//
func (c *Circuit) Terminal(id TermID) *Terminal { return c.terms[id] }

// LookupElement returns the element at the given path. A path is an element
// name, prefixed with the names of sub-circuit instances separated by '/'.
//
func (c *Circuit) LookupElement(path string) (Element, error) {
	segs := strings.Split(path, "/")
	cc := c
	for i, s := range segs {
		e := cc.byName[s]
		if e == nil {
			return nil, errors.Wrap(ErrNotFound, path)
		}
		if i == len(segs)-1 {
			return e, nil
		}
		sub, ok := e.(*Subcircuit)
		if !ok {
			return nil, errors.Wrapf(ErrNotFound, "%s: %s is not a sub-circuit", path, s)
		}
		cc = sub.child
	}
	panic("unreachable")
}

// LookupTerminal returns the terminal at the given path: "sub/elem.term".
//
func (c *Circuit) LookupTerminal(path string) (*Terminal, error) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return nil, errors.Wrapf(ErrNotFound, "%s: missing terminal name", path)
	}
	e, err := c.LookupElement(path[:i])
	if err != nil {
		return nil, err
	}
	t := e.base().Terminal(path[i+1:])
	if t == nil {
		return nil, errors.Wrap(ErrNotFound, path)
	}
	return t, nil
}

// Wire connects terminals according to the given connection string. The
// connection string is a comma separated list of "a=b" pairs where a and b
// are terminal names relative to c. For example:
//
//	c.Wire("a.out=and.a, b.out=and.b, and.out=o.in")
//
// Connections are made in order; on error, connections already made are not
// undone.
//
func (c *Circuit) Wire(conns string) error {
	cs, err := hdl.ParseConnections(conns)
	if err != nil {
		return err
	}
	for _, cn := range cs {
		a, err := c.LookupTerminal(cn.LHS)
		if err != nil {
			return err
		}
		b, err := c.LookupTerminal(cn.RHS)
		if err != nil {
			return err
		}
		if err = c.Connect(a, b); err != nil {
			return errors.Wrap(err, cn.String())
		}
	}
	return nil
}

// walk calls fn for each element of c and its sub-circuits, depth first,
// children before their instance element.
//
func (c *Circuit) walk(fn func(e Element)) {
	for _, e := range c.elems {
		if sub, ok := e.(*Subcircuit); ok {
			sub.child.walk(fn)
		}
		fn(e)
	}
}

func (c *Circuit) reset() {
	for _, t := range c.terms {
		t.value = Floating
	}
	for _, n := range c.nets {
		n.value = Floating
	}
	for _, e := range c.elems {
		e.base().ready = false
		if sub, ok := e.(*Subcircuit); ok {
			sub.child.reset()
		}
	}
}
