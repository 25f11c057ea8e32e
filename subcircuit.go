// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import "github.com/pkg/errors"

// A Subcircuit is the element instantiating a circuit inside another. It has
// one terminal per boundary pin of the child circuit, with the same name and
// width: inputs for InputPins, outputs for OutputPins.
//
// Values cross the boundary unchanged, Floating and tri-state included. Each
// crossing costs exactly one recompute event: the instance's own for values
// entering the child circuit, the child output pin's for values leaving it.
//
type Subcircuit struct {
	elementBase
	child   *Circuit
	in      []*Terminal
	inPins  []*InputPin
	out     []*Terminal
	outPins []*OutputPin
}

// AddSubcircuit instantiates child into c as an element with the given name.
// A circuit can be instantiated only once.
//
func (c *Circuit) AddSubcircuit(name string, child *Circuit) (*Subcircuit, error) {
	if child == nil || child == c || child.parent != nil {
		return nil, errors.Wrap(ErrSubcircuitInUse, name)
	}
	for p := c; p != nil; p = p.parent {
		if p == child {
			return nil, errors.Wrap(ErrSubcircuitInUse, name)
		}
	}
	sub := &Subcircuit{
		elementBase: elementBase{name: name, kind: KindSubcircuit},
		child:       child,
	}
	for _, e := range child.pins {
		switch p := e.(type) {
		case *InputPin:
			sub.in = append(sub.in, sub.terminal(p.name, In, p.bits))
			sub.inPins = append(sub.inPins, p)
		case *OutputPin:
			t := sub.terminal(p.name, Out, p.bits)
			t.triState = p.triState
			sub.out = append(sub.out, t)
			sub.outPins = append(sub.outPins, p)
		}
	}
	if err := c.add(sub); err != nil {
		return nil, err
	}
	child.parent = c
	child.inst = sub
	for i, p := range sub.inPins {
		p.boundary = sub.in[i]
	}
	for i, p := range sub.outPins {
		p.boundary = sub.out[i]
	}
	return sub, nil
}

// Child returns the instantiated circuit.
//
func (sub *Subcircuit) Child() *Circuit { return sub.child }

// InitSim implements Element.
//
func (sub *Subcircuit) InitSim(s *Simulator) {}

// React implements Element.
//
func (sub *Subcircuit) React(now Time, s *Simulator, p Payload) {
	if p.IsCommit() {
		sub.unexpected(p)
	}
	for i, t := range sub.in {
		pin := sub.inPins[i]
		s.SetTriState(pin.out, t.NetTriState())
		if !t.value.Equal(pin.out.value) {
			s.Drive(pin.out, t.value)
		}
	}
}
