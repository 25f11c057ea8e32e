// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import "github.com/pkg/errors"

// An InputPin is an input of a circuit.
//
// At the top level, its value is set by commit events posted by a stimulus
// source (see Simulator.Set). Inside a sub-circuit, it forwards the value of
// the matching terminal of the instance element.
//
//	Outputs: out
//
type InputPin struct {
	elementBase
	bits     int
	initial  Value
	out      *Terminal
	boundary *Terminal // instance terminal in the parent circuit
}

// NewInputPin returns a new input pin of the given width. Its initial value
// is 0.
//
func NewInputPin(name string, bits int) (*InputPin, error) {
	if bits < 1 {
		return nil, errors.Wrapf(ErrInvalidParameter, "%s: %d bits wide", name, bits)
	}
	p := &InputPin{
		elementBase: elementBase{name: name, kind: KindInputPin},
		bits:        bits,
		initial:     Zero(bits),
	}
	p.out = p.terminal(tOut, Out, bits)
	return p, nil
}

// Input returns a new input pin. It panics on invalid parameters.
//
func Input(name string, bits int) *InputPin {
	p, err := NewInputPin(name, bits)
	if err != nil {
		panic(err)
	}
	return p
}

// Bits returns the pin width.
//
func (p *InputPin) Bits() int { return p.bits }

// Out returns the pin's output terminal.
//
func (p *InputPin) Out() *Terminal { return p.out }

// Value returns the value currently driven by the pin.
//
func (p *InputPin) Value() Value { return p.out.value }

// Initial returns the value driven when the simulation starts.
//
func (p *InputPin) Initial() Value { return p.initial }

// SetInitial sets the value driven when the simulation starts. v must be
// Floating or have the pin's width.
//
func (p *InputPin) SetInitial(v Value) error {
	if !v.IsFloating() && v.Bits() != p.bits {
		return errors.Wrapf(ErrWidthMismatch, "%s: initial value is %d bits wide, pin is %d bits", p.name, v.Bits(), p.bits)
	}
	p.initial = v
	return nil
}

// SetTriState makes the pin's output tri-state, allowing other tri-state
// drivers on the same net.
//
func (p *InputPin) SetTriState(on bool) { p.out.triState = on }

// InitSim implements Element.
//
func (p *InputPin) InitSim(s *Simulator) {
	if p.boundary == nil {
		s.Drive(p.out, p.initial)
	}
}

// React implements Element.
//
func (p *InputPin) React(now Time, s *Simulator, pl Payload) {
	if !pl.IsCommit() {
		p.unexpected(pl)
	}
	s.Drive(p.out, pl.Value())
}

// An OutputPin is an output of a circuit. It records the value of its input
// and forwards it to the matching terminal of the instance element when the
// circuit is a sub-circuit.
//
//	Inputs: in
//
type OutputPin struct {
	elementBase
	bits     int
	triState bool
	in       *Terminal
	boundary *Terminal
	last     Value
	watchers []func(Time, Value)
}

// NewOutputPin returns a new output pin of the given width.
//
func NewOutputPin(name string, bits int) (*OutputPin, error) {
	if bits < 1 {
		return nil, errors.Wrapf(ErrInvalidParameter, "%s: %d bits wide", name, bits)
	}
	p := &OutputPin{
		elementBase: elementBase{name: name, kind: KindOutputPin},
		bits:        bits,
	}
	p.in = p.terminal(tIn, In, bits)
	return p, nil
}

// Output returns a new output pin. It panics on invalid parameters.
//
func Output(name string, bits int) *OutputPin {
	p, err := NewOutputPin(name, bits)
	if err != nil {
		panic(err)
	}
	return p
}

// Bits returns the pin width.
//
func (p *OutputPin) Bits() int { return p.bits }

// In returns the pin's input terminal.
//
func (p *OutputPin) In() *Terminal { return p.in }

// Value returns the value currently seen by the pin.
//
func (p *OutputPin) Value() Value { return p.in.value }

// SetTriState declares that the pin may be released. When the circuit is
// instantiated as a sub-circuit, the matching terminal of the instance can
// then share a net with other tri-state drivers.
//
// The flag is copied to the instance terminal by AddSubcircuit. Changing it
// afterwards returns ErrSubcircuitInUse.
//
func (p *OutputPin) SetTriState(on bool) error {
	if p.boundary != nil && on != p.triState {
		return errors.Wrap(ErrSubcircuitInUse, p.name)
	}
	p.triState = on
	return nil
}

// Watch registers a function called with the time and new value whenever the
// value seen by the pin changes.
//
func (p *OutputPin) Watch(fn func(now Time, v Value)) {
	p.watchers = append(p.watchers, fn)
}

// InitSim implements Element.
//
func (p *OutputPin) InitSim(s *Simulator) {
	p.last = Floating
}

// React implements Element.
//
func (p *OutputPin) React(now Time, s *Simulator, pl Payload) {
	if pl.IsCommit() {
		p.unexpected(pl)
	}
	v := p.in.value
	if p.boundary != nil {
		s.SetTriState(p.boundary, p.in.NetTriState())
		s.Drive(p.boundary, v)
	}
	if v.Equal(p.last) {
		return
	}
	p.last = v
	for _, fn := range p.watchers {
		fn(now, v)
	}
}
