// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import "github.com/pkg/errors"

// A Clock is a free running single bit signal generator. It starts low at
// time 0, goes high after Low time units, back low after High time units,
// and so on.
//
//	Outputs: out (1 bit)
//
type Clock struct {
	elementBase
	high, low Time
	out       *Terminal
}

// NewClock returns a new clock with the given high and low phase durations.
//
func NewClock(name string, high, low Time) (*Clock, error) {
	if high < 1 || low < 1 {
		return nil, errors.Wrapf(ErrInvalidParameter, "%s: clock phases %d/%d", name, high, low)
	}
	k := &Clock{elementBase: elementBase{name: name, kind: KindClock}, high: high, low: low}
	k.out = k.terminal(tOut, Out, 1)
	return k, nil
}

// Out returns the clock output terminal.
//
func (k *Clock) Out() *Terminal { return k.out }

// InitSim implements Element.
//
func (k *Clock) InitSim(s *Simulator) {
	s.Drive(k.out, Zero(1))
	s.Commit(k.low, k, Ones(1))
}

// React implements Element.
//
func (k *Clock) React(now Time, s *Simulator, p Payload) {
	if !p.IsCommit() {
		k.unexpected(p)
	}
	v := p.Value()
	s.Drive(k.out, v)
	if v.IsHigh() {
		s.Commit(now+k.high, k, Zero(1))
	} else {
		s.Commit(now+k.low, k, Ones(1))
	}
}

// A Constant drives a fixed value.
//
//	Outputs: out
//
type Constant struct {
	elementBase
	value Value
	out   *Terminal
}

// NewConstant returns a new constant driving v. v must not be Floating.
//
func NewConstant(name string, v Value) (*Constant, error) {
	if v.IsFloating() {
		return nil, errors.Wrapf(ErrInvalidParameter, "%s: floating constant", name)
	}
	k := &Constant{elementBase: elementBase{name: name, kind: KindConstant}, value: v}
	k.out = k.terminal(tOut, Out, v.Bits())
	return k, nil
}

// Value returns the constant value.
//
func (k *Constant) Value() Value { return k.value }

// InitSim implements Element.
//
func (k *Constant) InitSim(s *Simulator) {
	s.Drive(k.out, k.value)
}

// React implements Element.
//
func (k *Constant) React(now Time, s *Simulator, p Payload) {
	k.unexpected(p)
}
