// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"strconv"

	"github.com/pkg/errors"
)

// MaxStopInputs is the maximum number of inputs of a Stop element.
//
const MaxStopInputs = 4

// A Stop element halts the simulation as soon as one of its inputs is 1.
//
//	Inputs: in0, in1, in2, in3 (1 bit each)
//
type Stop struct {
	elementBase
	in []*Terminal
}

// NewStop returns a new stop condition with n single bit inputs.
//
func NewStop(name string, n int) (*Stop, error) {
	if n < 1 || n > MaxStopInputs {
		return nil, errors.Wrapf(ErrInvalidParameter, "%s: %d inputs", name, n)
	}
	st := &Stop{elementBase: elementBase{name: name, kind: KindStop}}
	for i := 0; i < n; i++ {
		st.in = append(st.in, st.terminal(tIn+strconv.Itoa(i), In, 1))
	}
	return st, nil
}

// Triggered returns true if any input is currently 1.
//
func (st *Stop) Triggered() bool {
	for _, t := range st.in {
		if t.value.IsHigh() {
			return true
		}
	}
	return false
}

// InitSim implements Element.
//
func (st *Stop) InitSim(s *Simulator) {}

// React implements Element.
//
func (st *Stop) React(now Time, s *Simulator, p Payload) {
	if st.Triggered() {
		if s.log != nil {
			s.log.Printf("@%d %s: stop", now, st.QualifiedName())
		}
		s.Stop()
	}
}
