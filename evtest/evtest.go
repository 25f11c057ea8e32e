// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package evtest provides utility functions for testing circuits.
//
package evtest

import (
	"math/rand"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/db47h/evsim"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A Harness runs a circuit, setting its input pins and reading its output
// pins by name.
//
type Harness struct {
	*evsim.Simulator
	ins  []*evsim.InputPin
	outs []*evsim.OutputPin
}

// New returns a Harness for c. The simulation is initialized and ready to
// run.
//
func New(c *evsim.Circuit, opts ...evsim.Option) *Harness {
	h := &Harness{Simulator: evsim.New(c, opts...)}
	for _, e := range c.Pins() {
		switch p := e.(type) {
		case *evsim.InputPin:
			h.ins = append(h.ins, p)
		case *evsim.OutputPin:
			h.outs = append(h.outs, p)
		}
	}
	h.Init()
	return h
}

// Inputs returns the input pins of the circuit.
//
func (h *Harness) Inputs() []*evsim.InputPin { return h.ins }

// Outputs returns the output pins of the circuit.
//
func (h *Harness) Outputs() []*evsim.OutputPin { return h.outs }

func (h *Harness) input(name string) *evsim.InputPin {
	for _, p := range h.ins {
		if p.Name() == name {
			return p
		}
	}
	panic(errors.Wrap(evsim.ErrNotFound, name))
}

func (h *Harness) output(name string) *evsim.OutputPin {
	for _, p := range h.outs {
		if p.Name() == name {
			return p
		}
	}
	panic(errors.Wrap(evsim.ErrNotFound, name))
}

// Set schedules input pin name to change to v at the current time. It
// panics if there is no such pin.
//
func (h *Harness) Set(name string, v evsim.Value) {
	h.Simulator.Set(h.input(name), v)
}

// SetUint schedules input pin name to change to x at the current time.
//
func (h *Harness) SetUint(name string, x uint64) {
	p := h.input(name)
	h.Simulator.Set(p, evsim.Uint(p.Bits(), x))
}

// Settle runs the simulation until no events are left and returns the
// current time. It must not be used with free running clocks.
//
func (h *Harness) Settle() evsim.Time {
	return h.Run()
}

// Get returns the value seen by output pin name. It panics if there is no
// such pin.
//
func (h *Harness) Get(name string) evsim.Value {
	return h.output(name).Value()
}

// Uint returns the value seen by output pin name as an unsigned integer.
// Floating reads as 0.
//
func (h *Harness) Uint(name string) uint64 {
	return h.Get(name).Uint64()
}

// Apply sets all inputs from the given values, in pin order, settles the
// circuit and returns the output values in pin order.
//
func (h *Harness) Apply(in []evsim.Value) []evsim.Value {
	for i, p := range h.ins {
		h.Simulator.Set(p, in[i])
	}
	h.Settle()
	out := make([]evsim.Value, len(h.outs))
	for i, p := range h.outs {
		out[i] = p.Value()
	}
	return out
}

func pinList(ps []evsim.Element) string {
	var b strings.Builder
	for _, e := range ps {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		switch p := e.(type) {
		case *evsim.InputPin:
			b.WriteString("in " + p.Name() + "[" + strconv.Itoa(p.Bits()) + "]")
		case *evsim.OutputPin:
			b.WriteString("out " + p.Name() + "[" + strconv.Itoa(p.Bits()) + "]")
		}
	}
	return b.String()
}

func randValue(r *rand.Rand, bits int) evsim.Value {
	v := evsim.Zero(bits)
	for lo := 0; lo < bits; lo += 64 {
		n := bits - lo
		if n > 64 {
			n = 64
		}
		v = v.Insert(lo, evsim.Uint(n, r.Uint64()))
	}
	return v
}

func format(ps []*evsim.InputPin, vs []evsim.Value) string {
	var b strings.Builder
	for i, p := range ps {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name() + "=" + vs[i].Format(evsim.Hex))
	}
	return b.String()
}

// Compare builds two circuits and compares their outputs given the same
// inputs. Both circuits must have the same pins, in the same order.
//
// Inputs are all zeros, all ones, then n random assignments. If the inputs
// total 12 bits or less, all assignments are tried instead.
//
func Compare(t testing.TB, n int, build1, build2 func() *evsim.Circuit) {
	t.Helper()

	c1, c2 := build1(), build2()
	require.Equal(t, pinList(c1.Pins()), pinList(c2.Pins()), "circuit pins differ")

	h1, h2 := New(c1), New(c2)
	h1.Settle()
	h2.Settle()

	total := 0
	for _, p := range h1.ins {
		total += p.Bits()
	}

	check := func(in []evsim.Value) {
		o1, o2 := h1.Apply(in), h2.Apply(in)
		for i, p := range h1.outs {
			if !assert.True(t, o1[i].Equal(o2[i]), "%s => %s: expected %v, got %v", format(h1.ins, in), p.Name(), o1[i], o2[i]) {
				t.FailNow()
			}
		}
	}

	in := make([]evsim.Value, len(h1.ins))
	start := time.Now()

	if total <= 12 {
		for x := uint64(0); x < 1<<uint(total); x++ {
			lo := 0
			for i, p := range h1.ins {
				in[i] = evsim.Uint(p.Bits(), x>>uint(lo))
				lo += p.Bits()
			}
			check(in)
		}
	} else {
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		for i, p := range h1.ins {
			in[i] = evsim.Zero(p.Bits())
		}
		check(in)
		for i, p := range h1.ins {
			in[i] = evsim.Ones(p.Bits())
		}
		check(in)
		for k := 0; k < n; k++ {
			for i, p := range h1.ins {
				in[i] = randValue(r, p.Bits())
			}
			check(in)
		}
	}

	elapsed := time.Since(start)
	t.Logf("%d+%d events in %v", h1.Dispatched(), h2.Dispatched(), elapsed)
}
