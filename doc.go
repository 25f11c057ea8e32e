/*
Package evsim is a discrete event simulator for digital logic circuits.

A Circuit is built from elements: gates, extenders, tri-state buffers, bus
binders and splitters, input and output pins, clocks, constants, stop
conditions and sub-circuits. Element terminals are wired together into nets,
either one connection at a time with Connect or with connection strings:

	c := evsim.NewCircuit("xor")
	c.Add(
		evsim.Input("a", 1),
		evsim.Input("b", 1),
		evsim.Xor("x", 2, 1, 10),
		evsim.Output("out", 1),
	)
	err := c.Wire("a.out=x.a, b.out=x.b, x.out=out.in")

Signal values are bit vectors of any width, or Floating when nothing drives
them. Several tri-state outputs can share a net: the first one, in attach
order, that is not Floating drives it.

A Simulator runs a circuit. Elements react to events in time order, events
scheduled for the same time in the order they were posted. Gates use a two
phase model: when an input changes, the gate computes its new output and
schedules a commit of that value after its propagation delay. The committed
value then propagates through the attached net and schedules a recompute of
every element reading it.

	s := evsim.New(c)
	s.Init()
	s.Set(c.Element("a").(*evsim.InputPin), evsim.Uint(1, 1))
	s.Run()

Circuits can be nested with AddSubcircuit. Values cross sub-circuit
boundaries unchanged, without delay.

Topology errors are returned by the wiring API. Using the simulator in a way
that breaks its invariants, like posting an event in the past, panics.

*/
package evsim
