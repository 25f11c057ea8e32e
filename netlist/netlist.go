// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package netlist loads circuit descriptions written in starlark.
//
// A description is a starlark program calling the following builtins, each
// adding one element to the current circuit and returning its name:
//
//	input(name, bits=1, init=None)
//	output(name, bits=1, tristate=False)
//	gate(op, name, inputs=2, bits=1, delay=1)  # op: "and", "nand", "not", "buf", ...
//	                                          # inputs defaults to 1 for "not" and "buf"
//	extend(name, bits, delay=1)
//	tribuf(name, bits=1, delay=1)
//	binder(name, widths)                      # widths: list of ints, lsb first
//	splitter(name, widths)
//	clock(name, high=1, low=1)
//	constant(name, value, bits=1)
//	stop(name, inputs=1)
//
// Terminals are wired with wire("a.out=g.a, g.out=o.in"). chip(name, fn)
// creates a new circuit, calls fn to populate it, then instantiates it as a
// sub-circuit named name in the current circuit:
//
//	def half_adder():
//	    input("a")
//	    input("b")
//	    output("s")
//	    output("c")
//	    gate("xor", "x")
//	    gate("and", "n")
//	    wire("a.out=x.a, b.out=x.b, a.out=n.a, b.out=n.b, x.out=s.in, n.out=c.in")
//
//	input("x")
//	input("y")
//	output("sum")
//	chip("ha", half_adder)
//	wire("x.out=ha.a, y.out=ha.b, ha.s=sum.in")
//
package netlist

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/db47h/evsim"
	"github.com/pkg/errors"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// maxSteps bounds the execution of a description.
const maxSteps = 1 << 24

type loader struct {
	stack []*evsim.Circuit
}

func (l *loader) top() *evsim.Circuit {
	return l.stack[len(l.stack)-1]
}

func (l *loader) add(e evsim.Element, err error) (starlark.Value, error) {
	if err != nil {
		return nil, err
	}
	if err = l.top().Add(e); err != nil {
		return nil, err
	}
	return starlark.String(e.Name()), nil
}

type builtinFunc func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error)

func (l *loader) predeclared() starlark.StringDict {
	fns := map[string]builtinFunc{
		"input":    l.input,
		"output":   l.output,
		"gate":     l.gate,
		"extend":   l.extend,
		"tribuf":   l.tribuf,
		"binder":   l.binder,
		"splitter": l.splitter,
		"clock":    l.clock,
		"constant": l.constant,
		"stop":     l.stop,
		"wire":     l.wire,
		"chip":     l.chip,
	}
	d := make(starlark.StringDict, len(fns))
	for name, fn := range fns {
		d[name] = starlark.NewBuiltin(name, fn)
	}
	return d
}

func (l *loader) input(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		name string
		bits = 1
		init starlark.Value
	)
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "bits?", &bits, "init?", &init); err != nil {
		return nil, err
	}
	p, err := evsim.NewInputPin(name, bits)
	if err != nil {
		return nil, err
	}
	if init != nil && init != starlark.None {
		v, err := toValue(init, bits)
		if err != nil {
			return nil, errors.Wrap(err, name)
		}
		if err = p.SetInitial(v); err != nil {
			return nil, err
		}
	}
	return l.add(p, nil)
}

func (l *loader) output(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		name     string
		bits     = 1
		triState bool
	)
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "bits?", &bits, "tristate?", &triState); err != nil {
		return nil, err
	}
	p, err := evsim.NewOutputPin(name, bits)
	if err != nil {
		return nil, err
	}
	p.SetTriState(triState)
	return l.add(p, nil)
}

func (l *loader) gate(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		op, name string
		inputs   int
		bits     = 1
		delay    = 1
	)
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "op", &op, "name", &name, "inputs?", &inputs, "bits?", &bits, "delay?", &delay); err != nil {
		return nil, err
	}
	o, err := evsim.ParseOp(op)
	if err != nil {
		return nil, err
	}
	if inputs == 0 {
		inputs = 2
		if o == evsim.OpNot || o == evsim.OpBuffer {
			inputs = 1
		}
	}
	if delay < 0 {
		return nil, errors.Wrapf(evsim.ErrInvalidParameter, "%s: delay %d", name, delay)
	}
	return l.add(evsim.NewGate(o, name, inputs, bits, evsim.Time(delay)))
}

func (l *loader) extend(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		name        string
		bits, delay = 0, 1
	)
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "bits", &bits, "delay?", &delay); err != nil {
		return nil, err
	}
	if delay < 0 {
		return nil, errors.Wrapf(evsim.ErrInvalidParameter, "%s: delay %d", name, delay)
	}
	return l.add(evsim.NewExtender(name, bits, evsim.Time(delay)))
}

func (l *loader) tribuf(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		name        string
		bits, delay = 1, 1
	)
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "bits?", &bits, "delay?", &delay); err != nil {
		return nil, err
	}
	if delay < 0 {
		return nil, errors.Wrapf(evsim.ErrInvalidParameter, "%s: delay %d", name, delay)
	}
	return l.add(evsim.NewTriBuffer(name, bits, evsim.Time(delay)))
}

func widths(name string, l *starlark.List) ([]int, error) {
	ws := make([]int, 0, l.Len())
	for i := 0; i < l.Len(); i++ {
		w, err := starlark.AsInt32(l.Index(i))
		if err != nil {
			return nil, errors.Wrapf(evsim.ErrInvalidParameter, "%s: width #%d: %v", name, i, err)
		}
		ws = append(ws, w)
	}
	return ws, nil
}

func (l *loader) binder(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		name string
		ws   *starlark.List
	)
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "widths", &ws); err != nil {
		return nil, err
	}
	w, err := widths(name, ws)
	if err != nil {
		return nil, err
	}
	return l.add(evsim.NewBinder(name, evsim.Consecutive(w...)...))
}

func (l *loader) splitter(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		name string
		ws   *starlark.List
	)
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "widths", &ws); err != nil {
		return nil, err
	}
	w, err := widths(name, ws)
	if err != nil {
		return nil, err
	}
	return l.add(evsim.NewSplitter(name, evsim.Consecutive(w...)...))
}

func (l *loader) clock(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		name      string
		high, low = 1, 1
	)
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "high?", &high, "low?", &low); err != nil {
		return nil, err
	}
	if high < 1 || low < 1 {
		return nil, errors.Wrapf(evsim.ErrInvalidParameter, "%s: clock phases %d/%d", name, high, low)
	}
	return l.add(evsim.NewClock(name, evsim.Time(high), evsim.Time(low)))
}

func (l *loader) constant(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		name  string
		value starlark.Value
		bits  = 1
	)
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "value", &value, "bits?", &bits); err != nil {
		return nil, err
	}
	v, err := toValue(value, bits)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	return l.add(evsim.NewConstant(name, v))
}

func (l *loader) stop(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		name   string
		inputs = 1
	)
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "inputs?", &inputs); err != nil {
		return nil, err
	}
	return l.add(evsim.NewStop(name, inputs))
}

func (l *loader) wire(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var conns string
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "conns", &conns); err != nil {
		return nil, err
	}
	if err := l.top().Wire(conns); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

func (l *loader) chip(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		name string
		body starlark.Callable
	)
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "fn", &body); err != nil {
		return nil, err
	}
	child := evsim.NewCircuit(body.Name())
	l.stack = append(l.stack, child)
	_, err := starlark.Call(thread, body, nil, nil)
	l.stack = l.stack[:len(l.stack)-1]
	if err != nil {
		return nil, err
	}
	if _, err = l.top().AddSubcircuit(name, child); err != nil {
		return nil, err
	}
	return starlark.String(name), nil
}

func toValue(x starlark.Value, bits int) (evsim.Value, error) {
	switch x := x.(type) {
	case starlark.Bool:
		if bits != 1 {
			return evsim.Floating, errors.Wrapf(evsim.ErrWidthMismatch, "boolean value for %d bits", bits)
		}
		return evsim.Bool(bool(x)), nil
	case starlark.Int:
		if bits < 1 {
			return evsim.Floating, errors.Wrapf(evsim.ErrInvalidParameter, "%d bits wide", bits)
		}
		return evsim.FromBig(bits, x.BigInt()), nil
	}
	return evsim.Floating, errors.Wrapf(evsim.ErrInvalidParameter, "value %s is a %s", x, x.Type())
}

// Load reads a circuit description from r and returns the resulting circuit.
// name is used as the file name in error messages and, without its extension,
// as the circuit name.
//
func Load(r io.Reader, name string) (*evsim.Circuit, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	c := evsim.NewCircuit(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	l := &loader{stack: []*evsim.Circuit{c}}
	thread := &starlark.Thread{Name: name}
	thread.SetMaxExecutionSteps(maxSteps)
	opts := syntax.FileOptions{While: true, TopLevelControl: true, GlobalReassign: true, Recursion: true}
	if _, err = starlark.ExecFileOptions(&opts, thread, name, src, l.predeclared()); err != nil {
		if ee, ok := err.(*starlark.EvalError); ok {
			return nil, errors.Errorf("%s", ee.Backtrace())
		}
		return nil, err
	}
	return c, nil
}
