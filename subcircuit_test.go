package evsim_test

import (
	"testing"

	"github.com/db47h/evsim"
	"github.com/pkg/errors"
)

// inverter returns a circuit with a single NOT gate between pins in and out.
func inverter(t *testing.T, name string) *evsim.Circuit {
	t.Helper()
	c := evsim.NewCircuit(name)
	if err := c.Add(evsim.Input("in", 1), evsim.Not("n", 1, 1), evsim.Output("out", 1)); err != nil {
		t.Fatal(err)
	}
	if err := c.Wire("in.out=n.in, n.out=out.in"); err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	return c
}

func TestSubcircuit_crossing(t *testing.T) {
	child := inverter(t, "inv")
	c := evsim.NewCircuit("top")
	a, o := evsim.Input("a", 1), evsim.Output("o", 1)
	if err := c.Add(a, o); err != nil {
		t.Fatal(err)
	}
	sub, err := c.AddSubcircuit("i0", child)
	if err != nil {
		t.Fatal(err)
	}
	if err = c.Wire("a.out=i0.in, i0.out=o.in"); err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	counts := make(map[string]int)
	s := evsim.New(c, evsim.WithTrace(func(e evsim.Event) {
		counts[e.Target.Kind().String()+" "+e.Target.Name()]++
	}))
	s.Init()
	s.Run()
	if !o.Value().Equal(evsim.Ones(1)) {
		t.Fatalf("o = %v, expected 1", o.Value())
	}

	for k := range counts {
		delete(counts, k)
	}
	s.Set(a, evsim.Ones(1))
	s.Run()
	if !o.Value().Equal(evsim.Zero(1)) {
		t.Fatalf("o = %v, expected 0", o.Value())
	}
	exp := map[string]int{
		"input a":       1,
		"subcircuit i0": 1, // entering
		"gate n":        2, // recompute and commit
		"output out":    1, // leaving
		"output o":      1,
	}
	for k, n := range exp {
		if counts[k] != n {
			t.Errorf("%s: %d events, expected %d", k, counts[k], n)
		}
	}
	if len(counts) != len(exp) {
		t.Errorf("unexpected events: %v", counts)
	}
	if s.Now() != 1 {
		t.Errorf("crossing added delay: now = %d", s.Now())
	}
	if sub.Child() != child || child.Parent() != c {
		t.Error("bad instance links")
	}
}

func TestSubcircuit_names(t *testing.T) {
	inner := inverter(t, "inv")
	mid := evsim.NewCircuit("mid")
	if _, err := mid.AddSubcircuit("x", inner); err != nil {
		t.Fatal(err)
	}
	top := evsim.NewCircuit("top")
	if _, err := top.AddSubcircuit("m", mid); err != nil {
		t.Fatal(err)
	}

	e, err := top.LookupElement("m/x/n")
	if err != nil {
		t.Fatal(err)
	}
	if e != inner.Element("n") {
		t.Fatal("LookupElement returned the wrong element")
	}
	tm, err := top.LookupTerminal("m/x/n.out")
	if err != nil {
		t.Fatal(err)
	}
	if qn := tm.QualifiedName(); qn != "m/x/n.out" {
		t.Fatalf("qualified name %q", qn)
	}
	if tm, err = top.LookupTerminal("m/x.in"); err != nil || tm.Dir() != evsim.In {
		t.Fatalf("instance terminal: %v, %v", tm, err)
	}

	td := []string{"m/y/n", "m/x/n/k", "m/x/q", "z"}
	for _, p := range td {
		if _, err = top.LookupElement(p); errors.Cause(err) != evsim.ErrNotFound {
			t.Errorf("LookupElement(%q): expected ErrNotFound, got %v", p, err)
		}
	}
	for _, p := range []string{"m/x/n", "m/x/n.nope"} {
		if _, err = top.LookupTerminal(p); errors.Cause(err) != evsim.ErrNotFound {
			t.Errorf("LookupTerminal(%q): expected ErrNotFound, got %v", p, err)
		}
	}
}

func TestAddSubcircuit_errors(t *testing.T) {
	a, b := inverter(t, "a"), inverter(t, "b")
	top := evsim.NewCircuit("top")
	if _, err := top.AddSubcircuit("a", a); err != nil {
		t.Fatal(err)
	}
	td := []struct {
		name   string
		parent *evsim.Circuit
		child  *evsim.Circuit
		err    error
	}{
		{"twice", top, a, evsim.ErrSubcircuitInUse},
		{"self", b, b, evsim.ErrSubcircuitInUse},
		{"cycle", a, top, evsim.ErrSubcircuitInUse},
		{"nil", top, nil, evsim.ErrSubcircuitInUse},
		{"name", top, b, evsim.ErrDuplicateName},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			if _, err := d.parent.AddSubcircuit("a", d.child); errors.Cause(err) != d.err {
				t.Fatalf("expected %v, got %v", d.err, err)
			}
		})
	}
	if b.Parent() != nil {
		t.Fatal("failed instantiation changed the child")
	}
}

// triChild returns a circuit driving its output o through a tri-state buffer.
func triChild(t *testing.T, name string) *evsim.Circuit {
	t.Helper()
	c := evsim.NewCircuit(name)
	tb, err := evsim.NewTriBuffer("t", 4, 2)
	if err != nil {
		t.Fatal(err)
	}
	o := evsim.Output("o", 4)
	o.SetTriState(true)
	if err = c.Add(evsim.Input("d", 4), evsim.Input("e", 1), tb, o); err != nil {
		t.Fatal(err)
	}
	if err = c.Wire("d.out=t.in, e.out=t.en, t.out=o.in"); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSubcircuit_triState(t *testing.T) {
	c := evsim.NewCircuit("top")
	for _, n := range []string{"d1", "d2"} {
		if err := c.Add(evsim.Input(n, 4)); err != nil {
			t.Fatal(err)
		}
	}
	for _, n := range []string{"e1", "e2"} {
		if err := c.Add(evsim.Input(n, 1)); err != nil {
			t.Fatal(err)
		}
	}
	bus := evsim.Output("bus", 4)
	if err := c.Add(bus); err != nil {
		t.Fatal(err)
	}
	for _, n := range []string{"s1", "s2"} {
		if _, err := c.AddSubcircuit(n, triChild(t, n)); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Wire("d1.out=s1.d, e1.out=s1.e, d2.out=s2.d, e2.out=s2.e, s1.o=bus.in, s2.o=bus.in"); err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	if !c.Net(bus.In().Net()).TriState() {
		t.Fatal("bus is not tri-state")
	}

	s := evsim.New(c)
	s.Init()
	s.Run()
	if !bus.Value().IsFloating() {
		t.Fatalf("bus = %v, expected Floating", bus.Value())
	}
	pin := func(name string) *evsim.InputPin { return c.Element(name).(*evsim.InputPin) }
	td := []struct {
		d1, e1, d2, e2 uint64
		out            evsim.Value
	}{
		{5, 1, 7, 0, evsim.Uint(4, 5)},
		{5, 0, 7, 0, evsim.Floating},
		{5, 0, 7, 1, evsim.Uint(4, 7)},
		{5, 0, 7, 0, evsim.Floating},
	}
	for i, d := range td {
		s.Set(pin("d1"), evsim.Uint(4, d.d1))
		s.Set(pin("e1"), evsim.Uint(1, d.e1))
		s.Set(pin("d2"), evsim.Uint(4, d.d2))
		s.Set(pin("e2"), evsim.Uint(1, d.e2))
		s.Run()
		if !bus.Value().Equal(d.out) {
			t.Errorf("%d: bus = %v, expected %v", i, bus.Value(), d.out)
		}
	}
	if s.Contentions() != 0 {
		t.Fatalf("%d contentions", s.Contentions())
	}
}

func TestOutputPin_SetTriState(t *testing.T) {
	child := triChild(t, "c")
	o := child.Element("o").(*evsim.OutputPin)
	if err := o.SetTriState(false); err != nil {
		t.Fatal(err)
	}
	if err := o.SetTriState(true); err != nil {
		t.Fatal(err)
	}
	c := evsim.NewCircuit("top")
	sub, err := c.AddSubcircuit("s", child)
	if err != nil {
		t.Fatal(err)
	}
	if err = o.SetTriState(false); errors.Cause(err) != evsim.ErrSubcircuitInUse {
		t.Fatalf("expected ErrSubcircuitInUse, got %v", err)
	}
	if err = o.SetTriState(true); err != nil {
		t.Fatalf("unchanged flag: %v", err)
	}
	if !sub.Terminal("o").TriState() {
		t.Fatal("instance terminal is not tri-state")
	}
}
