package evsim_test

import (
	"testing"
	"testing/quick"

	"github.com/db47h/evsim"
	"github.com/pkg/errors"
)

type busTest struct {
	c   *evsim.Circuit
	s   *evsim.Simulator
	in  []*evsim.InputPin
	bus *evsim.OutputPin
	out []*evsim.OutputPin
}

// newBusTest wires inputs into a binder, the binder into a splitter with the
// same ranges and the splitter outputs to output pins.
func newBusTest(t *testing.T, widths ...int) *busTest {
	t.Helper()
	bt := &busTest{c: evsim.NewCircuit("test")}
	rs := evsim.Consecutive(widths...)
	b, err := evsim.NewBinder("bind", rs...)
	if err != nil {
		t.Fatal(err)
	}
	sp, err := evsim.NewSplitter("split", rs...)
	if err != nil {
		t.Fatal(err)
	}
	bt.bus = evsim.Output("bus", b.Bits())
	if err = bt.c.Add(b, sp, bt.bus); err != nil {
		t.Fatal(err)
	}
	if err = bt.c.Wire("bind.out=split.in, bind.out=bus.in"); err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	for i, w := range widths {
		p := evsim.Input("i"+string(rune('a'+i)), w)
		o := evsim.Output("o"+string(rune('a'+i)), w)
		if err = bt.c.Add(p, o); err != nil {
			t.Fatal(err)
		}
		if err = bt.c.Connect(p.Out(), b.Terminals()[i]); err != nil {
			t.Fatal(err)
		}
		if err = bt.c.Connect(sp.Terminals()[i+1], o.In()); err != nil {
			t.Fatal(err)
		}
		bt.in = append(bt.in, p)
		bt.out = append(bt.out, o)
	}
	bt.s = evsim.New(bt.c)
	bt.s.Init()
	bt.s.Run()
	return bt
}

func (bt *busTest) apply(vs ...evsim.Value) {
	for i, v := range vs {
		bt.s.Set(bt.in[i], v)
	}
	bt.s.Run()
}

func TestBinderSplitter(t *testing.T) {
	bt := newBusTest(t, 2, 2)
	bt.apply(evsim.Uint(2, 1), evsim.Uint(2, 2))
	if v := bt.bus.Value(); !v.Equal(evsim.Uint(4, 0x9)) {
		t.Fatalf("bus = %v, expected 0x9", v)
	}
	if !bt.out[0].Value().Equal(evsim.Uint(2, 1)) || !bt.out[1].Value().Equal(evsim.Uint(2, 2)) {
		t.Fatalf("split = %v, %v", bt.out[0].Value(), bt.out[1].Value())
	}

	// a floating sub-range contributes zeros
	bt.apply(evsim.Floating, evsim.Uint(2, 3))
	if v := bt.bus.Value(); !v.Equal(evsim.Uint(4, 0xc)) {
		t.Fatalf("bus = %v, expected 0xc", v)
	}
	// all floating
	bt.apply(evsim.Floating, evsim.Floating)
	if v := bt.bus.Value(); !v.IsFloating() {
		t.Fatalf("bus = %v, expected Floating", v)
	}
	for _, o := range bt.out {
		if !o.Value().IsFloating() {
			t.Fatalf("%s = %v, expected Floating", o.Name(), o.Value())
		}
	}
}

func TestBinderSplitter_roundTrip(t *testing.T) {
	bt := newBusTest(t, 3, 1, 12, 7)
	f := func(a, b, c, d uint16) bool {
		vs := []evsim.Value{
			evsim.Uint(3, uint64(a)),
			evsim.Uint(1, uint64(b)),
			evsim.Uint(12, uint64(c)),
			evsim.Uint(7, uint64(d)),
		}
		bt.apply(vs...)
		exp := uint64(a)&7 | (uint64(b)&1)<<3 | (uint64(c)&0xfff)<<4 | (uint64(d)&0x7f)<<16
		if bt.bus.Value().Uint64() != exp {
			return false
		}
		for i, o := range bt.out {
			if !o.Value().Equal(vs[i]) {
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestBinder_ranges(t *testing.T) {
	td := []struct {
		name string
		rs   []evsim.Range
		err  error
	}{
		{"empty", nil, evsim.ErrInvalidParameter},
		{"overlap", []evsim.Range{{0, 4}, {3, 2}}, evsim.ErrInvalidParameter},
		{"zero", []evsim.Range{{0, 0}}, evsim.ErrInvalidParameter},
		{"gap", []evsim.Range{{0, 2}, {4, 2}}, nil},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			if _, err := evsim.NewBinder("b", d.rs...); errors.Cause(err) != d.err {
				t.Fatalf("binder: expected %v, got %v", d.err, err)
			}
			if _, err := evsim.NewSplitter("s", d.rs...); errors.Cause(err) != d.err {
				t.Fatalf("splitter: expected %v, got %v", d.err, err)
			}
		})
	}
}

func TestBinder_triStateCorrection(t *testing.T) {
	c := evsim.NewCircuit("test")
	b, err := evsim.NewBinder("b", evsim.Consecutive(1, 1)...)
	if err != nil {
		t.Fatal(err)
	}
	o := evsim.Output("o", 2)
	if err = c.Add(evsim.Input("p0", 1), evsim.Input("p1", 1), b, o); err != nil {
		t.Fatal(err)
	}
	if err = c.Wire("p0.out=b.in0, p1.out=b.in1, b.out=o.in"); err != nil {
		t.Fatal(err)
	}
	n := c.Net(o.In().Net())
	if !n.TriState() {
		t.Fatal("binder output net should start tri-state")
	}
	s := evsim.New(c)
	s.Init()
	s.Run()
	if n.TriState() {
		t.Fatal("binder fed by regular nets should not be tri-state")
	}
	if !o.Value().Equal(evsim.Zero(2)) {
		t.Fatalf("o = %v", o.Value())
	}
	if !b.Terminal("out").Value().Equal(evsim.Zero(2)) {
		t.Fatalf("bus = %v", b.Terminal("out").Value())
	}
}

func TestSplitter_triStateBus(t *testing.T) {
	// a splitter fed by a tri-state bus shares its outputs with other
	// tri-state drivers.
	c := evsim.NewCircuit("test")
	tb1, err := evsim.NewTriBuffer("tb1", 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	tb2, err := evsim.NewTriBuffer("tb2", 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	sp, err := evsim.NewSplitter("sp", evsim.Consecutive(2, 2)...)
	if err != nil {
		t.Fatal(err)
	}
	if err = c.Add(evsim.Input("d1", 4), evsim.Input("e1", 1), evsim.Input("d2", 2), evsim.Input("e2", 1),
		tb1, tb2, sp, evsim.Output("lo", 2)); err != nil {
		t.Fatal(err)
	}
	if err = c.Wire("d1.out=tb1.in, e1.out=tb1.en, d2.out=tb2.in, e2.out=tb2.en," +
		"tb1.out=sp.in, sp.out0=lo.in, tb2.out=lo.in"); err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	s := evsim.New(c)
	s.Init()
	s.Run()
	lo := c.Element("lo").(*evsim.OutputPin)
	if !lo.Value().IsFloating() {
		t.Fatalf("lo = %v", lo.Value())
	}
	if !c.Net(lo.In().Net()).TriState() {
		t.Fatal("lo net not tri-state")
	}
	pin := func(name string) *evsim.InputPin { return c.Element(name).(*evsim.InputPin) }

	s.Set(pin("d1"), evsim.Uint(4, 0xe))
	s.Set(pin("e1"), evsim.Ones(1))
	s.Run()
	if !lo.Value().Equal(evsim.Uint(2, 2)) {
		t.Fatalf("lo = %v, expected 2", lo.Value())
	}

	// release the bus before enabling the other driver
	s.Set(pin("e1"), evsim.Zero(1))
	s.Run()
	if !lo.Value().IsFloating() {
		t.Fatalf("lo = %v, expected Floating", lo.Value())
	}
	s.Set(pin("d2"), evsim.Uint(2, 1))
	s.Set(pin("e2"), evsim.Ones(1))
	s.Run()
	if !lo.Value().Equal(evsim.Uint(2, 1)) {
		t.Fatalf("lo = %v, expected 1", lo.Value())
	}
	if s.Contentions() != 0 {
		t.Fatalf("%d contentions", s.Contentions())
	}
}
