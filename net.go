// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"sort"

	"github.com/pkg/errors"
)

// NetID identifies a net within its circuit. Identifiers are stable: merging
// two nets keeps the identifier of the lowest one, splitting a net keeps its
// identifier for the first remaining group of terminals in attach order.
//
type NetID int

// NoNet is the net of unattached terminals.
//
const NoNet NetID = -1

// A Net is a set of electrically identical terminals.
//
type Net struct {
	id        NetID
	bits      int
	members  []TermID // attach order
	drivers  int
	triState bool
	value    Value
}

// ID returns the net identifier.
//
func (n *Net) ID() NetID { return n.id }

// Bits returns the net width; 0 if none of its terminals declares one.
//
func (n *Net) Bits() int { return n.bits }

// HasDriver returns true if at least one output terminal is attached to n.
//
func (n *Net) HasDriver() bool { return n.drivers > 0 }

// TriState returns true if every output attached to n is tri-state.
//
func (n *Net) TriState() bool { return n.triState }

// Value returns the current value of the net.
//
func (n *Net) Value() Value { return n.value }

// Members returns the identifiers of the terminals attached to n, in attach
// order.
//
func (n *Net) Members() []TermID {
	m := make([]TermID, len(n.members))
	copy(m, n.members)
	return m
}

// a wire between two terminals, a < b.
type wire struct {
	a, b TermID
}

func mkWire(a, b TermID) wire {
	if a > b {
		a, b = b, a
	}
	return wire{a, b}
}

// members returns the terminals that would be on the same net as t.
func (c *Circuit) members(t *Terminal) []TermID {
	if t.net == NoNet {
		return []TermID{t.id}
	}
	return c.nets[t.net].members
}

// derive recomputes the width, driver count and tri-state flag of a set of
// terminals. It returns an error if they cannot form a well-formed net, along
// with the values derived so far.
//
func (c *Circuit) derive(ids []TermID) (bits, drivers int, triState bool, err error) {
	var outs []*Terminal
	triState = true
	for _, id := range ids {
		t := c.terms[id]
		if t.bits != 0 {
			if bits == 0 {
				bits = t.bits
			} else if t.bits != bits {
				return bits, len(outs), false, errors.Wrapf(ErrWidthMismatch, "%s is %d bits wide, net is %d bits", t.QualifiedName(), t.bits, bits)
			}
		}
		if t.dir == Out {
			outs = append(outs, t)
			if !t.triState {
				triState = false
			}
		}
	}
	drivers = len(outs)
	if drivers > 1 && !triState {
		return bits, drivers, false, errors.Wrapf(ErrMultipleDrivers, "%s and %s", outs[0].QualifiedName(), outs[1].QualifiedName())
	}
	return bits, drivers, triState, nil
}

// refresh updates the flags of n after a change of its members or of their
// tri-state flags. A tri-state output turned into a regular one at run time
// can leave several regular drivers on n; the net stays usable and
// propagation resolves it and reports contention.
func (c *Circuit) refresh(n *Net) {
	n.bits, n.drivers, n.triState, _ = c.derive(n.members)
}

func (c *Circuit) checkTerminal(t *Terminal) error {
	if t == nil || t.c != c {
		name := "<nil>"
		if t != nil {
			name = t.QualifiedName()
		}
		return errors.Wrap(ErrForeignTerminal, name)
	}
	return nil
}

// Connect wires terminals a and b together, merging their nets.
//
// It returns an error if the terminals do not belong to c, are already wired,
// or if the merged net would be ill-formed (width mismatch or more than one
// driver on a net that is not tri-state). The circuit is left unchanged on
// error.
//
func (c *Circuit) Connect(a, b *Terminal) error {
	if err := c.checkTerminal(a); err != nil {
		return err
	}
	if err := c.checkTerminal(b); err != nil {
		return err
	}
	if a == b {
		return errors.Wrap(ErrSelfWire, a.QualifiedName())
	}
	w := mkWire(a.id, b.id)
	if _, ok := c.wires[w]; ok {
		return errors.Wrap(ErrDuplicateWire, a.QualifiedName()+":"+b.QualifiedName())
	}

	if a.net != NoNet && a.net == b.net {
		// loop within the same net
		c.addWire(w)
		return nil
	}

	// keep the lowest net id, new members are appended in attach order.
	if b.net != NoNet && (a.net == NoNet || b.net < a.net) {
		a, b = b, a
	}
	ma, mb := c.members(a), c.members(b)
	ids := make([]TermID, 0, len(ma)+len(mb))
	ids = append(ids, ma...)
	ids = append(ids, mb...)
	bits, drv, tri, err := c.derive(ids)
	if err != nil {
		return errors.Wrap(err, a.QualifiedName()+":"+b.QualifiedName())
	}

	c.addWire(w)
	n := c.nets[a.net]
	if n == nil {
		n = c.newNet()
	}
	if b.net != NoNet {
		delete(c.nets, b.net)
	}
	n.members = ids
	n.bits, n.drivers, n.triState = bits, drv, tri
	n.value = Floating
	for _, id := range ids {
		c.terms[id].net = n.id
	}
	return nil
}

func (c *Circuit) addWire(w wire) {
	c.wires[w] = struct{}{}
	c.adj[w.a] = append(c.adj[w.a], w.b)
	c.adj[w.b] = append(c.adj[w.b], w.a)
}

func (c *Circuit) removeWire(w wire) {
	delete(c.wires, w)
	c.adj[w.a] = without(c.adj[w.a], w.b)
	c.adj[w.b] = without(c.adj[w.b], w.a)
}

func without(ids []TermID, id TermID) []TermID {
	for i, x := range ids {
		if x == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

func (c *Circuit) newNet() *Net {
	n := &Net{id: c.nextNet}
	c.nextNet++
	c.nets[n.id] = n
	return n
}

// Disconnect removes the wire between a and b. The net they were part of is
// split into as many nets as there are connected groups of terminals left.
// Terminals left without any wire become unattached.
//
func (c *Circuit) Disconnect(a, b *Terminal) error {
	if err := c.checkTerminal(a); err != nil {
		return err
	}
	if err := c.checkTerminal(b); err != nil {
		return err
	}
	w := mkWire(a.id, b.id)
	if _, ok := c.wires[w]; !ok {
		return errors.Wrap(ErrNoWire, a.QualifiedName()+":"+b.QualifiedName())
	}
	c.removeWire(w)

	old := c.nets[a.net]
	delete(c.nets, old.id)
	order := make(map[TermID]int, len(old.members))
	for i, m := range old.members {
		order[m] = i
	}
	seen := make(map[TermID]bool, len(old.members))
	first := true
	for _, id := range old.members {
		if seen[id] {
			continue
		}
		group := c.connected(id, seen, order)
		if len(group) == 1 {
			c.terms[id].net = NoNet
			continue
		}
		var n *Net
		if first {
			n = old
			c.nets[n.id] = n
			first = false
		} else {
			n = c.newNet()
		}
		n.members = group
		n.value = Floating
		c.refresh(n)
		for _, m := range group {
			c.terms[m].net = n.id
		}
	}
	return nil
}

// connected returns the terminals reachable from id, sorted by attach order.
func (c *Circuit) connected(id TermID, seen map[TermID]bool, order map[TermID]int) []TermID {
	var group []TermID
	stack := []TermID{id}
	seen[id] = true
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		group = append(group, t)
		for _, o := range c.adj[t] {
			if !seen[o] {
				seen[o] = true
				stack = append(stack, o)
			}
		}
	}
	sort.Slice(group, func(i, j int) bool { return order[group[i]] < order[group[j]] })
	return group
}

// Net returns the net with the given identifier, or nil.
//
func (c *Circuit) Net(id NetID) *Net { return c.nets[id] }

// Nets returns the nets of c sorted by identifier.
//
func (c *Circuit) Nets() []*Net {
	ns := make([]*Net, 0, len(c.nets))
	for _, n := range c.nets {
		ns = append(ns, n)
	}
	sort.Slice(ns, func(i, j int) bool { return ns[i].id < ns[j].id })
	return ns
}
