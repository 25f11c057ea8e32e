// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"container/heap"
	"log"
	"strconv"
)

type eventQueue []Event

func (q eventQueue) Len() int { return len(q) }
func (q eventQueue) Less(i, j int) bool {
	if q[i].Time != q[j].Time {
		return q[i].Time < q[j].Time
	}
	return q[i].seq < q[j].seq
}
func (q eventQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *eventQueue) Push(x interface{}) { *q = append(*q, x.(Event)) }
func (q *eventQueue) Pop() interface{} {
	old := *q
	n := len(old) - 1
	e := old[n]
	old[n] = Event{}
	*q = old[:n]
	return e
}

// A Contention describes a tri-state net with more than one driver asserting
// different values at the same time.
//
type Contention struct {
	Time    Time
	Net     NetID
	Circuit *Circuit
	Drivers []*Terminal // drivers asserting a value, in attach order
}

// An Option configures a Simulator.
//
type Option func(s *Simulator)

// WithLogger sets a logger that traces every dispatched event.
//
func WithLogger(l *log.Logger) Option {
	return func(s *Simulator) { s.log = l }
}

// WithTrace sets a function called before every event dispatch.
//
func WithTrace(fn func(e Event)) Option {
	return func(s *Simulator) { s.trace = fn }
}

// WithContention sets a function called whenever bus contention is detected
// on a net with several drivers. The first driver found in attach order wins
// regardless.
//
func WithContention(fn func(c Contention)) Option {
	return func(s *Simulator) { s.onContention = fn }
}

// Simulator is a discrete event scheduler running a circuit.
//
// Events are dispatched in time order, events with the same time in the
// order they were posted. A Simulator is not safe for concurrent use: all
// elements react from within the goroutine calling Run.
//
type Simulator struct {
	c          *Circuit
	q          eventQueue
	seq        uint64
	now        Time
	stopped    bool
	dispatched uint64

	contentions  int
	onContention func(Contention)
	log          *log.Logger
	trace        func(Event)
}

// New returns a new Simulator for circuit c. Init must be called before
// running the simulation.
//
func New(c *Circuit, opts ...Option) *Simulator {
	s := &Simulator{c: c}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Circuit returns the simulated circuit.
//
func (s *Simulator) Circuit() *Circuit { return s.c }

// Init resets the simulation: it empties the event queue, sets the time to 0,
// sets every terminal and net to Floating and calls InitSim on every element
// of the circuit and its sub-circuits.
//
func (s *Simulator) Init() {
	s.q = s.q[:0]
	s.seq = 0
	s.now = 0
	s.stopped = false
	s.dispatched = 0
	s.contentions = 0
	s.c.reset()
	s.c.walk(func(e Element) {
		e.base().ready = true
		e.InitSim(s)
	})
}

// Now returns the current simulation time.
//
func (s *Simulator) Now() Time { return s.now }

// Pending returns the number of queued events.
//
func (s *Simulator) Pending() int { return len(s.q) }

// Dispatched returns the number of events dispatched since Init.
//
func (s *Simulator) Dispatched() uint64 { return s.dispatched }

// Contentions returns the number of bus contentions detected since Init.
//
func (s *Simulator) Contentions() int { return s.contentions }

// Post schedules an event. Posting an event in the past is a programming
// error and panics.
//
func (s *Simulator) Post(e Event) {
	if e.Target == nil {
		panic("event with nil target")
	}
	if e.Time < s.now {
		panic("event posted in the past")
	}
	e.seq = s.seq
	s.seq++
	heap.Push(&s.q, e)
}

// Recompute schedules a recompute event for element e at time t.
//
func (s *Simulator) Recompute(t Time, e Element) {
	s.Post(Event{Time: t, Target: e, Payload: Recompute})
}

// Commit schedules a commit of value v for element e at time t.
//
func (s *Simulator) Commit(t Time, e Element, v Value) {
	s.Post(Event{Time: t, Target: e, Payload: Commit(v)})
}

// Set schedules input pin p to change to value v at the current time.
//
func (s *Simulator) Set(p *InputPin, v Value) {
	s.Commit(s.now, p, v)
}

// Stop halts the simulation once the event being dispatched returns. Events
// left in the queue are not processed.
//
func (s *Simulator) Stop() { s.stopped = true }

// Stopped returns true if Stop has been called since the last Init.
//
func (s *Simulator) Stopped() bool { return s.stopped }

// Resume clears the halt flag set by Stop.
//
func (s *Simulator) Resume() { s.stopped = false }

func (s *Simulator) dispatch() {
	e := heap.Pop(&s.q).(Event)
	s.now = e.Time
	b := e.Target.base()
	if !b.ready {
		panic(b.kind.String() + " " + b.QualifiedName() + ": event dispatched to uninitialized element")
	}
	if s.trace != nil {
		s.trace(e)
	}
	if s.log != nil {
		s.log.Printf("@%d %s %s: %v", e.Time, b.kind, b.QualifiedName(), e.Payload)
	}
	s.dispatched++
	e.Target.React(e.Time, s, e.Payload)
}

// Step dispatches the next event. It returns false if the queue is empty or
// the simulation has been stopped.
//
func (s *Simulator) Step() bool {
	if s.stopped || len(s.q) == 0 {
		return false
	}
	s.dispatch()
	return true
}

// Run dispatches events until the queue is empty or Stop is called. It
// returns the time of the last dispatched event.
//
func (s *Simulator) Run() Time {
	for s.Step() {
	}
	return s.now
}

// RunUntil dispatches all events scheduled up to time t included, then
// advances the current time to t unless the simulation was stopped. It
// returns true if events are left in the queue.
//
func (s *Simulator) RunUntil(t Time) bool {
	for !s.stopped && len(s.q) > 0 && s.q[0].Time <= t {
		s.dispatch()
	}
	if !s.stopped && s.now < t {
		s.now = t
	}
	return len(s.q) > 0
}

// Drive sets the value of output terminal t and propagates it through the
// attached net. Values crossing a net reach every attached input terminal and
// schedule a recompute of their owner at the current time.
//
func (s *Simulator) Drive(t *Terminal, v Value) {
	if t.dir != Out {
		panic("drive on input terminal " + t.QualifiedName())
	}
	if w := t.Bits(); w != 0 && !v.IsFloating() && v.bits != w {
		panic("drive of a " + strconv.Itoa(v.bits) + " bits value on " + strconv.Itoa(w) + " bits terminal " + t.QualifiedName())
	}
	t.value = v
	if t.net == NoNet {
		return
	}
	s.propagate(t.c, t.c.nets[t.net], v)
}

// SetTriState changes the tri-state flag of output terminal t. If this
// changes the tri-state status of the attached net, every element with an
// input on that net is scheduled for recompute.
//
func (s *Simulator) SetTriState(t *Terminal, on bool) {
	if t.triState == on {
		return
	}
	t.triState = on
	if t.net == NoNet {
		return
	}
	n := t.c.nets[t.net]
	was := n.triState
	t.c.refresh(n)
	if n.triState == was {
		return
	}
	for _, id := range n.members {
		if m := t.c.terms[id]; m.dir == In {
			s.Recompute(s.now, m.owner)
		}
	}
}

func (s *Simulator) propagate(c *Circuit, n *Net, v Value) {
	if n.triState || n.drivers > 1 {
		v = s.resolve(c, n)
	}
	if v.Equal(n.value) {
		return
	}
	n.value = v
	for _, id := range n.members {
		t := c.terms[id]
		if t.dir != In {
			continue
		}
		t.value = v.clone()
		s.Recompute(s.now, t.owner)
	}
}

// resolve returns the value of the first driver of a net that is not
// floating.
//
func (s *Simulator) resolve(c *Circuit, n *Net) Value {
	var drivers []*Terminal
	v := Floating
	conflict := false
	for _, id := range n.members {
		t := c.terms[id]
		if t.dir != Out || t.value.IsFloating() {
			continue
		}
		drivers = append(drivers, t)
		if len(drivers) == 1 {
			v = t.value
		} else if !t.value.Equal(v) {
			conflict = true
		}
	}
	if conflict {
		s.contentions++
		if s.log != nil {
			s.log.Printf("@%d contention on net %d of %q", s.now, n.id, c.name)
		}
		if s.onContention != nil {
			s.onContention(Contention{Time: s.now, Net: n.id, Circuit: c, Drivers: drivers})
		}
	}
	return v
}
