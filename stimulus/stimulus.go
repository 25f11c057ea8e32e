// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package stimulus loads textual stimulus files and posts the
// resulting input pin transitions into a simulator.
//
// A stimulus file has one entry per line. Blank lines and text following a
// '#' are ignored:
//
//	# pin = initial value, then transitions
//	a   = 0, +5 1, @40 0
//	bus = 0x0f, +10 width * 2, @100 z
//
// The first value is applied at time 0 (relative to the base time given to
// Apply). Each following transition is either "+d v" (v, d time units after
// the previous transition) or "@t v" (v at time t). Transition times must be
// strictly increasing.
//
// Values are z or Z for Floating, or starlark integer expressions like 1,
// 0b1010, 0xff, 1 << 3 or -1. The name width is predefined to the width of the
// target pin. Negative values are stored in two's complement. Expressions may
// not contain commas.
//
package stimulus

import (
	"bufio"
	"io"
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"github.com/db47h/evsim"
	"github.com/db47h/evsim/internal/translate"
	"github.com/pkg/errors"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

var f = translate.From

// Stimulus errors.
//
var (
	ErrSyntax     = errors.New(f("syntax error"))
	ErrNotNumeric = errors.New(f("value is not a number"))
	ErrRange      = errors.New(f("value out of range"))
	ErrTimeOrder  = errors.New(f("transition times must be strictly increasing"))
	ErrUnknownPin = errors.New(f("unknown input pin"))
)

// maxEvalSteps bounds the execution of value expressions.
const maxEvalSteps = 10000

// A SpecError is an error in a single stimulus entry.
//
type SpecError struct {
	Line int
	Pin  string
	Err  error
}

func (e *SpecError) Error() string {
	if e.Pin == "" {
		return f("line %v: %v", e.Line, e.Err)
	}
	return f("line %v: %s: %v", e.Line, e.Pin, e.Err)
}

// Cause returns the underlying error.
//
func (e *SpecError) Cause() error { return e.Err }

// Unwrap returns the underlying error.
//
func (e *SpecError) Unwrap() error { return e.Err }

// ErrorList is a list of stimulus errors.
//
type ErrorList []*SpecError

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return f("no errors")
	case 1:
		return l[0].Error()
	}
	return f("%s (and %d more errors)", l[0].Error(), len(l)-1)
}

// Err returns l as an error, or nil if l is empty.
//
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// A Level is an unevaluated signal value.
//
type Level string

// IsFloating returns true if the level is z or Z.
//
func (l Level) IsFloating() bool {
	return l == "z" || l == "Z"
}

// Eval evaluates the level for a pin of the given width.
//
func (l Level) Eval(width int) (evsim.Value, error) {
	if l.IsFloating() {
		return evsim.Floating, nil
	}
	thread := &starlark.Thread{Name: "stimulus"}
	thread.SetMaxExecutionSteps(maxEvalSteps)
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{"width": starlark.MakeInt(width)}
	prog := "rc = " + string(l) + "\n"
	dict, err := starlark.ExecFileOptions(&opts, thread, "value", prog, pred)
	if err != nil {
		return evsim.Floating, errors.Wrapf(ErrNotNumeric, "%q: %v", l, err)
	}
	i, ok := dict["rc"].(starlark.Int)
	if !ok {
		return evsim.Floating, errors.Wrapf(ErrNotNumeric, "%q", l)
	}
	x := i.BigInt()
	lim := new(big.Int).Lsh(big.NewInt(1), uint(width))
	min := new(big.Int).Neg(new(big.Int).Rsh(lim, 1))
	if x.Cmp(lim) >= 0 || x.Cmp(min) < 0 {
		return evsim.Floating, errors.Wrapf(ErrRange, "%s does not fit in %d bits", x, width)
	}
	return evsim.FromBig(width, x), nil
}

// A Step is a transition of an entry.
//
type Step struct {
	Rel   bool       // Time is relative to the previous transition
	Time  evsim.Time // duration if Rel, absolute time otherwise
	Value Level
}

// An Entry is the list of transitions for one input pin.
//
type Entry struct {
	Line    int
	Pin     string
	Initial Level
	Steps   []Step
}

// Parse reads a stimulus file. Entries with syntax errors are
// skipped and reported in the returned ErrorList.
//
func Parse(r io.Reader) ([]Entry, error) {
	var (
		entries []Entry
		errs    ErrorList
	)
	s := bufio.NewScanner(r)
	line := 0
	for s.Scan() {
		line++
		text := s.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		e, err := parseEntry(line, text)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entries = append(entries, e)
	}
	if err := s.Err(); err != nil {
		return entries, errors.Wrap(err, "read stimulus")
	}
	return entries, errs.Err()
}

func parseEntry(line int, text string) (Entry, *SpecError) {
	e := Entry{Line: line}
	i := strings.IndexByte(text, '=')
	if i < 0 {
		return e, &SpecError{Line: line, Err: errors.Wrap(ErrSyntax, f("expected '='"))}
	}
	e.Pin = strings.TrimSpace(text[:i])
	if e.Pin == "" || strings.IndexFunc(e.Pin, unicode.IsSpace) >= 0 {
		return e, &SpecError{Line: line, Err: errors.Wrap(ErrSyntax, f("invalid pin name %q", e.Pin))}
	}
	parts := strings.Split(text[i+1:], ",")
	e.Initial = Level(strings.TrimSpace(parts[0]))
	if e.Initial == "" {
		return e, &SpecError{Line: line, Pin: e.Pin, Err: errors.Wrap(ErrSyntax, f("missing initial value"))}
	}
	for _, p := range parts[1:] {
		st, err := parseStep(strings.TrimSpace(p))
		if err != nil {
			return e, &SpecError{Line: line, Pin: e.Pin, Err: err}
		}
		e.Steps = append(e.Steps, st)
	}
	return e, nil
}

func parseStep(p string) (Step, error) {
	var st Step
	if p == "" {
		return st, errors.Wrap(ErrSyntax, f("empty transition"))
	}
	switch p[0] {
	case '+':
		st.Rel = true
	case '@':
	default:
		return st, errors.Wrap(ErrSyntax, f("expected +duration or @time, got %q", p))
	}
	fs := strings.Fields(p[1:])
	if len(fs) < 2 {
		return st, errors.Wrap(ErrSyntax, f("missing time or value in %q", p))
	}
	t, err := strconv.ParseUint(fs[0], 0, 64)
	if err != nil {
		return st, errors.Wrap(ErrNotNumeric, f("time %q", fs[0]))
	}
	st.Time = evsim.Time(t)
	st.Value = Level(strings.Join(fs[1:], " "))
	return st, nil
}

// A Poster accepts events. It is implemented by *evsim.Simulator.
//
type Poster interface {
	Commit(t evsim.Time, e evsim.Element, v evsim.Value)
}

// A Resolver finds elements by qualified name. It is implemented by
// *evsim.Circuit.
//
type Resolver interface {
	LookupElement(path string) (evsim.Element, error)
}

type transition struct {
	t evsim.Time
	v evsim.Value
}

// Apply resolves the pins of the given entries and posts one commit event per
// transition, base being the time of the initial values. Entries with errors
// are skipped and reported in the returned ErrorList; nothing is posted for
// them.
//
func Apply(entries []Entry, r Resolver, p Poster, base evsim.Time) error {
	var errs ErrorList
	for _, e := range entries {
		pin, ts, err := resolve(e, r)
		if err != nil {
			errs = append(errs, &SpecError{Line: e.Line, Pin: e.Pin, Err: err})
			continue
		}
		for _, tr := range ts {
			p.Commit(base+tr.t, pin, tr.v)
		}
	}
	return errs.Err()
}

func resolve(e Entry, r Resolver) (*evsim.InputPin, []transition, error) {
	el, err := r.LookupElement(e.Pin)
	if err != nil {
		return nil, nil, errors.Wrap(ErrUnknownPin, e.Pin)
	}
	pin, ok := el.(*evsim.InputPin)
	if !ok {
		return nil, nil, errors.Wrap(ErrUnknownPin, f("element %s has kind %v", e.Pin, el.Kind()))
	}
	v, err := e.Initial.Eval(pin.Bits())
	if err != nil {
		return nil, nil, err
	}
	ts := []transition{{0, v}}
	var t evsim.Time
	for _, st := range e.Steps {
		next := st.Time
		if st.Rel {
			next = t + st.Time
		}
		if next <= t {
			return nil, nil, errors.Wrap(ErrTimeOrder, f("transition at %d after %d", uint64(next), uint64(t)))
		}
		t = next
		v, err := st.Value.Eval(pin.Bits())
		if err != nil {
			return nil, nil, err
		}
		ts = append(ts, transition{t, v})
	}
	return pin, ts, nil
}

// Load parses a stimulus file and applies it at time 0. Valid entries are
// applied even if others have errors; all errors are returned in an
// ErrorList.
//
func Load(rd io.Reader, r Resolver, p Poster) error {
	entries, err := Parse(rd)
	var errs ErrorList
	if err != nil {
		l, ok := err.(ErrorList)
		if !ok {
			return err
		}
		errs = l
	}
	if err = Apply(entries, r, p, 0); err != nil {
		errs = append(errs, err.(ErrorList)...)
	}
	return errs.Err()
}
