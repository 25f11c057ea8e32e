// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hdl implements the lexer and parser for connection strings.
//
package hdl

import (
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Type is the type of a lexer item.
//
type Type int

// Tokens
const (
	EOF Type = iota
	Raw
	Path
	Comma
	Equal
)

var typeNames = [...]string{EOF: "end of input", Raw: "character", Path: "terminal path", Comma: "','", Equal: "'='"}

func (t Type) String() string { return typeNames[t] }

// An Item is a lexed token.
//
type Item struct {
	Type  Type
	Pos   int
	Value string
}

func (i Item) String() string {
	if i.Type == Raw || i.Type == Path {
		return i.Type.String() + " " + i.Value
	}
	return i.Type.String()
}

// stateFn is a lexer state function. It returns the next state or nil to
// return to the initial state.
type stateFn func(l *lexer) stateFn

type lexer struct {
	input string
	start int
	pos   int
	items []Item
}

// Lex splits the input string into items. The last item is always of type
// EOF or Raw.
//
func Lex(input string) []Item {
	l := &lexer{input: input}
	for state := stateFn(lexInit); state != nil; {
		state = state(l)
		if state == nil && !l.done() {
			state = lexInit
		}
	}
	return l.items
}

func (l *lexer) done() bool {
	n := len(l.items)
	return n > 0 && (l.items[n-1].Type == EOF || l.items[n-1].Type == Raw)
}

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.pos++
		return -1
	}
	r, sz := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += sz
	return r
}

func (l *lexer) backup(r rune) {
	if r < 0 {
		l.pos--
		return
	}
	l.pos -= utf8.RuneLen(r)
}

func (l *lexer) emit(t Type) {
	end := l.pos
	if end > len(l.input) {
		end = len(l.input)
	}
	l.items = append(l.items, Item{Type: t, Pos: l.start, Value: l.input[l.start:end]})
	l.start = l.pos
}

func isPathRune(r rune) bool {
	return r == '_' || r == '/' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func lexInit(l *lexer) stateFn {
	r := l.next()
	switch {
	case r < 0:
		l.emit(EOF)
	case unicode.IsSpace(r):
		for unicode.IsSpace(r) {
			r = l.next()
		}
		l.backup(r)
		l.start = l.pos
	case isPathRune(r):
		return lexPath
	case r == ',':
		l.emit(Comma)
	case r == '=':
		l.emit(Equal)
	default:
		l.emit(Raw)
	}
	return nil
}

func lexPath(l *lexer) stateFn {
	r := l.next()
	for isPathRune(r) {
		r = l.next()
	}
	l.backup(r)
	l.emit(Path)
	return nil
}

// A Connection connects the terminal at path LHS to the one at path RHS.
//
type Connection struct {
	LHS string
	RHS string
}

func (c Connection) String() string { return c.LHS + "=" + c.RHS }

// ParseConnections parses a connection string like
//
//	"a.out=g.a, b.out=g.b, g.out=sub/o.in"
//
// and returns the list of connections.
//
func ParseConnections(s string) ([]Connection, error) {
	var cs []Connection
	items := Lex(s)
	i := 0
	if items[0].Type == EOF {
		return nil, nil
	}
	expect := func(t Type) (Item, error) {
		it := items[i]
		if it.Type != t {
			return it, parseError(s, it.Pos, "expected "+t.String()+", got "+it.String())
		}
		i++
		return it, nil
	}
	for {
		lhs, err := expect(Path)
		if err != nil {
			return nil, err
		}
		if _, err = expect(Equal); err != nil {
			return nil, err
		}
		rhs, err := expect(Path)
		if err != nil {
			return nil, err
		}
		cs = append(cs, Connection{lhs.Value, rhs.Value})
		switch items[i].Type {
		case EOF:
			return cs, nil
		case Comma:
			i++
		default:
			return nil, parseError(s, items[i].Pos, "expected ',' or end of input, got "+items[i].String())
		}
	}
}

func parseError(in string, pos int, msg string) error {
	return errors.Errorf("in %q at pos %d: %s", in, pos+1, msg)
}
