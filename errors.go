// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"github.com/db47h/evsim/internal/translate"
	"github.com/pkg/errors"
)

var f = translate.From

// Topology errors. They are returned by the wiring API and leave the circuit
// unchanged.
//
var (
	ErrWidthMismatch    = errors.New(f("bit width mismatch"))
	ErrMultipleDrivers  = errors.New(f("multiple drivers on a net that is not tri-state"))
	ErrForeignTerminal  = errors.New(f("terminal does not belong to this circuit"))
	ErrSelfWire         = errors.New(f("terminal wired to itself"))
	ErrNoWire           = errors.New(f("no such wire"))
	ErrDuplicateWire    = errors.New(f("terminals already wired"))
	ErrDuplicateName    = errors.New(f("duplicate element name"))
	ErrNotFound         = errors.New(f("no such element or terminal"))
	ErrAlreadyAdded     = errors.New(f("element already part of a circuit"))
	ErrSubcircuitInUse  = errors.New(f("circuit already instantiated"))
	ErrInvalidParameter = errors.New(f("invalid element parameter"))
)
