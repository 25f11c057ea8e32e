// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command evsim loads a circuit description, applies a stimulus file and
// runs the simulation, printing the values of the circuit outputs.
//
//	evsim -n circuit.star [-s stim.txt] [-until T] [-trace] [-radix hex] [-watch a,b] [-v]
//
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/db47h/evsim"
	"github.com/db47h/evsim/internal/translate"
	"github.com/db47h/evsim/netlist"
	"github.com/db47h/evsim/stimulus"
	"github.com/pkg/errors"
)

var f = translate.From

func loadCircuit(name string) (*evsim.Circuit, error) {
	inf, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer inf.Close()
	return netlist.Load(inf, name)
}

func outputPin(c *evsim.Circuit, name string) (*evsim.OutputPin, error) {
	e, err := c.LookupElement(name)
	if err != nil {
		return nil, err
	}
	p, ok := e.(*evsim.OutputPin)
	if !ok {
		return nil, errors.New(f("%s is a %v, not an output pin", name, e.Kind()))
	}
	return p, nil
}

func main() {
	var circuit string
	var stim string
	var until uint64
	var trace bool
	var radix string
	var watch string
	var verbose bool

	flag.StringVar(&circuit, "n", "", "circuit description (starlark)")
	flag.StringVar(&stim, "s", "", "stimulus file")
	flag.Uint64Var(&until, "until", 0, "stop the simulation at this time (0: run until idle)")
	flag.BoolVar(&trace, "trace", false, "print every dispatched event")
	flag.StringVar(&radix, "radix", "hex", "value display: hex, unsigned, signed or binary")
	flag.StringVar(&watch, "watch", "", "comma separated output pins whose changes are printed")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}
	if circuit == "" {
		log.Fatalf("%v: %s", os.Args[0], f("missing circuit description (-n)"))
	}
	r, err := evsim.ParseRadix(radix)
	if err != nil {
		log.Fatal(err)
	}

	c, err := loadCircuit(circuit)
	if err != nil {
		log.Fatalf("%v: %v", circuit, err)
	}

	opts := []evsim.Option{
		evsim.WithContention(func(k evsim.Contention) {
			log.Printf("@%d %s", k.Time, f("bus contention on net %d of %q", int(k.Net), k.Circuit.Name()))
		}),
	}
	if verbose {
		opts = append(opts, evsim.WithLogger(log.New(os.Stderr, "", 0)))
	}
	if trace {
		opts = append(opts, evsim.WithTrace(func(e evsim.Event) {
			fmt.Printf("@%d %v %s: %v\n", e.Time, e.Target.Kind(), qualifiedName(e.Target), e.Payload)
		}))
	}
	sim := evsim.New(c, opts...)

	if watch != "" {
		for _, name := range strings.Split(watch, ",") {
			name = strings.TrimSpace(name)
			p, err := outputPin(c, name)
			if err != nil {
				log.Fatal(err)
			}
			p.Watch(func(now evsim.Time, v evsim.Value) {
				fmt.Printf("@%d %s: %s\n", now, name, v.Format(r))
			})
		}
	}

	sim.Init()

	if stim != "" {
		inf, err := os.Open(stim)
		if err != nil {
			log.Fatalf("%v: %v", stim, err)
		}
		err = stimulus.Load(inf, c, sim)
		inf.Close()
		if err != nil {
			if l, ok := err.(stimulus.ErrorList); ok {
				for _, e := range l {
					fmt.Fprintf(os.Stderr, "%s:%v\n", stim, e)
				}
				os.Exit(1)
			}
			log.Fatalf("%v: %v", stim, err)
		}
	}

	if until > 0 {
		sim.RunUntil(evsim.Time(until))
	} else {
		sim.Run()
	}
	if sim.Stopped() {
		log.Printf("@%d %s", sim.Now(), f("simulation stopped"))
	}

	for _, e := range c.Pins() {
		if p, ok := e.(*evsim.OutputPin); ok {
			fmt.Printf("%s: %s\n", p.QualifiedName(), p.Value().Format(r))
		}
	}
}

func qualifiedName(e evsim.Element) string {
	if q, ok := e.(interface{ QualifiedName() string }); ok {
		return q.QualifiedName()
	}
	return e.Name()
}
