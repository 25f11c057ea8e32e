// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package translate provides the message printer used for user facing
// error messages and reports.
//
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"
	"golang.org/x/text/message"
)

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("evsim: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From formats an en-US Sprintf() format string in the user's language.
//
func From(key message.Reference, args ...interface{}) string {
	return printer.Sprintf(key, args...)
}
