// Package translate formats user-facing messages for the locale of the
// current user.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

// Fallback is the language used when the user's locale can't be
// determined.
const Fallback = "en-US"

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("sim6502: locale: %v", err)
	}

	printer = newPrinter(locales)
}

func newPrinter(locales []string) *message.Printer {
	if len(locales) == 0 {
		locales = []string{Fallback}
	}
	return message.NewPrinter(message.MatchLanguage(locales...))
}

// From formats an en-US Sprintf() style format string and its arguments
// for the user's locale.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
