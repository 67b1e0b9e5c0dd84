package consent

import (
	core "github.com/goliatone/go-consent/components/consent"
)

// Console exposes the underlying components/consent.Console type.
type Console = core.Console

// ConsoleOptions re-export for convenience.
type ConsoleOptions = core.ConsoleOptions

// Document is the banner configuration edited by the console.
type Document = core.Document

// Settings is the account-level configuration saved alongside the document.
type Settings = core.Settings

// State is the snapshot served to the browser.
type State = core.State

// SaveResult reports the outcome of a save.
type SaveResult = core.SaveResult

// NewConsole proxies to the internal constructor.
func NewConsole(opts ConsoleOptions) *Console {
	return core.NewConsole(opts)
}

// DefaultDocument returns the Light preset document.
func DefaultDocument() Document {
	return core.DefaultDocument()
}
