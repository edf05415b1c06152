// Package command interprets structured inventory commands, already parsed
// from speech or images upstream, against the local store.
package command

import "github.com/shopspring/decimal"

// Clarification marks a command the upstream parser could not pin down. The
// processor refuses such commands; the caller must re-prompt with Question
// and retry a disambiguated command.
type Clarification struct {
	Required bool
	Question string
}

// Command is a closed union: Add, Remove, Move, or Query. Each variant
// carries only the fields that apply to it.
type Command interface {
	clarification() Clarification
}

type Add struct {
	Item          string
	Quantity      decimal.Decimal // zero means the default of 1
	Unit          string          // e.g. "Box"; converts via the item's purchase unit
	Location      string          // path text; empty falls back to the configured default
	JobReference  string
	Transcript    string
	Clarification Clarification
}

type Remove struct {
	Item          string
	Quantity      decimal.Decimal
	Unit          string
	Location      string // lookup scope only; never created
	JobReference  string
	Transcript    string
	Clarification Clarification
}

type Move struct {
	Item          string
	From          string // source hint from the parser; matching is name-based
	To            string // destination path, created if missing
	Transcript    string
	Clarification Clarification
}

type Query struct {
	Item          string
	Transcript    string
	Clarification Clarification
}

func (c *Add) clarification() Clarification    { return c.Clarification }
func (c *Remove) clarification() Clarification { return c.Clarification }
func (c *Move) clarification() Clarification   { return c.Clarification }
func (c *Query) clarification() Clarification  { return c.Clarification }
