// Package chain carries the per operation execution environment shared by
// the engines.
package chain

import (
	"github.com/eigerco/computeplane/internal/ledger"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/store"
)

// Event is a domain event emitted by a successful operation.
type Event interface {
	Module() string
	EventName() string
}

// Context is the environment one operation runs in. Its store is a single
// transaction: when the operation fails the transaction and every buffered
// event are dropped together.
type Context struct {
	Store    *store.Store
	Currency ledger.Currency
	// Block is the current block height
	Block primitives.BlockNumber
	// Now is the block wall clock in unix seconds
	Now    uint64
	Random Randomness

	events []Event
}

func (c *Context) Emit(e Event) {
	c.events = append(c.events, e)
}

// Events returns the events emitted so far, in emission order.
func (c *Context) Events() []Event {
	return c.events
}
