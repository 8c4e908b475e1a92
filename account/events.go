// Package account implements an event-sourced bank account aggregate: the
// event and command types, the state fold, the validation rules, a summary
// projection and a service facade that wires them onto the command bus.
//
// Monetary amounts are int64 minor units (cents). Floating point is never
// used for balances.
package account

import (
	"fmt"

	"github.com/novaledger/eventledger"
)

// AccountOpened records the creation of an account. It is always the first
// event of a stream.
type AccountOpened struct {
	AccountID      string
	Owner          string
	InitialBalance int64
}

func (e AccountOpened) AggregateID() string { return e.AccountID }
func (e AccountOpened) EventType() string   { return "AccountOpened" }

func (e AccountOpened) String() string {
	return fmt.Sprintf("AccountOpened{accountId=%s, owner=%q, initialBalance=%d}",
		e.AccountID, e.Owner, e.InitialBalance)
}

// MoneyDeposited records a deposit. Amount is always positive.
type MoneyDeposited struct {
	AccountID string
	Amount    int64
}

func (e MoneyDeposited) AggregateID() string { return e.AccountID }
func (e MoneyDeposited) EventType() string   { return "MoneyDeposited" }

func (e MoneyDeposited) String() string {
	return fmt.Sprintf("MoneyDeposited{accountId=%s, amount=%d}", e.AccountID, e.Amount)
}

// MoneyWithdrawn records a withdrawal. Amount is always positive and never
// exceeds the balance at the time the command was accepted.
type MoneyWithdrawn struct {
	AccountID string
	Amount    int64
}

func (e MoneyWithdrawn) AggregateID() string { return e.AccountID }
func (e MoneyWithdrawn) EventType() string   { return "MoneyWithdrawn" }

func (e MoneyWithdrawn) String() string {
	return fmt.Sprintf("MoneyWithdrawn{accountId=%s, amount=%d}", e.AccountID, e.Amount)
}

// AccountClosed is the terminal event of a stream. FinalBalance carries the
// balance at closing time so the closure is self-describing.
type AccountClosed struct {
	AccountID    string
	FinalBalance int64
}

func (e AccountClosed) AggregateID() string { return e.AccountID }
func (e AccountClosed) EventType() string   { return "AccountClosed" }

func (e AccountClosed) String() string {
	return fmt.Sprintf("AccountClosed{accountId=%s, finalBalance=%d}", e.AccountID, e.FinalBalance)
}

func init() {
	eventledger.RegisterEventByType(func() eventledger.Event { return &AccountOpened{} })
	eventledger.RegisterEventByType(func() eventledger.Event { return &MoneyDeposited{} })
	eventledger.RegisterEventByType(func() eventledger.Event { return &MoneyWithdrawn{} })
	eventledger.RegisterEventByType(func() eventledger.Event { return &AccountClosed{} })
}
