package account

import (
	"context"
	"fmt"

	"github.com/novaledger/eventledger"
)

// Account is the write-side state of one account, derived entirely by
// folding its event stream. The zero value means "does not exist".
type Account struct {
	ID      string
	Owner   string
	Balance int64
	Closed  bool

	// Version is the number of events folded so far. Zero means the
	// account has no events and therefore does not exist.
	Version uint64
}

// Exists reports whether the account has any history. An account with zero
// events does not exist, which is distinct from an open account with a zero
// balance.
func (a Account) Exists() bool { return a.Version > 0 }

func (a Account) String() string {
	status := "Open"
	if a.Closed {
		status = "Closed"
	}
	return fmt.Sprintf("Account{id=%s, owner=%q, balance=%d, status=%s, version=%d}",
		a.ID, a.Owner, a.Balance, status, a.Version)
}

// Evolve folds one stored event into the account state. It is pure and
// total: unknown event types leave the state untouched apart from the
// version, so replaying a stream with foreign events stays deterministic.
func Evolve(state Account, env *eventledger.Envelope) Account {
	switch ev := env.Event.(type) {
	case AccountOpened:
		state.ID = ev.AccountID
		state.Owner = ev.Owner
		state.Balance = ev.InitialBalance
	case MoneyDeposited:
		state.Balance += ev.Amount
	case MoneyWithdrawn:
		state.Balance -= ev.Amount
	case AccountClosed:
		state.Closed = true
	}
	state.Version = env.Version
	return state
}

// FromEvents reconstructs the account by replaying the stream. An empty or
// exhausted iterator yields the zero Account.
func FromEvents(ctx context.Context, iter *eventledger.Iterator[*eventledger.Envelope]) (Account, error) {
	var state Account
	for iter.Next(ctx) {
		state = Evolve(state, iter.Value())
	}
	if err := iter.Err(); err != nil {
		return Account{}, fmt.Errorf("replay account events: %w", err)
	}
	return state, nil
}

// Deciders, one per command. Each validates the command against the
// reconstructed state and either returns the resulting events or a wrapped
// validation error. Nothing here touches the store.

func decideOpen(state Account, cmd OpenAccount) ([]eventledger.Event, error) {
	if state.Exists() {
		return nil, fmt.Errorf("%w: account %s already has %d event(s)", ErrAlreadyExists, cmd.AccountID, state.Version)
	}
	if cmd.InitialBalance < 0 {
		return nil, fmt.Errorf("%w: initial balance %d must not be negative", ErrInvalidAmount, cmd.InitialBalance)
	}
	return []eventledger.Event{AccountOpened{
		AccountID:      cmd.AccountID,
		Owner:          cmd.Owner,
		InitialBalance: cmd.InitialBalance,
	}}, nil
}

func decideDeposit(state Account, cmd DepositMoney) ([]eventledger.Event, error) {
	if !state.Exists() {
		return nil, fmt.Errorf("%w: account %s has no events", ErrNotFound, cmd.AccountID)
	}
	if state.Closed {
		return nil, fmt.Errorf("%w: account %s rejects deposits", ErrClosed, cmd.AccountID)
	}
	if cmd.Amount <= 0 {
		return nil, fmt.Errorf("%w: deposit amount %d must be positive", ErrInvalidAmount, cmd.Amount)
	}
	return []eventledger.Event{MoneyDeposited{
		AccountID: cmd.AccountID,
		Amount:    cmd.Amount,
	}}, nil
}

func decideWithdraw(state Account, cmd WithdrawMoney) ([]eventledger.Event, error) {
	if !state.Exists() {
		return nil, fmt.Errorf("%w: account %s has no events", ErrNotFound, cmd.AccountID)
	}
	if state.Closed {
		return nil, fmt.Errorf("%w: account %s rejects withdrawals", ErrClosed, cmd.AccountID)
	}
	if cmd.Amount <= 0 {
		return nil, fmt.Errorf("%w: withdrawal amount %d must be positive", ErrInvalidAmount, cmd.Amount)
	}
	if state.Balance < cmd.Amount {
		return nil, fmt.Errorf("%w: balance %d is less than withdrawal %d", ErrInsufficientFunds, state.Balance, cmd.Amount)
	}
	return []eventledger.Event{MoneyWithdrawn{
		AccountID: cmd.AccountID,
		Amount:    cmd.Amount,
	}}, nil
}

func decideClose(state Account, cmd CloseAccount) ([]eventledger.Event, error) {
	if !state.Exists() {
		return nil, fmt.Errorf("%w: account %s has no events", ErrNotFound, cmd.AccountID)
	}
	if state.Closed {
		return nil, fmt.Errorf("%w: account %s was already closed", ErrClosed, cmd.AccountID)
	}
	return []eventledger.Event{AccountClosed{
		AccountID:    cmd.AccountID,
		FinalBalance: state.Balance,
	}}, nil
}
