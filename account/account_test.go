package account

import (
	"context"
	"errors"
	"testing"

	"github.com/novaledger/eventledger"
	"github.com/novaledger/eventledger/fixtures"
)

func envelopes(events ...eventledger.Event) []*eventledger.Envelope {
	return fixtures.EnvelopesFromEvents(events...)
}

func replay(t *testing.T, events ...eventledger.Event) Account {
	t.Helper()
	state, err := FromEvents(context.Background(), eventledger.NewSliceIterator(envelopes(events...)))
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	return state
}

func TestFromEvents_EmptyStreamDoesNotExist(t *testing.T) {
	state := replay(t)
	if state.Exists() {
		t.Error("expected zero-event account to not exist")
	}
	if state.Version != 0 {
		t.Errorf("expected version 0, got %d", state.Version)
	}
}

func TestFromEvents_FoldsHistory(t *testing.T) {
	state := replay(t,
		AccountOpened{AccountID: "acct-1", Owner: "Alice", InitialBalance: 1000},
		MoneyDeposited{AccountID: "acct-1", Amount: 250},
		MoneyWithdrawn{AccountID: "acct-1", Amount: 100},
	)

	if !state.Exists() {
		t.Fatal("expected account to exist")
	}
	if state.Owner != "Alice" {
		t.Errorf("expected owner Alice, got %q", state.Owner)
	}
	if state.Balance != 1150 {
		t.Errorf("expected balance 1150, got %d", state.Balance)
	}
	if state.Version != 3 {
		t.Errorf("expected version 3, got %d", state.Version)
	}
	if state.Closed {
		t.Error("expected account to be open")
	}
}

func TestFromEvents_ZeroBalanceOpenAccountExists(t *testing.T) {
	state := replay(t, AccountOpened{AccountID: "acct-1", Owner: "Alice", InitialBalance: 0})

	if !state.Exists() {
		t.Error("open account with zero balance must exist")
	}
	if state.Balance != 0 {
		t.Errorf("expected balance 0, got %d", state.Balance)
	}
}

func TestFromEvents_ReplayIsIdempotent(t *testing.T) {
	events := envelopes(
		AccountOpened{AccountID: "acct-1", Owner: "Alice", InitialBalance: 1000},
		MoneyDeposited{AccountID: "acct-1", Amount: 250},
		AccountClosed{AccountID: "acct-1", FinalBalance: 1250},
	)

	first, err := FromEvents(context.Background(), eventledger.NewSliceIterator(events))
	if err != nil {
		t.Fatalf("first replay: %v", err)
	}
	second, err := FromEvents(context.Background(), eventledger.NewSliceIterator(events))
	if err != nil {
		t.Fatalf("second replay: %v", err)
	}

	if first != second {
		t.Errorf("replays disagree: %v vs %v", first, second)
	}
}

func TestDecideOpen(t *testing.T) {
	events, err := decideOpen(Account{}, OpenAccount{AccountID: "acct-1", Owner: "Alice", InitialBalance: 1000})
	if err != nil {
		t.Fatalf("expected open to succeed, got %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	opened, ok := events[0].(AccountOpened)
	if !ok {
		t.Fatalf("expected AccountOpened, got %T", events[0])
	}
	if opened.InitialBalance != 1000 {
		t.Errorf("expected initial balance 1000, got %d", opened.InitialBalance)
	}
}

func TestDecideOpen_ExistingAccountRejected(t *testing.T) {
	state := replay(t, AccountOpened{AccountID: "acct-1", Owner: "Alice", InitialBalance: 1000})

	_, err := decideOpen(state, OpenAccount{AccountID: "acct-1", Owner: "Mallory"})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestDecideOpen_NegativeInitialBalanceRejected(t *testing.T) {
	_, err := decideOpen(Account{}, OpenAccount{AccountID: "acct-1", Owner: "Alice", InitialBalance: -1})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestDecideDeposit(t *testing.T) {
	state := replay(t, AccountOpened{AccountID: "acct-1", Owner: "Alice", InitialBalance: 1000})

	events, err := decideDeposit(state, DepositMoney{AccountID: "acct-1", Amount: 250})
	if err != nil {
		t.Fatalf("expected deposit to succeed, got %v", err)
	}
	if deposited := events[0].(MoneyDeposited); deposited.Amount != 250 {
		t.Errorf("expected amount 250, got %d", deposited.Amount)
	}
}

func TestDecideDeposit_Rejections(t *testing.T) {
	open := replay(t, AccountOpened{AccountID: "acct-1", Owner: "Alice", InitialBalance: 1000})
	closed := replay(t,
		AccountOpened{AccountID: "acct-1", Owner: "Alice", InitialBalance: 1000},
		AccountClosed{AccountID: "acct-1", FinalBalance: 1000},
	)

	tests := []struct {
		name  string
		state Account
		cmd   DepositMoney
		want  error
	}{
		{"unknown account", Account{}, DepositMoney{AccountID: "nope", Amount: 10}, ErrNotFound},
		{"closed account", closed, DepositMoney{AccountID: "acct-1", Amount: 10}, ErrClosed},
		{"zero amount", open, DepositMoney{AccountID: "acct-1", Amount: 0}, ErrInvalidAmount},
		{"negative amount", open, DepositMoney{AccountID: "acct-1", Amount: -5}, ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decideDeposit(tt.state, tt.cmd)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDecideWithdraw_Rejections(t *testing.T) {
	open := replay(t, AccountOpened{AccountID: "acct-1", Owner: "Alice", InitialBalance: 100})
	closed := replay(t,
		AccountOpened{AccountID: "acct-1", Owner: "Alice", InitialBalance: 100},
		AccountClosed{AccountID: "acct-1", FinalBalance: 100},
	)

	tests := []struct {
		name  string
		state Account
		cmd   WithdrawMoney
		want  error
	}{
		{"unknown account", Account{}, WithdrawMoney{AccountID: "nope", Amount: 10}, ErrNotFound},
		{"closed account", closed, WithdrawMoney{AccountID: "acct-1", Amount: 10}, ErrClosed},
		{"zero amount", open, WithdrawMoney{AccountID: "acct-1", Amount: 0}, ErrInvalidAmount},
		{"overdraft", open, WithdrawMoney{AccountID: "acct-1", Amount: 101}, ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decideWithdraw(tt.state, tt.cmd)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDecideWithdraw_ExactBalanceAllowed(t *testing.T) {
	state := replay(t, AccountOpened{AccountID: "acct-1", Owner: "Alice", InitialBalance: 100})

	events, err := decideWithdraw(state, WithdrawMoney{AccountID: "acct-1", Amount: 100})
	if err != nil {
		t.Fatalf("expected withdrawal of exact balance to succeed, got %v", err)
	}
	if withdrawn := events[0].(MoneyWithdrawn); withdrawn.Amount != 100 {
		t.Errorf("expected amount 100, got %d", withdrawn.Amount)
	}
}

func TestDecideClose(t *testing.T) {
	state := replay(t,
		AccountOpened{AccountID: "acct-1", Owner: "Alice", InitialBalance: 1000},
		MoneyDeposited{AccountID: "acct-1", Amount: 250},
	)

	events, err := decideClose(state, CloseAccount{AccountID: "acct-1"})
	if err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}
	closed, ok := events[0].(AccountClosed)
	if !ok {
		t.Fatalf("expected AccountClosed, got %T", events[0])
	}
	if closed.FinalBalance != 1250 {
		t.Errorf("expected final balance 1250, got %d", closed.FinalBalance)
	}
}

func TestDecideClose_Rejections(t *testing.T) {
	closed := replay(t,
		AccountOpened{AccountID: "acct-1", Owner: "Alice", InitialBalance: 100},
		AccountClosed{AccountID: "acct-1", FinalBalance: 100},
	)

	if _, err := decideClose(Account{}, CloseAccount{AccountID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := decideClose(closed, CloseAccount{AccountID: "acct-1"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
