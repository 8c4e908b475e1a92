package account

// OpenAccount requests creation of a new account. AccountID is chosen by the
// caller (the Service generates one when asked to).
type OpenAccount struct {
	AccountID      string
	Owner          string
	InitialBalance int64
}

func (c OpenAccount) AggregateID() string { return c.AccountID }

// DepositMoney requests a deposit on an existing open account.
type DepositMoney struct {
	AccountID string
	Amount    int64
}

func (c DepositMoney) AggregateID() string { return c.AccountID }

// WithdrawMoney requests a withdrawal from an existing open account.
type WithdrawMoney struct {
	AccountID string
	Amount    int64
}

func (c WithdrawMoney) AggregateID() string { return c.AccountID }

// CloseAccount requests closure of an existing open account.
type CloseAccount struct {
	AccountID string
}

func (c CloseAccount) AggregateID() string { return c.AccountID }
