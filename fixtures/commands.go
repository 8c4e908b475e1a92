package fixtures

// TestCommand is a configurable test command implementing the Command interface.
type TestCommand struct {
	ID   string
	Data string
}

func (c TestCommand) AggregateID() string { return c.ID }

// TestCommandBuilder provides a fluent API for constructing test commands.
type TestCommandBuilder struct {
	id   string
	data string
}

// NewTestCommand creates a new TestCommandBuilder with sensible defaults.
func NewTestCommand() *TestCommandBuilder {
	return &TestCommandBuilder{
		id: "aggregate-1",
	}
}

// WithID sets the aggregate ID.
func (b *TestCommandBuilder) WithID(id string) *TestCommandBuilder {
	b.id = id
	return b
}

// WithData sets custom data on the command.
func (b *TestCommandBuilder) WithData(data string) *TestCommandBuilder {
	b.data = data
	return b
}

// Build constructs the TestCommand.
func (b *TestCommandBuilder) Build() TestCommand {
	return TestCommand{
		ID:   b.id,
		Data: b.data,
	}
}

// Common pre-built commands for quick testing.
var (
	OpenAccountCmd  = TestCommand{ID: "account-1", Data: "open"}
	DepositCmd      = TestCommand{ID: "account-1", Data: "deposit"}
	WithdrawCmd     = TestCommand{ID: "account-1", Data: "withdraw"}
	CloseAccountCmd = TestCommand{ID: "account-1", Data: "close"}
)
