package eventledger

// Command expresses the intent to change one aggregate. A command may be
// accepted or rejected; it carries no validation result itself.
type Command interface {
	// AggregateID returns the identifier of the aggregate the command targets.
	AggregateID() string
}
