package eventledger

// ReadModel marks a query-side data shape derived from the event log. Read
// models hold no mutable state of their own; they are rebuilt from events.
type ReadModel interface {
}
