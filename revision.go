package eventledger

// StreamState expresses the expected state of a stream when saving events.
// It is the optimistic-concurrency contract between a command handler and an
// EventStore: the save fails if the stream does not match the expectation.
type StreamState interface {
	streamState()
}

// Any appends without checking the current stream revision.
type Any struct{}

func (Any) streamState() {}

// NoStream requires that the stream does not exist yet.
type NoStream struct{}

func (NoStream) streamState() {}

// StreamExists requires that the stream already exists.
type StreamExists struct{}

func (StreamExists) streamState() {}

// Revision requires the stream to be at exactly this revision (its current
// number of events).
type Revision uint64

func (Revision) streamState() {}
