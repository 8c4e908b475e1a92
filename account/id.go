package account

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces new account IDs. The Service takes one as a
// collaborator so tests can use deterministic IDs.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator generates random UUID account IDs. It is the default.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// SequenceGenerator generates deterministic IDs of the form prefix-N.
type SequenceGenerator struct {
	Prefix string
	n      atomic.Uint64
}

func (g *SequenceGenerator) NewID() string {
	return fmt.Sprintf("%s-%d", g.Prefix, g.n.Add(1))
}
