package account

import (
	"context"
	"fmt"
	"sync"

	"github.com/novaledger/eventledger"
)

// Summary is the read-side projection of one account: a different fold over
// the same events than Account, carrying denormalized running totals the
// write side never needs. TotalDeposits includes the initial balance, and
// every event counts as one transaction, so an open + two deposits + close
// is four transactions.
type Summary struct {
	ID               string
	Owner            string
	Balance          int64
	TotalDeposits    int64
	TotalWithdrawals int64
	TransactionCount uint64
	Closed           bool
}

func (s Summary) String() string {
	return fmt.Sprintf("Summary{id=%s, owner=%q, balance=%d, totalDeposits=%d, totalWithdrawals=%d, transactions=%d, closed=%t}",
		s.ID, s.Owner, s.Balance, s.TotalDeposits, s.TotalWithdrawals, s.TransactionCount, s.Closed)
}

// EvolveSummary folds one stored event into the summary.
func EvolveSummary(s Summary, env *eventledger.Envelope) Summary {
	switch ev := env.Event.(type) {
	case AccountOpened:
		s.ID = ev.AccountID
		s.Owner = ev.Owner
		s.Balance = ev.InitialBalance
		s.TotalDeposits += ev.InitialBalance
		s.TransactionCount++
	case MoneyDeposited:
		s.Balance += ev.Amount
		s.TotalDeposits += ev.Amount
		s.TransactionCount++
	case MoneyWithdrawn:
		s.Balance -= ev.Amount
		s.TotalWithdrawals += ev.Amount
		s.TransactionCount++
	case AccountClosed:
		s.Closed = true
		s.TransactionCount++
	}
	return s
}

// SummaryFromEvents reconstructs the summary by replaying the stream.
func SummaryFromEvents(ctx context.Context, iter *eventledger.Iterator[*eventledger.Envelope]) (Summary, error) {
	var s Summary
	for iter.Next(ctx) {
		s = EvolveSummary(s, iter.Value())
	}
	if err := iter.Err(); err != nil {
		return Summary{}, fmt.Errorf("replay summary events: %w", err)
	}
	return s, nil
}

// Projector maintains live summaries for all accounts. It consumes events
// from an EventBus subscription and can rebuild the whole read model from
// the store's global log at any time.
type Projector struct {
	store eventledger.EventStore

	mu        sync.RWMutex
	summaries map[string]Summary
	position  uint64
}

// NewProjector creates a Projector reading from store.
func NewProjector(store eventledger.EventStore) *Projector {
	return &Projector{
		store:     store,
		summaries: make(map[string]Summary),
	}
}

// Handler returns the event handler to subscribe on the bus. It routes the
// four account event types; anything else is skipped.
func (p *Projector) Handler() eventledger.EventHandler {
	return eventledger.NewEventGroupProcessor(
		eventledger.OnEvent(func(ctx context.Context, ev AccountOpened) error {
			p.apply(ctx, ev)
			return nil
		}),
		eventledger.OnEvent(func(ctx context.Context, ev MoneyDeposited) error {
			p.apply(ctx, ev)
			return nil
		}),
		eventledger.OnEvent(func(ctx context.Context, ev MoneyWithdrawn) error {
			p.apply(ctx, ev)
			return nil
		}),
		eventledger.OnEvent(func(ctx context.Context, ev AccountClosed) error {
			p.apply(ctx, ev)
			return nil
		}),
	)
}

// Subscribe attaches the projector to bus under a stable subscriber name,
// filtered to the account event types. Middleware wraps the handler
// outermost-first, the usual place for logging and telemetry decorators.
func (p *Projector) Subscribe(ctx context.Context, bus eventledger.EventBus, middleware ...func(eventledger.EventHandler) eventledger.EventHandler) error {
	handler := p.Handler()
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}
	return bus.Subscribe(ctx, "account-summary-projector", handler,
		eventledger.WithEventTypes(
			AccountOpened{}.EventType(),
			MoneyDeposited{}.EventType(),
			MoneyWithdrawn{}.EventType(),
			AccountClosed{}.EventType(),
		),
	)
}

// apply folds one event into the live summary map. The envelope's position
// comes from the subscription context.
func (p *Projector) apply(ctx context.Context, ev eventledger.Event) {
	env := &eventledger.Envelope{
		StreamID:      eventledger.StreamIDFromContext(ctx),
		Event:         ev,
		Version:       eventledger.VersionFromContext(ctx),
		GlobalVersion: eventledger.GlobalVersionFromContext(ctx),
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Deliveries can repeat after a rebuild; positions already folded are
	// dropped.
	if env.GlobalVersion > 0 && env.GlobalVersion <= p.position {
		return
	}
	p.summaries[ev.AggregateID()] = EvolveSummary(p.summaries[ev.AggregateID()], env)
	if env.GlobalVersion > p.position {
		p.position = env.GlobalVersion
	}
}

// Summary returns the live summary for an account.
func (p *Projector) Summary(id string) (Summary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.summaries[id]
	return s, ok
}

// Rebuild discards the read model and refolds it from the store's global
// log. It demonstrates the projection invariant: the summaries after a
// rebuild equal the summaries produced by live consumption.
func (p *Projector) Rebuild(ctx context.Context) error {
	iter, err := p.store.LoadFromAll(ctx, 0)
	if err != nil {
		return fmt.Errorf("rebuild summaries: %w", err)
	}

	summaries := make(map[string]Summary)
	var position uint64
	for iter.Next(ctx) {
		env := iter.Value()
		id := env.Event.AggregateID()
		summaries[id] = EvolveSummary(summaries[id], env)
		position = env.GlobalVersion
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("rebuild summaries: %w", err)
	}

	p.mu.Lock()
	p.summaries = summaries
	p.position = position
	p.mu.Unlock()
	return nil
}
