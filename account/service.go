package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/novaledger/eventledger"
	"github.com/novaledger/eventledger/logging"
	"github.com/novaledger/eventledger/otel"
	"github.com/sirupsen/logrus"
)

// Service is the application facade for the account aggregate. It owns a
// sharded CommandBus with one handler per command type, each wrapped with
// logging and telemetry, and exposes the read operations alongside.
//
// Submit is the only mutation entrypoint. The bus serializes commands per
// aggregate ID, and the handlers additionally enforce optimistic revision
// expectations on save, so out-of-band writers are detected rather than
// silently interleaved.
type Service struct {
	store     eventledger.EventStore
	bus       *eventledger.CommandBus
	projector *Projector
	ids       IDGenerator
	logger    *logrus.Entry
}

// ServiceOption configures NewService.
type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	ids         IDGenerator
	logger      *logrus.Entry
	eventLogger *slog.Logger
	eventBus    eventledger.EventBus
	bufferSize  int
	shardCount  int
}

// WithIDGenerator sets the account ID generator. Defaults to random UUIDs.
func WithIDGenerator(ids IDGenerator) ServiceOption {
	return func(c *serviceConfig) { c.ids = ids }
}

// WithLogger sets the logger for command logging. Defaults to the standard
// logrus logger.
func WithLogger(logger *logrus.Entry) ServiceOption {
	return func(c *serviceConfig) { c.logger = logger }
}

// WithEventLogger sets the structured logger used on the event-handling
// side (the projector subscription). Defaults to slog's default logger.
func WithEventLogger(logger *slog.Logger) ServiceOption {
	return func(c *serviceConfig) { c.eventLogger = logger }
}

// WithEventBus subscribes the live summary projector to bus. Without a bus
// the summaries are still available through Summary, which refolds from the
// store on demand.
func WithEventBus(bus eventledger.EventBus) ServiceOption {
	return func(c *serviceConfig) { c.eventBus = bus }
}

// WithCommandBusSize sets the command bus queue buffer and shard count.
func WithCommandBusSize(bufferSize, shardCount int) ServiceOption {
	return func(c *serviceConfig) {
		c.bufferSize = bufferSize
		c.shardCount = shardCount
	}
}

// NewService wires the account command handlers onto a new CommandBus.
func NewService(ctx context.Context, store eventledger.EventStore, opts ...ServiceOption) (*Service, error) {
	cfg := &serviceConfig{
		ids:         UUIDGenerator{},
		logger:      logrus.NewEntry(logrus.StandardLogger()),
		eventLogger: slog.Default(),
		bufferSize:  64,
		shardCount:  8,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	// Every store access goes through the telemetry decorator: handler
	// loads and saves, on-demand reads and projector rebuilds alike.
	instrumented := otel.WithEventStoreTelemetry(store)

	s := &Service{
		store:     instrumented,
		bus:       eventledger.NewCommandBus(cfg.bufferSize, cfg.shardCount),
		projector: NewProjector(instrumented),
		ids:       cfg.ids,
		logger:    cfg.logger,
	}

	// Opening uses NoStream so a duplicate ID surfaces as a store-level
	// rejection even if two opens race past the decider. The mutating
	// commands track the loaded revision and retry briefly on conflicts;
	// the factory runs per invocation, backoff instances are stateful.
	retry := func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(10*time.Millisecond), 3)
	}

	register(s, eventledger.NewCommandHandler(s.store, Account{}, Evolve, decideOpen,
		eventledger.WithRevision(eventledger.NoStream{}),
	))
	register(s, eventledger.NewCommandHandler(s.store, Account{}, Evolve, decideDeposit,
		eventledger.WithRevision(eventledger.Revision(0)),
		eventledger.WithRetryStrategy(retry),
	))
	register(s, eventledger.NewCommandHandler(s.store, Account{}, Evolve, decideWithdraw,
		eventledger.WithRevision(eventledger.Revision(0)),
		eventledger.WithRetryStrategy(retry),
	))
	register(s, eventledger.NewCommandHandler(s.store, Account{}, Evolve, decideClose,
		eventledger.WithRevision(eventledger.Revision(0)),
		eventledger.WithRetryStrategy(retry),
	))

	if cfg.eventBus != nil {
		bus := otel.WithEventBusTelemetry(cfg.eventBus)
		err := s.projector.Subscribe(ctx, bus,
			otel.WithEventTelemetry,
			func(next eventledger.EventHandler) eventledger.EventHandler {
				return logging.WithLoggingMiddleware(cfg.eventLogger, next)
			},
		)
		if err != nil {
			s.bus.Stop()
			return nil, fmt.Errorf("subscribe summary projector: %w", err)
		}
	}

	return s, nil
}

// register decorates a handler with logging and telemetry and adds it to the
// service's command bus.
func register[C eventledger.Command](s *Service, handler eventledger.CommandHandler[C]) {
	eventledger.Register(s.bus,
		otel.WithCommandTelemetry(
			logging.WithCommandLogging(s.logger, handler),
		),
	)
}

// Submit dispatches any account command and returns the appended events. A
// rejected command returns an error wrapping ErrBusinessRuleViolation plus
// the specific validation failure, and appends nothing.
func (s *Service) Submit(ctx context.Context, cmd eventledger.Command) (eventledger.AppendResult, error) {
	return s.bus.Dispatch(ctx, cmd)
}

// Open creates a new account with a generated ID and returns it.
func (s *Service) Open(ctx context.Context, owner string, initialBalance int64) (string, error) {
	id := s.ids.NewID()
	if _, err := s.Submit(ctx, OpenAccount{
		AccountID:      id,
		Owner:          owner,
		InitialBalance: initialBalance,
	}); err != nil {
		return "", err
	}
	return id, nil
}

// Deposit adds amount to the account's balance.
func (s *Service) Deposit(ctx context.Context, id string, amount int64) error {
	_, err := s.Submit(ctx, DepositMoney{AccountID: id, Amount: amount})
	return err
}

// Withdraw removes amount from the account's balance.
func (s *Service) Withdraw(ctx context.Context, id string, amount int64) error {
	_, err := s.Submit(ctx, WithdrawMoney{AccountID: id, Amount: amount})
	return err
}

// CloseAccount moves the account to its terminal state.
func (s *Service) CloseAccount(ctx context.Context, id string) error {
	_, err := s.Submit(ctx, CloseAccount{AccountID: id})
	return err
}

// Account reconstructs the current write-side state by replaying the
// account's stream. It returns ErrNotFound when the stream has no events.
func (s *Service) Account(ctx context.Context, id string) (Account, error) {
	iter, err := s.store.LoadStream(ctx, id)
	if err != nil {
		return Account{}, fmt.Errorf("load account %s: %w", id, err)
	}
	state, err := FromEvents(ctx, iter)
	if err != nil {
		return Account{}, fmt.Errorf("load account %s: %w", id, err)
	}
	if !state.Exists() {
		return Account{}, fmt.Errorf("%w: account %s has no events", ErrNotFound, id)
	}
	return state, nil
}

// Summary refolds the account's stream into its read-side summary. Like
// Account it returns ErrNotFound for an unknown account.
func (s *Service) Summary(ctx context.Context, id string) (Summary, error) {
	iter, err := s.store.LoadStream(ctx, id)
	if err != nil {
		return Summary{}, fmt.Errorf("load summary %s: %w", id, err)
	}
	summary, err := SummaryFromEvents(ctx, iter)
	if err != nil {
		return Summary{}, fmt.Errorf("load summary %s: %w", id, err)
	}
	if summary.TransactionCount == 0 {
		return Summary{}, fmt.Errorf("%w: account %s has no events", ErrNotFound, id)
	}
	return summary, nil
}

// Projector exposes the live summary projector.
func (s *Service) Projector() *Projector {
	return s.projector
}

// AuditLog returns every stored event across all accounts in global append
// order.
func (s *Service) AuditLog(ctx context.Context) ([]*eventledger.Envelope, error) {
	iter, err := s.store.LoadFromAll(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("load audit log: %w", err)
	}
	return iter.All(ctx)
}

// Count returns the total number of stored events.
func (s *Service) Count(ctx context.Context) (uint64, error) {
	return s.store.Count(ctx)
}

// Close stops the command bus and waits for in-flight commands. The store
// is owned by the caller and is not closed.
func (s *Service) Close() error {
	s.bus.Stop()
	return nil
}
