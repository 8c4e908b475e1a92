package eventledger

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
)

// queuedCommand is a command enqueued for processing, together with the
// caller's context and a channel to deliver the result on.
type queuedCommand struct {
	Ctx        context.Context
	Command    Command
	ResponseCh chan<- commandResult
}

type commandResult struct {
	Result AppendResult
	Err    error
}

// CommandBus is an in-memory, type-safe command dispatcher. Commands are
// routed to a shard by their aggregate ID and each shard is drained by a
// single worker goroutine, so commands for one aggregate never execute
// concurrently. This is the serialization point the event-sourcing core
// relies on: one writer per aggregate.
type CommandBus struct {
	handlers   map[string]func(ctx context.Context, command Command) (AppendResult, error)
	queues     []chan queuedCommand
	wg         sync.WaitGroup
	mu         sync.RWMutex
	shardCount int

	// stopMu gates enqueues against Stop closing the queues: enqueues hold
	// the read lock, Stop flips stopped under the write lock before closing.
	stopMu  sync.RWMutex
	stopped bool
}

// NewCommandBus creates a CommandBus with shardCount worker goroutines, each
// draining a queue buffered to bufferSize.
func NewCommandBus(bufferSize int, shardCount int) *CommandBus {
	if shardCount <= 0 {
		shardCount = 1
	}

	bus := &CommandBus{
		queues:     make([]chan queuedCommand, shardCount),
		handlers:   make(map[string]func(ctx context.Context, command Command) (AppendResult, error)),
		shardCount: shardCount,
	}

	for i := 0; i < shardCount; i++ {
		bus.queues[i] = make(chan queuedCommand, bufferSize)
		go bus.worker(bus.queues[i])
	}

	return bus
}

// Dispatch enqueues a command on its aggregate's shard and waits for the
// result. It is safe for concurrent use. Dispatch fails immediately when the
// bus has been stopped, and respects ctx both while enqueueing and while
// waiting for the handler.
func (b *CommandBus) Dispatch(ctx context.Context, cmd Command) (AppendResult, error) {
	b.stopMu.RLock()
	if b.stopped {
		b.stopMu.RUnlock()
		return AppendResult{Successful: false}, fmt.Errorf("command bus is stopped")
	}

	responseCh := make(chan commandResult, 1)
	b.wg.Add(1)
	defer b.wg.Done()

	shard := b.getShard(cmd.AggregateID())

	select {
	case b.queues[shard] <- queuedCommand{Ctx: ctx, Command: cmd, ResponseCh: responseCh}:
		b.stopMu.RUnlock()
		select {
		case result := <-responseCh:
			return result.Result, result.Err
		case <-ctx.Done():
			return AppendResult{Successful: false}, ctx.Err()
		}
	case <-ctx.Done():
		b.stopMu.RUnlock()
		return AppendResult{Successful: false}, ctx.Err()
	}
}

// worker drains a single shard queue. Handler panics are recovered so one
// bad handler cannot take the bus down.
func (b *CommandBus) worker(queue chan queuedCommand) {
	for cmd := range queue {
		cmdName := fmt.Sprintf("%T", cmd.Command)

		b.mu.RLock()
		h, exists := b.handlers[cmdName]
		b.mu.RUnlock()

		if !exists {
			cmd.ResponseCh <- commandResult{
				Result: AppendResult{Successful: false},
				Err:    fmt.Errorf("no handler for command %s: %w", cmdName, ErrHandlerNotFound),
			}
			continue
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					cmd.ResponseCh <- commandResult{
						Result: AppendResult{Successful: false},
						Err:    fmt.Errorf("panic in handler: %v", r),
					}
				}
			}()

			res, err := h(cmd.Ctx, cmd.Command)
			cmd.ResponseCh <- commandResult{Result: res, Err: err}
		}()
	}
}

func (b *CommandBus) getShard(aggregateID string) int {
	hash := fnv.New32a()
	hash.Write([]byte(aggregateID))
	return int(hash.Sum32()) % b.shardCount
}

// Register adds a typed command handler to the bus. The command type name is
// derived automatically; registering two handlers for the same command type
// panics, as that is a wiring bug.
func Register[C Command](b *CommandBus, handler CommandHandler[C]) {
	cmdName := fmt.Sprintf("%T", *new(C))
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.handlers[cmdName]; exists {
		panic(fmt.Sprintf("handler already registered for command type %s", cmdName))
	}

	b.handlers[cmdName] = func(ctx context.Context, cmd Command) (AppendResult, error) {
		c, ok := cmd.(C)
		if !ok {
			return AppendResult{Successful: false}, fmt.Errorf("expected command type %s but got %T", cmdName, cmd)
		}
		return handler(ctx, c)
	}
}

// Stop shuts the bus down: no new commands are accepted, the queues are
// closed, and Stop blocks until in-flight commands finish. Stop is
// idempotent.
func (b *CommandBus) Stop() {
	b.stopMu.Lock()
	if b.stopped {
		b.stopMu.Unlock()
		return
	}
	b.stopped = true
	b.stopMu.Unlock()

	for _, q := range b.queues {
		close(q)
	}
	b.wg.Wait()
}
