package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/claimledger/internal/contract"
	"github.com/roach88/claimledger/internal/ledger"
)

// ErrStopped is returned by Submit and Query once the executor has stopped.
var ErrStopped = errors.New("executor stopped")

// Request is one ledger invocation. Exactly one of Instantiate, Execute and
// Migrate is set.
type Request struct {
	Sender      ledger.Address
	Instantiate *ledger.InstantiateMsg
	Execute     *ledger.ExecuteMsg
	Migrate     *ledger.MigrateMsg
}

// Ledger is the operation surface the executor serializes.
// Implemented by *contract.Contract.
type Ledger interface {
	Instantiate(ctx context.Context, sender ledger.Address, msg ledger.InstantiateMsg) (contract.Response, error)
	Execute(ctx context.Context, sender ledger.Address, msg ledger.ExecuteMsg) (contract.Response, error)
	Migrate(ctx context.Context, msg ledger.MigrateMsg) (contract.Response, error)
	Query(ctx context.Context, msg ledger.QueryMsg) (json.RawMessage, error)
}

type result struct {
	resp  contract.Response
	query json.RawMessage
	err   error
}

type job struct {
	req   Request
	query *ledger.QueryMsg
	done  chan result // buffered, size 1
}

// Executor is the single-writer request loop.
type Executor struct {
	ledger Ledger
	queue  *jobQueue
	logger *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// New creates an Executor over l. Call Run to start applying requests.
func New(l Ledger, opts ...Option) *Executor {
	e := &Executor{
		ledger: l,
		queue:  newJobQueue(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit queues req and waits for its result.
//
// If ctx is cancelled while waiting, Submit returns ctx.Err(); the request
// may still be applied once it reaches the front of the queue.
func (e *Executor) Submit(ctx context.Context, req Request) (contract.Response, error) {
	if n := req.variants(); n != 1 {
		return contract.Response{}, fmt.Errorf("%w: request: expected exactly one variant, got %d", ledger.ErrInvalidMessage, n)
	}
	res, err := e.enqueue(ctx, &job{req: req, done: make(chan result, 1)})
	if err != nil {
		return contract.Response{}, err
	}
	return res.resp, res.err
}

// Query queues a read and waits for its JSON result. Queries are ordered
// with writes, so a query observes every request submitted before it.
func (e *Executor) Query(ctx context.Context, msg ledger.QueryMsg) (json.RawMessage, error) {
	res, err := e.enqueue(ctx, &job{query: &msg, done: make(chan result, 1)})
	if err != nil {
		return nil, err
	}
	return res.query, res.err
}

func (e *Executor) enqueue(ctx context.Context, j *job) (result, error) {
	if !e.queue.Enqueue(j) {
		return result{}, ErrStopped
	}
	select {
	case <-ctx.Done():
		return result{}, ctx.Err()
	case res := <-j.done:
		return res, nil
	}
}

// Run applies queued requests until ctx is cancelled or Stop is called.
// After Stop, requests already queued are still applied before Run returns.
// On cancellation, requests still queued fail with ErrStopped.
//
// Must be called from exactly one goroutine.
func (e *Executor) Run(ctx context.Context) error {
	e.logger.Info("executor starting")

	for {
		if j, ok := e.queue.TryDequeue(); ok {
			j.done <- e.apply(ctx, j)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("executor stopping: context cancelled")
			e.queue.Close()
			e.failPending()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel is closed by Close, so this case fires
			// immediately once stopped.
			if e.stopped() && e.queue.Len() == 0 {
				e.logger.Info("executor stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run returns after draining what was already queued.
func (e *Executor) Stop() {
	e.queue.Close()
}

func (e *Executor) stopped() bool {
	e.queue.mu.Lock()
	defer e.queue.mu.Unlock()
	return e.queue.closed
}

func (e *Executor) failPending() {
	for {
		j, ok := e.queue.TryDequeue()
		if !ok {
			return
		}
		j.done <- result{err: ErrStopped}
	}
}

// apply runs one job. Called only from the Run goroutine.
func (e *Executor) apply(ctx context.Context, j *job) result {
	if j.query != nil {
		data, err := e.ledger.Query(ctx, *j.query)
		return result{query: data, err: err}
	}

	req := j.req
	e.logger.Debug("applying request", "sender", req.Sender, "action", req.action())

	var (
		resp contract.Response
		err  error
	)
	switch {
	case req.Instantiate != nil:
		resp, err = e.ledger.Instantiate(ctx, req.Sender, *req.Instantiate)
	case req.Execute != nil:
		resp, err = e.ledger.Execute(ctx, req.Sender, *req.Execute)
	case req.Migrate != nil:
		resp, err = e.ledger.Migrate(ctx, *req.Migrate)
	}
	return result{resp: resp, err: err}
}

func (r Request) variants() int {
	n := 0
	if r.Instantiate != nil {
		n++
	}
	if r.Execute != nil {
		n++
	}
	if r.Migrate != nil {
		n++
	}
	return n
}

func (r Request) action() string {
	switch {
	case r.Instantiate != nil:
		return ledger.ActionInstantiate
	case r.Execute != nil:
		return r.Execute.Action()
	case r.Migrate != nil:
		return ledger.ActionMigrate
	}
	return ""
}
