package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luma/lagoon/internal/metrics"
	"github.com/luma/lagoon/protocol"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultRetryDelay = 2 * time.Second
	DefaultMaxRetries = 1
)

// Sender queues a message for transmission. Write returns false when the
// message could not be queued.
type Sender interface {
	Write(msg protocol.Message) bool
}

// Connector is implemented by senders that must re-establish their link before
// an attempt, e.g. after the previous attempt was cut short by a lost connection.
type Connector interface {
	Connect(ctx context.Context) error
}

type SenderFunc func(msg protocol.Message) bool

func (f SenderFunc) Write(msg protocol.Message) bool {
	return f(msg)
}

type outcome struct {
	msg protocol.Message
	err error
}

type transaction struct {
	id     uint16
	code   protocol.Code
	result chan outcome
}

type CorrelatorOptions struct {
	// Timeout bounds each attempt, starting once the request is queued.
	Timeout time.Duration

	// RetryDelay is the base backoff. Attempt n waits RetryDelay*n before the
	// next one.
	RetryDelay time.Duration

	// MaxRetries is how many times a failed attempt is repeated. Negative values
	// disable retries.
	MaxRetries int

	// IsPush reports gateway initiated codes, which never claim a pending id
	// unless they are the exact response expected.
	IsPush func(protocol.Code) bool

	Metrics *metrics.Metrics
	Log     *zap.Logger
}

// Correlator matches responses to outstanding requests by message id and runs
// the retry policy.
type Correlator struct {
	mu      sync.Mutex
	pending map[uint16]*transaction
	nextID  uint16

	timeout    time.Duration
	retryDelay time.Duration
	maxRetries int
	isPush     func(protocol.Code) bool

	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewCorrelator(options CorrelatorOptions) *Correlator {
	c := &Correlator{
		pending:    make(map[uint16]*transaction),
		timeout:    options.Timeout,
		retryDelay: options.RetryDelay,
		maxRetries: options.MaxRetries,
		isPush:     options.IsPush,
		metrics:    options.Metrics,
		log:        options.Log,
	}

	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}

	if c.retryDelay < 0 {
		c.retryDelay = 0
	}

	if c.maxRetries < 0 {
		c.maxRetries = 0
	}

	if c.isPush == nil {
		c.isPush = func(protocol.Code) bool { return false }
	}

	if c.log == nil {
		c.log = zap.NewNop()
	}

	return c
}

// Execute sends req through s and waits for its response, retrying failed
// attempts. Every attempt gets a fresh id. Cancelling ctx abandons the
// transaction without a retry.
func (c *Correlator) Execute(ctx context.Context, s Sender, req protocol.Message) (protocol.Message, error) {
	attempts := c.maxRetries + 1
	log := c.log.With(zap.Stringer("request", req.Code))

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := c.attempt(ctx, s, req)
		if err == nil {
			c.metrics.Transaction(req.Code.String(), "ok")
			return resp, nil
		}

		lastErr = err

		if ctx.Err() != nil || !protocol.Retryable(err) || attempt == attempts {
			break
		}

		delay := c.retryDelay * time.Duration(attempt)
		log.Warn("Request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		c.metrics.Retry()

		if err := sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	c.metrics.Transaction(req.Code.String(), resultLabel(lastErr))

	return protocol.Message{}, lastErr
}

func (c *Correlator) attempt(ctx context.Context, s Sender, req protocol.Message) (protocol.Message, error) {
	if cn, ok := s.(Connector); ok {
		if err := cn.Connect(ctx); err != nil {
			return protocol.Message{}, err
		}
	}

	tx, err := c.register(req.Code)
	if err != nil {
		return protocol.Message{}, err
	}
	defer c.remove(tx)

	req.ID = tx.id
	if !s.Write(req) {
		return protocol.Message{}, protocol.ErrClosed
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case out := <-tx.result:
		if out.err != nil {
			return protocol.Message{}, out.err
		}

		return out.msg, expect(req.Code, out.msg)

	case <-timer.C:
		return protocol.Message{}, fmt.Errorf("%s id %d after %s: %w", req.Code, tx.id, c.timeout, protocol.ErrTimeout)

	case <-ctx.Done():
		return protocol.Message{}, ctx.Err()
	}
}

func expect(code protocol.Code, resp protocol.Message) error {
	if err := protocol.ErrorForCode(resp.Code); err != nil {
		return err
	}

	if resp.Code != code.Response() {
		return fmt.Errorf("%s answered with %s: %w", code, resp.Code, protocol.ErrResponse)
	}

	return nil
}

// Claim hands msg to the transaction pending on its id and reports whether it
// did. A known push only claims the id when it is the response the
// transaction expects.
func (c *Correlator) Claim(msg protocol.Message) bool {
	c.mu.Lock()
	tx, ok := c.pending[msg.ID]
	if !ok {
		c.mu.Unlock()
		return false
	}

	if c.isPush(msg.Code) && msg.Code != tx.code.Response() {
		c.mu.Unlock()
		return false
	}

	delete(c.pending, msg.ID)
	c.mu.Unlock()

	tx.result <- outcome{msg: msg}

	return true
}

// CancelAll fails every pending transaction with err.
func (c *Correlator) CancelAll(err error) {
	c.mu.Lock()
	cancelled := make([]*transaction, 0, len(c.pending))
	for id, tx := range c.pending {
		delete(c.pending, id)
		cancelled = append(cancelled, tx)
	}
	c.mu.Unlock()

	for _, tx := range cancelled {
		tx.result <- outcome{err: err}
	}

	if len(cancelled) > 0 {
		c.log.Debug("Cancelled pending transactions", zap.Int("count", len(cancelled)), zap.Error(err))
	}
}

// Pending returns the number of transactions waiting for a response.
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending)
}

// register reserves the next id not in use, wrapping after MaxClientID.
func (c *Correlator) register(code protocol.Code) (*transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := 0; i <= protocol.MaxClientID; i++ {
		id := c.nextID
		c.nextID = uint16((int(c.nextID) + 1) % (protocol.MaxClientID + 1))

		if _, used := c.pending[id]; used {
			continue
		}

		tx := &transaction{
			id:     id,
			code:   code,
			result: make(chan outcome, 1),
		}
		c.pending[id] = tx

		return tx, nil
	}

	return nil, fmt.Errorf("no free message id for %s: %w", code, protocol.ErrConnection)
}

// remove drops tx if it is still registered. Its id may already belong to a
// newer transaction once it was claimed.
func (c *Correlator) remove(tx *transaction) {
	c.mu.Lock()
	if cur, ok := c.pending[tx.id]; ok && cur == tx {
		delete(c.pending, tx.id)
	}
	c.mu.Unlock()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, protocol.ErrTimeout):
		return "timeout"
	case errors.Is(err, protocol.ErrConnection):
		return "connection"
	case errors.Is(err, protocol.ErrLogin):
		return "login_rejected"
	case errors.Is(err, protocol.ErrRequest):
		return "rejected"
	case errors.Is(err, protocol.ErrResponse):
		return "unexpected_response"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}

	return "error"
}
