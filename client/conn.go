package client

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luma/lagoon/catalog"
	"github.com/luma/lagoon/protocol"
	"github.com/luma/lagoon/transport"
)

type Status int32

const (
	StatusClosed Status = iota
	StatusConnecting
	StatusHandshaking
	StatusOpen
	StatusClosing
)

func (s Status) String() string {
	switch s {
	case StatusClosed:
		return "closed"
	case StatusConnecting:
		return "connecting"
	case StatusHandshaking:
		return "handshaking"
	case StatusOpen:
		return "open"
	case StatusClosing:
		return "closing"
	}

	return "Status(" + strconv.Itoa(int(s)) + ")"
}

type session struct {
	addr string
	conn *transport.TCPConn
}

type openAttempt struct {
	done chan struct{}
	err  error
}

// Client is one logical connection to a gateway. It reconnects on demand, keeps
// the session alive while idle and decodes everything it receives into a
// shared State.
type Client struct {
	options Options
	log     *zap.Logger

	state      *catalog.State
	correlator *Correlator
	dispatcher *Dispatcher

	mu        sync.Mutex
	status    Status
	addr      string
	session   *session
	opening   *openAttempt
	keepalive *time.Timer

	pushClientID uint32
	registered   bool
	shutdown     bool
}

func New(options Options) *Client {
	options.setDefaults()

	state := catalog.NewState()

	c := &Client{
		options:      options,
		log:          options.Log,
		state:        state,
		pushClientID: uint32(catalog.MinPushClientID + rand.Intn(catalog.MaxPushClientID-catalog.MinPushClientID+1)),
	}

	c.correlator = NewCorrelator(CorrelatorOptions{
		Timeout:    options.Timeout,
		RetryDelay: options.RetryDelay,
		MaxRetries: options.MaxRetries,
		IsPush:     catalog.IsPush,
		Metrics:    options.Metrics,
		Log:        options.Log.Named("correlator"),
	})

	c.dispatcher = NewDispatcher(state, options.Metrics, options.Log.Named("dispatcher"))

	return c
}

// State returns the shared state every response and push is decoded into.
func (c *Client) State() *catalog.State {
	return c.state
}

func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status
}

// PushClientID is the id the client registers with the gateway to receive
// pushes.
func (c *Client) PushClientID() uint32 {
	return c.pushClientID
}

// Open connects to the gateway at host:port and runs the handshake. A port of
// zero selects the default. Callers arriving while an open is in flight wait
// for that attempt instead of starting another.
func (c *Client) Open(ctx context.Context, host string, port int) error {
	if port == 0 {
		port = DefaultPort
	}

	c.mu.Lock()
	c.addr = net.JoinHostPort(host, strconv.Itoa(port))
	c.mu.Unlock()

	return c.open(ctx)
}

func (c *Client) open(ctx context.Context) error {
	c.mu.Lock()
	if c.status == StatusOpen {
		c.mu.Unlock()
		return nil
	}

	if c.shutdown {
		c.mu.Unlock()
		return fmt.Errorf("opening session: %w", protocol.ErrClientClosed)
	}

	if a := c.opening; a != nil {
		c.mu.Unlock()

		select {
		case <-a.done:
			return a.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if c.addr == "" {
		c.mu.Unlock()
		return fmt.Errorf("no gateway address to connect to: %w", protocol.ErrConnection)
	}

	a := &openAttempt{done: make(chan struct{})}
	c.opening = a
	c.status = StatusConnecting
	addr := c.addr
	c.mu.Unlock()

	sess, err := c.handshake(ctx, addr)

	c.mu.Lock()
	c.opening = nil
	if err == nil && c.session != sess {
		err = fmt.Errorf("opening session with %s: %w", addr, protocol.ErrClosed)
	}

	if err == nil {
		c.status = StatusOpen
	} else if c.session == nil {
		c.status = StatusClosed
	}
	c.mu.Unlock()

	a.err = err
	close(a.done)

	if err != nil {
		c.log.Warn("Failed to open session", zap.String("addr", addr), zap.Error(err))
		return err
	}

	c.log.Info("Connected to gateway", zap.String("addr", addr))
	c.resetKeepAlive()

	if c.dispatcher.Len() > 0 {
		if err := c.addClient(ctx); err != nil {
			c.log.Warn("Failed to register for pushes", zap.Error(err))
		}
	}

	return nil
}

func (c *Client) handshake(ctx context.Context, addr string) (*session, error) {
	sess := &session{addr: addr}

	c.mu.Lock()
	c.session = sess
	c.mu.Unlock()

	conn, err := transport.Dial(ctx, addr, transport.Options{
		OnMessage:   c.handleMessage,
		OnClose:     func(err error) { c.handleClose(sess, err) },
		DialTimeout: c.options.Timeout,
		Trace:       c.options.Trace,
		Log:         c.log.Named("transport"),
	})
	if err != nil {
		c.mu.Lock()
		if c.session == sess {
			c.session = nil
		}
		c.mu.Unlock()

		return nil, err
	}

	c.mu.Lock()
	sess.conn = conn
	if c.session == sess {
		c.status = StatusHandshaking
	}
	c.mu.Unlock()

	fail := func(err error) (*session, error) {
		_ = conn.Close()
		return nil, fmt.Errorf("opening session with %s: %w", addr, err)
	}

	if !conn.WriteRaw(protocol.PrimingToken) {
		return fail(protocol.ErrClosed)
	}

	steps := []protocol.Message{
		catalog.ChallengeRequest(),
		catalog.LoginRequest(),
		catalog.VersionRequest(),
	}

	for _, req := range steps {
		resp, err := c.correlator.Execute(ctx, SenderFunc(c.write), req)
		if err != nil {
			return fail(err)
		}

		if err := catalog.Decode(resp, c.state); err != nil {
			return fail(err)
		}
	}

	return sess, nil
}

// Close ends the session and waits for the transport to shut down. It is a no-op
// when there is no session.
func (c *Client) Close() error {
	c.mu.Lock()
	sess := c.session
	if sess == nil || sess.conn == nil {
		c.mu.Unlock()
		return nil
	}

	if c.status == StatusOpen {
		c.status = StatusClosing
	}
	c.stopKeepAliveLocked()
	c.mu.Unlock()

	return sess.conn.Close()
}

// Shutdown closes the session and stops listener delivery. The client cannot
// be opened again. It must not be called from a listener.
func (c *Client) Shutdown() error {
	c.mu.Lock()
	c.shutdown = true
	c.mu.Unlock()

	err := c.Close()
	c.dispatcher.Close()

	return err
}

// Request sends req and returns its response, opening a session first with the
// last address given to Open if there is none. Attempts after a lost
// connection reopen the session before sending.
func (c *Client) Request(ctx context.Context, req protocol.Message) (protocol.Message, error) {
	if err := c.open(ctx); err != nil {
		return protocol.Message{}, fmt.Errorf("%s request failed: %w", req.Code, err)
	}

	c.resetKeepAlive()

	resp, err := c.correlator.Execute(ctx, connectedSender{c}, req)
	if err != nil {
		return protocol.Message{}, fmt.Errorf("%s request failed: %w", req.Code, err)
	}

	return resp, nil
}

// Subscribe calls fn for every unclaimed message with the given code. While a
// session is open the client registers itself for pushes when the first
// listener is added, and unregisters when the last one is removed.
func (c *Client) Subscribe(ctx context.Context, code protocol.Code, fn Listener) (unsubscribe func(), err error) {
	unsub := c.dispatcher.Subscribe(code, fn)

	if err := c.addClient(ctx); err != nil {
		unsub()
		return nil, err
	}

	return func() {
		unsub()

		if c.dispatcher.Len() == 0 {
			c.removeClient()
		}
	}, nil
}

func (c *Client) addClient(ctx context.Context) error {
	c.mu.Lock()
	need := c.status == StatusOpen && !c.registered
	c.mu.Unlock()

	if !need {
		return nil
	}

	if _, err := c.correlator.Execute(ctx, SenderFunc(c.write), catalog.AddClientRequest(c.pushClientID)); err != nil {
		return fmt.Errorf("registering client %d for pushes: %w", c.pushClientID, err)
	}

	c.mu.Lock()
	c.registered = true
	c.mu.Unlock()

	return nil
}

func (c *Client) removeClient() {
	c.mu.Lock()
	need := c.status == StatusOpen && c.registered
	c.registered = false
	c.mu.Unlock()

	if !need {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.options.Timeout)
		defer cancel()

		if _, err := c.correlator.Execute(ctx, SenderFunc(c.write), catalog.RemoveClientRequest(c.pushClientID)); err != nil {
			c.log.Warn("Failed to unregister from pushes", zap.Uint32("clientID", c.pushClientID), zap.Error(err))
		}
	}()
}

// connectedSender writes through the current session, opening one first when
// there is none.
type connectedSender struct {
	c *Client
}

func (s connectedSender) Connect(ctx context.Context) error {
	return s.c.open(ctx)
}

func (s connectedSender) Write(msg protocol.Message) bool {
	return s.c.write(msg)
}

// write queues msg on the current session's transport.
func (c *Client) write(msg protocol.Message) bool {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()

	if sess == nil || sess.conn == nil {
		return false
	}

	return sess.conn.Write(msg)
}

func (c *Client) handleMessage(msg protocol.Message) {
	if c.correlator.Claim(msg) {
		return
	}

	c.dispatcher.Dispatch(msg)
}

func (c *Client) handleClose(sess *session, err error) {
	c.mu.Lock()
	if c.session != sess {
		c.mu.Unlock()
		return
	}

	wasOpen := c.status == StatusOpen || c.status == StatusClosing
	c.session = nil
	c.status = StatusClosed
	c.registered = false
	c.stopKeepAliveLocked()
	c.mu.Unlock()

	cancelErr := err
	if cancelErr == nil {
		cancelErr = protocol.ErrClientClosed
	}
	c.correlator.CancelAll(fmt.Errorf("session with %s ended: %w", sess.addr, cancelErr))

	if !wasOpen {
		return
	}

	if err != nil {
		c.log.Warn("Lost connection to gateway", zap.String("addr", sess.addr), zap.Error(err))
		c.options.Metrics.ConnectionLost()
	} else {
		c.log.Info("Disconnected from gateway", zap.String("addr", sess.addr))
	}

	if fn := c.options.OnConnectionLost; fn != nil {
		fn(err)
	}
}

// DisableKeepAlive stops pinging the gateway while idle.
func (c *Client) DisableKeepAlive() {
	c.mu.Lock()
	c.options.KeepAlive = -1
	c.stopKeepAliveLocked()
	c.mu.Unlock()
}

func (c *Client) resetKeepAlive() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.options.KeepAlive < 0 || c.status != StatusOpen {
		return
	}

	c.stopKeepAliveLocked()
	c.keepalive = time.AfterFunc(c.options.KeepAlive, c.ping)
}

func (c *Client) stopKeepAliveLocked() {
	if c.keepalive != nil {
		c.keepalive.Stop()
		c.keepalive = nil
	}
}

func (c *Client) ping() {
	if c.Status() != StatusOpen {
		return
	}

	c.resetKeepAlive()

	ctx, cancel := context.WithTimeout(context.Background(), c.options.Timeout*time.Duration(c.correlator.maxRetries+2))
	defer cancel()

	if _, err := c.correlator.Execute(ctx, SenderFunc(c.write), catalog.PingRequest()); err != nil {
		c.log.Warn("Keepalive ping failed", zap.Error(err))
	}
}
