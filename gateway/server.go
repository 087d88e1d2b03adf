package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	reuseport "github.com/kavu/go_reuseport"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/lagoon/catalog"
	"github.com/luma/lagoon/protocol"
	"github.com/luma/lagoon/transport"
)

const PrimingTimeout = 10 * time.Second

// Server emulates a gateway. It accepts any number of clients, answers their
// requests from a State and pushes changes to clients registered with
// AddClient.
type Server struct {
	cancel     context.CancelFunc
	stopWaiter sync.WaitGroup

	addr     string
	listener net.Listener
	state    *catalog.State

	mu       sync.Mutex
	conns    map[*gatewayConn]struct{}
	faults   Faults
	requests map[protocol.Code]int

	log   *zap.Logger
	trace bool
}

type gatewayConn struct {
	conn  *transport.TCPConn
	ready chan struct{}

	mu         sync.Mutex
	clientID   uint32
	registered bool
}

func New(options Options) *Server {
	state := options.State
	if state == nil {
		state = catalog.SampleState()
	}

	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &Server{
		addr:     net.JoinHostPort(options.Host, strconv.Itoa(options.Port)),
		state:    state,
		conns:    make(map[*gatewayConn]struct{}),
		requests: make(map[protocol.Code]int),
		log:      log,
		trace:    options.Trace,
	}
}

// Listen binds the listening socket and starts accepting clients in the
// background. It returns once the socket is bound.
func (s *Server) Listen(parentCtx context.Context) error {
	listener, err := reuseport.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	ctx, cancel := context.WithCancel(parentCtx)
	s.cancel = cancel
	s.listener = listener

	s.log.Info("Gateway emulator listening", zap.Stringer("addr", listener.Addr()))

	go func() {
		<-ctx.Done()

		if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.log.Warn("Listener did not close cleanly", zap.Error(err))
		}
	}()

	s.stopWaiter.Add(1)
	go func() {
		defer s.stopWaiter.Done()
		s.acceptLoop(listener)
	}()

	return nil
}

// Addr is the bound address. It is only valid after Listen.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Port is the bound port. It is only valid after Listen.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

func (s *Server) State() *catalog.State {
	return s.state
}

func (s *Server) SetFaults(faults Faults) {
	s.mu.Lock()
	s.faults = faults
	s.mu.Unlock()
}

// Requests returns how many requests with code were received, including
// dropped ones.
func (s *Server) Requests(code protocol.Code) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.requests[code]
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.conns)
}

func (s *Server) acceptLoop(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				// The listener was closed while we were waiting for new connections
				// that's fine.
				s.log.Info("Stopped accepting new connections")
				return
			}

			s.log.Error("Failed to accept connection", zap.Error(err))
			return
		}

		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	log := s.log.With(zap.Stringer("remote", conn.RemoteAddr()))

	if err := readPrimingToken(conn); err != nil {
		log.Warn("Client did not prime the connection", zap.Error(err))
		_ = conn.Close()
		return
	}

	gc := &gatewayConn{ready: make(chan struct{})}
	s.addConn(gc)

	gc.conn = transport.NewTCPConn(conn, transport.Options{
		OnMessage: func(msg protocol.Message) {
			<-gc.ready
			s.handle(gc, msg)
		},
		OnClose: func(err error) {
			s.removeConn(gc)
			log.Debug("Client disconnected", zap.Error(err))
		},
		Trace: s.trace,
		Log:   log.Named("conn"),
	})
	close(gc.ready)

	log.Debug("Client connected")
}

func readPrimingToken(conn net.Conn) error {
	if err := conn.SetReadDeadline(time.Now().Add(PrimingTimeout)); err != nil {
		return err
	}

	token := make([]byte, len(protocol.PrimingToken))
	if _, err := io.ReadFull(conn, token); err != nil {
		return err
	}

	if !bytes.Equal(token, protocol.PrimingToken) {
		return fmt.Errorf("unexpected priming token %q: %w", token, protocol.ErrMalformed)
	}

	return conn.SetReadDeadline(time.Time{})
}

// Push sends a message with id 0 to every client registered for pushes.
func (s *Server) Push(code protocol.Code, payload []byte) (err error) {
	for _, gc := range s.snapshot() {
		if !gc.isRegistered() {
			continue
		}

		if !gc.conn.Write(protocol.NewMessage(code, payload)) {
			err = multierr.Append(err, fmt.Errorf("pushing %s to client %d: %w", code, gc.id(), protocol.ErrClosed))
		}
	}

	return err
}

// PushState pushes a known push message built from the current state.
func (s *Server) PushState(code protocol.Code) error {
	e, ok := catalog.Lookup(code)
	if !ok || !e.Push {
		return protocol.Validationf("%s is not a push", code)
	}

	return s.Push(code, catalog.Encode(e, s.state))
}

// Broadcast writes msg as is to every connected client, registered or not.
func (s *Server) Broadcast(msg protocol.Message) (err error) {
	for _, gc := range s.snapshot() {
		if !gc.conn.Write(msg) {
			err = multierr.Append(err, fmt.Errorf("writing %s: %w", msg, protocol.ErrClosed))
		}
	}

	return err
}

// Disconnect drops every client connection but keeps listening.
func (s *Server) Disconnect() (err error) {
	for _, gc := range s.snapshot() {
		err = multierr.Append(err, gc.conn.Close())
	}

	return err
}

// Close stops listening and drops every client.
func (s *Server) Close() error {
	s.log.Info("Stopping gateway emulator")

	if s.cancel != nil {
		s.cancel()
	}

	var err error
	if s.listener != nil {
		if cerr := s.listener.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	}

	s.stopWaiter.Wait()

	return multierr.Append(err, s.Disconnect())
}

func (s *Server) snapshot() []*gatewayConn {
	s.mu.Lock()
	defer s.mu.Unlock()

	conns := make([]*gatewayConn, 0, len(s.conns))
	for gc := range s.conns {
		select {
		case <-gc.ready:
			conns = append(conns, gc)
		default:
		}
	}

	return conns
}

func (s *Server) addConn(gc *gatewayConn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conns[gc] = struct{}{}
}

func (s *Server) removeConn(gc *gatewayConn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conns, gc)
}

func (gc *gatewayConn) register(clientID uint32) {
	gc.mu.Lock()
	gc.clientID = clientID
	gc.registered = true
	gc.mu.Unlock()
}

func (gc *gatewayConn) unregister() {
	gc.mu.Lock()
	gc.registered = false
	gc.mu.Unlock()
}

func (gc *gatewayConn) isRegistered() bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	return gc.registered
}

func (gc *gatewayConn) id() uint32 {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	return gc.clientID
}
