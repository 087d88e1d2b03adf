package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luma/lagoon/protocol"
)

const (
	ReadBufferSize = 4096
	WriteQueueSize = 127

	DefaultDialTimeout = 10 * time.Second
)

// TCPConn owns one stream to the gateway. A read loop frames incoming bytes and
// hands messages to OnMessage; a write loop drains the write queue.
type TCPConn struct {
	ctx        context.Context
	cancel     context.CancelFunc
	loopWaiter sync.WaitGroup

	conn   net.Conn
	framer Framer

	writeQueue chan []byte

	errOnce      sync.Once
	closeErr     error
	callerClosed bool
	done         chan struct{}

	onMessage func(protocol.Message)
	onClose   func(error)

	log   *zap.Logger
	trace bool
}

// Dial connects to the gateway at addr and starts the read and write loops.
func Dial(ctx context.Context, addr string, options Options) (*TCPConn, error) {
	timeout := options.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}

	d := net.Dialer{Timeout: timeout}

	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %v: %w", addr, err, protocol.ErrConnection)
	}

	return NewTCPConn(conn, options), nil
}

// NewTCPConn wraps an established stream and starts its loops.
func NewTCPConn(conn net.Conn, options Options) *TCPConn {
	ctx, cancel := context.WithCancel(context.Background())

	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	t := &TCPConn{
		ctx:        ctx,
		cancel:     cancel,
		conn:       conn,
		writeQueue: make(chan []byte, WriteQueueSize),
		done:       make(chan struct{}),
		onMessage:  options.OnMessage,
		onClose:    options.OnClose,
		log:        log.With(zap.Stringer("remote", conn.RemoteAddr())),
		trace:      options.Trace,
	}

	if t.onMessage == nil {
		t.onMessage = func(protocol.Message) {}
	}

	if t.onClose == nil {
		t.onClose = func(error) {}
	}

	t.start()

	return t
}

func (t *TCPConn) start() {
	t.loopWaiter.Add(2)

	go func() {
		defer t.loopWaiter.Done()
		t.ReadLoop()
	}()

	go func() {
		defer t.loopWaiter.Done()
		t.WriteLoop()
	}()

	go func() {
		t.loopWaiter.Wait()
		t.finish()
	}()
}

// Write queues msg for the write loop. It returns false, without queueing, if
// the connection is closing.
func (t *TCPConn) Write(msg protocol.Message) bool {
	if t.trace {
		t.log.Debug("Queueing frame", zap.Stringer("message", msg))
	}

	return t.WriteRaw(msg.Marshal())
}

// WriteRaw queues bytes that bypass framing, such as the priming token.
func (t *TCPConn) WriteRaw(data []byte) bool {
	if !t.isRunning() {
		return false
	}

	select {
	case t.writeQueue <- data:
		return true

	case <-t.ctx.Done():
		return false
	}
}

// Close stops both loops and waits for the connection to be fully torn down.
// OnClose is called with a nil error, unless a failure had already started the
// teardown.
func (t *TCPConn) Close() error {
	t.errOnce.Do(func() {
		t.callerClosed = true
	})
	t.shutdown(nil)

	<-t.done

	return nil
}

// Done is closed once the connection is torn down and OnClose has returned.
func (t *TCPConn) Done() <-chan struct{} {
	return t.done
}

func (t *TCPConn) ReadLoop() {
	log := t.log.Named("readLoop")
	buf := make([]byte, ReadBufferSize)

	defer log.Debug("Read loop exited")

	for {
		n, err := t.conn.Read(buf)

		if n > 0 {
			messages, ferr := t.framer.Feed(buf[:n])

			for _, msg := range messages {
				if t.trace {
					log.Debug("Received frame", zap.Stringer("message", msg))
				}

				t.onMessage(msg)
			}

			if ferr != nil {
				log.Error("Dropping connection after unframeable data", zap.Error(ferr))
				t.shutdown(ferr)
				return
			}
		}

		if err != nil {
			if t.isRunning() {
				t.shutdown(readError(err))
			}

			return
		}
	}
}

func (t *TCPConn) WriteLoop() {
	log := t.log.Named("writeLoop")

	defer log.Debug("Write loop exited")

	for {
		select {
		case <-t.ctx.Done():
			return

		case data := <-t.writeQueue:
			if _, err := t.conn.Write(data); err != nil {
				log.Warn("Failed to write to gateway", zap.Int("bytes", len(data)), zap.Error(err))
				t.shutdown(fmt.Errorf("writing to gateway: %v: %w", err, protocol.ErrConnection))
				return
			}
		}
	}
}

func (t *TCPConn) shutdown(err error) {
	t.errOnce.Do(func() {
		t.closeErr = err
	})

	t.cancel()

	if err := t.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		t.log.Warn("Connection did not close cleanly", zap.Error(err))
	}
}

func (t *TCPConn) finish() {
	if n := t.framer.Buffered(); n > 0 {
		t.log.Warn("Discarding partial message", zap.Int("bytes", n))
		t.framer.Reset()
	}

	err := t.closeErr
	if t.callerClosed {
		err = nil
	} else if err == nil {
		err = protocol.ErrClosed
	}

	t.onClose(err)
	close(t.done)
}

// isRunning returns true until the connection starts shutting down
func (t *TCPConn) isRunning() bool {
	select {
	case <-t.ctx.Done():
		// if we can read on this channel then it's been closed
		return false

	default:
		return true
	}
}

func readError(err error) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("gateway closed the connection: %w", protocol.ErrConnection)
	}

	return fmt.Errorf("reading from gateway: %v: %w", err, protocol.ErrConnection)
}
