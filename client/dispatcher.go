package client

import (
	"sync"

	"go.uber.org/zap"

	"github.com/luma/lagoon/catalog"
	"github.com/luma/lagoon/internal/metrics"
	"github.com/luma/lagoon/protocol"
)

const ListenerQueueSize = 255

// Listener receives an unsolicited message. For state changing pushes the
// shared state has already been updated when it runs.
type Listener func(msg protocol.Message)

// Dispatcher fans pushes and unclaimed responses out to listeners subscribed to
// their code. Listeners run on a worker goroutine, never on the read loop.
type Dispatcher struct {
	mu        sync.Mutex
	listeners map[protocol.Code]map[uint64]Listener
	nextToken uint64

	state *catalog.State
	queue chan func()

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}

	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewDispatcher(state *catalog.State, m *metrics.Metrics, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}

	d := &Dispatcher{
		listeners: make(map[protocol.Code]map[uint64]Listener),
		state:     state,
		queue:     make(chan func(), ListenerQueueSize),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		metrics:   m,
		log:       log,
	}

	go d.run()

	return d
}

// Subscribe registers fn for code. The returned func removes it and may be
// called more than once.
func (d *Dispatcher) Subscribe(code protocol.Code, fn Listener) (unsubscribe func()) {
	d.mu.Lock()
	d.nextToken++
	token := d.nextToken

	set, ok := d.listeners[code]
	if !ok {
		set = make(map[uint64]Listener)
		d.listeners[code] = set
	}
	set[token] = fn
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()

			delete(d.listeners[code], token)
			if len(d.listeners[code]) == 0 {
				delete(d.listeners, code)
			}
		})
	}
}

// Len returns how many codes have at least one listener.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.listeners)
}

// Dispatch applies state changing pushes and queues every listener of msg.Code.
func (d *Dispatcher) Dispatch(msg protocol.Message) {
	log := d.log.With(zap.Stringer("message", msg.Code), zap.Uint16("id", msg.ID))

	if e, ok := catalog.Lookup(msg.Code); ok && e.Push {
		d.metrics.Push(msg.Code.String())

		if e.StateChanged {
			if err := catalog.Decode(msg, d.state); err != nil {
				log.Error("Dropping push that failed to decode", zap.Error(err))
				return
			}
		}
	}

	d.mu.Lock()
	set := d.listeners[msg.Code]
	listeners := make([]Listener, 0, len(set))
	for _, fn := range set {
		listeners = append(listeners, fn)
	}
	d.mu.Unlock()

	if len(listeners) == 0 {
		log.Debug("No listener for message")
		return
	}

	for _, fn := range listeners {
		fn := fn
		job := func() {
			d.call(fn, msg)
		}

		select {
		case d.queue <- job:
		default:
			log.Warn("Listener queue full, running listener on its own goroutine")
			go job()
		}
	}
}

// Close stops the worker after the queued listeners have run.
func (d *Dispatcher) Close() {
	d.stopOnce.Do(func() {
		close(d.stop)
	})

	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for {
		select {
		case job := <-d.queue:
			job()

		case <-d.stop:
			for {
				select {
				case job := <-d.queue:
					job()
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) call(fn Listener, msg protocol.Message) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Listener panicked", zap.Stringer("message", msg.Code), zap.Any("panic", r))
		}
	}()

	fn(msg)
}
