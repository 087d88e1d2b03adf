package transport

import (
	"time"

	"go.uber.org/zap"

	"github.com/luma/lagoon/protocol"
)

type Options struct {
	// OnMessage is called from the read loop for every framed message, in the
	// order they arrived. It must not block for long.
	OnMessage func(msg protocol.Message)

	// OnClose is called once, after the read loop has stopped. err is nil when
	// Close was called, otherwise it wraps protocol.ErrConnection or
	// protocol.ErrMalformed.
	OnClose func(err error)

	// DialTimeout bounds connection establishment. Defaults to 10s.
	DialTimeout time.Duration

	// Trace will log every frame at debug level. This is only useful in local
	// debugging
	Trace bool

	Log *zap.Logger
}
