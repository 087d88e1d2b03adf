package gateway

import (
	"go.uber.org/zap"

	"github.com/luma/lagoon/catalog"
	"github.com/luma/lagoon/protocol"
)

type Options struct {
	// The host and port to listen on. A port of zero picks a free one.
	Host string
	Port int

	// State answers requests and is updated by commands. Defaults to
	// catalog.SampleState().
	State *catalog.State

	// Trace will log every frame at debug level. This is only useful in local
	// debugging
	Trace bool

	Log *zap.Logger
}

// Faults makes the emulator misbehave for testing clients. The counters apply
// to the next requests received, across all connections.
type Faults struct {
	// RejectLogin answers every LocalLogin with LoginRejected.
	RejectLogin bool

	// DropResponses is how many requests are ignored without a reply.
	DropResponses int

	// ErrorReplies is how many requests are answered with ErrorCode instead of
	// their response.
	ErrorReplies int
	ErrorCode    protocol.Code
}
