package client

import (
	"time"

	"go.uber.org/zap"

	"github.com/luma/lagoon/internal/metrics"
)

const (
	DefaultPort      = 80
	DefaultKeepAlive = 30 * time.Second
)

type Options struct {
	// Timeout bounds each request attempt. Defaults to 10s.
	Timeout time.Duration

	// MaxRetries is how many times a failed request is repeated. Defaults to 1
	// when zero; use a negative value to disable retries.
	MaxRetries int

	// RetryDelay is the base backoff between attempts. Defaults to 2s.
	RetryDelay time.Duration

	// KeepAlive is the idle interval after which a Ping is sent. Defaults to
	// 30s; a negative value disables keepalive.
	KeepAlive time.Duration

	// OnConnectionLost is called once whenever an open session ends. err is
	// nil when the session ended because Close was called.
	OnConnectionLost func(err error)

	// Trace logs every frame at debug level.
	Trace bool

	Metrics *metrics.Metrics
	Log     *zap.Logger
}

func (o *Options) setDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}

	if o.MaxRetries == 0 {
		o.MaxRetries = DefaultMaxRetries
	}

	if o.RetryDelay == 0 {
		o.RetryDelay = DefaultRetryDelay
	}

	if o.KeepAlive == 0 {
		o.KeepAlive = DefaultKeepAlive
	}

	if o.Log == nil {
		o.Log = zap.NewNop()
	}
}
