package env

import (
	"context"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/luma/lagoon/client"
)

type Config struct {
	// Gateway to connect to. Host is usually supplied by discovery or a flag.
	Host string `env:"LAGOON_HOST"`
	Port int    `env:"LAGOON_PORT,default=80"`

	Timeout    time.Duration `env:"LAGOON_TIMEOUT,default=10s"`
	MaxRetries int           `env:"LAGOON_MAX_RETRIES,default=1"`
	RetryDelay time.Duration `env:"LAGOON_RETRY_DELAY,default=2s"`
	KeepAlive  time.Duration `env:"LAGOON_KEEPALIVE,default=30s"`

	LogLevel string `env:"LAGOON_LOG_LEVEL,default=info"`

	HTTPPort  int  `env:"LAGOON_HTTP_PORT,default=7362"`
	DebugHTTP bool `env:"LAGOON_DEBUG_HTTP"`
	Trace     bool `env:"LAGOON_TRACE"`
}

func LoadConfig(ctx context.Context) (*Config, error) {
	config := Config{}

	if err := godotenv.Load(".env.local"); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Addr is the gateway address as host:port.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ClientOptions maps the config onto client options. A zero retry count or
// keepalive is kept as "disabled".
func (c *Config) ClientOptions() client.Options {
	maxRetries := c.MaxRetries
	if maxRetries == 0 {
		maxRetries = -1
	}

	keepAlive := c.KeepAlive
	if keepAlive == 0 {
		keepAlive = -1
	}

	return client.Options{
		Timeout:    c.Timeout,
		MaxRetries: maxRetries,
		RetryDelay: c.RetryDelay,
		KeepAlive:  keepAlive,
		Trace:      c.Trace,
	}
}
