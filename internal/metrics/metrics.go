package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "lagoon"

// Metrics holds the collectors the client updates. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	transactions     *prometheus.CounterVec
	retries          prometheus.Counter
	connectionLosses prometheus.Counter
	pushes           *prometheus.CounterVec
}

// New creates the collectors and registers them with registry. A nil registry
// leaves them unregistered.
func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "transactions_total",
			Help:      "Completed transactions by message and result",
		}, []string{"message", "result"}),

		retries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "transaction_retries_total",
			Help:      "Transaction attempts repeated after a failure",
		}),

		connectionLosses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "connection_losses_total",
			Help:      "Sessions that ended without the caller closing them",
		}),

		pushes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pushes_total",
			Help:      "Unsolicited messages received by message",
		}, []string{"message"}),
	}
}

func (m *Metrics) Transaction(message, result string) {
	if m == nil {
		return
	}

	m.transactions.WithLabelValues(message, result).Inc()
}

func (m *Metrics) Retry() {
	if m == nil {
		return
	}

	m.retries.Inc()
}

func (m *Metrics) ConnectionLost() {
	if m == nil {
		return
	}

	m.connectionLosses.Inc()
}

func (m *Metrics) Push(message string) {
	if m == nil {
		return
	}

	m.pushes.WithLabelValues(message).Inc()
}
