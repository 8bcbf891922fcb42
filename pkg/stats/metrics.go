package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "oracled"

var (
	// ProviderFetches counts provider fetches by provider and outcome.
	ProviderFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_fetches_total",
		Help:      "Price provider fetches by provider and result.",
	}, []string{"provider", "result"})

	// AggregatorResults counts aggregation outcomes (fresh, cached, rejected).
	AggregatorResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "aggregator_results_total",
		Help:      "Outcome of price aggregation rounds.",
	}, []string{"result"})

	// TrackedMarkets is the number of markets with a price history.
	TrackedMarkets = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tracked_markets",
		Help:      "Markets currently holding a price history.",
	})

	// Pushes counts price push attempts by outcome.
	Pushes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pushes_total",
		Help:      "On-chain price pushes by result.",
	}, []string{"result"})

	// TxAttempts counts transaction send attempts by outcome.
	TxAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tx_attempts_total",
		Help:      "Transaction send attempts by result.",
	}, []string{"result"})

	// PriorityFee is the last priority fee used, in micro-lamports per CU.
	PriorityFee = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "priority_fee_microlamports",
		Help:      "Priority fee of the last submission.",
	})

	// WSConnections is the number of open websocket connections.
	WSConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_connections",
		Help:      "Open websocket client connections.",
	})

	// WSMessages counts messages written to websocket clients by type.
	WSMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ws_messages_total",
		Help:      "Messages sent to websocket clients by type.",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(
		ProviderFetches,
		AggregatorResults,
		TrackedMarkets,
		Pushes,
		TxAttempts,
		PriorityFee,
		WSConnections,
		WSMessages,
	)
}
