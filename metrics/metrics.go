package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ===============================
// VALIDATION / SETTLEMENT
// ===============================
var (
	TxValidateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "scroogecoin",
		Subsystem: "tx",
		Name:      "validate_duration_ms",
		Help:      "Time spent validating one transaction against the pool",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 15),
	})

	EpochSettleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "scroogecoin",
		Subsystem: "epoch",
		Name:      "settle_duration_ms",
		Help:      "Time spent settling one epoch",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 15),
	})

	TxAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "scroogecoin",
		Subsystem: "tx",
		Name:      "accepted_total",
		Help:      "Transactions accepted into an epoch",
	})

	TxRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scroogecoin",
			Subsystem: "tx",
			Name:      "rejected_total",
			Help:      "Transactions rejected during settlement, by reason",
		},
		[]string{"reason"},
	)

	EpochHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scroogecoin",
		Subsystem: "epoch",
		Name:      "height",
		Help:      "Height of the last settled epoch",
	})
)

// ===============================
// POOLS
// ===============================
var (
	UTXOPoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scroogecoin",
		Subsystem: "utxo",
		Name:      "pool_size",
		Help:      "Number of unspent outputs in the working pool",
	})

	MempoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scroogecoin",
		Subsystem: "mempool",
		Name:      "size",
		Help:      "Current number of candidate transactions in mempool",
	})
)

// ===============================
// CRYPTO (CPU HEAVY)
// ===============================
var (
	TxVerifySigDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "scroogecoin",
		Subsystem: "crypto",
		Name:      "verify_signature_duration_ms",
		Help:      "Time spent verifying ed25519 signatures",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 15),
	})
)

var registerOnce sync.Once

// ===============================
// REGISTER ALL
// ===============================
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(
			TxValidateDuration,
			EpochSettleDuration,
			TxAccepted,
			TxRejected,
			EpochHeight,

			UTXOPoolSize,
			MempoolSize,

			TxVerifySigDuration,
		)
	})
}

// ===============================
// HELPER
// ===============================
func ObserveDuration(h prometheus.Observer, start time.Time) {
	h.Observe(float64(time.Since(start).Microseconds()) / 1000)
}
