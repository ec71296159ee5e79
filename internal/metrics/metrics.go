// Package metrics defines the Prometheus collectors shared by the service and the populate job.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lpscope"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Calculations  *prometheus.CounterVec
	ChainCalls    *prometheus.HistogramVec
	PoolsIngested prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Position valuations by outcome status.",
		}, []string{"status"}),
		ChainCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chain_call_duration_seconds",
			Help:      "Latency of read-only chain calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "result"}),
		PoolsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pools_ingested_total",
			Help:      "Pool records written to the registry sink.",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.Calculations, m.ChainCalls, m.PoolsIngested} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// ObserveCalculation counts one valuation outcome.
func (m *Metrics) ObserveCalculation(status string) {
	if m == nil {
		return
	}
	m.Calculations.WithLabelValues(status).Inc()
}

// ObserveChainCall records the latency of one contract call. Its signature
// matches dex.CallObserver.
func (m *Metrics) ObserveChainCall(method string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ChainCalls.WithLabelValues(method, result).Observe(elapsed.Seconds())
}

// AddPoolsIngested counts pools written by the populate job.
func (m *Metrics) AddPoolsIngested(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PoolsIngested.Add(float64(n))
}
