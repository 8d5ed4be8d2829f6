package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// EscrowMetrics tracks the protocol's transition volume and how its contracts
// resolve. Outcome labels match the canonical outcome strings recorded on
// settled contracts.
type EscrowMetrics struct {
	transitions   *prometheus.CounterVec
	settlements   *prometheus.CounterVec
	slashes       *prometheus.CounterVec
	valueInEscrow prometheus.Gauge
}

var (
	escrowOnce     sync.Once
	escrowRegistry *EscrowMetrics
)

// Escrow returns the lazily-initialised escrow metrics registry.
func Escrow() *EscrowMetrics {
	escrowOnce.Do(func() {
		escrowRegistry = &EscrowMetrics{
			transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "escrow_transitions_total",
				Help: "Count of contract state transitions by event type.",
			}, []string{"event"}),
			settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "escrow_settlements_total",
				Help: "Count of settled contracts by outcome.",
			}, []string{"outcome"}),
			slashes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "escrow_slashes_total",
				Help: "Count of slashed contracts by reason.",
			}, []string{"reason"}),
			valueInEscrow: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "escrow_value_held",
				Help: "Total value currently locked across open contracts, in base units.",
			}),
		}
		prometheus.MustRegister(
			escrowRegistry.transitions,
			escrowRegistry.settlements,
			escrowRegistry.slashes,
			escrowRegistry.valueInEscrow,
		)
	})
	return escrowRegistry
}

// ObserveTransition records one lifecycle transition.
func (m *EscrowMetrics) ObserveTransition(event string) {
	if m == nil || event == "" {
		return
	}
	m.transitions.WithLabelValues(event).Inc()
}

// ObserveSettlement records a terminal outcome.
func (m *EscrowMetrics) ObserveSettlement(outcome string) {
	if m == nil || outcome == "" {
		return
	}
	m.settlements.WithLabelValues(outcome).Inc()
}

// ObserveSlash records a slash by reason.
func (m *EscrowMetrics) ObserveSlash(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.slashes.WithLabelValues(reason).Inc()
}

// AddValueHeld moves the locked-value gauge by delta (negative to release).
// Amounts wider than float64 saturate rather than panic.
func (m *EscrowMetrics) AddValueHeld(delta *big.Int) {
	if m == nil || delta == nil {
		return
	}
	value, _ := new(big.Float).SetInt(delta).Float64()
	m.valueInEscrow.Add(value)
}
