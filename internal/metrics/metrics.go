package metrics

import "github.com/prometheus/client_golang/prometheus"

// Selection outcome labels.
const (
	OutcomeWon          = "won"
	OutcomeNoEligible   = "no_eligible"
	OutcomeCapped       = "capped"
	OutcomeBelowReserve = "below_reserve"
	OutcomeUnitInactive = "unit_inactive"
	OutcomeError        = "error"
)

// AdMetrics instruments the selection pipeline and the tracking callbacks.
// A nil *AdMetrics is valid and records nothing, so tests can pass nil.
type AdMetrics struct {
	selections    *prometheus.CounterVec
	clearingPrice prometheus.Histogram
	confirmations *prometheus.CounterVec
}

// NewAdMetrics registers the ad-serving metrics on the provided registerer.
func NewAdMetrics(reg prometheus.Registerer) *AdMetrics {
	if reg == nil {
		return &AdMetrics{}
	}
	selections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ad_selections_total",
		Help: "Placement decisions by outcome.",
	}, []string{"outcome"})
	clearingPrice := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ad_clearing_price",
		Help:    "Clearing price of won auctions.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
	confirmations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ad_confirmations_total",
		Help: "Impression and click confirmation callbacks.",
	}, []string{"kind"})
	reg.MustRegister(selections, clearingPrice, confirmations)
	return &AdMetrics{
		selections:    selections,
		clearingPrice: clearingPrice,
		confirmations: confirmations,
	}
}

// ObserveSelection counts one placement decision with the given outcome.
func (m *AdMetrics) ObserveSelection(outcome string) {
	if m == nil || m.selections == nil {
		return
	}
	m.selections.WithLabelValues(outcome).Inc()
}

// ObserveClearingPrice records the clearing price of a won auction.
func (m *AdMetrics) ObserveClearingPrice(price float64) {
	if m == nil || m.clearingPrice == nil {
		return
	}
	m.clearingPrice.Observe(price)
}

// IncConfirmation counts one tracking callback of the given kind
// ("impression" or "click").
func (m *AdMetrics) IncConfirmation(kind string) {
	if m == nil || m.confirmations == nil {
		return
	}
	m.confirmations.WithLabelValues(kind).Inc()
}
