package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PriceResolveTotal counts display price resolutions by outcome
	// (ok, defaulted_schedule, expired, invalid).
	PriceResolveTotal *prometheus.CounterVec
	// PromoApplyTotal counts promo evaluations by outcome; rejected
	// evaluations are labelled with their reason code.
	PromoApplyTotal *prometheus.CounterVec
	// SettlementMismatchTotal counts checkout authorizations aborted because
	// the recomputed total diverged from the client-displayed total.
	SettlementMismatchTotal prometheus.Counter
	// ExpirySweepListings counts listings expired by the background sweep.
	ExpirySweepListings prometheus.Counter
)

// CountPriceResolve records a price resolution outcome. Safe to call before
// registration; increments are dropped until the collectors exist.
func CountPriceResolve(result string) {
	if PriceResolveTotal != nil {
		PriceResolveTotal.WithLabelValues(result).Inc()
	}
}

// CountPromoApply records a promo evaluation outcome.
func CountPromoApply(result string) {
	if PromoApplyTotal != nil {
		PromoApplyTotal.WithLabelValues(result).Inc()
	}
}

// CountSettlementMismatch records an aborted checkout authorization.
func CountSettlementMismatch() {
	if SettlementMismatchTotal != nil {
		SettlementMismatchTotal.Inc()
	}
}

// AddExpiredListings records listings expired by the sweep worker.
func AddExpiredListings(n int64) {
	if ExpirySweepListings != nil && n > 0 {
		ExpirySweepListings.Add(float64(n))
	}
}

// MustRegisterDomainMetrics initialises and registers the domain collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PriceResolveTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_resolve_total",
			Help:      "Count of display price resolutions by outcome.",
		}, []string{"result"}))
		PromoApplyTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_apply_total",
			Help:      "Count of promo code evaluations by outcome.",
		}, []string{"result"}))
		SettlementMismatchTotal = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_mismatch_total",
			Help:      "Checkout authorizations aborted on total mismatch.",
		}))
		ExpirySweepListings = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expiry_sweep_listings_total",
			Help:      "Listings expired by the schedule sweep worker.",
		}))
	})
}
