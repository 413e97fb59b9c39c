package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"agora-ads/internal/core/domain"
)

// RevenueCalculator rolls served impression revenue into publisher earnings
// and handles payout requests against the accumulated ledger.
type RevenueCalculator interface {
	// PublisherEarnings returns a per-ad-unit revenue breakdown for the
	// publisher over [from, to]. For every breakdown the publisher share
	// plus the platform commission equals the gross revenue exactly.
	PublisherEarnings(ctx context.Context, publisherID int64, from, to time.Time) (*EarningsReport, error)

	// EarningsSummary returns the publisher's running totals and whether
	// the unpaid balance has reached the payment threshold.
	EarningsSummary(ctx context.Context, publisherID int64) (*EarningsSummary, error)

	// RequestPayout reserves a payout of the given amount, or of the full
	// unpaid balance when amount is nil. Requests below the threshold or
	// above the unpaid balance come back rejected with a reason, not as an
	// error.
	RequestPayout(ctx context.Context, publisherID int64, amount *float64) (*PayoutResult, error)

	// SettlePayout finalizes a pending payout. A failed settlement releases
	// the paid-earnings reservation made at request time.
	SettlePayout(ctx context.Context, payoutID int64, succeeded bool) error
}

// EarningsReport is a per-ad-unit earnings breakdown plus totals. Monetary
// fields are decimals so share splits add up exactly.
type EarningsReport struct {
	PublisherID        int64             `json:"publisherId"`
	From               time.Time         `json:"from"`
	To                 time.Time         `json:"to"`
	RevenueShare       float64           `json:"revenueShare"`
	Units              []AdUnitEarnings  `json:"units"`
	TotalRevenue       decimal.Decimal   `json:"totalRevenue"`
	PublisherEarnings  decimal.Decimal   `json:"publisherEarnings"`
	PlatformCommission decimal.Decimal   `json:"platformCommission"`
}

// AdUnitEarnings is one ad unit's row in an earnings report.
type AdUnitEarnings struct {
	AdUnitID           int64           `json:"adUnitId"`
	AdUnitName         string          `json:"adUnitName"`
	Impressions        int64           `json:"impressions"`
	Clicks             int64           `json:"clicks"`
	Revenue            decimal.Decimal `json:"revenue"`
	PublisherEarnings  decimal.Decimal `json:"publisherEarnings"`
	PlatformCommission decimal.Decimal `json:"platformCommission"`
}

// EarningsSummary reports the publisher ledger state for the dashboard.
type EarningsSummary struct {
	PublisherID      int64   `json:"publisherId"`
	TotalEarnings    float64 `json:"totalEarnings"`
	PaidEarnings     float64 `json:"paidEarnings"`
	UnpaidEarnings   float64 `json:"unpaidEarnings"`
	PaymentThreshold float64 `json:"paymentThreshold"`
	CanRequestPayout bool    `json:"canRequestPayout"`
}

// PayoutResult is the outcome of a payout request. Rejections carry a
// human-readable reason instead of surfacing as errors.
type PayoutResult struct {
	Accepted bool           `json:"accepted"`
	Reason   string         `json:"reason,omitempty"`
	Payout   *domain.Payout `json:"payout,omitempty"`
}
