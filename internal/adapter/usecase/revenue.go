package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"agora-ads/internal/core/domain"
	"agora-ads/internal/core/port"
)

// RevenueCalculator rolls served impression revenue into publisher earnings
// and platform commission, and manages payout requests against the ledger.
// Unlike ad selection, its failures are administrative and propagate to the
// caller.
type RevenueCalculator struct {
	repo   port.AdRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewRevenueCalculator creates the calculator with the provided repository.
func NewRevenueCalculator(repo port.AdRepository, logger *slog.Logger) *RevenueCalculator {
	return &RevenueCalculator{repo: repo, logger: logger, now: time.Now}
}

// PublisherEarnings sums winning bids of served requests within [from, to]
// per ad unit and splits each sum by the publisher's revenue share. The
// publisher share plus the platform commission equals the gross revenue
// exactly; the split is computed in decimals, never floats.
func (r *RevenueCalculator) PublisherEarnings(ctx context.Context, publisherID int64, from, to time.Time) (*port.EarningsReport, error) {
	pub, err := r.repo.GetPublisher(ctx, publisherID)
	if err != nil {
		return nil, err
	}

	rows, err := r.repo.GetEarningsBreakdown(ctx, publisherID, from, to)
	if err != nil {
		return nil, err
	}

	share := decimal.NewFromFloat(pub.RevenueShare)
	report := &port.EarningsReport{
		PublisherID:  publisherID,
		From:         from,
		To:           to,
		RevenueShare: pub.RevenueShare,
		Units:        make([]port.AdUnitEarnings, 0, len(rows)),
	}

	for _, row := range rows {
		revenue := decimal.NewFromFloat(row.GrossAmount)
		earnings := revenue.Mul(share)
		commission := revenue.Sub(earnings)

		report.Units = append(report.Units, port.AdUnitEarnings{
			AdUnitID:           row.AdUnitID,
			AdUnitName:         row.AdUnitName,
			Impressions:        row.Impressions,
			Clicks:             row.Clicks,
			Revenue:            revenue,
			PublisherEarnings:  earnings,
			PlatformCommission: commission,
		})
		report.TotalRevenue = report.TotalRevenue.Add(revenue)
		report.PublisherEarnings = report.PublisherEarnings.Add(earnings)
		report.PlatformCommission = report.PlatformCommission.Add(commission)
	}
	return report, nil
}

// EarningsSummary returns the publisher's ledger state and whether the
// unpaid balance has reached the payment threshold.
func (r *RevenueCalculator) EarningsSummary(ctx context.Context, publisherID int64) (*port.EarningsSummary, error) {
	pub, err := r.repo.GetPublisher(ctx, publisherID)
	if err != nil {
		return nil, err
	}
	unpaid := pub.UnpaidEarnings()
	return &port.EarningsSummary{
		PublisherID:      pub.ID,
		TotalEarnings:    pub.TotalEarnings,
		PaidEarnings:     pub.PaidEarnings,
		UnpaidEarnings:   unpaid,
		PaymentThreshold: pub.PaymentThreshold,
		CanRequestPayout: unpaid >= pub.PaymentThreshold,
	}, nil
}

// RequestPayout reserves a payout of the given amount, defaulting to the
// full unpaid balance. The payout row starts pending and the publisher's
// paid earnings are incremented in the same transaction: an accounting
// reservation, released again if settlement fails. Threshold and balance
// violations are rejections with a reason, not errors.
func (r *RevenueCalculator) RequestPayout(ctx context.Context, publisherID int64, amount *float64) (*port.PayoutResult, error) {
	pub, err := r.repo.GetPublisher(ctx, publisherID)
	if err != nil {
		return nil, err
	}

	unpaid := pub.UnpaidEarnings()
	if unpaid < pub.PaymentThreshold {
		return &port.PayoutResult{Reason: "unpaid earnings below payment threshold"}, nil
	}

	amt := unpaid
	if amount != nil {
		amt = *amount
	}
	if amt <= 0 {
		return &port.PayoutResult{Reason: "payout amount must be positive"}, nil
	}
	if amt > unpaid {
		return &port.PayoutResult{Reason: "requested amount exceeds unpaid earnings"}, nil
	}

	payout := &domain.Payout{
		PublisherID: publisherID,
		Amount:      amt,
		Status:      domain.PayoutStatusPending,
		CreatedAt:   r.now(),
	}
	if err = r.repo.CreatePayout(ctx, payout); err != nil {
		return nil, err
	}

	r.logger.Info("payout reserved",
		slog.Int64("publisher", publisherID),
		slog.Float64("amount", amt))
	return &port.PayoutResult{Accepted: true, Payout: payout}, nil
}

// SettlePayout finalizes a pending payout. Failure releases the
// paid-earnings reservation made at request time; success leaves the ledger
// as reserved.
func (r *RevenueCalculator) SettlePayout(ctx context.Context, payoutID int64, succeeded bool) error {
	status := domain.PayoutStatusSettled
	if !succeeded {
		status = domain.PayoutStatusFailed
	}
	if err := r.repo.ResolvePayout(ctx, payoutID, status); err != nil {
		return err
	}
	r.logger.Info("payout resolved", slog.Int64("payout", payoutID), slog.String("status", status))
	return nil
}
