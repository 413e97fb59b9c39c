package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"agora-ads/internal/core/domain"
	"agora-ads/internal/core/port"
)

func newTestCalculator(repo *fakeRepo) *RevenueCalculator {
	r := NewRevenueCalculator(repo, testLogger())
	r.now = func() time.Time { return time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC) }
	return r
}

func ledgerPublisher() *domain.Publisher {
	return &domain.Publisher{
		ID:               1,
		Name:             "Publisher One",
		RevenueShare:     0.7,
		TotalEarnings:    120,
		PaidEarnings:     50,
		PaymentThreshold: 50,
	}
}

func TestEarningsSummary(t *testing.T) {
	repo := &fakeRepo{pub: ledgerPublisher()}
	r := newTestCalculator(repo)

	sum, err := r.EarningsSummary(context.Background(), 1)
	require.NoError(t, err)
	require.InDelta(t, 70.0, sum.UnpaidEarnings, 1e-9)
	require.True(t, sum.CanRequestPayout)
}

func TestEarningsSummaryBelowThreshold(t *testing.T) {
	pub := ledgerPublisher()
	pub.PaidEarnings = 100
	repo := &fakeRepo{pub: pub}
	r := newTestCalculator(repo)

	sum, err := r.EarningsSummary(context.Background(), 1)
	require.NoError(t, err)
	require.InDelta(t, 20.0, sum.UnpaidEarnings, 1e-9)
	require.False(t, sum.CanRequestPayout)
}

func TestPublisherEarningsSplitIsExact(t *testing.T) {
	repo := &fakeRepo{
		pub: ledgerPublisher(),
		breakdown: []port.AdUnitRevenue{
			{AdUnitID: 1, AdUnitName: "Header", Impressions: 300, Clicks: 12, GrossAmount: 100.10},
			{AdUnitID: 2, AdUnitName: "Sidebar", Impressions: 150, Clicks: 4, GrossAmount: 49.90},
		},
	}
	r := newTestCalculator(repo)

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	report, err := r.PublisherEarnings(context.Background(), 1, from, to)
	require.NoError(t, err)
	require.Len(t, report.Units, 2)

	// earnings plus commission equals gross revenue exactly, per unit and
	// in total
	for _, u := range report.Units {
		require.True(t, u.PublisherEarnings.Add(u.PlatformCommission).Equal(u.Revenue),
			"unit %d split does not add up", u.AdUnitID)
	}
	require.True(t, report.TotalRevenue.Equal(decimal.NewFromFloat(150.0)))
	require.True(t, report.PublisherEarnings.Add(report.PlatformCommission).Equal(report.TotalRevenue))
	require.True(t, report.PublisherEarnings.Equal(decimal.NewFromFloat(105.0)))
}

func TestRequestPayoutDefaultsToFullBalance(t *testing.T) {
	repo := &fakeRepo{pub: ledgerPublisher()}
	r := newTestCalculator(repo)

	res, err := r.RequestPayout(context.Background(), 1, nil)
	require.NoError(t, err)
	require.True(t, res.Accepted)
	require.InDelta(t, 70.0, res.Payout.Amount, 1e-9)
	require.Equal(t, domain.PayoutStatusPending, res.Payout.Status)

	// the reservation moved the balance: a second request is below threshold
	res, err = r.RequestPayout(context.Background(), 1, nil)
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, "unpaid earnings below payment threshold", res.Reason)
}

func TestRequestPayoutExceedsUnpaid(t *testing.T) {
	repo := &fakeRepo{pub: ledgerPublisher()}
	r := newTestCalculator(repo)

	amount := 80.0
	res, err := r.RequestPayout(context.Background(), 1, &amount)
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, "requested amount exceeds unpaid earnings", res.Reason)
	require.Empty(t, repo.payouts)
}

func TestRequestPayoutRejectsNonPositive(t *testing.T) {
	repo := &fakeRepo{pub: ledgerPublisher()}
	r := newTestCalculator(repo)

	amount := 0.0
	res, err := r.RequestPayout(context.Background(), 1, &amount)
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, "payout amount must be positive", res.Reason)
}

func TestRequestPayoutBelowThreshold(t *testing.T) {
	pub := ledgerPublisher()
	pub.PaidEarnings = 90 // unpaid 30, threshold 50
	repo := &fakeRepo{pub: pub}
	r := newTestCalculator(repo)

	res, err := r.RequestPayout(context.Background(), 1, nil)
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, "unpaid earnings below payment threshold", res.Reason)
}

func TestSettlePayoutFailureReleasesReservation(t *testing.T) {
	repo := &fakeRepo{pub: ledgerPublisher()}
	r := newTestCalculator(repo)

	amount := 60.0
	res, err := r.RequestPayout(context.Background(), 1, &amount)
	require.NoError(t, err)
	require.True(t, res.Accepted)
	require.InDelta(t, 110.0, repo.pub.PaidEarnings, 1e-9)

	require.NoError(t, r.SettlePayout(context.Background(), res.Payout.ID, false))
	require.Equal(t, domain.PayoutStatusFailed, repo.payouts[0].Status)
	// the balance is available for payout again
	require.InDelta(t, 50.0, repo.pub.PaidEarnings, 1e-9)
}

func TestSettlePayoutSuccessKeepsReservation(t *testing.T) {
	repo := &fakeRepo{pub: ledgerPublisher()}
	r := newTestCalculator(repo)

	res, err := r.RequestPayout(context.Background(), 1, nil)
	require.NoError(t, err)

	require.NoError(t, r.SettlePayout(context.Background(), res.Payout.ID, true))
	require.Equal(t, domain.PayoutStatusSettled, repo.payouts[0].Status)
	require.InDelta(t, 120.0, repo.pub.PaidEarnings, 1e-9)

	// settling twice is rejected
	require.ErrorIs(t, r.SettlePayout(context.Background(), res.Payout.ID, true), port.ErrPayoutNotPending)
}

func TestSettleUnknownPayout(t *testing.T) {
	repo := &fakeRepo{pub: ledgerPublisher()}
	r := newTestCalculator(repo)
	require.ErrorIs(t, r.SettlePayout(context.Background(), 42, true), port.ErrPayoutNotFound)
}
