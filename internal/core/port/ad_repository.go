package port

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"agora-ads/internal/core/domain"
)

var (
	ErrRequestNotFound   = errors.New("ad request not found")
	ErrPublisherNotFound = errors.New("publisher not found")
	ErrPayoutNotFound    = errors.New("payout not found")
	ErrPayoutNotPending  = errors.New("payout is not pending")
)

// CandidateAd is an advertisement pre-filtered by the repository (format
// match, active status, live flight window, under delivery caps, campaign
// active) together with the rows the in-process filters need.
type CandidateAd struct {
	Ad       domain.Advertisement
	Campaign *domain.Campaign
	Business *domain.Business
	// TodaySpend is the campaign's accumulated winning-bid spend for served
	// requests since server-local midnight. Zero when the ad has no campaign.
	TodaySpend float64
}

// AdUnitRevenue is one row of a publisher earnings breakdown: served
// impression revenue aggregated per ad unit over a period.
type AdUnitRevenue struct {
	AdUnitID    int64
	AdUnitName  string
	Impressions int64
	Clicks      int64
	GrossAmount float64 // sum of winning bids of served requests
}

// AdRepository is the outbound persistence port for the ad engine.
// Implementations must apply the confirmation updates of MarkServed and
// MarkClicked atomically and must be safe for concurrent use.
type AdRepository interface {
	// GetAdUnit returns the ad unit or nil when it does not exist.
	GetAdUnit(ctx context.Context, id int64) (*domain.AdUnit, error)

	// GetCandidateAds returns ads compatible with the given format that are
	// active, inside their flight window and under their delivery caps,
	// joined with campaign, business and today's campaign spend.
	GetCandidateAds(ctx context.Context, format string, now time.Time) ([]CandidateAd, error)

	// CountServedToday returns, per ad id, how many served requests exist
	// for the given user since the given cutoff. Ads with no rows may be
	// absent from the map.
	CountServedToday(ctx context.Context, userID string, adIDs []int64, since time.Time) (map[int64]int64, error)

	// CreateAdRequest persists a placement decision audit row.
	CreateAdRequest(ctx context.Context, req *domain.AdRequest) error

	// GetAdRequest returns the audit row or nil when it does not exist.
	GetAdRequest(ctx context.Context, id uuid.UUID) (*domain.AdRequest, error)

	// GetAdvertisement returns the advertisement or nil when it does not
	// exist.
	GetAdvertisement(ctx context.Context, id int64) (*domain.Advertisement, error)

	// MarkServed flips served=true and applies the impression-side counter
	// updates (advertisement, ad unit, campaign, publisher earnings) in one
	// transaction. A request already marked served is a no-op.
	MarkServed(ctx context.Context, id uuid.UUID) error

	// MarkClicked flips clicked=true and applies the click-side counter
	// updates in one transaction. A request already marked clicked is a no-op.
	MarkClicked(ctx context.Context, id uuid.UUID) error

	// GetPublisher returns the publisher or ErrPublisherNotFound.
	GetPublisher(ctx context.Context, id int64) (*domain.Publisher, error)

	// GetEarningsBreakdown aggregates served revenue per ad unit for the
	// publisher within [from, to].
	GetEarningsBreakdown(ctx context.Context, publisherID int64, from, to time.Time) ([]AdUnitRevenue, error)

	// CreatePayout inserts a pending payout and increments the publisher's
	// paid earnings by the payout amount in one transaction.
	CreatePayout(ctx context.Context, payout *domain.Payout) error

	// ResolvePayout transitions a pending payout to settled or failed. A
	// failed payout releases the paid-earnings reservation in the same
	// transaction.
	ResolvePayout(ctx context.Context, payoutID int64, status string) error

	// GetStats returns aggregated delivery statistics for a period.
	GetStats(ctx context.Context, req StatsReq) (*StatsResp, error)
}
