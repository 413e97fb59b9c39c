package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"agora-ads/internal/core/domain"
)

// AdServer is the primary inbound port: it runs the selection pipeline for
// placement requests and processes the tracking callbacks that confirm
// delivery. Mock implementations can be written against this interface for
// testing the HTTP layer.
type AdServer interface {
	// SelectAd runs eligibility filtering, frequency capping, quality
	// scoring and the auction for the given request. Ad serving never
	// hard-fails a page render: internal failures degrade to a no-winner
	// result and are logged rather than returned.
	SelectAd(ctx context.Context, req domain.PlacementRequest) *SelectionResult

	// GenerateAdResponse shapes a selection result into the payload the
	// route layer serializes, including the impression and click tracking
	// URLs for a winner.
	GenerateAdResponse(result *SelectionResult) *ServeResponse

	// MarkServed confirms delivery of the winning ad for a previous
	// decision. Counter updates happen atomically; confirming an already
	// served request is a no-op.
	MarkServed(ctx context.Context, requestID uuid.UUID) error

	// MarkClicked records a click on a served ad and returns the landing
	// URL for redirection. Clicking an already clicked request is a no-op
	// and still returns the URL.
	MarkClicked(ctx context.Context, requestID uuid.UUID) (string, error)

	// GetStats returns aggregated delivery statistics for the operator
	// dashboard.
	GetStats(ctx context.Context, req StatsReq) (*StatsResp, error)
}

// SelectionResult is the outcome of one placement decision. EligibleCount
// carries the candidate count before the pipeline step that emptied the
// list, so callers can tell "no eligible ads" from "capped out" from
// "reserve not met".
type SelectionResult struct {
	RequestID     uuid.UUID // zero value when there is no winner
	Winner        *domain.Advertisement
	Business      *domain.Business
	ClearingPrice float64
	EligibleCount int
	AuctionType   string
}

// ServeResponse is the JSON contract returned to the route layer. Ad is nil
// when the slot should render empty.
type ServeResponse struct {
	RequestID     string     `json:"requestId,omitempty"`
	Ad            *AdPayload `json:"ad"`
	ImpressionURL string     `json:"impressionUrl,omitempty"`
	ClickURL      string     `json:"clickUrl,omitempty"`
	EligibleCount int        `json:"eligibleCount"`
	AuctionType   string     `json:"auctionType"`
	ClearingPrice float64    `json:"clearingPrice"`
}

// AdPayload is the plain creative data rendered by the ad slot.
type AdPayload struct {
	AdID         int64  `json:"adId"`
	Title        string `json:"title"`
	ImageURL     string `json:"imageUrl,omitempty"`
	TargetURL    string `json:"targetUrl"`
	BusinessName string `json:"businessName,omitempty"`
}

// StatsReq selects the aggregation window and an optional campaign filter
// for delivery statistics.
type StatsReq struct {
	From       time.Time
	To         time.Time
	CampaignID *int64
}

// StatsResp contains aggregated delivery counts for a period. Spend sums the
// winning bids of served requests.
type StatsResp struct {
	Requests    int64   `json:"requests"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Spend       float64 `json:"spend"`
}
