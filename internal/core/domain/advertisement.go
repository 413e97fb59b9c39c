package domain

import "time"

// Advertisement statuses.
const (
	AdStatusActive = "active"
	AdStatusPaused = "paused"
)

// Advertisement is a paid listing competing for placements. It belongs to a
// Business and optionally to a Campaign. Monetary amounts are in major
// currency units.
type Advertisement struct {
	ID         int64
	BusinessID int64
	CampaignID *int64
	Title      string
	ImageURL   string
	TargetURL  string // click-through landing page
	Format     string // must match the ad unit format to be considered
	Status     string

	// Flight window. Nil means unbounded on that side.
	StartDate *time.Time
	EndDate   *time.Time

	// Delivery caps. Nil means uncapped. An ad whose counters meet or
	// exceed a set cap is excluded from eligibility.
	MaxImpressions *int64
	MaxClicks      *int64

	CurrentImpressions int64
	CurrentClicks      int64
	SpentAmount        float64

	// Flat bids. Resolution order for the auction is campaign maxBid,
	// then costPerClick, then costPerImpression normalized to CPM.
	CostPerClick      *float64
	CostPerImpression *float64

	// Ad-level targeting.
	TargetCategory string
	TargetKeywords []string
	GeoLat         *float64
	GeoLng         *float64
	GeoRadius      *float64 // meters

	CreatedAt time.Time
	UpdatedAt time.Time
}

// WithinFlightWindow reports whether now falls inside the ad's start/end
// window. Unset bounds are open.
func (a *Advertisement) WithinFlightWindow(now time.Time) bool {
	if a.StartDate != nil && now.Before(*a.StartDate) {
		return false
	}
	if a.EndDate != nil && now.After(*a.EndDate) {
		return false
	}
	return true
}

// UnderDeliveryCaps reports whether the ad's counters are still below its
// configured impression and click caps.
func (a *Advertisement) UnderDeliveryCaps() bool {
	if a.MaxImpressions != nil && a.CurrentImpressions >= *a.MaxImpressions {
		return false
	}
	if a.MaxClicks != nil && a.CurrentClicks >= *a.MaxClicks {
		return false
	}
	return true
}
