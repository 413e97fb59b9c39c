package domain

import "time"

// AdUnit statuses.
const (
	AdUnitStatusActive = "active"
	AdUnitStatusPaused = "paused"
)

// AdUnit is a publisher-defined slot where an ad may be shown. It is never
// hard-deleted while it has historical stats; publishers toggle it between
// active and paused instead.
type AdUnit struct {
	ID          int64
	PublisherID int64
	Name        string
	Format      string
	Status      string

	TotalImpressions int64
	TotalClicks      int64
	TotalRevenue     float64 // publisher share accumulated from served impressions

	CreatedAt time.Time
	UpdatedAt time.Time
}
