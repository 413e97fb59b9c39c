package domain

import "time"

// Campaign statuses.
const (
	CampaignStatusActive = "active"
	CampaignStatusPaused = "paused"
	CampaignStatusEnded  = "ended"
)

// Campaign is an advertiser's budget and targeting envelope grouping one or
// more advertisements. Budgets are in major currency units.
type Campaign struct {
	ID     int64
	Name   string
	Status string

	// MaxBid, when set, overrides ad-level flat bids in the auction.
	MaxBid *float64

	// DailyBudget limits spend per server-local calendar day; TotalBudget
	// limits lifetime spend. Nil means unlimited.
	DailyBudget *float64
	TotalBudget *float64
	SpentAmount float64

	// Targeting overrides applied on top of ad-level targeting.
	TargetCategories []string
	ContextKeywords  []string
	GeoPoints        []GeoPoint
	DeviceTypes      []string
	Schedule         *DaySchedule

	// FrequencyCap overrides the platform default impressions-per-user-per-day
	// limit for ads in this campaign. Nil uses the default.
	FrequencyCap *int

	TotalImpressions int64
	TotalClicks      int64
	TotalConversions int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GeoPoint is a campaign targeting point with an optional radius in meters.
type GeoPoint struct {
	Lat    float64
	Lng    float64
	Radius *float64
}

// DaySchedule restricts delivery to specific weekdays and an hour range.
// Days use 0=Sunday through 6=Saturday. Hours form a half-open interval
// [StartHour, EndHour) in server-local time.
type DaySchedule struct {
	Days      []int `json:"days"`
	StartHour int   `json:"startHour"`
	EndHour   int   `json:"endHour"`
}

// Allows reports whether t falls inside the schedule.
func (s *DaySchedule) Allows(t time.Time) bool {
	if len(s.Days) > 0 {
		day := int(t.Weekday())
		found := false
		for _, d := range s.Days {
			if d == day {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if s.StartHour != 0 || s.EndHour != 0 {
		h := t.Hour()
		if h < s.StartHour || h >= s.EndHour {
			return false
		}
	}
	return true
}
