package engine

import (
	"strings"
	"time"

	"agora-ads/internal/core/domain"
	"agora-ads/internal/core/port"
)

// Relevance scoring weights and neutral contributions. These are fixed
// properties of the relevance model, unlike the quality weights which are
// tunable configuration.
const (
	geoWeight      = 0.3
	categoryWeight = 0.2
	keywordWeight  = 0.3

	neutralGeoScore      = 0.5
	neutralCategoryScore = 0.3
	missingCategoryScore = 0.5
	neutralKeywordScore  = 0.3

	// defaultGeoRadius applies when neither the targeting rule nor the
	// request carries a radius; businessGeoRadius applies when targeting
	// falls back to the advertised business's location.
	defaultGeoRadius  = 5000.0
	businessGeoRadius = 10000.0
)

// EligibleAd is a candidate that passed every hard filter, carrying its
// relevance score in [0,1]. The score only influences ranking, never
// pass/fail.
type EligibleAd struct {
	Candidate port.CandidateAd
	Relevance float64
}

// FilterEligible applies the hard targeting filters and budget gates to the
// pre-filtered candidates and scores the survivors. Candidates violating
// their own delivery caps or flight window are excluded here as well, so a
// stale repository row can never serve.
func FilterEligible(now time.Time, req domain.PlacementRequest, cands []port.CandidateAd) []EligibleAd {
	eligible := make([]EligibleAd, 0, len(cands))
	for i := range cands {
		c := &cands[i]
		if c.Ad.Status != domain.AdStatusActive || !c.Ad.WithinFlightWindow(now) || !c.Ad.UnderDeliveryCaps() {
			continue
		}
		if !passesBudgetGates(c) {
			continue
		}
		if !passesDeviceTargeting(c.Campaign, req.Device) {
			continue
		}
		if !passesDayParting(c.Campaign, now) {
			continue
		}

		score := 0.0

		geoScore, ok := scoreGeo(c, req.Location)
		if !ok {
			continue
		}
		score += geoScore

		catScore, ok := scoreCategory(c, req.Category)
		if !ok {
			continue
		}
		score += catScore

		score += scoreKeywords(c, req.Keywords)

		eligible = append(eligible, EligibleAd{Candidate: *c, Relevance: clamp01(score)})
	}
	return eligible
}

// passesBudgetGates rejects ads whose campaign has exhausted its daily or
// total budget. Daily spend is measured from server-local midnight.
func passesBudgetGates(c *port.CandidateAd) bool {
	camp := c.Campaign
	if camp == nil {
		return true
	}
	if camp.TotalBudget != nil && camp.SpentAmount >= *camp.TotalBudget {
		return false
	}
	if camp.DailyBudget != nil && c.TodaySpend >= *camp.DailyBudget {
		return false
	}
	return true
}

func passesDeviceTargeting(camp *domain.Campaign, dev *domain.Device) bool {
	if camp == nil || len(camp.DeviceTypes) == 0 || dev == nil || dev.Type == "" {
		return true
	}
	for _, t := range camp.DeviceTypes {
		if strings.EqualFold(t, dev.Type) {
			return true
		}
	}
	return false
}

func passesDayParting(camp *domain.Campaign, now time.Time) bool {
	if camp == nil || camp.Schedule == nil {
		return true
	}
	return camp.Schedule.Allows(now)
}

// scoreGeo evaluates geographic targeting. The second return value is false
// when the ad is rejected. A request without a location skips this dimension
// entirely: it is treated as a match with no score contribution.
func scoreGeo(c *port.CandidateAd, loc *domain.GeoLocation) (float64, bool) {
	if loc == nil {
		return 0, true
	}

	// Ad-level point takes precedence, then campaign points, then the
	// advertised business's location.
	if c.Ad.GeoLat != nil && c.Ad.GeoLng != nil {
		radius := effectiveRadius(c.Ad.GeoRadius, loc)
		d := haversineDistance(loc.Lat, loc.Lng, *c.Ad.GeoLat, *c.Ad.GeoLng)
		if d > radius {
			return 0, false
		}
		return (1 - d/radius) * geoWeight, true
	}

	if c.Campaign != nil && len(c.Campaign.GeoPoints) > 0 {
		best := -1.0
		for _, p := range c.Campaign.GeoPoints {
			radius := effectiveRadius(p.Radius, loc)
			d := haversineDistance(loc.Lat, loc.Lng, p.Lat, p.Lng)
			if d > radius {
				continue
			}
			if s := 1 - d/radius; s > best {
				best = s
			}
		}
		if best < 0 {
			return 0, false
		}
		return best * geoWeight, true
	}

	if c.Business != nil && c.Business.Lat != nil && c.Business.Lng != nil {
		radius := businessGeoRadius
		if loc.Radius > 0 {
			radius = loc.Radius
		}
		d := haversineDistance(loc.Lat, loc.Lng, *c.Business.Lat, *c.Business.Lng)
		if d > radius {
			return 0, false
		}
		return (1 - d/radius) * geoWeight, true
	}

	// Location was supplied but no geo constraint applies anywhere.
	return neutralGeoScore * geoWeight, true
}

func effectiveRadius(target *float64, loc *domain.GeoLocation) float64 {
	if target != nil && *target > 0 {
		return *target
	}
	if loc.Radius > 0 {
		return loc.Radius
	}
	return defaultGeoRadius
}

// scoreCategory evaluates category targeting. Membership in a campaign
// allow-list is binary: non-membership is a hard reject.
func scoreCategory(c *port.CandidateAd, category string) (float64, bool) {
	if category == "" {
		return missingCategoryScore * categoryWeight, true
	}
	if c.Ad.TargetCategory != "" {
		if strings.EqualFold(c.Ad.TargetCategory, category) {
			return 1.0 * categoryWeight, true
		}
		return 0, true
	}
	if c.Campaign != nil && len(c.Campaign.TargetCategories) > 0 {
		for _, tc := range c.Campaign.TargetCategories {
			if strings.EqualFold(tc, category) {
				return 1.0 * categoryWeight, true
			}
		}
		return 0, false
	}
	return neutralCategoryScore * categoryWeight, true
}

// scoreKeywords matches request keywords against the union of ad keywords
// and campaign contextual keywords using case-insensitive substring match in
// either direction. Missing keywords on either side never reject.
func scoreKeywords(c *port.CandidateAd, reqKeywords []string) float64 {
	if len(reqKeywords) == 0 {
		return 0
	}
	target := make([]string, 0, len(c.Ad.TargetKeywords))
	target = append(target, c.Ad.TargetKeywords...)
	if c.Campaign != nil {
		target = append(target, c.Campaign.ContextKeywords...)
	}
	if len(target) == 0 {
		return neutralKeywordScore * keywordWeight
	}

	matched := 0
	for _, rk := range reqKeywords {
		rk = strings.ToLower(rk)
		for _, tk := range target {
			tk = strings.ToLower(tk)
			if strings.Contains(tk, rk) || strings.Contains(rk, tk) {
				matched++
				break
			}
		}
	}

	denom := len(reqKeywords)
	if len(target) > denom {
		denom = len(target)
	}
	return float64(matched) / float64(denom) * keywordWeight
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
