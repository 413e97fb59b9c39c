package engine

import "agora-ads/internal/core/port"

const (
	// defaultCTR is the cold-start click-through assumption for ads with no
	// impression history, favoring exploration of new ads.
	defaultCTR = 0.01

	landingScoreWithURL    = 0.8
	landingScoreWithoutURL = 0.5

	// floorBid applies when neither the campaign nor the ad declares any
	// bid amount.
	floorBid = 0.01

	// cpmMultiplier normalizes a cost-per-impression bid against per-click
	// bids (CPM convention).
	cpmMultiplier = 1000.0
)

// Weights is the tunable quality-score blend. The three weights are expected
// to sum to 1.0.
type Weights struct {
	CTR         float64
	Relevance   float64
	LandingPage float64
}

// ScoredAd carries the quality score and resolved bid of an eligible ad.
// EffectiveBid is the auction's ranking currency.
type ScoredAd struct {
	EligibleAd
	Quality      float64
	Bid          float64
	EffectiveBid float64
}

// ScoreQuality blends historical click-through rate, targeting relevance and
// landing-page quality into a quality score per eligible ad, then resolves
// each ad's bid into an effective bid.
func ScoreQuality(w Weights, ads []EligibleAd) []ScoredAd {
	scored := make([]ScoredAd, 0, len(ads))
	for _, ea := range ads {
		ctr := defaultCTR
		if ea.Candidate.Ad.CurrentImpressions > 0 {
			ctr = float64(ea.Candidate.Ad.CurrentClicks) / float64(ea.Candidate.Ad.CurrentImpressions)
		}

		landing := landingScoreWithoutURL
		if ea.Candidate.Ad.TargetURL != "" {
			landing = landingScoreWithURL
		}

		quality := ctr*w.CTR + ea.Relevance*w.Relevance + landing*w.LandingPage
		bid := resolveBid(&ea.Candidate)

		scored = append(scored, ScoredAd{
			EligibleAd:   ea,
			Quality:      quality,
			Bid:          bid,
			EffectiveBid: bid * quality,
		})
	}
	return scored
}

// resolveBid picks the bid amount in resolution order: campaign max bid, ad
// cost per click, ad cost per impression normalized to CPM, floor default.
func resolveBid(c *port.CandidateAd) float64 {
	if c.Campaign != nil && c.Campaign.MaxBid != nil && *c.Campaign.MaxBid > 0 {
		return *c.Campaign.MaxBid
	}
	if c.Ad.CostPerClick != nil && *c.Ad.CostPerClick > 0 {
		return *c.Ad.CostPerClick
	}
	if c.Ad.CostPerImpression != nil && *c.Ad.CostPerImpression > 0 {
		return *c.Ad.CostPerImpression * cpmMultiplier
	}
	return floorBid
}
