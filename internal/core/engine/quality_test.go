package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"agora-ads/internal/core/domain"
	"agora-ads/internal/core/port"
)

var defaultWeights = Weights{CTR: 0.4, Relevance: 0.4, LandingPage: 0.2}

func eligible(ad domain.Advertisement, camp *domain.Campaign, relevance float64) EligibleAd {
	return EligibleAd{
		Candidate: port.CandidateAd{Ad: ad, Campaign: camp},
		Relevance: relevance,
	}
}

func TestScoreQualityColdStart(t *testing.T) {
	// no impression history, no landing URL, cost per click 2.00
	ad := activeAd(1)
	ad.CostPerClick = f64(2.0)

	scored := ScoreQuality(defaultWeights, []EligibleAd{eligible(ad, nil, 0.5)})
	require.Len(t, scored, 1)

	// 0.01*0.4 + 0.5*0.4 + 0.5*0.2
	require.InDelta(t, 0.304, scored[0].Quality, 1e-9)
	require.InDelta(t, 2.0, scored[0].Bid, 1e-9)
	require.InDelta(t, 0.608, scored[0].EffectiveBid, 1e-9)
}

func TestScoreQualityHistoricalCTR(t *testing.T) {
	ad := activeAd(1)
	ad.CurrentImpressions = 1000
	ad.CurrentClicks = 50
	ad.TargetURL = "https://example.com/offer"
	ad.CostPerClick = f64(1.0)

	scored := ScoreQuality(defaultWeights, []EligibleAd{eligible(ad, nil, 0.25)})
	require.Len(t, scored, 1)

	// ctr 0.05, landing 0.8
	require.InDelta(t, 0.05*0.4+0.25*0.4+0.8*0.2, scored[0].Quality, 1e-9)
}

func TestResolveBidOrder(t *testing.T) {
	ad := activeAd(1)
	ad.CostPerClick = f64(0.8)
	ad.CostPerImpression = f64(0.002)

	// campaign max bid wins over everything
	camp := &domain.Campaign{ID: 1, MaxBid: f64(1.5)}
	scored := ScoreQuality(defaultWeights, []EligibleAd{eligible(ad, camp, 0)})
	require.InDelta(t, 1.5, scored[0].Bid, 1e-9)

	// then ad cost per click
	scored = ScoreQuality(defaultWeights, []EligibleAd{eligible(ad, nil, 0)})
	require.InDelta(t, 0.8, scored[0].Bid, 1e-9)

	// then cost per impression normalized to CPM
	ad.CostPerClick = nil
	scored = ScoreQuality(defaultWeights, []EligibleAd{eligible(ad, nil, 0)})
	require.InDelta(t, 2.0, scored[0].Bid, 1e-9)

	// floor when nothing is declared
	ad.CostPerImpression = nil
	scored = ScoreQuality(defaultWeights, []EligibleAd{eligible(ad, nil, 0)})
	require.InDelta(t, floorBid, scored[0].Bid, 1e-9)
}

func TestQualityMonotonicInRelevance(t *testing.T) {
	ad := activeAd(1)
	ad.CostPerClick = f64(1.0)

	low := ScoreQuality(defaultWeights, []EligibleAd{eligible(ad, nil, 0.2)})
	high := ScoreQuality(defaultWeights, []EligibleAd{eligible(ad, nil, 0.9)})
	require.Greater(t, high[0].Quality, low[0].Quality)
	require.Greater(t, high[0].EffectiveBid, low[0].EffectiveBid)
}
