package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"agora-ads/internal/core/domain"
)

func scoredAd(id int64, effectiveBid float64) ScoredAd {
	return ScoredAd{
		EligibleAd:   eligible(activeAd(id), nil, 0.5),
		EffectiveBid: effectiveBid,
	}
}

func TestSecondPriceClearing(t *testing.T) {
	ads := []ScoredAd{scoredAd(1, 1.0), scoredAd(2, 0.6)}

	out := RunAuction(ads, domain.AuctionSecondPrice, 0)
	require.NotNil(t, out)
	require.Equal(t, int64(1), out.Winner.Candidate.Ad.ID)
	require.InDelta(t, 0.6, out.ClearingPrice, 1e-9)
}

func TestSecondPriceSingleBidder(t *testing.T) {
	out := RunAuction([]ScoredAd{scoredAd(1, 0.9)}, domain.AuctionSecondPrice, 0)
	require.NotNil(t, out)
	require.InDelta(t, 0.9, out.ClearingPrice, 1e-9)
}

func TestFirstPriceClearing(t *testing.T) {
	ads := []ScoredAd{scoredAd(1, 1.0), scoredAd(2, 0.6)}

	out := RunAuction(ads, domain.AuctionFirstPrice, 0)
	require.NotNil(t, out)
	require.Equal(t, int64(1), out.Winner.Candidate.Ad.ID)
	require.InDelta(t, 1.0, out.ClearingPrice, 1e-9)
}

func TestReserveSuppressesWinner(t *testing.T) {
	ads := []ScoredAd{scoredAd(1, 0.05), scoredAd(2, 0.03)}
	require.Nil(t, RunAuction(ads, domain.AuctionFirstPrice, 0.1))

	// second-price reserve applies to the clearing price, not the top bid
	ads = []ScoredAd{scoredAd(1, 1.0), scoredAd(2, 0.05)}
	require.Nil(t, RunAuction(ads, domain.AuctionSecondPrice, 0.1))
}

func TestEmptyAuction(t *testing.T) {
	require.Nil(t, RunAuction(nil, domain.AuctionSecondPrice, 0))
}

func TestTieGoesToFirstSeen(t *testing.T) {
	ads := []ScoredAd{scoredAd(7, 0.5), scoredAd(8, 0.5), scoredAd(9, 0.5)}
	out := RunAuction(ads, domain.AuctionSecondPrice, 0)
	require.NotNil(t, out)
	require.Equal(t, int64(7), out.Winner.Candidate.Ad.ID)
}

func TestRaisingBidNeverLosesWin(t *testing.T) {
	base := []ScoredAd{scoredAd(1, 1.0), scoredAd(2, 0.6)}
	out := RunAuction(base, domain.AuctionSecondPrice, 0)
	require.Equal(t, int64(1), out.Winner.Candidate.Ad.ID)

	raised := []ScoredAd{scoredAd(1, 2.0), scoredAd(2, 0.6)}
	out2 := RunAuction(raised, domain.AuctionSecondPrice, 0)
	require.Equal(t, int64(1), out2.Winner.Candidate.Ad.ID)
	// second-price: the winner raising its own bid does not change the price
	require.InDelta(t, out.ClearingPrice, out2.ClearingPrice, 1e-9)

	// auction is not modified in place
	require.InDelta(t, 1.0, base[0].EffectiveBid, 1e-9)
}

func TestAuctionDoesNotMutateInput(t *testing.T) {
	ads := []ScoredAd{scoredAd(2, 0.3), scoredAd(1, 0.9)}
	_ = RunAuction(ads, domain.AuctionFirstPrice, 0)
	require.Equal(t, int64(2), ads[0].Candidate.Ad.ID)
	require.Equal(t, int64(1), ads[1].Candidate.Ad.ID)
}
