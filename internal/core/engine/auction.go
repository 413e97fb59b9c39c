package engine

import (
	"sort"

	"agora-ads/internal/core/domain"
)

// Outcome is the result of a sealed-bid auction over scored ads.
type Outcome struct {
	Winner        *ScoredAd
	ClearingPrice float64
}

// RunAuction ranks scored ads by effective bid and determines the winner and
// clearing price. The sort is stable, so ties go to the first-seen ad.
// First-price auctions clear at the winner's own effective bid; second-price
// auctions clear at the runner-up's effective bid, or the winner's own when
// no runner-up exists. A clearing price below the reserve yields no winner —
// callers distinguish that from an empty input via the eligible count they
// already hold.
func RunAuction(ads []ScoredAd, auctionType string, reserve float64) *Outcome {
	if len(ads) == 0 {
		return nil
	}

	ranked := make([]ScoredAd, len(ads))
	copy(ranked, ads)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].EffectiveBid > ranked[j].EffectiveBid
	})

	winner := ranked[0]
	price := winner.EffectiveBid
	if auctionType == domain.AuctionSecondPrice && len(ranked) > 1 {
		price = ranked[1].EffectiveBid
	}

	if price < reserve {
		return nil
	}
	return &Outcome{Winner: &winner, ClearingPrice: price}
}
