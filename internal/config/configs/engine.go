package configs

import "agora-ads/internal/core/domain"

// Engine configures the selection pipeline: auction behaviour, quality-score
// weights and frequency capping. The three weights should sum to 1.0; they
// are not renormalized.
type Engine struct {
	// AuctionType selects the pricing rule, "first_price" or "second_price".
	AuctionType string `env:"AUCTION_TYPE" envDefault:"second_price"`
	// ReservePrice is the minimum clearing price below which no ad serves.
	ReservePrice float64 `env:"RESERVE_PRICE" envDefault:"0.1"`

	WeightCTR         float64 `env:"WEIGHT_CTR" envDefault:"0.4"`
	WeightRelevance   float64 `env:"WEIGHT_RELEVANCE" envDefault:"0.4"`
	WeightLandingPage float64 `env:"WEIGHT_LANDING_PAGE" envDefault:"0.2"`

	// FrequencyCapping toggles the per-user per-day impression cap pass.
	FrequencyCapping bool `env:"FREQUENCY_CAPPING" envDefault:"true"`
	// DefaultFrequencyCap applies to campaigns without their own override.
	DefaultFrequencyCap int `env:"DEFAULT_FREQUENCY_CAP" envDefault:"3"`
}

// NormalizedAuctionType returns a valid auction type, falling back to
// second-price for unknown values.
func (e Engine) NormalizedAuctionType() string {
	if e.AuctionType == domain.AuctionFirstPrice {
		return domain.AuctionFirstPrice
	}
	return domain.AuctionSecondPrice
}
