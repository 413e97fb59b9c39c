package domain

import (
	"time"

	"github.com/google/uuid"
)

// Auction types.
const (
	AuctionFirstPrice  = "first_price"
	AuctionSecondPrice = "second_price"
)

// AdRequest is the append-only audit record of one placement decision. A row
// is created at decision time with Served=false; Served flips to true only
// when the impression tracking callback arrives, and Clicked is set at most
// once by the click callback. The context snapshot columns record what the
// decision was based on.
type AdRequest struct {
	ID          uuid.UUID
	AdUnitID    int64
	WinningAdID *int64 // nil when the auction produced no winner
	WinningBid  float64
	AuctionType string

	// Context snapshot.
	UserID     string
	Category   string
	Keywords   []string
	DeviceType string
	Lat        *float64
	Lng        *float64

	Served  bool
	Clicked bool

	CreatedAt time.Time
}
