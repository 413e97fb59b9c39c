package domain

import "time"

// Payout statuses. A payout is created pending, and the ledger reservation it
// made is released again if settlement fails.
const (
	PayoutStatusPending = "pending"
	PayoutStatusSettled = "settled"
	PayoutStatusFailed  = "failed"
)

// Publisher owns ad units and earns a share of the revenue their impressions
// generate. PaidEarnings never exceeds TotalEarnings.
type Publisher struct {
	ID   int64
	Name string

	// RevenueShare is the fraction of ad revenue paid to the publisher,
	// in (0, 1].
	RevenueShare float64

	TotalEarnings    float64
	PaidEarnings     float64
	PaymentThreshold float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UnpaidEarnings returns the balance available for payout.
func (p *Publisher) UnpaidEarnings() float64 {
	return p.TotalEarnings - p.PaidEarnings
}

// Payout is a publisher payment record. Creating one increments the
// publisher's PaidEarnings as an accounting reservation before settlement.
type Payout struct {
	ID          int64
	PublisherID int64
	Amount      float64
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
