package pricing

import (
	"fmt"
	"math"
	"time"
)

type Quality string

const (
	QualityStandard Quality = "standard"
	QualityPremium  Quality = "premium"
	QualityUrgent   Quality = "urgent"
)

// SiteFeeRate is the platform cut taken on every job.
const SiteFeeRate = 0.20

// QualityMultiplier maps the quality level to its price factor.
func QualityMultiplier(q Quality) (float64, error) {
	switch q {
	case QualityStandard:
		return 1.0, nil
	case QualityPremium:
		return 1.5, nil
	case QualityUrgent:
		return 2.0, nil
	}
	return 0, fmt.Errorf("unknown quality level: %q", q)
}

// DeadlineMultiplier is computed from the hours remaining at calculation
// time. A deadline already past clamps to the 24h urgency factor.
func DeadlineMultiplier(deadline, now time.Time) float64 {
	hours := deadline.Sub(now).Hours()
	switch {
	case hours <= 24:
		return 1.5
	case hours <= 48:
		return 1.25
	case hours <= 72:
		return 1.15
	case hours <= 168:
		return 1.05
	}
	return 1.0
}

// Price computes the job budget. Callers must recompute on every display;
// the result is never cached across the submit and review steps.
func Price(basePricePerPage float64, pageCount int, q Quality, deadline, now time.Time) (float64, error) {
	if pageCount <= 0 {
		return 0, fmt.Errorf("page count must be positive, got %d", pageCount)
	}
	if basePricePerPage <= 0 {
		return 0, fmt.Errorf("base price per page must be positive, got %v", basePricePerPage)
	}
	qm, err := QualityMultiplier(q)
	if err != nil {
		return 0, err
	}
	return Round2(basePricePerPage * float64(pageCount) * qm * DeadlineMultiplier(deadline, now)), nil
}

// SiteFee is ceil(budget * 0.20). Ceiling, not round.
func SiteFee(budget float64) float64 {
	return math.Ceil(budget * SiteFeeRate)
}

// Round2 rounds to 2 decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Breakdown is what a payment method choice turns a budget into.
type Breakdown struct {
	Budget           float64 `json:"budget"`
	SiteFee          float64 `json:"site_fee"`
	Amount           float64 `json:"amount"`            // charged through the gateway
	FreelancerAmount float64 `json:"freelancer_amount"` // owed to the freelancer
}

// PayNowBreakdown charges budget plus fee upfront; the budget is held for the
// freelancer.
func PayNowBreakdown(budget float64) Breakdown {
	fee := SiteFee(budget)
	return Breakdown{
		Budget:           budget,
		SiteFee:          fee,
		Amount:           budget + fee,
		FreelancerAmount: budget,
	}
}

// PayLaterBreakdown charges the site fee only; the hirer settles with the
// freelancer off-platform, so nothing is held.
func PayLaterBreakdown(budget float64) Breakdown {
	fee := SiteFee(budget)
	return Breakdown{
		Budget:           budget,
		SiteFee:          fee,
		Amount:           fee,
		FreelancerAmount: 0,
	}
}
