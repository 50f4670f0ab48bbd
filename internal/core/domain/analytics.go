package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FineAnalytics aggregates fines issued within a period.
type FineAnalytics struct {
	From             time.Time          `json:"from"`
	To               time.Time          `json:"to"`
	TotalFines       int                `json:"totalFines"`
	CountByStatus    map[FineStatus]int `json:"countByStatus"`
	TotalFined       decimal.Decimal    `json:"totalFined"`
	TotalLateFees    decimal.Decimal    `json:"totalLateFees"`
	TotalCollected   decimal.Decimal    `json:"totalCollected"`
	TotalOutstanding decimal.Decimal    `json:"totalOutstanding"`
	TotalWaived      decimal.Decimal    `json:"totalWaived"`
	OverdueCount     int                `json:"overdueCount"`
	CollectionRate   decimal.Decimal    `json:"collectionRate"` // collected / (fined + late fees - waived), percent
}

// BuildFineAnalytics aggregates already refreshed fines.
func BuildFineAnalytics(fines []Fine, from, to, now time.Time) FineAnalytics {
	a := FineAnalytics{
		From:             from,
		To:               to,
		TotalFines:       len(fines),
		CountByStatus:    make(map[FineStatus]int, len(AllFineStatuses)),
		TotalFined:       decimal.Zero,
		TotalLateFees:    decimal.Zero,
		TotalCollected:   decimal.Zero,
		TotalOutstanding: decimal.Zero,
		TotalWaived:      decimal.Zero,
		CollectionRate:   decimal.Zero,
	}
	for _, s := range AllFineStatuses {
		a.CountByStatus[s] = 0
	}

	for _, f := range fines {
		a.CountByStatus[f.Status]++
		a.TotalFined = a.TotalFined.Add(f.FineAmount)
		a.TotalLateFees = a.TotalLateFees.Add(f.LateFee)
		a.TotalCollected = a.TotalCollected.Add(f.PaidAmount)
		switch {
		case f.Status == FineWaived:
			if f.Waiver != nil {
				a.TotalWaived = a.TotalWaived.Add(f.Waiver.WaivedAmount)
			}
		default:
			a.TotalOutstanding = a.TotalOutstanding.Add(f.Outstanding())
		}
		if f.IsOverdue(now) {
			a.OverdueCount++
		}
	}

	collectible := a.TotalFined.Add(a.TotalLateFees).Sub(a.TotalWaived)
	if collectible.IsPositive() {
		a.CollectionRate = a.TotalCollected.Div(collectible).Mul(hundred).Round(2)
	}
	return a
}
