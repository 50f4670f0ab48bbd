package services

import (
	"time"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
)

// refreshFine brings the fine's late fee and overdue status up to now and returns the status change it caused.
func refreshFine(fine *domain.Fine, now time.Time, policy domain.FinePolicy, actorID string) (bool, []domain.FineStatusChange) {
	before := fine.Status
	changed := fine.Refresh(now, policy)
	return changed, appendStatusChange(nil, fine, before, "past due date", actorID, now)
}

// appendStatusChange adds a log entry when the fine's status differs from before.
func appendStatusChange(changes []domain.FineStatusChange, fine *domain.Fine, before domain.FineStatus, note, actorID string, now time.Time) []domain.FineStatusChange {
	if fine.Status == before {
		return changes
	}
	return append(changes, domain.FineStatusChange{
		FineID:    fine.FineID,
		OldStatus: before,
		NewStatus: fine.Status,
		Note:      note,
		ChangedBy: actorID,
		ChangedAt: now,
	})
}

func becameOverdue(changes []domain.FineStatusChange) bool {
	for _, c := range changes {
		if c.NewStatus == domain.FineOverdue && c.OldStatus != domain.FineDisputed {
			return true
		}
	}
	return false
}

func finePayload(fine *domain.Fine) map[string]any {
	return map[string]any{
		"fineID":       fine.FineID,
		"violationID":  fine.ViolationID,
		"status":       string(fine.Status),
		"totalAmount":  fine.TotalAmount.String(),
		"paidAmount":   fine.PaidAmount.String(),
		"outstanding":  fine.Outstanding().String(),
		"currencyCode": fine.CurrencyCode,
		"dueDate":      fine.DueDate.Format(time.DateOnly),
	}
}
