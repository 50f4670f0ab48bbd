package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/SscSPs/property_fines_app/internal/models"
)

// ToModelViolation converts a domain Violation to a model Violation
func ToModelViolation(d domain.Violation) (models.Violation, error) {
	evidence := d.Evidence
	if evidence == nil {
		evidence = []domain.Evidence{}
	}
	raw, err := json.Marshal(evidence)
	if err != nil {
		return models.Violation{}, fmt.Errorf("failed to encode evidence: %w", err)
	}
	return models.Violation{
		ViolationID:        d.ViolationID,
		CategoryID:         d.CategoryID,
		Severity:           string(d.Severity),
		IncidentAt:         d.IncidentAt,
		Location:           d.Location,
		ReportedBy:         d.ReportedBy,
		ResidentID:         d.ResidentID,
		UnitNumber:         d.UnitNumber,
		VehicleNumber:      d.VehicleNumber,
		Evidence:           raw,
		Description:        d.Description,
		Status:             string(d.Status),
		ReviewedBy:         d.Review.ReviewedBy,
		ReviewedAt:         d.Review.ReviewedAt,
		ReviewNotes:        d.Review.Notes,
		AssignedFineAmount: d.Review.AssignedFineAmount,
		Priority:           string(d.Review.Priority),
		AuditFields:        auditToModel(d.AuditFields),
	}, nil
}

// ToDomainViolation converts a model Violation to a domain Violation
func ToDomainViolation(m models.Violation) (domain.Violation, error) {
	evidence := []domain.Evidence{}
	if len(m.Evidence) > 0 {
		if err := json.Unmarshal(m.Evidence, &evidence); err != nil {
			return domain.Violation{}, fmt.Errorf("failed to decode evidence of violation %s: %w", m.ViolationID, err)
		}
	}
	return domain.Violation{
		ViolationID:   m.ViolationID,
		CategoryID:    m.CategoryID,
		Severity:      domain.Severity(m.Severity),
		IncidentAt:    m.IncidentAt,
		Location:      m.Location,
		ReportedBy:    m.ReportedBy,
		ResidentID:    m.ResidentID,
		UnitNumber:    m.UnitNumber,
		VehicleNumber: m.VehicleNumber,
		Evidence:      evidence,
		Description:   m.Description,
		Status:        domain.ViolationStatus(m.Status),
		Review: domain.ViolationReview{
			ReviewedBy:         m.ReviewedBy,
			ReviewedAt:         m.ReviewedAt,
			Notes:              m.ReviewNotes,
			AssignedFineAmount: m.AssignedFineAmount,
			Priority:           domain.Priority(m.Priority),
		},
		AuditFields: auditToDomain(m.AuditFields),
	}, nil
}
