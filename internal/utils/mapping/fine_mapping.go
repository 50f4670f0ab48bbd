package mapping

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/SscSPs/property_fines_app/internal/models"
)

// ToModelFine converts a domain Fine to a model Fine
func ToModelFine(d domain.Fine) (models.Fine, error) {
	waiver, err := encodeOptional(d.Waiver)
	if err != nil {
		return models.Fine{}, fmt.Errorf("failed to encode waiver: %w", err)
	}
	dispute, err := encodeOptional(d.Dispute)
	if err != nil {
		return models.Fine{}, fmt.Errorf("failed to encode dispute: %w", err)
	}
	bill, err := encodeOptional(d.Bill)
	if err != nil {
		return models.Fine{}, fmt.Errorf("failed to encode bill: %w", err)
	}
	return models.Fine{
		FineID:               d.FineID,
		ViolationID:          d.ViolationID,
		ResidentID:           d.ResidentID,
		FineAmount:           d.FineAmount,
		LateFee:              d.LateFee,
		TotalAmount:          d.TotalAmount,
		PaidAmount:           d.PaidAmount,
		CurrencyCode:         d.CurrencyCode,
		IssuedDate:           d.IssuedDate,
		DueDate:              d.DueDate,
		PaidDate:             d.PaidDate,
		LastPaymentAt:        d.LastPaymentAt,
		Status:               string(d.Status),
		AccrualPausedSeconds: int64(d.AccrualPaused / time.Second),
		ReminderCount:        d.ReminderCount,
		LastReminderAt:       d.LastReminderAt,
		Waiver:               waiver,
		Dispute:              dispute,
		Bill:                 bill,
		AuditFields:          auditToModel(d.AuditFields),
	}, nil
}

// ToDomainFine converts a model Fine to a domain Fine
func ToDomainFine(m models.Fine) (domain.Fine, error) {
	d := domain.Fine{
		FineID:         m.FineID,
		ViolationID:    m.ViolationID,
		ResidentID:     m.ResidentID,
		FineAmount:     m.FineAmount,
		LateFee:        m.LateFee,
		TotalAmount:    m.TotalAmount,
		PaidAmount:     m.PaidAmount,
		CurrencyCode:   m.CurrencyCode,
		IssuedDate:     m.IssuedDate,
		DueDate:        m.DueDate,
		PaidDate:       m.PaidDate,
		LastPaymentAt:  m.LastPaymentAt,
		Status:         domain.FineStatus(m.Status),
		AccrualPaused:  time.Duration(m.AccrualPausedSeconds) * time.Second,
		ReminderCount:  m.ReminderCount,
		LastReminderAt: m.LastReminderAt,
		AuditFields:    auditToDomain(m.AuditFields),
	}
	var err error
	if d.Waiver, err = decodeOptional[domain.Waiver](m.Waiver); err != nil {
		return domain.Fine{}, fmt.Errorf("failed to decode waiver of fine %s: %w", m.FineID, err)
	}
	if d.Dispute, err = decodeOptional[domain.Dispute](m.Dispute); err != nil {
		return domain.Fine{}, fmt.Errorf("failed to decode dispute of fine %s: %w", m.FineID, err)
	}
	if d.Bill, err = decodeOptional[domain.BillReference](m.Bill); err != nil {
		return domain.Fine{}, fmt.Errorf("failed to decode bill of fine %s: %w", m.FineID, err)
	}
	return d, nil
}

// ToModelFineStatusChange converts a domain FineStatusChange to a model FineStatusChange
func ToModelFineStatusChange(d domain.FineStatusChange) models.FineStatusChange {
	return models.FineStatusChange{
		FineID:    d.FineID,
		OldStatus: string(d.OldStatus),
		NewStatus: string(d.NewStatus),
		Note:      d.Note,
		ChangedBy: d.ChangedBy,
		ChangedAt: d.ChangedAt,
	}
}

// ToDomainFineStatusChange converts a model FineStatusChange to a domain FineStatusChange
func ToDomainFineStatusChange(m models.FineStatusChange) domain.FineStatusChange {
	return domain.FineStatusChange{
		FineID:    m.FineID,
		OldStatus: domain.FineStatus(m.OldStatus),
		NewStatus: domain.FineStatus(m.NewStatus),
		Note:      m.Note,
		ChangedBy: m.ChangedBy,
		ChangedAt: m.ChangedAt,
	}
}

// encodeOptional maps a nil sub-record to SQL NULL.
func encodeOptional[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func decodeOptional[T any](raw []byte) (*T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
