package mapping

import (
	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/SscSPs/property_fines_app/internal/models"
)

// ToModelPayment converts a domain Payment to a model Payment
func ToModelPayment(d domain.Payment) models.Payment {
	return models.Payment{
		PaymentID:        d.PaymentID,
		FineID:           d.FineID,
		Amount:           d.Amount,
		Method:           string(d.Method),
		Reference:        d.Reference,
		PaidAt:           d.PaidAt,
		Status:           string(d.Status),
		GatewayOrderID:   d.GatewayOrderID,
		GatewayPaymentID: d.GatewayPaymentID,
		RefundOf:         d.RefundOf,
		FailureReason:    d.FailureReason,
		AuditFields:      auditToModel(d.AuditFields),
	}
}

// ToDomainPayment converts a model Payment to a domain Payment
func ToDomainPayment(m models.Payment) domain.Payment {
	return domain.Payment{
		PaymentID:        m.PaymentID,
		FineID:           m.FineID,
		Amount:           m.Amount,
		Method:           domain.PaymentMethod(m.Method),
		Reference:        m.Reference,
		PaidAt:           m.PaidAt,
		Status:           domain.PaymentStatus(m.Status),
		GatewayOrderID:   m.GatewayOrderID,
		GatewayPaymentID: m.GatewayPaymentID,
		RefundOf:         m.RefundOf,
		FailureReason:    m.FailureReason,
		AuditFields:      auditToDomain(m.AuditFields),
	}
}

// ToDomainPaymentSlice converts a slice of model payments to domain payments
func ToDomainPaymentSlice(ms []models.Payment) []domain.Payment {
	ds := make([]domain.Payment, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainPayment(m)
	}
	return ds
}
