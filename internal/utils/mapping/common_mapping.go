package mapping

import (
	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/SscSPs/property_fines_app/internal/models"
)

// audit columns carry the optimistic-lock version alongside the actor stamps.
func auditToModel(d domain.AuditFields) models.AuditFields {
	return models.AuditFields(d)
}

func auditToDomain(m models.AuditFields) domain.AuditFields {
	return domain.AuditFields(m)
}
