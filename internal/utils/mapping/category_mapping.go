package mapping

import (
	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/SscSPs/property_fines_app/internal/models"
)

// ToModelCategory converts a domain ViolationCategory to a model ViolationCategory
func ToModelCategory(d domain.ViolationCategory) models.ViolationCategory {
	return models.ViolationCategory{
		CategoryID:     d.CategoryID,
		Name:           d.Name,
		Description:    d.Description,
		BaseFineAmount: d.BaseFineAmount,
		Severity:       string(d.Severity),
		IsActive:       d.IsActive,
		AuditFields:    auditToModel(d.AuditFields),
	}
}

// ToDomainCategory converts a model ViolationCategory to a domain ViolationCategory
func ToDomainCategory(m models.ViolationCategory) domain.ViolationCategory {
	return domain.ViolationCategory{
		CategoryID:     m.CategoryID,
		Name:           m.Name,
		Description:    m.Description,
		BaseFineAmount: m.BaseFineAmount,
		Severity:       domain.Severity(m.Severity),
		IsActive:       m.IsActive,
		AuditFields:    auditToDomain(m.AuditFields),
	}
}

// ToDomainCategorySlice converts a slice of model categories to domain categories
func ToDomainCategorySlice(ms []models.ViolationCategory) []domain.ViolationCategory {
	ds := make([]domain.ViolationCategory, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainCategory(m)
	}
	return ds
}
