package dto

import "github.com/SscSPs/property_fines_app/internal/core/domain"

// BulkActionRequest applies one action to many records.
type BulkActionRequest struct {
	Action     domain.BulkAction     `json:"action" binding:"required,oneof=approve reject dismiss waive remind mark_paid"`
	TargetType domain.BulkTargetType `json:"targetType" binding:"required,oneof=violation fine"`
	TargetIDs  []string              `json:"targetIDs" binding:"required,min=1,dive,required"`
	Reason     string                `json:"reason"`
}
