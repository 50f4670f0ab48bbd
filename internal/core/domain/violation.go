package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Severity ranks how serious a violation or category is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IsValid reports whether s is a known severity.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// ViolationStatus is the admin-review state of a violation.
type ViolationStatus string

const (
	ViolationPending     ViolationStatus = "pending"
	ViolationUnderReview ViolationStatus = "under_review"
	ViolationApproved    ViolationStatus = "approved"
	ViolationRejected    ViolationStatus = "rejected"
	ViolationDismissed   ViolationStatus = "dismissed"
	ViolationResolved    ViolationStatus = "resolved" // approved and its fine settled
)

// IsReviewable reports whether an admin may still decide on the violation.
func (s ViolationStatus) IsReviewable() bool {
	return s == ViolationPending || s == ViolationUnderReview
}

// Priority orders the admin review queue.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ReviewDecision is what an admin decides about a reported violation.
type ReviewDecision string

const (
	DecisionStartReview ReviewDecision = "start_review"
	DecisionApprove     ReviewDecision = "approve"
	DecisionReject      ReviewDecision = "reject"
	DecisionDismiss     ReviewDecision = "dismiss"
)

// TargetStatus maps a decision onto the violation status it produces.
func (d ReviewDecision) TargetStatus() (ViolationStatus, error) {
	switch d {
	case DecisionStartReview:
		return ViolationUnderReview, nil
	case DecisionApprove:
		return ViolationApproved, nil
	case DecisionReject:
		return ViolationRejected, nil
	case DecisionDismiss:
		return ViolationDismissed, nil
	}
	return "", fmt.Errorf("%w: unknown review decision %q", apperrors.ErrValidation, d)
}

// Evidence is a handle to a photo, video or document stored elsewhere.
type Evidence struct {
	Type      string `json:"type"` // photo, video, document
	Reference string `json:"reference"`
}

// ViolationReview is the mutable admin-review sub-record.
type ViolationReview struct {
	ReviewedBy         *string          `json:"reviewedBy,omitempty"`
	ReviewedAt         *time.Time       `json:"reviewedAt,omitempty"`
	Notes              string           `json:"notes"`
	AssignedFineAmount *decimal.Decimal `json:"assignedFineAmount,omitempty"`
	Priority           Priority         `json:"priority"`
}

// Violation is a reported incident. The fact fields never change after creation.
type Violation struct {
	ViolationID   string          `json:"violationID"`
	CategoryID    string          `json:"categoryID"`
	Severity      Severity        `json:"severity"`
	IncidentAt    time.Time       `json:"incidentAt"`
	Location      string          `json:"location"`
	ReportedBy    string          `json:"reportedBy"`
	ResidentID    string          `json:"residentID"` // liable party, recipient of the fine
	UnitNumber    string          `json:"unitNumber"`
	VehicleNumber string          `json:"vehicleNumber"`
	Evidence      []Evidence      `json:"evidence"`
	Description   string          `json:"description"`
	Status        ViolationStatus `json:"status"`
	Review        ViolationReview `json:"review"`
	AuditFields
}

// Validate checks the violation invariants.
func (v Violation) Validate() error {
	if v.CategoryID == "" {
		return fmt.Errorf("%w: category is required", apperrors.ErrValidation)
	}
	if !v.Severity.IsValid() {
		return fmt.Errorf("%w: invalid severity %q", apperrors.ErrValidation, v.Severity)
	}
	if v.IncidentAt.IsZero() {
		return fmt.Errorf("%w: incident time is required", apperrors.ErrValidation)
	}
	if v.Review.AssignedFineAmount != nil && v.Review.AssignedFineAmount.IsNegative() {
		return fmt.Errorf("%w: assigned fine amount must not be negative", apperrors.ErrValidation)
	}
	reviewed := v.Review.ReviewedAt != nil
	if reviewed != (v.Status != ViolationPending) {
		return fmt.Errorf("%w: reviewedAt must be set exactly when status is past pending", apperrors.ErrValidation)
	}
	return nil
}

// ApplyReview moves the violation according to decision and stamps the review sub-record.
// fineAmount, when non-nil, overrides the category's suggested amount on approval.
func (v *Violation) ApplyReview(decision ReviewDecision, fineAmount *decimal.Decimal, notes, actorID string, now time.Time) error {
	target, err := decision.TargetStatus()
	if err != nil {
		return err
	}
	if err := ValidateViolationTransition(v.Status, target); err != nil {
		return err
	}
	if fineAmount != nil {
		if fineAmount.IsNegative() {
			return fmt.Errorf("%w: fine amount must not be negative", apperrors.ErrValidation)
		}
		amount := *fineAmount
		v.Review.AssignedFineAmount = &amount
	}

	reviewer := actorID
	reviewedAt := now
	v.Status = target
	v.Review.ReviewedBy = &reviewer
	v.Review.ReviewedAt = &reviewedAt
	if notes != "" {
		v.Review.Notes = notes
	}
	v.Touch(actorID, now)
	return nil
}

// MarkResolved records that the violation's fine has been settled.
func (v *Violation) MarkResolved(actorID string, now time.Time) error {
	if err := ValidateViolationTransition(v.Status, ViolationResolved); err != nil {
		return err
	}
	v.Status = ViolationResolved
	v.Touch(actorID, now)
	return nil
}
