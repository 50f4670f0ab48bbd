package domain

import (
	"fmt"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
)

// BulkAction is one decision applied across many records.
type BulkAction string

const (
	BulkApprove  BulkAction = "approve"
	BulkReject   BulkAction = "reject"
	BulkDismiss  BulkAction = "dismiss"
	BulkWaive    BulkAction = "waive"
	BulkRemind   BulkAction = "remind"
	BulkMarkPaid BulkAction = "mark_paid"
)

// BulkTargetType names the kind of record a bulk action targets.
type BulkTargetType string

const (
	TargetViolation BulkTargetType = "violation"
	TargetFine      BulkTargetType = "fine"
)

// ValidateBulkAction checks the action applies to the target type.
func ValidateBulkAction(action BulkAction, target BulkTargetType) error {
	switch target {
	case TargetViolation:
		switch action {
		case BulkApprove, BulkReject, BulkDismiss:
			return nil
		}
	case TargetFine:
		switch action {
		case BulkWaive, BulkRemind, BulkMarkPaid:
			return nil
		}
	default:
		return fmt.Errorf("%w: unknown target type %q", apperrors.ErrValidation, target)
	}
	return fmt.Errorf("%w: action %q does not apply to %s targets", apperrors.ErrValidation, action, target)
}

// BulkItemResult is the outcome for one target id.
type BulkItemResult struct {
	TargetID  string `json:"targetID"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"errorKind,omitempty"`
}

// BulkResult summarises a bulk action. Results follow the order of the requested ids.
type BulkResult struct {
	Action     BulkAction       `json:"action"`
	TargetType BulkTargetType   `json:"targetType"`
	Total      int              `json:"total"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Results    []BulkItemResult `json:"results"`
}

// NewBulkResult tallies per-item results.
func NewBulkResult(action BulkAction, target BulkTargetType, results []BulkItemResult) BulkResult {
	out := BulkResult{Action: action, TargetType: target, Total: len(results), Results: results}
	for _, r := range results {
		if r.Success {
			out.Successful++
		} else {
			out.Failed++
		}
	}
	return out
}
