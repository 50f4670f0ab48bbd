package domain

import (
	"fmt"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
)

// fineTransitions lists every legal Fine.status edge. Anything absent is rejected.
var fineTransitions = map[FineStatus]map[FineStatus]bool{
	FinePending: {
		FinePartiallyPaid: true,
		FinePaid:          true,
		FineOverdue:       true,
		FineWaived:        true,
		FineDisputed:      true,
	},
	FinePartiallyPaid: {
		FinePaid:     true,
		FineOverdue:  true,
		FineWaived:   true,
		FineDisputed: true,
	},
	FineOverdue: {
		FinePartiallyPaid: true, // partial payment after the due date
		FinePaid:          true,
		FineWaived:        true,
		FineDisputed:      true,
	},
	// dispute resolution outcomes
	FineDisputed: {
		FinePending:       true,
		FinePartiallyPaid: true,
		FineOverdue:       true,
		FinePaid:          true,
		FineWaived:        true,
	},
}

// ValidateFineTransition reports whether a fine may move from -> to.
// It returns ErrAlreadyInState when from == to and ErrInvalidTransition for any unlisted edge.
func ValidateFineTransition(from, to FineStatus) error {
	if from == to {
		return fmt.Errorf("%w: fine is already %s", apperrors.ErrAlreadyInState, to)
	}
	if from.IsTerminal() {
		return fmt.Errorf("%w: fine is %s and accepts no further status change", apperrors.ErrInvalidTransition, from)
	}
	if !fineTransitions[from][to] {
		return fmt.Errorf("%w: fine cannot move from %s to %s", apperrors.ErrInvalidTransition, from, to)
	}
	return nil
}

var violationTransitions = map[ViolationStatus]map[ViolationStatus]bool{
	ViolationPending: {
		ViolationUnderReview: true,
		ViolationApproved:    true,
		ViolationRejected:    true,
		ViolationDismissed:   true,
	},
	ViolationUnderReview: {
		ViolationApproved:  true,
		ViolationRejected:  true,
		ViolationDismissed: true,
	},
	ViolationApproved: {
		ViolationResolved: true,
	},
}

// ValidateViolationTransition reports whether a violation may move from -> to.
func ValidateViolationTransition(from, to ViolationStatus) error {
	if from == to {
		return fmt.Errorf("%w: violation is already %s", apperrors.ErrAlreadyInState, to)
	}
	if !violationTransitions[from][to] {
		return fmt.Errorf("%w: violation cannot move from %s to %s", apperrors.ErrInvalidTransition, from, to)
	}
	return nil
}
