package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
	"github.com/shopspring/decimal"
)

// FineStatus is the lifecycle state of a fine.
type FineStatus string

const (
	FinePending       FineStatus = "pending"
	FinePartiallyPaid FineStatus = "partially_paid"
	FinePaid          FineStatus = "paid"
	FineOverdue       FineStatus = "overdue"
	FineWaived        FineStatus = "waived"
	FineDisputed      FineStatus = "disputed"
)

// AllFineStatuses lists every fine status in display order.
var AllFineStatuses = []FineStatus{FinePending, FinePartiallyPaid, FineOverdue, FineDisputed, FinePaid, FineWaived}

// IsValid reports whether s is a known fine status.
func (s FineStatus) IsValid() bool {
	for _, known := range AllFineStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s accepts no further status change.
func (s FineStatus) IsTerminal() bool {
	return s == FinePaid || s == FineWaived
}

// IsFrozen reports whether late-fee accrual is suspended in s.
func (s FineStatus) IsFrozen() bool {
	return s.IsTerminal() || s == FineDisputed
}

// RequestStatus is the review state of a waiver request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Waiver is the optional waiver sub-record of a fine.
type Waiver struct {
	Reason       string          `json:"reason"`
	RequestedBy  string          `json:"requestedBy"`
	RequestedAt  time.Time       `json:"requestedAt"`
	Status       RequestStatus   `json:"status"`
	ReviewedBy   *string         `json:"reviewedBy,omitempty"`
	ReviewedAt   *time.Time      `json:"reviewedAt,omitempty"`
	AdminNotes   string          `json:"adminNotes,omitempty"`
	WaivedAmount decimal.Decimal `json:"waivedAmount"` // outstanding balance forgiven on approval
}

// DisputeResolution is the state of a dispute sub-record.
type DisputeResolution string

const (
	DisputeOpen   DisputeResolution = "open"
	DisputeUpheld DisputeResolution = "upheld" // fine stands
	DisputeWaived DisputeResolution = "waived" // fine forgiven
)

// DisputeOutcome is what an admin decides when resolving a dispute.
type DisputeOutcome string

const (
	OutcomeUphold DisputeOutcome = "uphold"
	OutcomeWaive  DisputeOutcome = "waive"
)

// Dispute is the optional dispute sub-record of a fine.
type Dispute struct {
	Reason           string            `json:"reason"`
	Evidence         []Evidence        `json:"evidence"`
	RaisedBy         string            `json:"raisedBy"`
	RaisedAt         time.Time         `json:"raisedAt"`
	PreviousStatus   FineStatus        `json:"previousStatus"`
	ResolutionStatus DisputeResolution `json:"resolutionStatus"`
	ResolutionNotes  string            `json:"resolutionNotes,omitempty"`
	ResolvedBy       *string           `json:"resolvedBy,omitempty"`
	ResolvedAt       *time.Time        `json:"resolvedAt,omitempty"`
}

// IntegrationStatus tracks the billing bridge export of a fine.
type IntegrationStatus string

const (
	IntegrationPending    IntegrationStatus = "pending"
	IntegrationIntegrated IntegrationStatus = "integrated"
	IntegrationFailed     IntegrationStatus = "failed"
)

// BillReference is the optional billing sub-record of a fine.
type BillReference struct {
	BillID            string            `json:"billID,omitempty"`
	BillNumber        string            `json:"billNumber,omitempty"`
	IntegrationStatus IntegrationStatus `json:"integrationStatus"`
	Amount            decimal.Decimal   `json:"amount"`
	DueDate           time.Time         `json:"dueDate"`
	Description       string            `json:"description"`
	FailureReason     string            `json:"failureReason,omitempty"`
	IntegratedAt      *time.Time        `json:"integratedAt,omitempty"`
}

// Fine is the monetary object issued for an approved violation.
type Fine struct {
	FineID        string          `json:"fineID"`
	ViolationID   string          `json:"violationID"`
	ResidentID    string          `json:"residentID"`
	FineAmount    decimal.Decimal `json:"fineAmount"`
	LateFee       decimal.Decimal `json:"lateFee"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	CurrencyCode  string          `json:"currencyCode"`
	IssuedDate    time.Time       `json:"issuedDate"`
	DueDate       time.Time       `json:"dueDate"`
	PaidDate      *time.Time      `json:"paidDate,omitempty"`
	LastPaymentAt *time.Time      `json:"lastPaymentAt,omitempty"`
	Status        FineStatus      `json:"status"`
	AccrualPaused time.Duration   `json:"-"` // time spent disputed, excluded from accrual

	ReminderCount  int        `json:"reminderCount"`
	LastReminderAt *time.Time `json:"lastReminderAt,omitempty"`

	Waiver  *Waiver        `json:"waiver,omitempty"`
	Dispute *Dispute       `json:"dispute,omitempty"`
	Bill    *BillReference `json:"bill,omitempty"`
	AuditFields
}

// FineStatusChange is one entry of a fine's status history.
type FineStatusChange struct {
	FineID    string     `json:"fineID"`
	OldStatus FineStatus `json:"oldStatus"` // empty on issuance
	NewStatus FineStatus `json:"newStatus"`
	Note      string     `json:"note"`
	ChangedBy string     `json:"changedBy"`
	ChangedAt time.Time  `json:"changedAt"`
}

// NewFine builds a pending fine. The caller assigns FineID.
func NewFine(fineID string, violation Violation, amount decimal.Decimal, dueDate time.Time, policy FinePolicy, actorID string, now time.Time) (Fine, error) {
	if amount.IsNegative() {
		return Fine{}, fmt.Errorf("%w: fine amount must not be negative", apperrors.ErrValidation)
	}
	if !dueDate.After(now) {
		return Fine{}, fmt.Errorf("%w: due date must be after the issue date", apperrors.ErrValidation)
	}
	amount = RoundMoney(amount, policy.CurrencyPrecision)
	return Fine{
		FineID:       fineID,
		ViolationID:  violation.ViolationID,
		ResidentID:   violation.ResidentID,
		FineAmount:   amount,
		LateFee:      decimal.Zero,
		TotalAmount:  amount,
		PaidAmount:   decimal.Zero,
		CurrencyCode: policy.CurrencyCode,
		IssuedDate:   now,
		DueDate:      dueDate,
		Status:       FinePending,
		AuditFields:  NewAuditFields(actorID, now),
	}, nil
}

// Outstanding is the balance still owed.
func (f Fine) Outstanding() decimal.Decimal {
	return f.TotalAmount.Sub(f.PaidAmount)
}

// IsOverdue is derived: past due and not settled.
func (f Fine) IsOverdue(now time.Time) bool {
	return now.After(f.DueDate) && !f.Status.IsTerminal()
}

// DaysOverdue is derived: whole days past due, zero when settled.
func (f Fine) DaysOverdue(now time.Time) int {
	if f.Status.IsTerminal() {
		return 0
	}
	return DaysOverdue(f.DueDate, now)
}

// StatusAsOf is the status a refresh at now would store: open fines past due read as overdue.
func (f Fine) StatusAsOf(now time.Time) FineStatus {
	if (f.Status == FinePending || f.Status == FinePartiallyPaid) && now.After(f.DueDate) {
		return FineOverdue
	}
	return f.Status
}

// Refresh recomputes the late fee and the overdue status as of now.
// Frozen fines are left alone. It reports whether anything changed.
func (f *Fine) Refresh(now time.Time, policy FinePolicy) bool {
	if f.Status.IsFrozen() {
		return false
	}
	changed := false
	fee := ComputeLateFee(f.FineAmount, f.DueDate.Add(f.AccrualPaused), now, policy.LateFee, policy.CurrencyPrecision)
	if fee.GreaterThan(f.LateFee) {
		f.LateFee = fee
		f.TotalAmount = f.FineAmount.Add(fee)
		changed = true
	}
	if status := f.StatusAsOf(now); status != f.Status {
		f.Status = status
		changed = true
	}
	return changed
}

// ComputeStatus derives the open status from the balance and due date.
func (f Fine) ComputeStatus(now time.Time) FineStatus {
	switch {
	case f.PaidAmount.GreaterThanOrEqual(f.TotalAmount):
		return FinePaid
	case now.After(f.DueDate):
		return FineOverdue
	case f.PaidAmount.IsPositive():
		return FinePartiallyPaid
	default:
		return FinePending
	}
}

// paymentStatus is the status a payment leaves behind. A late partial payment is recorded as
// partially paid; the next refresh moves it back to overdue.
func (f Fine) paymentStatus() FineStatus {
	if f.PaidAmount.GreaterThanOrEqual(f.TotalAmount) {
		return FinePaid
	}
	return FinePartiallyPaid
}

func (f *Fine) moveTo(to FineStatus) error {
	if f.Status == to {
		return nil
	}
	if err := ValidateFineTransition(f.Status, to); err != nil {
		return err
	}
	f.Status = to
	return nil
}

// ApplyPayment adds amount to the paid balance. A disputed fine keeps its status until the dispute is resolved.
func (f *Fine) ApplyPayment(amount decimal.Decimal, paidAt, now time.Time) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: payment amount must be positive", apperrors.ErrValidation)
	}
	if f.Status.IsTerminal() {
		return fmt.Errorf("%w: fine is already %s", apperrors.ErrInvalidTransition, f.Status)
	}
	if amount.GreaterThan(f.Outstanding()) {
		return fmt.Errorf("%w: payment %s exceeds outstanding %s", apperrors.ErrOverpayment, amount, f.Outstanding())
	}

	f.PaidAmount = f.PaidAmount.Add(amount)
	last := paidAt
	f.LastPaymentAt = &last
	if f.PaidAmount.Equal(f.TotalAmount) {
		at := paidAt
		f.PaidDate = &at
	}
	if f.Status == FineDisputed {
		return nil
	}
	return f.moveTo(f.paymentStatus())
}

// ApplyRefund reduces the paid balance. Only disputed fines accept refunds.
func (f *Fine) ApplyRefund(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: refund amount must be positive", apperrors.ErrValidation)
	}
	if f.Status != FineDisputed {
		return fmt.Errorf("%w: refunds are only issued on disputed fines, fine is %s", apperrors.ErrInvalidTransition, f.Status)
	}
	if amount.GreaterThan(f.PaidAmount) {
		return fmt.Errorf("%w: refund %s exceeds paid amount %s", apperrors.ErrValidation, amount, f.PaidAmount)
	}
	f.PaidAmount = f.PaidAmount.Sub(amount)
	if f.PaidAmount.LessThan(f.TotalAmount) {
		f.PaidDate = nil
	}
	return nil
}

// RequestWaiver attaches a pending waiver without changing the status.
func (f *Fine) RequestWaiver(reason, actorID string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: waiver reason is required", apperrors.ErrValidation)
	}
	if f.Status.IsTerminal() {
		return fmt.Errorf("%w: fine is already %s", apperrors.ErrInvalidTransition, f.Status)
	}
	if f.Waiver != nil && f.Waiver.Status == RequestPending {
		return fmt.Errorf("%w: a waiver request is already pending", apperrors.ErrConflict)
	}
	f.Waiver = &Waiver{
		Reason:      reason,
		RequestedBy: actorID,
		RequestedAt: now,
		Status:      RequestPending,
	}
	return nil
}

// ResolveWaiver approves or rejects the pending waiver. Disputed fines must resolve the dispute first.
func (f *Fine) ResolveWaiver(approve bool, notes, actorID string, now time.Time) error {
	if f.Waiver == nil {
		return fmt.Errorf("%w: fine has no waiver request", apperrors.ErrNotFound)
	}
	if f.Waiver.Status != RequestPending {
		return fmt.Errorf("%w: waiver request is already %s", apperrors.ErrInvalidTransition, f.Waiver.Status)
	}
	if f.Status == FineDisputed {
		return fmt.Errorf("%w: resolve the dispute before the waiver", apperrors.ErrInvalidTransition)
	}
	if approve {
		outstanding := f.Outstanding()
		if err := f.moveTo(FineWaived); err != nil {
			return err
		}
		f.Waiver.Status = RequestApproved
		f.Waiver.WaivedAmount = outstanding
	} else {
		f.Waiver.Status = RequestRejected
	}
	reviewer := actorID
	at := now
	f.Waiver.ReviewedBy = &reviewer
	f.Waiver.ReviewedAt = &at
	f.Waiver.AdminNotes = notes
	return nil
}

// Waive forgives the outstanding balance in one step, recording an approved waiver.
func (f *Fine) Waive(reason, actorID string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: waiver reason is required", apperrors.ErrValidation)
	}
	if f.Status == FineDisputed {
		return fmt.Errorf("%w: resolve the dispute to waive a disputed fine", apperrors.ErrInvalidTransition)
	}
	if f.Waiver != nil && f.Waiver.Status == RequestPending && !f.Status.IsTerminal() {
		return f.ResolveWaiver(true, reason, actorID, now)
	}
	if err := ValidateFineTransition(f.Status, FineWaived); err != nil {
		return err
	}
	outstanding := f.Outstanding()
	f.Status = FineWaived
	reviewer := actorID
	at := now
	f.Waiver = &Waiver{
		Reason:       reason,
		RequestedBy:  actorID,
		RequestedAt:  now,
		Status:       RequestApproved,
		ReviewedBy:   &reviewer,
		ReviewedAt:   &at,
		WaivedAmount: outstanding,
	}
	return nil
}

// RaiseDispute moves the fine to disputed, freezing accrual and reminders.
func (f *Fine) RaiseDispute(reason string, evidence []Evidence, actorID string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: dispute reason is required", apperrors.ErrValidation)
	}
	previous := f.Status
	if err := ValidateFineTransition(previous, FineDisputed); err != nil {
		return err
	}
	f.Status = FineDisputed
	f.Dispute = &Dispute{
		Reason:           reason,
		Evidence:         evidence,
		RaisedBy:         actorID,
		RaisedAt:         now,
		PreviousStatus:   previous,
		ResolutionStatus: DisputeOpen,
	}
	return nil
}

// ResolveDispute closes the open dispute. Upholding returns the fine to the status its balance and
// due date imply, with the disputed time excluded from late-fee accrual.
func (f *Fine) ResolveDispute(outcome DisputeOutcome, notes, actorID string, now time.Time, policy FinePolicy) error {
	if f.Status != FineDisputed || f.Dispute == nil {
		return fmt.Errorf("%w: fine is %s, not disputed", apperrors.ErrInvalidTransition, f.Status)
	}

	switch outcome {
	case OutcomeWaive:
		f.Dispute.ResolutionStatus = DisputeWaived
		outstanding := f.Outstanding()
		if !outstanding.IsPositive() {
			// settled during the dispute: nothing is left to waive
			if err := f.moveTo(FinePaid); err != nil {
				return err
			}
			if f.PaidDate == nil {
				at := now
				f.PaidDate = &at
			}
			break
		}
		if err := f.moveTo(FineWaived); err != nil {
			return err
		}
		reviewer := actorID
		at := now
		if f.Waiver == nil || f.Waiver.Status != RequestPending {
			f.Waiver = &Waiver{Reason: notes, RequestedBy: actorID, RequestedAt: now}
		}
		f.Waiver.Status = RequestApproved
		f.Waiver.ReviewedBy = &reviewer
		f.Waiver.ReviewedAt = &at
		f.Waiver.AdminNotes = notes
		f.Waiver.WaivedAmount = outstanding
	case OutcomeUphold:
		f.Dispute.ResolutionStatus = DisputeUpheld
		if now.After(f.Dispute.RaisedAt) {
			f.AccrualPaused += now.Sub(f.Dispute.RaisedAt)
		}
		fee := ComputeLateFee(f.FineAmount, f.DueDate.Add(f.AccrualPaused), now, policy.LateFee, policy.CurrencyPrecision)
		if fee.GreaterThan(f.LateFee) {
			f.LateFee = fee
			f.TotalAmount = f.FineAmount.Add(fee)
		}
		if err := f.moveTo(f.ComputeStatus(now)); err != nil {
			return err
		}
		if f.Status == FinePaid && f.PaidDate == nil {
			at := now
			f.PaidDate = &at
		}
	default:
		return fmt.Errorf("%w: unknown dispute outcome %q", apperrors.ErrValidation, outcome)
	}

	resolver := actorID
	at := now
	f.Dispute.ResolutionNotes = notes
	f.Dispute.ResolvedBy = &resolver
	f.Dispute.ResolvedAt = &at
	return nil
}

// RecordReminder counts a reminder sent to the resident.
func (f *Fine) RecordReminder(now time.Time) error {
	if f.Status.IsFrozen() {
		return fmt.Errorf("%w: reminders are not sent for %s fines", apperrors.ErrInvalidTransition, f.Status)
	}
	f.ReminderCount++
	at := now
	f.LastReminderAt = &at
	return nil
}

// Validate checks the balance and status invariants.
func (f Fine) Validate() error {
	if f.ViolationID == "" {
		return fmt.Errorf("%w: fine must reference a violation", apperrors.ErrValidation)
	}
	if !f.Status.IsValid() {
		return fmt.Errorf("%w: invalid fine status %q", apperrors.ErrValidation, f.Status)
	}
	if f.FineAmount.IsNegative() || f.LateFee.IsNegative() {
		return fmt.Errorf("%w: amounts must not be negative", apperrors.ErrValidation)
	}
	if !f.TotalAmount.Equal(f.FineAmount.Add(f.LateFee)) {
		return fmt.Errorf("%w: total must equal fine amount plus late fee", apperrors.ErrValidation)
	}
	if f.PaidAmount.IsNegative() || f.PaidAmount.GreaterThan(f.TotalAmount) {
		return fmt.Errorf("%w: paid amount must stay within 0 and total", apperrors.ErrValidation)
	}
	if f.Status == FinePaid && f.PaidAmount.LessThan(f.TotalAmount) {
		return fmt.Errorf("%w: a paid fine must have no outstanding balance", apperrors.ErrValidation)
	}
	if !f.DueDate.After(f.IssuedDate) {
		return fmt.Errorf("%w: due date must be after the issue date", apperrors.ErrValidation)
	}
	if f.Status == FineWaived && (f.Waiver == nil || f.Waiver.Status != RequestApproved) {
		return fmt.Errorf("%w: a waived fine must carry an approved waiver", apperrors.ErrValidation)
	}
	if f.Status == FineDisputed && (f.Dispute == nil || f.Dispute.ResolutionStatus != DisputeOpen) {
		return fmt.Errorf("%w: a disputed fine must carry an open dispute", apperrors.ErrValidation)
	}
	return nil
}

// StartBillIntegration records a pending export to the billing ledger.
// A failed or interrupted export may be retried; a completed one may not.
func (f *Fine) StartBillIntegration(amount decimal.Decimal, dueDate time.Time, description string) error {
	if f.Status == FineWaived {
		return fmt.Errorf("%w: waived fines are not billed", apperrors.ErrInvalidTransition)
	}
	if f.Bill != nil && f.Bill.IntegrationStatus == IntegrationIntegrated {
		return fmt.Errorf("%w: fine already exported as bill %s", apperrors.ErrIntegrationAlreadyCompleted, f.Bill.BillNumber)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: nothing to bill", apperrors.ErrValidation)
	}
	f.Bill = &BillReference{
		IntegrationStatus: IntegrationPending,
		Amount:            amount,
		DueDate:           dueDate,
		Description:       description,
	}
	return nil
}

// CompleteBillIntegration stores the ledger's bill identifiers.
func (f *Fine) CompleteBillIntegration(billID, billNumber string, now time.Time) error {
	if f.Bill == nil || f.Bill.IntegrationStatus != IntegrationPending {
		return fmt.Errorf("%w: no billing export in progress", apperrors.ErrInvalidTransition)
	}
	at := now
	f.Bill.BillID = billID
	f.Bill.BillNumber = billNumber
	f.Bill.IntegrationStatus = IntegrationIntegrated
	f.Bill.IntegratedAt = &at
	f.Bill.FailureReason = ""
	return nil
}

// FailBillIntegration marks the export failed so it can be retried.
func (f *Fine) FailBillIntegration(reason string) error {
	if f.Bill == nil || f.Bill.IntegrationStatus != IntegrationPending {
		return fmt.Errorf("%w: no billing export in progress", apperrors.ErrInvalidTransition)
	}
	f.Bill.IntegrationStatus = IntegrationFailed
	f.Bill.FailureReason = reason
	return nil
}
