package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentPlan selects how the final program fee is partitioned.
type PaymentPlan string

const (
	PlanOneShot        PaymentPlan = "one_shot"
	PlanSemWise        PaymentPlan = "sem_wise"
	PlanInstalmentWise PaymentPlan = "instalment_wise"
	PlanNotSelected    PaymentPlan = "not_selected"
)

// InstallmentStatus is the discrete payment state of one installment, also
// used for the aggregate status across a student's schedule.
type InstallmentStatus string

const (
	StatusPaid                             InstallmentStatus = "paid"
	StatusPending                          InstallmentStatus = "pending"
	StatusPending10PlusDays                InstallmentStatus = "pending_10_plus_days"
	StatusPartiallyPaidDaysLeft            InstallmentStatus = "partially_paid_days_left"
	StatusVerificationPending              InstallmentStatus = "verification_pending"
	StatusPartiallyPaidVerificationPending InstallmentStatus = "partially_paid_verification_pending"
	StatusPartiallyPaidOverdue             InstallmentStatus = "partially_paid_overdue"
	StatusOverdue                          InstallmentStatus = "overdue"
)

// Installment is one scheduled payment obligation.
// Invariant after reconciliation: AmountPaid + AmountPending == Amount.
type Installment struct {
	InstallmentNumber int               `json:"installment_number"`
	SemesterNumber    int               `json:"semester_number,omitempty"`
	DueDate           time.Time         `json:"due_date"`
	Amount            decimal.Decimal   `json:"amount"`
	Status            InstallmentStatus `json:"status"`
	AmountPaid        decimal.Decimal   `json:"amount_paid"`
	AmountPending     decimal.Decimal   `json:"amount_pending"`
}

type ScheduleSummary struct {
	TotalInstallments    int              `json:"total_installments"`
	NextDueDate          *time.Time       `json:"next_due_date,omitempty"`
	NextDueAmount        *decimal.Decimal `json:"next_due_amount,omitempty"`
	CompletionPercentage decimal.Decimal  `json:"completion_percentage"`
}

// Schedule is the computed payment breakdown for one student. It is persisted
// verbatim as a snapshot and re-derived against the transaction log on read.
type Schedule struct {
	Plan         PaymentPlan     `json:"plan"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	AdmissionFee decimal.Decimal `json:"admission_fee"`
	ProgramFee   decimal.Decimal `json:"program_fee"`
	Installments []*Installment  `json:"installments"`
	Summary      ScheduleSummary `json:"summary"`
}

// StudentPayment is the persisted snapshot row tying a student to a cohort,
// plan and computed Schedule.
type StudentPayment struct {
	StudentID   string      `json:"student_id" db:"student_id"`
	CohortID    string      `json:"cohort_id" db:"cohort_id"`
	PaymentPlan PaymentPlan `json:"payment_plan" db:"payment_plan"`
	Schedule    *Schedule   `json:"schedule" db:"-"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// DTOs for requests and responses

type GenerateScheduleRequest struct {
	CohortID    string `json:"cohort_id" validate:"required"`
	PaymentPlan string `json:"payment_plan" validate:"required,oneof=one_shot sem_wise instalment_wise"`
	StartDate   string `json:"start_date" validate:"required,datetime=2006-01-02"`
}

type GenerateScheduleResponse struct {
	StudentID       string    `json:"student_id"`
	Schedule        *Schedule `json:"schedule"`
	DiscountClamped bool      `json:"discount_clamped,omitempty"`
}

// InstallmentError reports a status derivation failure isolated to a single
// installment so the rest of the schedule still renders.
type InstallmentError struct {
	InstallmentNumber int    `json:"installment_number"`
	Error             string `json:"error"`
}

type ScheduleResponse struct {
	StudentID string             `json:"student_id"`
	Schedule  *Schedule          `json:"schedule"`
	Errors    []InstallmentError `json:"errors,omitempty"`
}

type AggregateStatusResponse struct {
	StudentID string            `json:"student_id"`
	Status    InstallmentStatus `json:"status"`
}
