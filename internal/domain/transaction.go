package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Verification states for a submitted payment.
const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

// PaymentTransaction is one payment event against an installment. The log is
// append-only per installment; only the verification status mutates, via an
// admin review.
type PaymentTransaction struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	StudentID          string          `json:"student_id" db:"student_id"`
	InstallmentNumber  int             `json:"installment_number" db:"installment_number"`
	Amount             decimal.Decimal `json:"amount" db:"amount"`
	Method             string          `json:"method" db:"method"`
	Reference          string          `json:"reference" db:"reference"`
	VerificationStatus string          `json:"verification_status" db:"verification_status"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// DTOs for requests and responses

type RecordPaymentRequest struct {
	InstallmentNumber int             `json:"installment_number" validate:"required,gte=1"`
	Amount            decimal.Decimal `json:"amount" validate:"required,decimal_gt=0"`
	Method            string          `json:"method" validate:"required"`
	Reference         string          `json:"reference" validate:"required"`
}

type ReviewTransactionRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
}

type TransactionResponse struct {
	Transaction *PaymentTransaction `json:"transaction"`
}
