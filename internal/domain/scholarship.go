package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScholarshipGrant is a per-student discount: a base scholarship percentage
// plus an optional additional discount, both in [0, 100].
type ScholarshipGrant struct {
	ID                           uuid.UUID       `json:"id" db:"id"`
	StudentID                    string          `json:"student_id" db:"student_id"`
	CohortID                     string          `json:"cohort_id" db:"cohort_id"`
	ScholarshipPercentage        decimal.Decimal `json:"scholarship_percentage" db:"scholarship_percentage"`
	AdditionalDiscountPercentage decimal.Decimal `json:"additional_discount_percentage" db:"additional_discount_percentage"`
	CreatedAt                    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt                    time.Time       `json:"updated_at" db:"updated_at"`
}

type UpsertScholarshipRequest struct {
	CohortID                     string          `json:"cohort_id" validate:"required"`
	ScholarshipPercentage        decimal.Decimal `json:"scholarship_percentage" validate:"decimal_gte=0,decimal_lte=100"`
	AdditionalDiscountPercentage decimal.Decimal `json:"additional_discount_percentage" validate:"decimal_gte=0,decimal_lte=100"`
}

type DiscountPreviewRequest struct {
	ScholarshipPercentage        decimal.Decimal `json:"scholarship_percentage" validate:"decimal_gte=0,decimal_lte=100"`
	AdditionalDiscountPercentage decimal.Decimal `json:"additional_discount_percentage" validate:"decimal_gte=0,decimal_lte=100"`
}

type DiscountPreviewResponse struct {
	TotalPercentage decimal.Decimal `json:"total_percentage"`
	Clamped         bool            `json:"clamped"`
}
