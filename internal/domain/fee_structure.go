package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeStructure defines how much a cohort pays and how the program fee may be
// split. Immutable once created for a cohort.
type FeeStructure struct {
	ID                     uuid.UUID       `json:"id" db:"id"`
	CohortID               string          `json:"cohort_id" db:"cohort_id"`
	TotalProgramFee        decimal.Decimal `json:"total_program_fee" db:"total_program_fee"`
	AdmissionFee           decimal.Decimal `json:"admission_fee" db:"admission_fee"`
	NumberOfSemesters      int             `json:"number_of_semesters" db:"number_of_semesters"`
	InstalmentsPerSemester int             `json:"instalments_per_semester" db:"instalments_per_semester"`
	CreatedAt              time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at" db:"updated_at"`
}

// DTOs for requests and responses

type CreateFeeStructureRequest struct {
	TotalProgramFee        decimal.Decimal `json:"total_program_fee" validate:"required,decimal_gt=0"`
	AdmissionFee           decimal.Decimal `json:"admission_fee" validate:"decimal_gte=0"`
	NumberOfSemesters      int             `json:"number_of_semesters" validate:"required,gte=1"`
	InstalmentsPerSemester int             `json:"instalments_per_semester" validate:"required,gte=1"`
}
