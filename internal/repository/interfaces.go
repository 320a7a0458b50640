package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/campuspay/fee-engine/internal/domain"
)

// FeeStructureRepository defines the interface for cohort fee structure data operations
type FeeStructureRepository interface {
	// Create creates a fee structure for a cohort
	Create(ctx context.Context, fs *domain.FeeStructure) error

	// GetByCohortID retrieves the fee structure for a cohort
	GetByCohortID(ctx context.Context, cohortID string) (*domain.FeeStructure, error)
}

// ScholarshipRepository defines the interface for scholarship grant data operations
type ScholarshipRepository interface {
	// Upsert creates or replaces a student's scholarship grant
	Upsert(ctx context.Context, grant *domain.ScholarshipGrant) error

	// GetByStudentID retrieves a student's scholarship grant
	GetByStudentID(ctx context.Context, studentID string) (*domain.ScholarshipGrant, error)
}

// ScheduleRepository defines the interface for schedule snapshot data operations
type ScheduleRepository interface {
	// Save upserts a student's schedule snapshot
	Save(ctx context.Context, record *domain.StudentPayment) error

	// GetByStudentID retrieves a student's schedule snapshot
	GetByStudentID(ctx context.Context, studentID string) (*domain.StudentPayment, error)

	// ListStudentIDs lists every student with a stored snapshot
	ListStudentIDs(ctx context.Context) ([]string, error)
}

// TransactionRepository defines the interface for payment transaction data operations
type TransactionRepository interface {
	// Create appends a payment transaction
	Create(ctx context.Context, tx *domain.PaymentTransaction) error

	// GetByID retrieves a transaction by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentTransaction, error)

	// ListByStudent retrieves all transactions for a student
	ListByStudent(ctx context.Context, studentID string) ([]*domain.PaymentTransaction, error)

	// ListByInstallment retrieves the transactions applied against one installment
	ListByInstallment(ctx context.Context, studentID string, installmentNumber int) ([]*domain.PaymentTransaction, error)

	// UpdateVerificationStatus records the admin approve/reject decision
	UpdateVerificationStatus(ctx context.Context, id uuid.UUID, status string) error
}
