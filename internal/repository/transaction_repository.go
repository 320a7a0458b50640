package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuspay/fee-engine/internal/domain"
)

type transactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, payment *domain.PaymentTransaction) error {
	query := `
		INSERT INTO payment_transactions (id, student_id, installment_number, amount, method, reference, verification_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	// Insert runs in a transaction so two concurrent partial payments against
	// the same installment serialize at the database.
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, query,
		payment.ID,
		payment.StudentID,
		payment.InstallmentNumber,
		payment.Amount,
		payment.Method,
		payment.Reference,
		payment.VerificationStatus,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentTransaction, error) {
	query := `
		SELECT id, student_id, installment_number, amount, method, reference, verification_status, created_at, updated_at
		FROM payment_transactions
		WHERE id = $1
	`

	var payment domain.PaymentTransaction
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *transactionRepository) ListByStudent(ctx context.Context, studentID string) ([]*domain.PaymentTransaction, error) {
	query := `
		SELECT id, student_id, installment_number, amount, method, reference, verification_status, created_at, updated_at
		FROM payment_transactions
		WHERE student_id = $1
		ORDER BY installment_number, created_at
	`

	var payments []*domain.PaymentTransaction
	if err := r.db.SelectContext(ctx, &payments, query, studentID); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *transactionRepository) ListByInstallment(ctx context.Context, studentID string, installmentNumber int) ([]*domain.PaymentTransaction, error) {
	query := `
		SELECT id, student_id, installment_number, amount, method, reference, verification_status, created_at, updated_at
		FROM payment_transactions
		WHERE student_id = $1 AND installment_number = $2
		ORDER BY created_at
	`

	var payments []*domain.PaymentTransaction
	if err := r.db.SelectContext(ctx, &payments, query, studentID, installmentNumber); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *transactionRepository) UpdateVerificationStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `
		UPDATE payment_transactions
		SET verification_status = $2, updated_at = $3
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	return err
}
