package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campuspay/fee-engine/internal/domain"
)

type scheduleRepository struct {
	db *sqlx.DB
}

func NewScheduleRepository(db *sqlx.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

// studentPaymentRow carries the snapshot as raw JSONB between the struct and
// the student_payments table.
type studentPaymentRow struct {
	StudentID   string    `db:"student_id"`
	CohortID    string    `db:"cohort_id"`
	PaymentPlan string    `db:"payment_plan"`
	Breakdown   []byte    `db:"breakdown"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *scheduleRepository) Save(ctx context.Context, record *domain.StudentPayment) error {
	breakdown, err := json.Marshal(record.Schedule)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO student_payments (student_id, cohort_id, payment_plan, breakdown, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (student_id)
		DO UPDATE SET cohort_id = EXCLUDED.cohort_id,
		              payment_plan = EXCLUDED.payment_plan,
		              breakdown = EXCLUDED.breakdown,
		              updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, query,
		record.StudentID,
		record.CohortID,
		record.PaymentPlan,
		breakdown,
		record.CreatedAt,
		record.UpdatedAt,
	)

	return err
}

func (r *scheduleRepository) GetByStudentID(ctx context.Context, studentID string) (*domain.StudentPayment, error) {
	query := `
		SELECT student_id, cohort_id, payment_plan, breakdown, created_at, updated_at
		FROM student_payments
		WHERE student_id = $1
	`

	var row studentPaymentRow
	if err := r.db.GetContext(ctx, &row, query, studentID); err != nil {
		return nil, err
	}

	var sched domain.Schedule
	if err := json.Unmarshal(row.Breakdown, &sched); err != nil {
		return nil, err
	}

	return &domain.StudentPayment{
		StudentID:   row.StudentID,
		CohortID:    row.CohortID,
		PaymentPlan: domain.PaymentPlan(row.PaymentPlan),
		Schedule:    &sched,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

func (r *scheduleRepository) ListStudentIDs(ctx context.Context) ([]string, error) {
	query := `
		SELECT student_id
		FROM student_payments
		ORDER BY student_id
	`

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, err
	}

	return ids, nil
}
