package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campuspay/fee-engine/internal/domain"
)

type scholarshipRepository struct {
	db *sqlx.DB
}

func NewScholarshipRepository(db *sqlx.DB) ScholarshipRepository {
	return &scholarshipRepository{db: db}
}

func (r *scholarshipRepository) Upsert(ctx context.Context, grant *domain.ScholarshipGrant) error {
	query := `
		INSERT INTO cohort_scholarships (id, student_id, cohort_id, scholarship_percentage, additional_discount_percentage, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (student_id)
		DO UPDATE SET cohort_id = EXCLUDED.cohort_id,
		              scholarship_percentage = EXCLUDED.scholarship_percentage,
		              additional_discount_percentage = EXCLUDED.additional_discount_percentage,
		              updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = now
	}
	grant.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		grant.ID,
		grant.StudentID,
		grant.CohortID,
		grant.ScholarshipPercentage,
		grant.AdditionalDiscountPercentage,
		grant.CreatedAt,
		grant.UpdatedAt,
	)

	return err
}

func (r *scholarshipRepository) GetByStudentID(ctx context.Context, studentID string) (*domain.ScholarshipGrant, error) {
	query := `
		SELECT id, student_id, cohort_id, scholarship_percentage, additional_discount_percentage, created_at, updated_at
		FROM cohort_scholarships
		WHERE student_id = $1
	`

	var grant domain.ScholarshipGrant
	err := r.db.GetContext(ctx, &grant, query, studentID)
	if err != nil {
		return nil, err
	}

	return &grant, nil
}
