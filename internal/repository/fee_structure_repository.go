package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campuspay/fee-engine/internal/domain"
)

type feeStructureRepository struct {
	db *sqlx.DB
}

func NewFeeStructureRepository(db *sqlx.DB) FeeStructureRepository {
	return &feeStructureRepository{db: db}
}

func (r *feeStructureRepository) Create(ctx context.Context, fs *domain.FeeStructure) error {
	query := `
		INSERT INTO fee_structures (id, cohort_id, total_program_fee, admission_fee, number_of_semesters, instalments_per_semester, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	now := time.Now()
	fs.CreatedAt = now
	fs.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		fs.ID,
		fs.CohortID,
		fs.TotalProgramFee,
		fs.AdmissionFee,
		fs.NumberOfSemesters,
		fs.InstalmentsPerSemester,
		fs.CreatedAt,
		fs.UpdatedAt,
	)

	return err
}

func (r *feeStructureRepository) GetByCohortID(ctx context.Context, cohortID string) (*domain.FeeStructure, error) {
	query := `
		SELECT id, cohort_id, total_program_fee, admission_fee, number_of_semesters, instalments_per_semester, created_at, updated_at
		FROM fee_structures
		WHERE cohort_id = $1
	`

	var fs domain.FeeStructure
	err := r.db.GetContext(ctx, &fs, query, cohortID)
	if err != nil {
		return nil, err
	}

	return &fs, nil
}
