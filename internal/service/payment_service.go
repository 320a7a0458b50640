package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/campuspay/fee-engine/internal/config"
	"github.com/campuspay/fee-engine/internal/domain"
	"github.com/campuspay/fee-engine/internal/repository"
	"github.com/campuspay/fee-engine/internal/schedule"
	customError "github.com/campuspay/fee-engine/pkg/errors"
	"github.com/campuspay/fee-engine/pkg/utils"
)

type PaymentService struct {
	feeRepo         repository.FeeStructureRepository
	scholarshipRepo repository.ScholarshipRepository
	scheduleRepo    repository.ScheduleRepository
	transactionRepo repository.TransactionRepository
	redis           *redis.Client
	config          *config.Config
	now             func() time.Time
}

func NewPaymentService(
	feeRepo repository.FeeStructureRepository,
	scholarshipRepo repository.ScholarshipRepository,
	scheduleRepo repository.ScheduleRepository,
	transactionRepo repository.TransactionRepository,
	redisClient *redis.Client,
	cfg *config.Config,
) *PaymentService {
	return &PaymentService{
		feeRepo:         feeRepo,
		scholarshipRepo: scholarshipRepo,
		scheduleRepo:    scheduleRepo,
		transactionRepo: transactionRepo,
		redis:           redisClient,
		config:          cfg,
		now:             time.Now,
	}
}

// CreateFeeStructure registers the immutable fee structure for a cohort.
func (s *PaymentService) CreateFeeStructure(ctx context.Context, cohortID string, request *domain.CreateFeeStructureRequest) (*domain.FeeStructure, error) {
	existing, err := s.feeRepo.GetByCohortID(ctx, cohortID)
	if err == nil && existing != nil {
		return nil, customError.WrapFeeStructureExists(cohortID)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}

	fs := &domain.FeeStructure{
		ID:                     uuid.New(),
		CohortID:               cohortID,
		TotalProgramFee:        request.TotalProgramFee,
		AdmissionFee:           request.AdmissionFee,
		NumberOfSemesters:      request.NumberOfSemesters,
		InstalmentsPerSemester: request.InstalmentsPerSemester,
	}

	if err := s.feeRepo.Create(ctx, fs); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return fs, nil
}

// UpsertScholarship creates or replaces a student's scholarship grant. The
// grant only affects schedules generated after the change.
func (s *PaymentService) UpsertScholarship(ctx context.Context, studentID string, request *domain.UpsertScholarshipRequest) (*domain.ScholarshipGrant, error) {
	if _, _, err := schedule.ComposeDiscount(request.ScholarshipPercentage, request.AdditionalDiscountPercentage); err != nil {
		return nil, err
	}

	grant := &domain.ScholarshipGrant{
		ID:                           uuid.New(),
		StudentID:                    studentID,
		CohortID:                     request.CohortID,
		ScholarshipPercentage:        request.ScholarshipPercentage,
		AdditionalDiscountPercentage: request.AdditionalDiscountPercentage,
	}

	if err := s.scholarshipRepo.Upsert(ctx, grant); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return grant, nil
}

// ListInstallmentTransactions returns the append-only payment log for one
// installment.
func (s *PaymentService) ListInstallmentTransactions(ctx context.Context, studentID string, installmentNumber int) ([]*domain.PaymentTransaction, error) {
	record, err := s.scheduleRepo.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapScheduleNotFound(studentID)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	total := len(record.Schedule.Installments)
	if installmentNumber < 1 || installmentNumber > total {
		return nil, customError.WrapInvalidInstallment(installmentNumber, total)
	}

	transactions, err := s.transactionRepo.ListByInstallment(ctx, studentID, installmentNumber)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return transactions, nil
}

// GenerateSchedule computes a student's payment breakdown from the cohort fee
// structure and the student's scholarship grant, then persists it as a
// snapshot. A generation failure persists nothing.
func (s *PaymentService) GenerateSchedule(ctx context.Context, studentID string, request *domain.GenerateScheduleRequest) (*domain.GenerateScheduleResponse, error) {
	fs, err := s.feeRepo.GetByCohortID(ctx, request.CohortID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapFeeStructureNotFound(request.CohortID)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	scholarshipPct := decimal.Zero
	additionalPct := decimal.Zero
	grant, err := s.scholarshipRepo.GetByStudentID(ctx, studentID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}
	if grant != nil {
		scholarshipPct = grant.ScholarshipPercentage
		additionalPct = grant.AdditionalDiscountPercentage
	}

	startDate, err := time.Parse("2006-01-02", request.StartDate)
	if err != nil {
		return nil, customError.NewValidationError("start_date", request.StartDate, "must be an ISO calendar date")
	}

	sched, clamped, err := schedule.Generate(domain.PaymentPlan(request.PaymentPlan), fs, startDate, scholarshipPct, additionalPct)
	if err != nil {
		return nil, err
	}

	if clamped {
		log.Printf("discount clamped to 100%% for student %s (scholarship %s + additional %s)",
			studentID, scholarshipPct, additionalPct)
	}

	record := &domain.StudentPayment{
		StudentID:   studentID,
		CohortID:    request.CohortID,
		PaymentPlan: sched.Plan,
		Schedule:    sched,
	}

	if err := s.scheduleRepo.Save(ctx, record); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.cacheSnapshot(ctx, record)

	return &domain.GenerateScheduleResponse{
		StudentID:       studentID,
		Schedule:        sched,
		DiscountClamped: clamped,
	}, nil
}

// GetSchedule returns the student's schedule with every installment status
// re-derived against the transaction log. Stored statuses are display cache
// only and are never trusted on read.
func (s *PaymentService) GetSchedule(ctx context.Context, studentID string) (*domain.ScheduleResponse, error) {
	record, err := s.loadSnapshot(ctx, studentID)
	if err != nil {
		return nil, err
	}

	instErrors, err := s.reconcile(ctx, record)
	if err != nil {
		return nil, err
	}

	return &domain.ScheduleResponse{
		StudentID: studentID,
		Schedule:  record.Schedule,
		Errors:    instErrors,
	}, nil
}

// GetAggregateStatus reduces the student's schedule to its most urgent
// installment status.
func (s *PaymentService) GetAggregateStatus(ctx context.Context, studentID string) (*domain.AggregateStatusResponse, error) {
	resp, err := s.GetSchedule(ctx, studentID)
	if err != nil {
		return nil, err
	}

	statuses := make([]domain.InstallmentStatus, 0, len(resp.Schedule.Installments))
	for _, inst := range resp.Schedule.Installments {
		statuses = append(statuses, inst.Status)
	}

	aggregate, err := schedule.DeriveAggregateStatus(statuses)
	if err != nil {
		return nil, err
	}

	return &domain.AggregateStatusResponse{
		StudentID: studentID,
		Status:    aggregate,
	}, nil
}

// RecordPayment appends a verification-pending transaction against an
// installment. The amount settles only after an admin approves it.
func (s *PaymentService) RecordPayment(ctx context.Context, studentID string, request *domain.RecordPaymentRequest) (*domain.PaymentTransaction, error) {
	record, err := s.scheduleRepo.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapScheduleNotFound(studentID)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	total := len(record.Schedule.Installments)
	if request.InstallmentNumber < 1 || request.InstallmentNumber > total {
		return nil, customError.WrapInvalidInstallment(request.InstallmentNumber, total)
	}

	if !request.Amount.IsPositive() {
		return nil, customError.NewValidationError("amount", request.Amount, "must be greater than 0")
	}

	now := s.now()
	payment := &domain.PaymentTransaction{
		ID:                 uuid.New(),
		StudentID:          studentID,
		InstallmentNumber:  request.InstallmentNumber,
		Amount:             request.Amount,
		Method:             request.Method,
		Reference:          request.Reference,
		VerificationStatus: domain.VerificationPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.transactionRepo.Create(ctx, payment); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return payment, nil
}

// ReviewTransaction records the admin approve/reject decision and invalidates
// the cached snapshot so the next read re-derives statuses.
func (s *PaymentService) ReviewTransaction(ctx context.Context, transactionID string, request *domain.ReviewTransactionRequest) (*domain.PaymentTransaction, error) {
	id, err := uuid.Parse(transactionID)
	if err != nil {
		return nil, customError.NewValidationError("transaction_id", transactionID, "must be a valid uuid")
	}

	payment, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapTransactionNotFound(transactionID)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if payment.VerificationStatus != domain.VerificationPending {
		return nil, customError.WrapTransactionReviewed(transactionID, payment.VerificationStatus)
	}

	status := domain.VerificationRejected
	if request.Action == "approve" {
		status = domain.VerificationApproved
	}

	if err := s.transactionRepo.UpdateVerificationStatus(ctx, id, status); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	payment.VerificationStatus = status
	payment.UpdatedAt = s.now()

	s.invalidateSnapshot(ctx, payment.StudentID)

	return payment, nil
}

// PreviewDiscount exposes discount composition for UI previews before a
// schedule is committed.
func (s *PaymentService) PreviewDiscount(request *domain.DiscountPreviewRequest) (*domain.DiscountPreviewResponse, error) {
	total, clamped, err := schedule.ComposeDiscount(request.ScholarshipPercentage, request.AdditionalDiscountPercentage)
	if err != nil {
		return nil, err
	}

	return &domain.DiscountPreviewResponse{
		TotalPercentage: total,
		Clamped:         clamped,
	}, nil
}

// RefreshSnapshots re-derives every stored schedule and persists the result,
// so overdue transitions land in the snapshots without waiting for a read.
// Used by the daily scheduler sweep. Per-student failures are logged, not
// fatal to the sweep.
func (s *PaymentService) RefreshSnapshots(ctx context.Context) error {
	studentIDs, err := s.scheduleRepo.ListStudentIDs(ctx)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}

	for _, studentID := range studentIDs {
		record, err := s.scheduleRepo.GetByStudentID(ctx, studentID)
		if err != nil {
			log.Printf("snapshot refresh: load failed for student %s: %v", studentID, err)
			continue
		}

		if _, err := s.reconcile(ctx, record); err != nil {
			log.Printf("snapshot refresh: reconcile failed for student %s: %v", studentID, err)
			continue
		}

		if err := s.scheduleRepo.Save(ctx, record); err != nil {
			log.Printf("snapshot refresh: save failed for student %s: %v", studentID, err)
			continue
		}

		s.cacheSnapshot(ctx, record)
	}

	return nil
}

// DueReminder names a student whose next installment falls due soon.
type DueReminder struct {
	StudentID string
	DueDate   time.Time
	Amount    decimal.Decimal
}

// ListUpcomingDues returns students whose next unpaid installment is due
// within the given number of days. Consumed by the reminder job; the actual
// notification delivery is an external collaborator.
func (s *PaymentService) ListUpcomingDues(ctx context.Context, withinDays int) ([]DueReminder, error) {
	studentIDs, err := s.scheduleRepo.ListStudentIDs(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	today := utils.ToDate(s.now())

	var reminders []DueReminder
	for _, studentID := range studentIDs {
		resp, err := s.GetSchedule(ctx, studentID)
		if err != nil {
			log.Printf("reminder scan: skipping student %s: %v", studentID, err)
			continue
		}

		summary := resp.Schedule.Summary
		if summary.NextDueDate == nil {
			continue
		}

		days := utils.DaysUntil(today, *summary.NextDueDate)
		if days >= 0 && days <= withinDays {
			reminders = append(reminders, DueReminder{
				StudentID: studentID,
				DueDate:   *summary.NextDueDate,
				Amount:    *summary.NextDueAmount,
			})
		}
	}

	return reminders, nil
}

// reconcile folds the transaction log into the snapshot's installments:
// submitted amounts, derived statuses and a recomputed summary. A derivation
// failure on one installment is reported and does not poison the others.
func (s *PaymentService) reconcile(ctx context.Context, record *domain.StudentPayment) ([]domain.InstallmentError, error) {
	transactions, err := s.transactionRepo.ListByStudent(ctx, record.StudentID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	type installmentLedger struct {
		submitted   decimal.Decimal
		hasPending  bool
		hasApproved bool
	}

	ledgers := make(map[int]*installmentLedger)
	for _, tx := range transactions {
		ledger, ok := ledgers[tx.InstallmentNumber]
		if !ok {
			ledger = &installmentLedger{submitted: decimal.Zero}
			ledgers[tx.InstallmentNumber] = ledger
		}

		switch tx.VerificationStatus {
		case domain.VerificationApproved:
			ledger.submitted = ledger.submitted.Add(tx.Amount)
			ledger.hasApproved = true
		case domain.VerificationPending:
			ledger.submitted = ledger.submitted.Add(tx.Amount)
			ledger.hasPending = true
		case domain.VerificationRejected:
			// Rejected submissions never count toward coverage.
		}
	}

	today := s.now()

	var instErrors []domain.InstallmentError
	for _, inst := range record.Schedule.Installments {
		submitted := decimal.Zero
		hasPending, hasApproved := false, false
		if ledger, ok := ledgers[inst.InstallmentNumber]; ok {
			submitted = ledger.submitted
			hasPending = ledger.hasPending
			hasApproved = ledger.hasApproved
		}

		status, err := schedule.DeriveInstallmentStatus(inst.DueDate, today, submitted, inst.Amount, hasPending, hasApproved)
		if err != nil {
			instErrors = append(instErrors, domain.InstallmentError{
				InstallmentNumber: inst.InstallmentNumber,
				Error:             err.Error(),
			})
			continue
		}

		inst.Status = status
		// AmountPaid is capped at the installment amount so that
		// paid + pending == amount holds even when overpaid.
		if submitted.GreaterThan(inst.Amount) {
			inst.AmountPaid = inst.Amount
		} else {
			inst.AmountPaid = submitted
		}
		inst.AmountPending = inst.Amount.Sub(inst.AmountPaid)
	}

	record.Schedule.Summary = schedule.Summarize(record.Schedule.Installments, record.Schedule.TotalAmount)

	return instErrors, nil
}

func (s *PaymentService) snapshotKey(studentID string) string {
	return fmt.Sprintf("schedule:%s", studentID)
}

// loadSnapshot is cache-aside: Redis first, database on miss with backfill.
func (s *PaymentService) loadSnapshot(ctx context.Context, studentID string) (*domain.StudentPayment, error) {
	if s.redis != nil {
		data, err := s.redis.Get(ctx, s.snapshotKey(studentID)).Bytes()
		if err == nil {
			var record domain.StudentPayment
			if err := json.Unmarshal(data, &record); err == nil && record.Schedule != nil {
				return &record, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("snapshot cache read failed for student %s: %v", studentID, err)
		}
	}

	record, err := s.scheduleRepo.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapScheduleNotFound(studentID)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	s.cacheSnapshot(ctx, record)

	return record, nil
}

// cacheSnapshot is best effort; a cache failure is logged, never surfaced.
func (s *PaymentService) cacheSnapshot(ctx context.Context, record *domain.StudentPayment) {
	if s.redis == nil {
		return
	}

	data, err := json.Marshal(record)
	if err != nil {
		log.Printf("snapshot cache marshal failed for student %s: %v", record.StudentID, err)
		return
	}

	if err := s.redis.Set(ctx, s.snapshotKey(record.StudentID), data, s.config.GetSnapshotCacheTTL()).Err(); err != nil {
		log.Printf("snapshot cache write failed for student %s: %v", record.StudentID, err)
	}
}

func (s *PaymentService) invalidateSnapshot(ctx context.Context, studentID string) {
	if s.redis == nil {
		return
	}

	if err := s.redis.Del(ctx, s.snapshotKey(studentID)).Err(); err != nil {
		log.Printf("snapshot cache invalidation failed for student %s: %v", studentID, err)
	}
}
