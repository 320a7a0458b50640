package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/campuspay/fee-engine/internal/domain"
	customError "github.com/campuspay/fee-engine/pkg/errors"
	"github.com/campuspay/fee-engine/tests/mocks"
)

var fixedNow = time.Date(2024, 9, 15, 12, 0, 0, 0, time.UTC)

func newTestService(
	feeRepo *mocks.MockFeeStructureRepository,
	scholarshipRepo *mocks.MockScholarshipRepository,
	scheduleRepo *mocks.MockScheduleRepository,
	transactionRepo *mocks.MockTransactionRepository,
) *PaymentService {
	return &PaymentService{
		feeRepo:         feeRepo,
		scholarshipRepo: scholarshipRepo,
		scheduleRepo:    scheduleRepo,
		transactionRepo: transactionRepo,
		now:             func() time.Time { return fixedNow },
	}
}

func cohortFeeStructure() *domain.FeeStructure {
	return &domain.FeeStructure{
		ID:                     uuid.New(),
		CohortID:               "COHORT-2024",
		TotalProgramFee:        decimal.NewFromInt(120000),
		AdmissionFee:           decimal.NewFromInt(20000),
		NumberOfSemesters:      4,
		InstalmentsPerSemester: 3,
	}
}

func storedSchedule() *domain.StudentPayment {
	amount := decimal.NewFromInt(10000)
	return &domain.StudentPayment{
		StudentID:   "S-100",
		CohortID:    "COHORT-2024",
		PaymentPlan: domain.PlanSemWise,
		Schedule: &domain.Schedule{
			Plan:         domain.PlanSemWise,
			TotalAmount:  decimal.NewFromInt(20000),
			AdmissionFee: decimal.Zero,
			ProgramFee:   decimal.NewFromInt(20000),
			Installments: []*domain.Installment{
				{
					InstallmentNumber: 1,
					SemesterNumber:    1,
					DueDate:           fixedNow.AddDate(0, 0, -10),
					Amount:            amount,
					Status:            domain.StatusPending,
					AmountPaid:        decimal.Zero,
					AmountPending:     amount,
				},
				{
					InstallmentNumber: 2,
					SemesterNumber:    2,
					DueDate:           fixedNow.AddDate(0, 0, 30),
					Amount:            amount,
					Status:            domain.StatusPending,
					AmountPaid:        decimal.Zero,
					AmountPending:     amount,
				},
			},
		},
	}
}

func TestGenerateSchedule_Success(t *testing.T) {
	feeRepo := &mocks.MockFeeStructureRepository{}
	scholarshipRepo := &mocks.MockScholarshipRepository{}
	scheduleRepo := &mocks.MockScheduleRepository{}
	transactionRepo := &mocks.MockTransactionRepository{}
	svc := newTestService(feeRepo, scholarshipRepo, scheduleRepo, transactionRepo)

	feeRepo.On("GetByCohortID", mock.Anything, "COHORT-2024").Return(cohortFeeStructure(), nil)
	scholarshipRepo.On("GetByStudentID", mock.Anything, "S-100").Return(nil, sql.ErrNoRows)
	scheduleRepo.On("Save", mock.Anything, mock.MatchedBy(func(record *domain.StudentPayment) bool {
		return record.StudentID == "S-100" && len(record.Schedule.Installments) == 4
	})).Return(nil)

	resp, err := svc.GenerateSchedule(context.Background(), "S-100", &domain.GenerateScheduleRequest{
		CohortID:    "COHORT-2024",
		PaymentPlan: "sem_wise",
		StartDate:   "2024-08-01",
	})

	require.NoError(t, err)
	assert.False(t, resp.DiscountClamped)
	require.Len(t, resp.Schedule.Installments, 4)
	assert.True(t, resp.Schedule.Installments[0].Amount.Equal(decimal.NewFromInt(30000)))
	assert.True(t, resp.Schedule.TotalAmount.Equal(decimal.NewFromInt(140000)))

	feeRepo.AssertExpectations(t)
	scheduleRepo.AssertExpectations(t)
}

func TestGenerateSchedule_AppliesScholarship(t *testing.T) {
	feeRepo := &mocks.MockFeeStructureRepository{}
	scholarshipRepo := &mocks.MockScholarshipRepository{}
	scheduleRepo := &mocks.MockScheduleRepository{}
	transactionRepo := &mocks.MockTransactionRepository{}
	svc := newTestService(feeRepo, scholarshipRepo, scheduleRepo, transactionRepo)

	feeRepo.On("GetByCohortID", mock.Anything, "COHORT-2024").Return(cohortFeeStructure(), nil)
	scholarshipRepo.On("GetByStudentID", mock.Anything, "S-100").Return(&domain.ScholarshipGrant{
		StudentID:                    "S-100",
		CohortID:                     "COHORT-2024",
		ScholarshipPercentage:        decimal.NewFromInt(10),
		AdditionalDiscountPercentage: decimal.Zero,
	}, nil)
	scheduleRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.GenerateSchedule(context.Background(), "S-100", &domain.GenerateScheduleRequest{
		CohortID:    "COHORT-2024",
		PaymentPlan: "sem_wise",
		StartDate:   "2024-08-01",
	})

	require.NoError(t, err)
	assert.True(t, resp.Schedule.ProgramFee.Equal(decimal.NewFromInt(108000)))
	assert.True(t, resp.Schedule.Installments[0].Amount.Equal(decimal.NewFromInt(27000)))
}

// A generation failure must persist nothing.
func TestGenerateSchedule_NoPartialPersistOnFailure(t *testing.T) {
	feeRepo := &mocks.MockFeeStructureRepository{}
	scholarshipRepo := &mocks.MockScholarshipRepository{}
	scheduleRepo := &mocks.MockScheduleRepository{}
	transactionRepo := &mocks.MockTransactionRepository{}
	svc := newTestService(feeRepo, scholarshipRepo, scheduleRepo, transactionRepo)

	feeRepo.On("GetByCohortID", mock.Anything, "COHORT-2024").Return(cohortFeeStructure(), nil)
	scholarshipRepo.On("GetByStudentID", mock.Anything, "S-100").Return(nil, sql.ErrNoRows)

	_, err := svc.GenerateSchedule(context.Background(), "S-100", &domain.GenerateScheduleRequest{
		CohortID:    "COHORT-2024",
		PaymentPlan: "not_selected",
		StartDate:   "2024-08-01",
	})

	var configErr *customError.ConfigurationError
	require.ErrorAs(t, err, &configErr)
	scheduleRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestGetSchedule_ReconcilesStatuses(t *testing.T) {
	feeRepo := &mocks.MockFeeStructureRepository{}
	scholarshipRepo := &mocks.MockScholarshipRepository{}
	scheduleRepo := &mocks.MockScheduleRepository{}
	transactionRepo := &mocks.MockTransactionRepository{}
	svc := newTestService(feeRepo, scholarshipRepo, scheduleRepo, transactionRepo)

	scheduleRepo.On("GetByStudentID", mock.Anything, "S-100").Return(storedSchedule(), nil)
	transactionRepo.On("ListByStudent", mock.Anything, "S-100").Return([]*domain.PaymentTransaction{
		{
			ID:                 uuid.New(),
			StudentID:          "S-100",
			InstallmentNumber:  1,
			Amount:             decimal.NewFromInt(5000),
			VerificationStatus: domain.VerificationApproved,
		},
		{
			ID:                 uuid.New(),
			StudentID:          "S-100",
			InstallmentNumber:  1,
			Amount:             decimal.NewFromInt(2000),
			VerificationStatus: domain.VerificationRejected,
		},
	}, nil)

	resp, err := svc.GetSchedule(context.Background(), "S-100")

	require.NoError(t, err)
	assert.Empty(t, resp.Errors)

	first := resp.Schedule.Installments[0]
	assert.Equal(t, domain.StatusPartiallyPaidOverdue, first.Status)
	assert.True(t, first.AmountPaid.Equal(decimal.NewFromInt(5000)), "rejected amounts must not count")
	assert.True(t, first.AmountPaid.Add(first.AmountPending).Equal(first.Amount))

	second := resp.Schedule.Installments[1]
	assert.Equal(t, domain.StatusPending10PlusDays, second.Status)

	// Summary recomputed from the reconciled installments.
	assert.True(t, resp.Schedule.Summary.CompletionPercentage.Equal(decimal.NewFromInt(25)))
	require.NotNil(t, resp.Schedule.Summary.NextDueDate)
	assert.Equal(t, first.DueDate, *resp.Schedule.Summary.NextDueDate)
}

func TestGetSchedule_FullyCoveredPendingVerification(t *testing.T) {
	feeRepo := &mocks.MockFeeStructureRepository{}
	scholarshipRepo := &mocks.MockScholarshipRepository{}
	scheduleRepo := &mocks.MockScheduleRepository{}
	transactionRepo := &mocks.MockTransactionRepository{}
	svc := newTestService(feeRepo, scholarshipRepo, scheduleRepo, transactionRepo)

	scheduleRepo.On("GetByStudentID", mock.Anything, "S-100").Return(storedSchedule(), nil)
	transactionRepo.On("ListByStudent", mock.Anything, "S-100").Return([]*domain.PaymentTransaction{
		{
			ID:                 uuid.New(),
			StudentID:          "S-100",
			InstallmentNumber:  1,
			Amount:             decimal.NewFromInt(10000),
			VerificationStatus: domain.VerificationPending,
		},
	}, nil)

	resp, err := svc.GetSchedule(context.Background(), "S-100")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerificationPending, resp.Schedule.Installments[0].Status)
}

// A derivation failure on one installment is reported with its number and
// must not poison the rest of the schedule.
func TestGetSchedule_IsolatesCorruptInstallment(t *testing.T) {
	feeRepo := &mocks.MockFeeStructureRepository{}
	scholarshipRepo := &mocks.MockScholarshipRepository{}
	scheduleRepo := &mocks.MockScheduleRepository{}
	transactionRepo := &mocks.MockTransactionRepository{}
	svc := newTestService(feeRepo, scholarshipRepo, scheduleRepo, transactionRepo)

	record := storedSchedule()
	record.Schedule.Installments[0].DueDate = time.Time{}

	scheduleRepo.On("GetByStudentID", mock.Anything, "S-100").Return(record, nil)
	transactionRepo.On("ListByStudent", mock.Anything, "S-100").Return([]*domain.PaymentTransaction{}, nil)

	resp, err := svc.GetSchedule(context.Background(), "S-100")

	require.NoError(t, err)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, 1, resp.Errors[0].InstallmentNumber)
	assert.Contains(t, resp.Errors[0].Error, "due_date")

	// The healthy installment still derives.
	assert.Equal(t, domain.StatusPending10PlusDays, resp.Schedule.Installments[1].Status)
}

func TestGetAggregateStatus(t *testing.T) {
	feeRepo := &mocks.MockFeeStructureRepository{}
	scholarshipRepo := &mocks.MockScholarshipRepository{}
	scheduleRepo := &mocks.MockScheduleRepository{}
	transactionRepo := &mocks.MockTransactionRepository{}
	svc := newTestService(feeRepo, scholarshipRepo, scheduleRepo, transactionRepo)

	scheduleRepo.On("GetByStudentID", mock.Anything, "S-100").Return(storedSchedule(), nil)
	transactionRepo.On("ListByStudent", mock.Anything, "S-100").Return([]*domain.PaymentTransaction{}, nil)

	resp, err := svc.GetAggregateStatus(context.Background(), "S-100")

	require.NoError(t, err)
	// Installment 1 is overdue and untouched; overdue outranks pending.
	assert.Equal(t, domain.StatusOverdue, resp.Status)
}

func TestRecordPayment_Success(t *testing.T) {
	feeRepo := &mocks.MockFeeStructureRepository{}
	scholarshipRepo := &mocks.MockScholarshipRepository{}
	scheduleRepo := &mocks.MockScheduleRepository{}
	transactionRepo := &mocks.MockTransactionRepository{}
	svc := newTestService(feeRepo, scholarshipRepo, scheduleRepo, transactionRepo)

	scheduleRepo.On("GetByStudentID", mock.Anything, "S-100").Return(storedSchedule(), nil)
	transactionRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *domain.PaymentTransaction) bool {
		return tx.StudentID == "S-100" &&
			tx.InstallmentNumber == 1 &&
			tx.VerificationStatus == domain.VerificationPending
	})).Return(nil)

	payment, err := svc.RecordPayment(context.Background(), "S-100", &domain.RecordPaymentRequest{
		InstallmentNumber: 1,
		Amount:            decimal.NewFromInt(5000),
		Method:            "bank_transfer",
		Reference:         "TXN-001",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.VerificationPending, payment.VerificationStatus)
	assert.Equal(t, fixedNow, payment.CreatedAt)
	transactionRepo.AssertExpectations(t)
}

func TestRecordPayment_InvalidInstallment(t *testing.T) {
	feeRepo := &mocks.MockFeeStructureRepository{}
	scholarshipRepo := &mocks.MockScholarshipRepository{}
	scheduleRepo := &mocks.MockScheduleRepository{}
	transactionRepo := &mocks.MockTransactionRepository{}
	svc := newTestService(feeRepo, scholarshipRepo, scheduleRepo, transactionRepo)

	scheduleRepo.On("GetByStudentID", mock.Anything, "S-100").Return(storedSchedule(), nil)

	_, err := svc.RecordPayment(context.Background(), "S-100", &domain.RecordPaymentRequest{
		InstallmentNumber: 5,
		Amount:            decimal.NewFromInt(5000),
		Method:            "bank_transfer",
		Reference:         "TXN-002",
	})

	var businessErr *customError.BusinessError
	require.ErrorAs(t, err, &businessErr)
	assert.Equal(t, customError.ErrCodeInvalidInstallment, businessErr.Code)
	transactionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRecordPayment_NoSchedule(t *testing.T) {
	feeRepo := &mocks.MockFeeStructureRepository{}
	scholarshipRepo := &mocks.MockScholarshipRepository{}
	scheduleRepo := &mocks.MockScheduleRepository{}
	transactionRepo := &mocks.MockTransactionRepository{}
	svc := newTestService(feeRepo, scholarshipRepo, scheduleRepo, transactionRepo)

	scheduleRepo.On("GetByStudentID", mock.Anything, "S-404").Return(nil, sql.ErrNoRows)

	_, err := svc.RecordPayment(context.Background(), "S-404", &domain.RecordPaymentRequest{
		InstallmentNumber: 1,
		Amount:            decimal.NewFromInt(5000),
		Method:            "bank_transfer",
		Reference:         "TXN-003",
	})

	var businessErr *customError.BusinessError
	require.ErrorAs(t, err, &businessErr)
	assert.Equal(t, customError.ErrCodeScheduleNotFound, businessErr.Code)
}

func TestReviewTransaction_Approve(t *testing.T) {
	feeRepo := &mocks.MockFeeStructureRepository{}
	scholarshipRepo := &mocks.MockScholarshipRepository{}
	scheduleRepo := &mocks.MockScheduleRepository{}
	transactionRepo := &mocks.MockTransactionRepository{}
	svc := newTestService(feeRepo, scholarshipRepo, scheduleRepo, transactionRepo)

	id := uuid.New()
	transactionRepo.On("GetByID", mock.Anything, id).Return(&domain.PaymentTransaction{
		ID:                 id,
		StudentID:          "S-100",
		InstallmentNumber:  1,
		Amount:             decimal.NewFromInt(5000),
		VerificationStatus: domain.VerificationPending,
	}, nil)
	transactionRepo.On("UpdateVerificationStatus", mock.Anything, id, domain.VerificationApproved).Return(nil)

	payment, err := svc.ReviewTransaction(context.Background(), id.String(), &domain.ReviewTransactionRequest{Action: "approve"})

	require.NoError(t, err)
	assert.Equal(t, domain.VerificationApproved, payment.VerificationStatus)
	transactionRepo.AssertExpectations(t)
}

func TestReviewTransaction_AlreadyReviewed(t *testing.T) {
	feeRepo := &mocks.MockFeeStructureRepository{}
	scholarshipRepo := &mocks.MockScholarshipRepository{}
	scheduleRepo := &mocks.MockScheduleRepository{}
	transactionRepo := &mocks.MockTransactionRepository{}
	svc := newTestService(feeRepo, scholarshipRepo, scheduleRepo, transactionRepo)

	id := uuid.New()
	transactionRepo.On("GetByID", mock.Anything, id).Return(&domain.PaymentTransaction{
		ID:                 id,
		VerificationStatus: domain.VerificationApproved,
	}, nil)

	_, err := svc.ReviewTransaction(context.Background(), id.String(), &domain.ReviewTransactionRequest{Action: "reject"})

	var businessErr *customError.BusinessError
	require.ErrorAs(t, err, &businessErr)
	assert.Equal(t, customError.ErrCodeTransactionReviewed, businessErr.Code)
	transactionRepo.AssertNotCalled(t, "UpdateVerificationStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshSnapshots_PersistsDerivedStatuses(t *testing.T) {
	feeRepo := &mocks.MockFeeStructureRepository{}
	scholarshipRepo := &mocks.MockScholarshipRepository{}
	scheduleRepo := &mocks.MockScheduleRepository{}
	transactionRepo := &mocks.MockTransactionRepository{}
	svc := newTestService(feeRepo, scholarshipRepo, scheduleRepo, transactionRepo)

	scheduleRepo.On("ListStudentIDs", mock.Anything).Return([]string{"S-100"}, nil)
	scheduleRepo.On("GetByStudentID", mock.Anything, "S-100").Return(storedSchedule(), nil)
	transactionRepo.On("ListByStudent", mock.Anything, "S-100").Return([]*domain.PaymentTransaction{}, nil)
	scheduleRepo.On("Save", mock.Anything, mock.MatchedBy(func(record *domain.StudentPayment) bool {
		return record.Schedule.Installments[0].Status == domain.StatusOverdue
	})).Return(nil)

	err := svc.RefreshSnapshots(context.Background())

	require.NoError(t, err)
	scheduleRepo.AssertExpectations(t)
}

func TestUpsertScholarship_RejectsOutOfRange(t *testing.T) {
	feeRepo := &mocks.MockFeeStructureRepository{}
	scholarshipRepo := &mocks.MockScholarshipRepository{}
	scheduleRepo := &mocks.MockScheduleRepository{}
	transactionRepo := &mocks.MockTransactionRepository{}
	svc := newTestService(feeRepo, scholarshipRepo, scheduleRepo, transactionRepo)

	_, err := svc.UpsertScholarship(context.Background(), "S-100", &domain.UpsertScholarshipRequest{
		CohortID:              "COHORT-2024",
		ScholarshipPercentage: decimal.NewFromInt(120),
	})

	var validationErr *customError.ValidationError
	require.ErrorAs(t, err, &validationErr)
	scholarshipRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestListInstallmentTransactions(t *testing.T) {
	feeRepo := &mocks.MockFeeStructureRepository{}
	scholarshipRepo := &mocks.MockScholarshipRepository{}
	scheduleRepo := &mocks.MockScheduleRepository{}
	transactionRepo := &mocks.MockTransactionRepository{}
	svc := newTestService(feeRepo, scholarshipRepo, scheduleRepo, transactionRepo)

	scheduleRepo.On("GetByStudentID", mock.Anything, "S-100").Return(storedSchedule(), nil)
	transactionRepo.On("ListByInstallment", mock.Anything, "S-100", 1).Return([]*domain.PaymentTransaction{
		{ID: uuid.New(), StudentID: "S-100", InstallmentNumber: 1, Amount: decimal.NewFromInt(5000)},
	}, nil)

	transactions, err := svc.ListInstallmentTransactions(context.Background(), "S-100", 1)

	require.NoError(t, err)
	assert.Len(t, transactions, 1)

	_, err = svc.ListInstallmentTransactions(context.Background(), "S-100", 9)
	var businessErr *customError.BusinessError
	require.ErrorAs(t, err, &businessErr)
	assert.Equal(t, customError.ErrCodeInvalidInstallment, businessErr.Code)
}

func TestPreviewDiscount(t *testing.T) {
	svc := newTestService(&mocks.MockFeeStructureRepository{}, &mocks.MockScholarshipRepository{}, &mocks.MockScheduleRepository{}, &mocks.MockTransactionRepository{})

	resp, err := svc.PreviewDiscount(&domain.DiscountPreviewRequest{
		ScholarshipPercentage:        decimal.NewFromInt(60),
		AdditionalDiscountPercentage: decimal.NewFromInt(60),
	})

	require.NoError(t, err)
	assert.True(t, resp.TotalPercentage.Equal(decimal.NewFromInt(100)))
	assert.True(t, resp.Clamped)
}
