package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/campuspay/fee-engine/internal/domain"
)

type MockFeeStructureRepository struct {
	mock.Mock
}

func (m *MockFeeStructureRepository) Create(ctx context.Context, fs *domain.FeeStructure) error {
	args := m.Called(ctx, fs)
	return args.Error(0)
}

func (m *MockFeeStructureRepository) GetByCohortID(ctx context.Context, cohortID string) (*domain.FeeStructure, error) {
	args := m.Called(ctx, cohortID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeStructure), args.Error(1)
}

type MockScholarshipRepository struct {
	mock.Mock
}

func (m *MockScholarshipRepository) Upsert(ctx context.Context, grant *domain.ScholarshipGrant) error {
	args := m.Called(ctx, grant)
	return args.Error(0)
}

func (m *MockScholarshipRepository) GetByStudentID(ctx context.Context, studentID string) (*domain.ScholarshipGrant, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScholarshipGrant), args.Error(1)
}

type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) Save(ctx context.Context, record *domain.StudentPayment) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockScheduleRepository) GetByStudentID(ctx context.Context, studentID string) (*domain.StudentPayment, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StudentPayment), args.Error(1)
}

func (m *MockScheduleRepository) ListStudentIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *domain.PaymentTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentTransaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByStudent(ctx context.Context, studentID string) ([]*domain.PaymentTransaction, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PaymentTransaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByInstallment(ctx context.Context, studentID string, installmentNumber int) ([]*domain.PaymentTransaction, error) {
	args := m.Called(ctx, studentID, installmentNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PaymentTransaction), args.Error(1)
}

func (m *MockTransactionRepository) UpdateVerificationStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}
