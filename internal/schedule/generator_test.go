package schedule

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuspay/fee-engine/internal/domain"
	customError "github.com/campuspay/fee-engine/pkg/errors"
)

func testFeeStructure() *domain.FeeStructure {
	return &domain.FeeStructure{
		CohortID:               "COHORT-2024",
		TotalProgramFee:        decimal.NewFromInt(120000),
		AdmissionFee:           decimal.NewFromInt(20000),
		NumberOfSemesters:      4,
		InstalmentsPerSemester: 3,
	}
}

var testStart = time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)

func TestGenerate_OneShot(t *testing.T) {
	sched, clamped, err := Generate(domain.PlanOneShot, testFeeStructure(), testStart, decimal.Zero, decimal.Zero)

	require.NoError(t, err)
	assert.False(t, clamped)
	require.Len(t, sched.Installments, 1)

	inst := sched.Installments[0]
	assert.True(t, inst.Amount.Equal(decimal.NewFromInt(140000)), "got %s", inst.Amount)
	assert.Equal(t, testStart, inst.DueDate)
	assert.Equal(t, domain.StatusPending, inst.Status)
	assert.True(t, sched.TotalAmount.Equal(decimal.NewFromInt(140000)))
	assert.True(t, sched.ProgramFee.Equal(decimal.NewFromInt(120000)))
}

func TestGenerate_SemWise_WithScholarship(t *testing.T) {
	sched, clamped, err := Generate(domain.PlanSemWise, testFeeStructure(), testStart, decimal.NewFromInt(10), decimal.Zero)

	require.NoError(t, err)
	assert.False(t, clamped)
	require.Len(t, sched.Installments, 4)

	assert.True(t, sched.ProgramFee.Equal(decimal.NewFromInt(108000)), "got %s", sched.ProgramFee)
	assert.True(t, sched.TotalAmount.Equal(decimal.NewFromInt(128000)))

	for i, inst := range sched.Installments {
		assert.True(t, inst.Amount.Equal(decimal.NewFromInt(27000)), "installment %d got %s", i+1, inst.Amount)
		assert.Equal(t, i+1, inst.InstallmentNumber)
		assert.Equal(t, i+1, inst.SemesterNumber)
		assert.Equal(t, testStart.AddDate(0, 6*i, 0), inst.DueDate)
	}
}

func TestGenerate_InstalmentWise(t *testing.T) {
	sched, _, err := Generate(domain.PlanInstalmentWise, testFeeStructure(), testStart, decimal.NewFromInt(10), decimal.Zero)

	require.NoError(t, err)
	require.Len(t, sched.Installments, 12)

	wantSemesters := []int{1, 1, 1, 2, 2, 2, 3, 3, 3, 4, 4, 4}
	for i, inst := range sched.Installments {
		assert.True(t, inst.Amount.Equal(decimal.NewFromInt(9000)), "installment %d got %s", i+1, inst.Amount)
		assert.Equal(t, wantSemesters[i], inst.SemesterNumber)
		assert.Equal(t, testStart.AddDate(0, i, 0), inst.DueDate)
	}
}

func TestGenerate_RemainderCarriedToLastInstallment(t *testing.T) {
	fs := &domain.FeeStructure{
		TotalProgramFee:        decimal.NewFromInt(100000),
		AdmissionFee:           decimal.Zero,
		NumberOfSemesters:      3,
		InstalmentsPerSemester: 1,
	}

	sched, _, err := Generate(domain.PlanSemWise, fs, testStart, decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	require.Len(t, sched.Installments, 3)

	base := decimal.RequireFromString("33333.33")
	last := decimal.RequireFromString("33333.34")
	assert.True(t, sched.Installments[0].Amount.Equal(base))
	assert.True(t, sched.Installments[1].Amount.Equal(base))
	assert.True(t, sched.Installments[2].Amount.Equal(last), "got %s", sched.Installments[2].Amount)
}

// Reconciliation invariant: installment amounts plus the separately tracked
// admission fee always sum back to the total payable, exactly.
func TestGenerate_ReconciliationInvariant(t *testing.T) {
	structures := []*domain.FeeStructure{
		testFeeStructure(),
		{TotalProgramFee: decimal.RequireFromString("99999.97"), AdmissionFee: decimal.RequireFromString("500.55"), NumberOfSemesters: 7, InstalmentsPerSemester: 5},
		{TotalProgramFee: decimal.NewFromInt(1), AdmissionFee: decimal.Zero, NumberOfSemesters: 6, InstalmentsPerSemester: 4},
	}
	discounts := []decimal.Decimal{decimal.Zero, decimal.NewFromInt(10), decimal.RequireFromString("33.33")}
	plans := []domain.PaymentPlan{domain.PlanOneShot, domain.PlanSemWise, domain.PlanInstalmentWise}

	for _, fs := range structures {
		for _, discount := range discounts {
			for _, plan := range plans {
				sched, _, err := Generate(plan, fs, testStart, discount, decimal.Zero)
				require.NoError(t, err)

				sum := decimal.Zero
				for _, inst := range sched.Installments {
					sum = sum.Add(inst.Amount)
					assert.True(t, inst.AmountPaid.Add(inst.AmountPending).Equal(inst.Amount))
				}
				if plan != domain.PlanOneShot {
					sum = sum.Add(sched.AdmissionFee)
				}
				assert.True(t, sum.Equal(sched.TotalAmount),
					"plan %s fee %s discount %s: sum %s != total %s", plan, fs.TotalProgramFee, discount, sum, sched.TotalAmount)
			}
		}
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	first, _, err := Generate(domain.PlanInstalmentWise, testFeeStructure(), testStart, decimal.NewFromInt(10), decimal.NewFromInt(5))
	require.NoError(t, err)
	second, _, err := Generate(domain.PlanInstalmentWise, testFeeStructure(), testStart, decimal.NewFromInt(10), decimal.NewFromInt(5))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerate_NotSelectedPlan(t *testing.T) {
	_, _, err := Generate(domain.PlanNotSelected, testFeeStructure(), testStart, decimal.Zero, decimal.Zero)

	var configErr *customError.ConfigurationError
	assert.ErrorAs(t, err, &configErr)
}

func TestGenerate_InvalidFeeStructure(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(fs *domain.FeeStructure)
		wantField string
	}{
		{
			name:      "zero program fee",
			mutate:    func(fs *domain.FeeStructure) { fs.TotalProgramFee = decimal.Zero },
			wantField: "total_program_fee",
		},
		{
			name:      "negative admission fee",
			mutate:    func(fs *domain.FeeStructure) { fs.AdmissionFee = decimal.NewFromInt(-1) },
			wantField: "admission_fee",
		},
		{
			name:      "zero semesters",
			mutate:    func(fs *domain.FeeStructure) { fs.NumberOfSemesters = 0 },
			wantField: "number_of_semesters",
		},
		{
			name:      "zero instalments per semester",
			mutate:    func(fs *domain.FeeStructure) { fs.InstalmentsPerSemester = 0 },
			wantField: "instalments_per_semester",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := testFeeStructure()
			tt.mutate(fs)

			_, _, err := Generate(domain.PlanSemWise, fs, testStart, decimal.Zero, decimal.Zero)

			var validationErr *customError.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantField, validationErr.Field)
		})
	}
}

func TestGenerate_FullDiscountClamped(t *testing.T) {
	sched, clamped, err := Generate(domain.PlanSemWise, testFeeStructure(), testStart, decimal.NewFromInt(70), decimal.NewFromInt(50))

	require.NoError(t, err)
	assert.True(t, clamped)
	assert.True(t, sched.ProgramFee.IsZero(), "got %s", sched.ProgramFee)
	assert.True(t, sched.TotalAmount.Equal(decimal.NewFromInt(20000)))
}

func TestGenerate_FullDiscountNoAdmissionFee(t *testing.T) {
	fs := &domain.FeeStructure{
		TotalProgramFee:        decimal.NewFromInt(120000),
		AdmissionFee:           decimal.Zero,
		NumberOfSemesters:      4,
		InstalmentsPerSemester: 3,
	}

	sched, _, err := Generate(domain.PlanSemWise, fs, testStart, decimal.NewFromInt(100), decimal.Zero)

	require.NoError(t, err)
	assert.True(t, sched.TotalAmount.IsZero())
	// Nothing paid yet, so completion is 0 even though nothing is owed.
	assert.True(t, sched.Summary.CompletionPercentage.IsZero(),
		"got %s", sched.Summary.CompletionPercentage)
}

func TestGenerate_SummaryOfFreshSchedule(t *testing.T) {
	sched, _, err := Generate(domain.PlanSemWise, testFeeStructure(), testStart, decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	assert.Equal(t, 4, sched.Summary.TotalInstallments)
	require.NotNil(t, sched.Summary.NextDueDate)
	assert.Equal(t, testStart, *sched.Summary.NextDueDate)
	require.NotNil(t, sched.Summary.NextDueAmount)
	assert.True(t, sched.Summary.NextDueAmount.Equal(decimal.NewFromInt(30000)))
	assert.True(t, sched.Summary.CompletionPercentage.IsZero())
}
