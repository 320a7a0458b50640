package schedule

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/campuspay/fee-engine/internal/domain"
	customError "github.com/campuspay/fee-engine/pkg/errors"
	"github.com/campuspay/fee-engine/pkg/utils"
)

// Due-date spacing in calendar months.
const (
	monthsPerSemester   = 6
	monthsPerInstalment = 1
)

// Generate produces the full payment breakdown for a plan: discounted program
// fee partitioned into installments with due dates anchored on startDate.
// Pure function; persistence of the result is the caller's concern. The bool
// result reports whether the combined discount was clamped to 100.
func Generate(
	plan domain.PaymentPlan,
	fs *domain.FeeStructure,
	startDate time.Time,
	scholarshipPercentage decimal.Decimal,
	additionalDiscountPercentage decimal.Decimal,
) (*domain.Schedule, bool, error) {
	if err := validateInputs(plan, fs, startDate); err != nil {
		return nil, false, err
	}

	totalDiscount, clamped, err := ComposeDiscount(scholarshipPercentage, additionalDiscountPercentage)
	if err != nil {
		return nil, false, err
	}

	discountAmount := utils.Percentage(fs.TotalProgramFee, totalDiscount)
	programFee := fs.TotalProgramFee.Sub(discountAmount)
	totalAmount := fs.AdmissionFee.Add(programFee)

	anchor := utils.ToDate(startDate)

	var installments []*domain.Installment
	switch plan {
	case domain.PlanOneShot:
		// Admission fee is folded into the single installment.
		installments = []*domain.Installment{newInstallment(1, 0, anchor, totalAmount)}

	case domain.PlanSemWise:
		parts := utils.SplitEvenly(programFee, fs.NumberOfSemesters)
		installments = make([]*domain.Installment, 0, fs.NumberOfSemesters)
		for i, amount := range parts {
			due := utils.AddMonths(anchor, monthsPerSemester*i)
			installments = append(installments, newInstallment(i+1, i+1, due, amount))
		}

	case domain.PlanInstalmentWise:
		total := fs.NumberOfSemesters * fs.InstalmentsPerSemester
		parts := utils.SplitEvenly(programFee, total)
		installments = make([]*domain.Installment, 0, total)
		for i, amount := range parts {
			due := utils.AddMonths(anchor, monthsPerInstalment*i)
			semester := i/fs.InstalmentsPerSemester + 1
			installments = append(installments, newInstallment(i+1, semester, due, amount))
		}
	}

	sched := &domain.Schedule{
		Plan:         plan,
		TotalAmount:  totalAmount,
		AdmissionFee: fs.AdmissionFee,
		ProgramFee:   programFee,
		Installments: installments,
	}
	sched.Summary = Summarize(installments, totalAmount)

	if err := checkReconciliation(sched); err != nil {
		return nil, false, err
	}

	return sched, clamped, nil
}

func validateInputs(plan domain.PaymentPlan, fs *domain.FeeStructure, startDate time.Time) error {
	switch plan {
	case domain.PlanOneShot, domain.PlanSemWise, domain.PlanInstalmentWise:
	case domain.PlanNotSelected:
		return customError.NewConfigurationError("payment plan not selected; a schedule cannot be generated")
	default:
		return customError.NewConfigurationError("unknown payment plan %q", plan)
	}

	if !fs.TotalProgramFee.IsPositive() {
		return customError.NewValidationError("total_program_fee", fs.TotalProgramFee, "must be greater than 0")
	}
	if fs.AdmissionFee.IsNegative() {
		return customError.NewValidationError("admission_fee", fs.AdmissionFee, "must not be negative")
	}
	if fs.NumberOfSemesters < 1 {
		return customError.NewValidationError("number_of_semesters", fs.NumberOfSemesters, "must be at least 1")
	}
	if fs.InstalmentsPerSemester < 1 {
		return customError.NewValidationError("instalments_per_semester", fs.InstalmentsPerSemester, "must be at least 1")
	}
	if startDate.IsZero() {
		return customError.NewValidationError("start_date", startDate, "must be a valid calendar date")
	}
	return nil
}

func newInstallment(number, semester int, due time.Time, amount decimal.Decimal) *domain.Installment {
	return &domain.Installment{
		InstallmentNumber: number,
		SemesterNumber:    semester,
		DueDate:           due,
		Amount:            amount,
		Status:            domain.StatusPending,
		AmountPaid:        decimal.Zero,
		AmountPending:     amount,
	}
}

// checkReconciliation asserts the installment amounts sum back to the total
// payable. one_shot carries the admission fee inside its installment, the
// other plans track it separately.
func checkReconciliation(sched *domain.Schedule) error {
	var sum decimal.Decimal
	for _, inst := range sched.Installments {
		sum = sum.Add(inst.Amount)
	}
	if sched.Plan != domain.PlanOneShot {
		sum = sum.Add(sched.AdmissionFee)
	}

	if !sum.Equal(sched.TotalAmount) {
		return customError.NewArithmeticConsistencyError(
			"installments sum to %s, expected %s for plan %s",
			sum, sched.TotalAmount, sched.Plan)
	}
	return nil
}

// Summarize recomputes the schedule summary: installment count, the first
// installment not yet fully paid, and overall completion percentage.
func Summarize(installments []*domain.Installment, totalAmount decimal.Decimal) domain.ScheduleSummary {
	summary := domain.ScheduleSummary{
		TotalInstallments:    len(installments),
		CompletionPercentage: decimal.Zero,
	}

	var paidTotal decimal.Decimal
	for _, inst := range installments {
		paidTotal = paidTotal.Add(inst.AmountPaid)
		if summary.NextDueDate == nil && inst.Status != domain.StatusPaid {
			due := inst.DueDate
			amount := inst.Amount
			summary.NextDueDate = &due
			summary.NextDueAmount = &amount
		}
	}

	// Completion is 0 until something is paid, including the fully
	// discounted zero-total case where the division is undefined.
	if totalAmount.IsPositive() {
		summary.CompletionPercentage = paidTotal.Div(totalAmount).Mul(hundred).Round(2)
	}
	return summary
}
