package schedule

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/campuspay/fee-engine/internal/domain"
	customError "github.com/campuspay/fee-engine/pkg/errors"
	"github.com/campuspay/fee-engine/pkg/utils"
)

// An installment with no payment and 10 or more days until due reports
// pending_10_plus_days instead of pending.
const pendingSoonThresholdDays = 10

// DefaultAggregateRanking orders statuses by urgency for the aggregate
// derivation. Higher rank wins. It is a table, not logic, so the ordering can
// be tuned without touching DeriveAggregateStatus.
var DefaultAggregateRanking = map[domain.InstallmentStatus]int{
	domain.StatusPaid:                             0,
	domain.StatusPending:                          1,
	domain.StatusPending10PlusDays:                2,
	domain.StatusPartiallyPaidDaysLeft:            3,
	domain.StatusVerificationPending:              4,
	domain.StatusPartiallyPaidVerificationPending: 5,
	domain.StatusPartiallyPaidOverdue:             6,
	domain.StatusOverdue:                          7,
}

// DeriveInstallmentStatus computes the discrete payment state of one
// installment. amountPaid is the cumulative submitted amount (approved plus
// verification-pending transactions); the two flags report whether any
// transaction is awaiting review or has been approved. The precedence order
// is fixed: settled coverage beats verification, verification beats overdue.
func DeriveInstallmentStatus(
	dueDate time.Time,
	today time.Time,
	amountPaid decimal.Decimal,
	amountPayable decimal.Decimal,
	hasVerificationPendingTx bool,
	hasApprovedTx bool,
) (domain.InstallmentStatus, error) {
	if dueDate.IsZero() {
		return "", customError.NewValidationError("due_date", dueDate, "must be a valid calendar date")
	}
	if amountPaid.IsNegative() {
		return "", customError.NewValidationError("amount_paid", amountPaid, "must not be negative")
	}
	if amountPayable.IsNegative() {
		return "", customError.NewValidationError("amount_payable", amountPayable, "must not be negative")
	}

	fullyCovered := amountPaid.GreaterThanOrEqual(amountPayable)
	partiallyCovered := amountPaid.IsPositive() && !fullyCovered

	switch {
	case hasApprovedTx && fullyCovered:
		return domain.StatusPaid, nil
	case hasVerificationPendingTx && fullyCovered:
		return domain.StatusVerificationPending, nil
	case hasVerificationPendingTx && partiallyCovered:
		return domain.StatusPartiallyPaidVerificationPending, nil
	case fullyCovered:
		return domain.StatusPaid, nil
	}

	daysLeft := utils.DaysUntil(today, dueDate)
	overdue := utils.IsOverdue(today, dueDate)

	switch {
	case partiallyCovered && overdue:
		return domain.StatusPartiallyPaidOverdue, nil
	case overdue:
		return domain.StatusOverdue, nil
	case partiallyCovered:
		return domain.StatusPartiallyPaidDaysLeft, nil
	case daysLeft >= pendingSoonThresholdDays:
		return domain.StatusPending10PlusDays, nil
	default:
		return domain.StatusPending, nil
	}
}

// DeriveAggregateStatus reduces a student's installment statuses to the
// single most urgent one per DefaultAggregateRanking. An empty schedule
// defaults to pending.
func DeriveAggregateStatus(statuses []domain.InstallmentStatus) (domain.InstallmentStatus, error) {
	if len(statuses) == 0 {
		return domain.StatusPending, nil
	}

	result := statuses[0]
	best, ok := DefaultAggregateRanking[result]
	if !ok {
		return "", customError.NewValidationError("status", result, "unknown installment status")
	}

	for _, status := range statuses[1:] {
		rank, ok := DefaultAggregateRanking[status]
		if !ok {
			return "", customError.NewValidationError("status", status, "unknown installment status")
		}
		if rank > best {
			best = rank
			result = status
		}
	}
	return result, nil
}
