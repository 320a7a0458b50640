package schedule

import (
	"github.com/shopspring/decimal"

	customError "github.com/campuspay/fee-engine/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// ComposeDiscount combines a base scholarship percentage with a per-student
// additional discount. A sum above 100 is clamped to 100 and flagged, never
// silently swallowed.
func ComposeDiscount(basePercentage, additionalPercentage decimal.Decimal) (decimal.Decimal, bool, error) {
	if basePercentage.IsNegative() || basePercentage.GreaterThan(hundred) {
		return decimal.Zero, false, customError.NewValidationError(
			"scholarship_percentage", basePercentage, "must be between 0 and 100")
	}
	if additionalPercentage.IsNegative() || additionalPercentage.GreaterThan(hundred) {
		return decimal.Zero, false, customError.NewValidationError(
			"additional_discount_percentage", additionalPercentage, "must be between 0 and 100")
	}

	total := basePercentage.Add(additionalPercentage)
	if total.GreaterThan(hundred) {
		return hundred, true, nil
	}
	return total, false, nil
}
