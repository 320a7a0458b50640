package handler

import (
	"reflect"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// newValidator builds the request validator with decimal-aware comparison
// tags (decimal_gt, decimal_gte, decimal_lte) so DTO amounts validate without
// per-handler conversion.
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if value, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := value.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	comparisons := map[string]func(value, param float64) bool{
		"decimal_gt":  func(value, param float64) bool { return value > param },
		"decimal_gte": func(value, param float64) bool { return value >= param },
		"decimal_lte": func(value, param float64) bool { return value <= param },
	}

	for tag, compare := range comparisons {
		compare := compare
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			if fl.Field().Kind() != reflect.Float64 {
				return false
			}
			param, err := strconv.ParseFloat(fl.Param(), 64)
			if err != nil {
				return false
			}
			return compare(fl.Field().Float(), param)
		})
	}

	return v
}
