package lesson

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/tutorbook/core"
)

var (
	priceTag  = "price"
	priceText = "price must be a number greater than zero"
)

// InitValidators registers the lesson custom validators.
func InitValidators(v *core.Validator) {
	_ = v.RegisterValidation(priceTag, priceValidation)
	core.RegisterCustomTranslation(v.Validate, v.Translator, priceTag, priceText)
}

// Custom Validators

// priceValidation only allows decimal strings strictly greater than zero.
func priceValidation(fl validator.FieldLevel) bool {
	price, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return price.IsPositive()
}
