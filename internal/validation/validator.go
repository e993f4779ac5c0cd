package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	providerID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	barcode    = regexp.MustCompile(`^\d{8,14}$`)
)

func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("provider_id", func(fl validator.FieldLevel) bool {
		return providerID.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("barcode", func(fl validator.FieldLevel) bool {
		return barcode.MatchString(fl.Field().String())
	})
	return v
}
