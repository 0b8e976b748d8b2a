package schema

import (
	"github.com/dukex/stepwise/pkg/models"
	"github.com/go-playground/validator/v10"
)

// NewValidator returns a struct validator that also understands the "kebabcase" tag
// used on workflow names.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	_ = validate.RegisterValidation("kebabcase", func(fl validator.FieldLevel) bool {
		return models.IsKebabCase(fl.Field().String())
	})

	return validate
}
