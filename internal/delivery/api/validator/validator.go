// Package validator adapts go-playground/validator to echo.
package validator

import (
	"reflect"
	"strings"

	"kinwatch/internal/domain/entity"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// CustomValidator implements echo.Validator.
type CustomValidator struct {
	validate *validator.Validate
}

// New returns a validator that reports json field names and knows the
// domain enums (category, severity, medium_mode).
func New() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return entity.Category(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("severity", func(fl validator.FieldLevel) bool {
		return entity.Severity(fl.Field().String()).IsValid()
	})

	return &CustomValidator{validate: v}
}

// Validate runs struct validation.
func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validate.Struct(i); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// FieldErrors flattens validation errors into field -> failed tag.
// It returns nil for any other error.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}

	return out
}
