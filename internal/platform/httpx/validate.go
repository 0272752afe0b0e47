package httpx

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tasktrack/tasktrack/internal/shared"
)

// NewValidator returns a validator reporting fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// ValidationError converts validator output into a client-facing validation error.
func ValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return shared.Validationf("Invalid request")
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return shared.Validationf("%s is required", fe.Field())
	case "email":
		return shared.Validationf("%s must be a valid email", fe.Field())
	case "min":
		return shared.Validationf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return shared.Validationf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return shared.Validationf("%s is invalid", fe.Field())
	}
}
