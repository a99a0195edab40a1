package handler

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"account-ledger/internal/errors"
)

var validate = validator.New()

// validateRequest runs the struct's validate tags and folds every failure
// into one invalid_input error.
func validateRequest(obj interface{}) error {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewAppError(errors.InvalidInput, "invalid request").WithDetails(err.Error())
	}

	details := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		details = append(details, fmt.Sprintf("%s: %s", fe.Field(), errorMessage(fe)))
	}
	return errors.NewAppError(errors.InvalidInput, "request validation failed").WithDetails(strings.Join(details, "; "))
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "invalid email format"
	case "max":
		return "value is too long"
	case "gt":
		return "value must be greater than " + fe.Param()
	default:
		return "invalid value"
	}
}
