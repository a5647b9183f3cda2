package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Shivanand-hulikatti/studio-booking/internal/model"
	"github.com/go-playground/validator/v10"
)

// ValidationError describes one invalid input field, named by its JSON key.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error formats the failure as "field: message".
func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationErrors is returned for malformed input, before anything is
// written.
type ValidationErrors []ValidationError

// Error joins every field failure into one message.
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// IsValidationError reports whether err carries ValidationErrors.
func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}

// RequestValidator checks request payloads with go-playground/validator.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator builds a validator that reports fields by JSON name.
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &RequestValidator{validate: v}
}

// ValidateClass checks a create-class payload.
func (v *RequestValidator) ValidateClass(req *model.CreateClassRequest) error {
	errs := v.check(req)
	if !req.StartTime.Set {
		errs = append(errs, ValidationError{Field: "dateTime", Message: "dateTime is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateBooking checks a booking payload, including email syntax.
func (v *RequestValidator) ValidateBooking(req *model.BookRequest) error {
	if errs := v.check(req); len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *RequestValidator) check(s any) ValidationErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationErrors{{Field: "", Message: err.Error()}}
	}
	return translate(verrs)
}

func translate(errs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, 0, len(errs))
	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		}

		out = append(out, ValidationError{Field: err.Field(), Message: message})
	}
	return out
}
