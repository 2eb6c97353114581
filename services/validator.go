package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"business-scraper/models"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// minPhoneDigits is the shortest digit-only projection accepted as a phone number.
const minPhoneDigits = 8

// RecordValidator decides which records may be stored. It also checks queries
// and site definitions through their struct tags.
type RecordValidator struct {
	validate *validator.Validate
}

// NewRecordValidator creates a validator with the phone and email rules registered.
func NewRecordValidator() *RecordValidator {
	v := validator.New()
	// Registration only fails on empty tags or nil funcs.
	_ = v.RegisterValidation("phonedigits", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	_ = v.RegisterValidation("basicemail", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	})
	return &RecordValidator{validate: v}
}

// Validate reports whether r has a name and address, and whether any phone or
// email present is well formed.
func (rv *RecordValidator) Validate(r models.Record) bool {
	return rv.Explain(r) == nil
}

// Explain returns why r is rejected, or nil when it is valid.
func (rv *RecordValidator) Explain(r models.Record) error {
	r.Name = strings.TrimSpace(r.Name)
	r.Address = strings.TrimSpace(r.Address)
	return rv.Check(r)
}

// Check validates any tagged struct and flattens the failures into one error.
func (rv *RecordValidator) Check(v any) error {
	err := rv.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s %s", e.Namespace(), formatValidationError(e)))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// ValidPhone reports whether phone carries at least eight digits.
func ValidPhone(phone string) bool {
	digits := 0
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= minPhoneDigits
}

// ValidEmail reports whether email matches local@domain.tld.
func ValidEmail(email string) bool {
	return emailRegexp.MatchString(email)
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return fmt.Sprintf("is required when %s", e.Param())
	case "min":
		return fmt.Sprintf("must have at least %s entries", e.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "url":
		return "must be a valid URL"
	case "phonedigits":
		return fmt.Sprintf("must contain at least %d digits", minPhoneDigits)
	case "basicemail":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}
