// Package validation provides small, composable request-field validators
// shared across the API layer.
package validation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Validator provides validation functions.
type Validator struct{}

// New creates a new validator instance.
func New() *Validator {
	return &Validator{}
}

// ValidateRequired checks if a string field is not empty.
func (v *Validator) ValidateRequired(field, fieldName string) error {
	if strings.TrimSpace(field) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateStringLength checks if string is within min/max length.
func (v *Validator) ValidateStringLength(field, fieldName string, min, max int) error {
	length := len(field)
	if length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, max)
	}
	return nil
}

// ValidateUUID checks if UUID is valid and not nil.
func (v *Validator) ValidateUUID(id uuid.UUID, fieldName string) error {
	if id == uuid.Nil {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateOneOf checks if value is one of allowed values.
func (v *Validator) ValidateOneOf(value, fieldName string, allowed []string) error {
	if value == "" {
		return nil // Optional field
	}

	for _, a := range allowed {
		if value == a {
			return nil
		}
	}

	return fmt.Errorf("%s must be one of: %s", fieldName, strings.Join(allowed, ", "))
}

// ValidatePositiveInt validates that an integer is positive (> 0).
func (v *Validator) ValidatePositiveInt(value int, fieldName string) error {
	if value <= 0 {
		return fmt.Errorf("%s must be a positive integer", fieldName)
	}
	return nil
}

// ValidateIntRange validates that an integer is within a specified range [min, max].
func (v *Validator) ValidateIntRange(value int, fieldName string, min, max int) error {
	if value < min {
		return fmt.Errorf("%s must be at least %d", fieldName, min)
	}
	if value > max {
		return fmt.Errorf("%s must not exceed %d", fieldName, max)
	}
	return nil
}

// SanitizeString removes control characters and trims whitespace.
func (v *Validator) SanitizeString(input string) string {
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			if r < 127 || r > 159 {
				result.WriteRune(r)
			}
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidationErrors represents multiple validation errors.
type ValidationErrors struct {
	Errors []string
}

func (ve *ValidationErrors) Error() string {
	return strings.Join(ve.Errors, "; ")
}

func (ve *ValidationErrors) Add(err error) {
	if err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
}

func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}
