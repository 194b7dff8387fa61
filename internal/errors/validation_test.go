package errors

import (
	"testing"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("user_id", "is required", "")

	if err.Field != "user_id" {
		t.Errorf("Expected field to be 'user_id', got '%s'", err.Field)
	}

	if err.Message != "is required" {
		t.Errorf("Expected message to be 'is required', got '%s'", err.Message)
	}

	expected := "validation error on field 'user_id': is required"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	errs = append(errs, *NewValidationError("quiz_id", "is required", nil))
	expected := "validation failed: quiz_id is required"
	if errs.Error() != expected {
		t.Errorf("Expected '%s', got '%s'", expected, errs.Error())
	}

	errs = append(errs, *NewValidationErrorWithRule("passing_score_percentage", "must be at most 100", "max", 150))
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s', got '%s'", expected, errs.Error())
	}
}
