package errors

import (
	"errors"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "trajectory file not found")
		if err.Error() != "[NOT_FOUND] trajectory file not found" {
			t.Errorf("expected [NOT_FOUND] trajectory file not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("database is locked")
		err := Wrap(original, CodeDataWrite, "write trajectory rows")
		expected := "[DATA_WRITE_ERROR] write trajectory rows: database is locked"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "invalid input")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("IsCodeWithWrapped", func(t *testing.T) {
		original := errors.New("no such table")
		err := Wrap(original, CodeSchemaInit, "create tables")
		if !IsCode(err, CodeSchemaInit) {
			t.Error("expected IsCode to return true for wrapped CodeSchemaInit")
		}
	})

	t.Run("Unwrap", func(t *testing.T) {
		original := errors.New("disk full")
		err := Wrap(original, CodeDataWrite, "bulk insert")
		if !errors.Is(err, original) {
			t.Error("expected errors.Is to find the wrapped cause")
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := New(CodeParseError, "bad row")
		err = AddContext(err, CtxPath, "traj.txt")
		var de *DomainError
		if !errors.As(err, &de) {
			t.Fatal("expected DomainError")
		}
		if de.Context[CtxPath] != "traj.txt" {
			t.Errorf("expected path context, got %v", de.Context)
		}
	})
}
