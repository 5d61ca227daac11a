package util

import (
	"errors"
	"strings"
	"testing"
)

func TestRangeError(t *testing.T) {
	err := NewRangeError(0, 70000)
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("RangeError should unwrap to ErrInvalidRange")
	}
	if !strings.Contains(err.Error(), "0-70000") {
		t.Errorf("Error message should mention the bounds: %s", err.Error())
	}
}

func TestPrefixError(t *testing.T) {
	err := NewPrefixError("10.0.0.0/40", "prefix length out of range")
	if !errors.Is(err, ErrInvalidPrefix) {
		t.Errorf("PrefixError should unwrap to ErrInvalidPrefix")
	}
	if !strings.Contains(err.Error(), "10.0.0.0/40") || !strings.Contains(err.Error(), "prefix length out of range") {
		t.Errorf("Error message missing context: %s", err.Error())
	}
}

func TestFormatError(t *testing.T) {
	cause := errors.New("duplicate <port> element")
	err := NewFormatError("/etc/firewalld/services/ssh.xml", cause)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("FormatError should unwrap to ErrInvalidFormat")
	}
	if !strings.Contains(err.Error(), "ssh.xml") || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("Error message missing context: %s", err.Error())
	}
}

func TestConflictError(t *testing.T) {
	err := NewConflictError("/usr/lib/firewalld/services/ssh-2.xml")
	if !errors.Is(err, ErrConflict) {
		t.Errorf("ConflictError should unwrap to ErrConflict")
	}
}

func TestExternalError(t *testing.T) {
	err := NewExternalError("firewall-cmd", []string{"--reload"}, "Error: INVALID_ZONE", errors.New("exit status 1"))
	if !errors.Is(err, ErrExternalFailure) {
		t.Errorf("ExternalError should unwrap to ErrExternalFailure")
	}
	msg := err.Error()
	if !strings.Contains(msg, "firewall-cmd") || !strings.Contains(msg, "INVALID_ZONE") {
		t.Errorf("Error message missing context: %s", msg)
	}
}

func TestAssertionError(t *testing.T) {
	err := NewAssertionError("targets contains no duplicates", "saw (ssh, 22/tcp) twice")
	if !errors.Is(err, ErrAssertion) {
		t.Errorf("AssertionError should unwrap to ErrAssertion")
	}
	if !strings.Contains(err.Error(), "saw (ssh, 22/tcp) twice") {
		t.Errorf("Error message should contain details: %s", err.Error())
	}
}

func TestValidationError(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		err := NewValidationError("name must not be empty")
		if !strings.Contains(err.Error(), "name must not be empty") {
			t.Errorf("Error message should contain the error: %s", err.Error())
		}
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ValidationError should unwrap to ErrInvalidArgument")
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		err := NewValidationError("field1 is required", "field2 is invalid", "field3 out of range")
		msg := err.Error()
		if !strings.Contains(msg, "field1") || !strings.Contains(msg, "field2") || !strings.Contains(msg, "field3") {
			t.Errorf("Error message should contain all errors: %s", msg)
		}
	})
}

func TestValidationBuilder(t *testing.T) {
	t.Run("no errors", func(t *testing.T) {
		v := &ValidationBuilder{}
		v.Add(true, "this should not appear")
		v.Add(true, "neither should this")

		if v.HasErrors() {
			t.Error("Should not have errors when all conditions are true")
		}
		if err := v.Build(); err != nil {
			t.Errorf("Build() should return nil when no errors: %v", err)
		}
	})

	t.Run("with errors", func(t *testing.T) {
		v := &ValidationBuilder{}
		v.Add(false, "first error")
		v.Add(true, "this passes")
		v.Add(false, "second error")
		v.AddError("unconditional error")
		v.AddErrorf("formatted error: %d", 42)

		if !v.HasErrors() {
			t.Error("Should have errors")
		}

		err := v.Build()
		if err == nil {
			t.Fatal("Build() should return error")
		}

		validationErr, ok := err.(*ValidationError)
		if !ok {
			t.Fatalf("Expected *ValidationError, got %T", err)
		}
		if len(validationErr.Errors) != 4 {
			t.Errorf("Expected 4 errors, got %d", len(validationErr.Errors))
		}
	})

	t.Run("chaining", func(t *testing.T) {
		err := (&ValidationBuilder{}).
			Add(false, "error1").
			Add(false, "error2").
			AddErrorf("error%d", 3).
			Build()

		if err == nil {
			t.Fatal("Expected error")
		}
		if !strings.Contains(err.Error(), "error1") {
			t.Errorf("Missing error1 in: %s", err.Error())
		}
	})
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrInvalidArgument,
		ErrInvalidRange,
		ErrInvalidPrefix,
		ErrInvalidFormat,
		ErrNotFound,
		ErrConflict,
		ErrExternalFailure,
		ErrAssertion,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v == %v", err1, err2)
			}
		}
	}
}

func TestErrorsIsWrapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"RangeError", NewRangeError(0, 1), ErrInvalidRange},
		{"PrefixError", NewPrefixError("x", "y"), ErrInvalidPrefix},
		{"FormatError", NewFormatError("f", errors.New("e")), ErrInvalidFormat},
		{"ConflictError", NewConflictError("p"), ErrConflict},
		{"ExternalError", NewExternalError("p", nil, "", errors.New("e")), ErrExternalFailure},
		{"AssertionError", NewAssertionError("i", ""), ErrAssertion},
		{"ValidationError", NewValidationError("msg"), ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("%s should wrap %v", tt.name, tt.sentinel)
			}
		})
	}
}
