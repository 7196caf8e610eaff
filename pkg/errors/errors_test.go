package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without cause",
			err:      New(CodeConflict, "slot already booked", http.StatusBadRequest),
			expected: "CONFLICT: slot already booked",
		},
		{
			name:     "with cause",
			err:      Wrap(errors.New("connection refused"), CodePersistence, "insert failed", http.StatusInternalServerError),
			expected: "PERSISTENCE_ERROR: insert failed (caused by: connection refused)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("no reachable servers")
	err := Persistence("store unreachable", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestConstructors_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"validation", Validation("bad input", nil), CodeValidation, http.StatusBadRequest},
		{"invalid input", InvalidInput("missing name"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("token rejected"), CodeUnauthorized, http.StatusUnauthorized},
		{"conflict", Conflict("slot taken"), CodeConflict, http.StatusBadRequest},
		{"not found", NotFound("Reservation"), CodeNotFound, http.StatusNotFound},
		{"persistence", Persistence("insert failed", nil), CodePersistence, http.StatusInternalServerError},
		{"gateway", Gateway("push failed", nil), CodeGateway, http.StatusInternalServerError},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("store timed out"), CodeTimeout, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("StatusCode() = %d, want %d", tt.err.StatusCode(), tt.wantStatus)
			}
		})
	}
}

func TestNotFoundWithID_Details(t *testing.T) {
	err := NotFoundWithID("Reservation", "abc123")

	if err.Details["resource"] != "Reservation" {
		t.Errorf("expected resource detail, got %v", err.Details["resource"])
	}
	if err.Details["id"] != "abc123" {
		t.Errorf("expected id detail, got %v", err.Details["id"])
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Conflict("slot taken")
	if got := AsAppError(appErr); got != appErr {
		t.Error("expected AsAppError to return the same *AppError")
	}

	plain := errors.New("something broke")
	converted := AsAppError(plain)
	if converted.Code != CodeInternal {
		t.Errorf("expected %s for plain error, got %s", CodeInternal, converted.Code)
	}
	if !errors.Is(converted, plain) {
		t.Error("expected converted error to wrap the original")
	}
}

func TestIsAppError(t *testing.T) {
	if !IsAppError(Conflict("slot taken")) {
		t.Error("expected true for *AppError")
	}
	if IsAppError(errors.New("plain")) {
		t.Error("expected false for plain error")
	}
}
