package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		detailsOK bool
		exposed   bool
	}{
		{CodeValidation, http.StatusBadRequest, false, true, true},
		{CodeUnauthorized, http.StatusUnauthorized, false, false, true},
		{CodeForbidden, http.StatusForbidden, false, false, true},
		{CodeNotFound, http.StatusNotFound, false, false, true},
		{CodeConflict, http.StatusConflict, false, false, true},
		{CodeAlreadyTaken, http.StatusBadRequest, false, false, true},
		{CodeStateConflict, http.StatusUnprocessableEntity, false, true, true},
		{CodeIdempotency, http.StatusConflict, false, true, true},
		{CodeRateLimit, http.StatusTooManyRequests, false, false, true},
		{CodeInternal, http.StatusInternalServerError, true, false, false},
		{CodeDependency, http.StatusServiceUnavailable, true, true, false},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage == "" {
			t.Fatalf("code %s has no public message", tt.code)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v", tt.code, tt.retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v", tt.code, tt.detailsOK)
		}
		if meta.ExposeMessage != tt.exposed {
			t.Fatalf("code %s expected expose message %v", tt.code, tt.exposed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	if got := MetadataFor("SOMETHING_UNKNOWN").HTTPStatus; got != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", got)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "rating must be between 1 and 5")
	if base.Code() != CodeValidation || base.Message() != "rating must be between 1 and 5" {
		t.Fatalf("unexpected error %v", base)
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}
	if base.WithDetails(map[string]any{"field": "scheduled_date"}).Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("connection reset")
	wrapped := Wrap(CodeDependency, cause, "insert visit request")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Error() != "DEPENDENCY_ERROR: insert visit request" {
		t.Fatalf("unexpected message %q", wrapped.Error())
	}

	var nilErr *Error
	if nilErr.Code() != CodeInternal || nilErr.WithDetails("x") != nil {
		t.Fatalf("nil receiver should be safe")
	}
}

func TestAsAndCodeOf(t *testing.T) {
	err := fmt.Errorf("claim: %w", New(CodeAlreadyTaken, "visit already taken"))
	if got := As(err); got == nil || got.Code() != CodeAlreadyTaken {
		t.Fatalf("As failed to return typed error")
	}
	if CodeOf(err) != CodeAlreadyTaken {
		t.Fatalf("unexpected CodeOf %s", CodeOf(err))
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
	if CodeOf(stdErrors.New("boom")) != CodeInternal {
		t.Fatalf("untyped errors should map to internal")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := fmt.Errorf("complete visit: %w", Wrap(CodeDependency, stdErrors.New("connection reset"), "update visit"))
	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", d.Code)
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected 3 chain entries, got %d: %v", len(d.Chain), d.Chain)
	}
	if d.PG != nil {
		t.Fatalf("unexpected pg diagnostics %+v", d.PG)
	}
}

func TestDumpPostgresDiagnostics(t *testing.T) {
	pgxErr := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key", TableName: "users"}
	d := Dump(Wrap(CodeConflict, pgxErr, "insert user"))
	if d.PG == nil || d.PG.Code != "23505" || d.PG.Constraint != "users_email_key" {
		t.Fatalf("unexpected pgx diagnostics %+v", d.PG)
	}

	pqErr := &pq.Error{Code: "23503", Table: "visit_requests"}
	d = Dump(fmt.Errorf("goose up: %w", pqErr))
	if d.PG == nil || d.PG.Code != "23503" || d.PG.Table != "visit_requests" {
		t.Fatalf("unexpected pq diagnostics %+v", d.PG)
	}
}
