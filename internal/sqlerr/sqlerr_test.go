package sqlerr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/deppfellow/company-api/internal/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"
)

func TestWrapNil(t *testing.T) {
	if err := Wrap("list companies", nil); err != nil {
		t.Fatalf("Wrap(nil) = %v, want nil", err)
	}
}

func TestWrapUsesInnermostMessage(t *testing.T) {
	root := errors.New("connection reset by peer")
	chained := fmt.Errorf("query: %w", pkgerrors.Wrap(fmt.Errorf("read: %w", root), "conn"))

	err := Wrap("list companies", chained)

	var sqlErr *Error
	if !errors.As(err, &sqlErr) {
		t.Fatalf("Wrap() = %T, want *Error", err)
	}
	if sqlErr.Message != "connection reset by peer" {
		t.Errorf("Message = %q, want innermost message", sqlErr.Message)
	}
	if sqlErr.Op != "list companies" {
		t.Errorf("Op = %q", sqlErr.Op)
	}
	if !errors.Is(err, root) {
		t.Error("wrapped error no longer matches the root cause")
	}
	if got, want := err.Error(), "storage operation failed: list companies: connection reset by peer"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrapPgError(t *testing.T) {
	pgErr := &pgconn.PgError{
		Severity:       "ERROR",
		Code:           "23502",
		Message:        `null value in column "name" of relation "companies" violates not-null constraint`,
		TableName:      "companies",
		ColumnName:     "name",
		ConstraintName: "",
	}

	err := Wrap("create company", fmt.Errorf("exec: %w", pgErr))

	var sqlErr *Error
	if !errors.As(err, &sqlErr) {
		t.Fatalf("Wrap() = %T, want *Error", err)
	}
	if sqlErr.Code != NotNullViolation {
		t.Errorf("Code = %q, want %q", sqlErr.Code, NotNullViolation)
	}
	if sqlErr.Message != pgErr.Message {
		t.Errorf("Message = %q, want server message", sqlErr.Message)
	}
	if sqlErr.Severity != SeverityError {
		t.Errorf("Severity = %q", sqlErr.Severity)
	}
}

func TestWrapKeepsExistingError(t *testing.T) {
	first := Wrap("", errors.New("boom"))
	again := Wrap("create companies", first)

	var sqlErr *Error
	if !errors.As(again, &sqlErr) {
		t.Fatalf("Wrap() = %T, want *Error", again)
	}
	if sqlErr.Message != "boom" || sqlErr.Op != "create companies" {
		t.Errorf("got Op=%q Message=%q", sqlErr.Op, sqlErr.Message)
	}
}

func TestMapCode(t *testing.T) {
	tests := map[string]Code{
		"23502": NotNullViolation,
		"23503": ForeignKeyViolation,
		"23505": UniqueViolation,
		"23514": CheckViolation,
		"22001": StringTooLong,
		"42883": UndefinedFunction,
		"08006": Other,
	}
	for state, want := range tests {
		if got := MapCode(state); got != want {
			t.Errorf("MapCode(%q) = %q, want %q", state, got, want)
		}
	}
}

func TestGenerateErrorCode(t *testing.T) {
	tests := []struct {
		table string
		code  Code
		want  string
	}{
		{"companies", UniqueViolation, "COMPANY_ALREADY_EXISTS"},
		{"employees", ForeignKeyViolation, "EMPLOYEE_NOT_FOUND"},
		{"", NotNullViolation, "RECORD_REQUIRED"},
		{"companies", Other, "COMPANY_ERROR"},
	}
	for _, tt := range tests {
		if got := generateErrorCode(tt.table, tt.code); got != tt.want {
			t.Errorf("generateErrorCode(%q, %q) = %q, want %q", tt.table, tt.code, got, tt.want)
		}
	}
}

func TestExtractColumnForUniqueViolation(t *testing.T) {
	tests := map[string]string{
		"unique_companies_name": "name",
		"companies_name_key":    "name",
		"companies_pkey":        "",
		"":                      "",
	}
	for constraint, want := range tests {
		if got := extractColumnForUniqueViolation(constraint); got != want {
			t.Errorf("extractColumnForUniqueViolation(%q) = %q, want %q", constraint, got, want)
		}
	}
}

func TestHandleError(t *testing.T) {
	notFound := errs.NewNotFoundError("Company not found", true, nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "http error passthrough",
			err:        notFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name: "unique violation",
			err: Wrap("create company", &pgconn.PgError{
				Code: "23505", Message: "duplicate key", TableName: "companies", ConstraintName: "companies_name_key",
			}),
			wantStatus: http.StatusBadRequest,
			wantCode:   "COMPANY_ALREADY_EXISTS",
		},
		{
			name: "foreign key violation",
			err: Wrap("create employee", &pgconn.PgError{
				Code: "23503", Message: "fk", TableName: "employees", ColumnName: "company_id",
			}),
			wantStatus: http.StatusBadRequest,
			wantCode:   "EMPLOYEE_NOT_FOUND",
		},
		{
			name:       "other storage failure",
			err:        Wrap("list companies", context.DeadlineExceeded),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_SERVER_ERROR",
		},
		{
			name:       "no rows",
			err:        fmt.Errorf("lookup: %w", pgx.ErrNoRows),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "unknown",
			err:        errors.New("unexpected"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_SERVER_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var httpErr *errs.HTTPError
			if !errors.As(HandleError(tt.err), &httpErr) {
				t.Fatalf("HandleError() did not return *errs.HTTPError")
			}
			if httpErr.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", httpErr.Status, tt.wantStatus)
			}
			if httpErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", httpErr.Code, tt.wantCode)
			}
		})
	}
}

func TestHandleErrorStorageMessage(t *testing.T) {
	err := HandleError(Wrap("list companies", errors.New("relation does not exist")))

	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatal("HandleError() did not return *errs.HTTPError")
	}
	if want := "storage operation failed: list companies: relation does not exist"; httpErr.Message != want {
		t.Errorf("Message = %q, want %q", httpErr.Message, want)
	}
}
