package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/deppfellow/company-api/internal/sqlerr"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
)

const insertCompany = "INSERT INTO companies (name, address, country) VALUES ($1, $2, $3)"

func companyWrites(names ...string) []Write {
	writes := make([]Write, 0, len(names))
	for _, n := range names {
		writes = append(writes, Write{SQL: insertCompany, Args: []any{n, "Main St", "NL"}})
	}
	return writes
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool() error = %v", err)
	}
	t.Cleanup(mock.Close)

	return mock
}

func TestExecBatchCommitsAllWrites(t *testing.T) {
	mock := newMock(t)

	mock.ExpectBegin()
	for _, name := range []string{"Acme", "Globex", "Initech"} {
		mock.ExpectExec(regexp.QuoteMeta(insertCompany)).
			WithArgs(name, "Main St", "NL").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	if err := ExecBatch(context.Background(), mock, companyWrites("Acme", "Globex", "Initech")); err != nil {
		t.Fatalf("ExecBatch() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestExecBatchRollsBackOnFirstFailure(t *testing.T) {
	mock := newMock(t)

	violation := &pgconn.PgError{
		Severity:   "ERROR",
		Code:       "23502",
		Message:    `null value in column "name" of relation "companies" violates not-null constraint`,
		TableName:  "companies",
		ColumnName: "name",
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertCompany)).
		WithArgs("Acme", "Main St", "NL").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(insertCompany)).
		WithArgs("", "Main St", "NL").
		WillReturnError(violation)
	mock.ExpectRollback()

	err := ExecBatch(context.Background(), mock, companyWrites("Acme", "", "Initech"))
	if err == nil {
		t.Fatal("ExecBatch() succeeded, want an error")
	}

	var sqlErr *sqlerr.Error
	if !errors.As(err, &sqlErr) {
		t.Fatalf("error = %T, want *sqlerr.Error", err)
	}
	if sqlErr.Message != violation.Message {
		t.Errorf("Message = %q, want %q", sqlErr.Message, violation.Message)
	}
	if sqlErr.Code != sqlerr.NotNullViolation {
		t.Errorf("Code = %q, want %q", sqlErr.Code, sqlerr.NotNullViolation)
	}
	if sqlErr.Op != "batch write 2 of 3" {
		t.Errorf("Op = %q", sqlErr.Op)
	}

	// No third exec and no commit were expected; both would leave
	// ExpectRollback unmet.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestExecBatchEmpty(t *testing.T) {
	mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	if err := ExecBatch(context.Background(), mock, nil); err != nil {
		t.Fatalf("ExecBatch(nil) error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestExecBatchBeginFailure(t *testing.T) {
	mock := newMock(t)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	err := ExecBatch(context.Background(), mock, companyWrites("Acme"))

	var sqlErr *sqlerr.Error
	if !errors.As(err, &sqlErr) {
		t.Fatalf("error = %v, want *sqlerr.Error", err)
	}
	if sqlErr.Message != "too many connections" {
		t.Errorf("Message = %q", sqlErr.Message)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestExecBatchCommitFailure(t *testing.T) {
	mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertCompany)).
		WithArgs("Acme", "Main St", "NL").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit().WillReturnError(errors.New("could not serialize access"))

	err := ExecBatch(context.Background(), mock, companyWrites("Acme"))
	if err == nil || !errors.As(err, new(*sqlerr.Error)) {
		t.Fatalf("error = %v, want *sqlerr.Error", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
