// Package sqlerr specifically handles database driver errors.
//
// Every storage failure leaving the repository layer is flattened into a
// single *Error that carries the failed operation and the innermost message
// the driver produced. The SQLSTATE details are kept alongside so the HTTP
// layer can turn constraint violations into friendly client errors
// (e.g., converting a "foreign key violation" into a "Bad Request").
package sqlerr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Code is a coarse classification of a PostgreSQL SQLSTATE.
type Code string

const (
	Other               Code = "other"
	NotNullViolation    Code = "not_null_violation"
	ForeignKeyViolation Code = "foreign_key_violation"
	UniqueViolation     Code = "unique_violation"
	CheckViolation      Code = "check_violation"
	ExclusionViolation  Code = "exclusion_violation"
	StringTooLong       Code = "string_data_right_truncation"
	InvalidText         Code = "invalid_text_representation"
	UndefinedFunction   Code = "undefined_function"
	UndefinedTable      Code = "undefined_table"
)

// Severity mirrors the severity PostgreSQL reports with an error.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityFatal   Severity = "FATAL"
	SeverityPanic   Severity = "PANIC"
	SeverityWarning Severity = "WARNING"
	SeverityNotice  Severity = "NOTICE"
	SeverityDebug   Severity = "DEBUG"
	SeverityInfo    Severity = "INFO"
	SeverityLog     Severity = "LOG"
)

// Error is the one error kind the storage layer returns: "storage operation
// failed", with the innermost available message.
//
// Op names the repository operation that failed (e.g. "create company").
// The remaining fields are filled from *pgconn.PgError when the server
// reported one.
type Error struct {
	Op             string
	Code           Code
	Severity       Severity
	DatabaseCode   string
	Message        string
	SchemaName     string
	TableName      string
	ColumnName     string
	DataTypeName   string
	ConstraintName string
	driverErr      error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return "storage operation failed: " + e.Message
	}
	return fmt.Sprintf("storage operation failed: %s: %s", e.Op, e.Message)
}

// Unwrap exposes the original driver error to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.driverErr
}

// Wrap flattens err into an *Error for operation op.
//
// Returns nil for a nil err. An err that already is (or wraps) an *Error is
// returned with only Op filled in when it was empty, so nested operations
// such as the batch writer keep the first failure's message.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		if sqlErr.Op == "" {
			sqlErr.Op = op
		}
		return sqlErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		converted := ConvertPgError(pgErr)
		converted.Op = op
		return converted
	}

	return &Error{
		Op:        op,
		Code:      Other,
		Severity:  SeverityError,
		Message:   innermost(err).Error(),
		driverErr: err,
	}
}

// innermost follows the Unwrap chain to the deepest cause. Joined errors
// (Unwrap() []error) stop the walk since there is no single innermost cause.
func innermost(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// MapCode converts a SQLSTATE into a Code.
//
// See https://www.postgresql.org/docs/current/errcodes-appendix.html.
func MapCode(sqlState string) Code {
	switch sqlState {
	case "23502":
		return NotNullViolation
	case "23503":
		return ForeignKeyViolation
	case "23505":
		return UniqueViolation
	case "23514":
		return CheckViolation
	case "23P01":
		return ExclusionViolation
	case "22001":
		return StringTooLong
	case "22P02":
		return InvalidText
	case "42883":
		return UndefinedFunction
	case "42P01":
		return UndefinedTable
	default:
		return Other
	}
}

// MapSeverity converts the severity text sent by the server.
func MapSeverity(severity string) Severity {
	switch Severity(severity) {
	case SeverityError, SeverityFatal, SeverityPanic, SeverityWarning,
		SeverityNotice, SeverityDebug, SeverityInfo, SeverityLog:
		return Severity(severity)
	default:
		return SeverityError
	}
}
