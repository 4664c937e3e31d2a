package database

import (
	"fmt"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrPropertyNotFound  = errors.New("property not found")
	ErrMessageNotFound   = errors.New("message not found")

	// ErrForeignKey means a referenced user or property does not exist
	ErrForeignKey = errors.New("referenced row does not exist")
	// ErrConstraint means a column value was rejected (not null, check, length)
	ErrConstraint = errors.New("value violates a column constraint")
)

// Postgres SQLSTATE codes we translate
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	codeStringTooLong       = "22001"
	codeInvalidText         = "22P02"
)

// classify turns driver errors into package sentinels, keeping the
// constraint name for the logs.
func classify(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch string(pqErr.Code) {
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %s", ErrForeignKey, pqErr.Constraint)
	case codeNotNullViolation, codeCheckViolation, codeStringTooLong, codeInvalidText:
		return fmt.Errorf("%w: %s", ErrConstraint, pqErr.Message)
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", ErrUserAlreadyExists, pqErr.Constraint)
	default:
		return err
	}
}
