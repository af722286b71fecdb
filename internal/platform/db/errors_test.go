package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolationMatchesDriverError(t *testing.T) {
	driverErr := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	wrapped := fmt.Errorf("insert user: %w", driverErr)

	if !IsUniqueViolation(wrapped) {
		t.Fatal("expected wrapped unique-violation driver error to match")
	}
}

func TestIsUniqueViolationIgnoresOtherErrors(t *testing.T) {
	cases := map[string]error{
		"nil":              nil,
		"plain error":      errors.New("connection reset"),
		"other pg code":    &pgconn.PgError{Code: "23503"},
		"wrapped other pg": fmt.Errorf("insert: %w", &pgconn.PgError{Code: "40001"}),
	}
	for name, err := range cases {
		if IsUniqueViolation(err) {
			t.Fatalf("%s: expected no match", name)
		}
	}
}
