package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ledger"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes we classify.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translate turns driver and gorm errors into ledger domain errors, keeping
// the original error in the chain.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ledger.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s already exists: %w", what, ledger.ErrConflict)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s is referenced by other records: %w", what, ledger.ErrConflict)
		}
	}
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%s already exists: %w", what, ledger.ErrConflict)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// isUniqueConstraintError sniffs messages of drivers that do not surface a
// *pgconn.PgError.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || errors.Is(err, gorm.ErrDuplicatedKey)
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ledger.ErrValidation, fmt.Sprintf(format, args...))
}
