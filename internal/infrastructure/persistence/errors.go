package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/otec/backoffice/internal/domain/shared"
)

// pgExclusionViolation is raised by the commission tier EXCLUDE constraint
const pgExclusionViolation = "23P01"

// isPgError reports whether err carries the given PostgreSQL SQLSTATE
func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// translateTierWriteError maps the commission tier exclusion constraint to a validation error.
// It fires when a concurrent writer committed an overlapping tier first.
func translateTierWriteError(err error) error {
	if isPgError(err, pgExclusionViolation) {
		return shared.WrapDomainError(shared.CodeValidation,
			"range overlaps a tier committed concurrently for the same role", err)
	}
	return err
}
