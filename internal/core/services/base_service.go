package services

import (
	"errors"

	"github.com/famvest/portfolio_tracker_app/internal/apperrors"
)

// isNotFound reports whether an error is the repository "no rows" outcome,
// which most read paths treat as an expected branch rather than a failure.
func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
