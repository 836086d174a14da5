// internal/finder/errors.go
package finder

import (
	"context"
	stderrors "errors"
	"time"

	"phone-finder-workers/internal/budget"
	"phone-finder-workers/internal/catalog"
	"phone-finder-workers/internal/common/errors"
	"phone-finder-workers/internal/filters"
)

// OracleTimeout is reported in ORACLE_TIMEOUT details.
var OracleTimeout = 30 * time.Second

// StandardError maps a pipeline error onto the shared error codes used by
// the workers and the API. StandardErrors pass through unchanged.
func StandardError(err error) *errors.StandardError {
	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	var resErr *filters.ResolutionError
	var queryErr *catalog.QueryError

	switch {
	case stderrors.As(err, &resErr) && resErr.Timeout:
		return errors.NewOracleTimeoutError(OracleTimeout).WithMetadata("reason", resErr.Reason)
	case stderrors.As(err, &resErr):
		return errors.NewFilterResolutionFailedError(err).WithMetadata("reason", resErr.Reason)
	case stderrors.Is(err, budget.ErrNotParsed):
		return errors.NewBudgetNotParsedError("")
	case stderrors.Is(err, filters.ErrEmptyRequest):
		return errors.NewInvalidFilterFormatError("answers or utterance is required")
	case stderrors.Is(err, ErrInvalidFilterFormat):
		return errors.NewInvalidFilterFormatError(err.Error())
	case stderrors.As(err, &queryErr) && queryErr.Timeout:
		return errors.NewQueryTimeoutError("phones")
	case stderrors.As(err, &queryErr):
		return errors.NewQueryExecutionFailedError("phones", err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewTimeoutError("finder", err)
	default:
		return errors.Normalize(err)
	}
}
