// internal/api/errors.go
package api

import (
	"context"
	"errors"

	"stayease/internal/app"
	"stayease/internal/booking"
	"stayease/internal/catalog"
	apperrors "stayease/internal/common/errors"
	"stayease/internal/filter"
	"stayease/internal/kvstore"
	"stayease/internal/navigation"
	"stayease/internal/session"
)

// toStandardError maps domain errors onto the standard error codes.
func toStandardError(err error) *apperrors.StandardError {
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}

	var opErr *kvstore.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == kvstore.OpGet {
			return apperrors.NewStoreReadFailedError(opErr.Key, opErr.Err)
		}
		return apperrors.NewStoreWriteFailedError(opErr.Key, opErr.Err)
	}

	var formErr *booking.FormError
	if errors.As(err, &formErr) {
		stdErr := apperrors.NewValidationError(formErr.Error())
		fields := make(map[string]string, len(formErr.Fields))
		for _, f := range formErr.Fields {
			fields[f.Field] = f.Message
		}
		return stdErr.WithMetadata("fields", fields)
	}

	switch {
	case errors.Is(err, catalog.ErrListingNotFound):
		return apperrors.NewListingNotFoundError(err.Error())
	case errors.Is(err, catalog.ErrBuildingNotFound),
		errors.Is(err, catalog.ErrOfferNotFound),
		errors.Is(err, app.ErrNoBookableOffer):
		return apperrors.NewOfferNotFoundError(err.Error(), err)
	case errors.Is(err, catalog.ErrOfferExhausted),
		errors.Is(err, catalog.ErrInvalidPath),
		errors.Is(err, filter.ErrInvalidCriteria),
		errors.Is(err, booking.ErrIncomplete),
		errors.Is(err, booking.ErrInvalidForm),
		errors.Is(err, session.ErrInvalidMode),
		errors.Is(err, app.ErrListingMismatch),
		errors.Is(err, errBadRequest):
		return apperrors.NewValidationError(err.Error())
	case errors.Is(err, navigation.ErrInvalidTransition),
		errors.Is(err, booking.ErrAlreadyCompleted):
		return apperrors.NewInvalidTransitionError(err.Error(), err)
	case errors.Is(err, app.ErrWizardNotActive):
		return apperrors.NewWizardNotActiveError()
	case errors.Is(err, booking.ErrSubmissionInProgress):
		return apperrors.NewSubmissionInProgressError()
	case errors.Is(err, booking.ErrProcessStart):
		return apperrors.NewProcessStartFailedError("booking", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("stayease", err)
	}
	return apperrors.Normalize(err)
}
