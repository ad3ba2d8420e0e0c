package api

import (
	"errors"

	apperrors "github.com/consorcio/emissions/errors"
	"github.com/consorcio/emissions/form"
)

var formErrorCodes = map[form.Kind]string{
	form.KindMissingField:           apperrors.CodeMissingField,
	form.KindInvalidDistance:        apperrors.CodeInvalidDistance,
	form.KindInvalidFuel:            apperrors.CodeInvalidFuel,
	form.KindOccupancyLimitExceeded: apperrors.CodeOccupancyLimitExceeded,
}

// formError turns a *form.ValidationError into an AppError naming the
// offending field. Other errors pass through.
func formError(err error) error {
	var verr *form.ValidationError
	if !errors.As(err, &verr) {
		return err
	}

	code, ok := formErrorCodes[verr.Kind]
	if !ok {
		code = apperrors.CodeValidation
	}
	return apperrors.Wrap(err, code, verr.Error()).WithDetail(verr.Field, verr.Message())
}

func notFound(resource string) error {
	return apperrors.NotFound(resource)
}
