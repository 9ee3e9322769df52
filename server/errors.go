package server

import (
	"errors"

	apperrors "github.com/leeforge/pyracms/errors"
	"github.com/leeforge/pyracms/plugin"
)

// NewErrorConverter maps plugin errors onto HTTP statuses: duplicate 409,
// not found 404, validation 400, hook failure 500.
func NewErrorConverter() *apperrors.ErrorConverter {
	return apperrors.NewErrorConverter(translatePluginError)
}

func translatePluginError(err error) *apperrors.AppError {
	var (
		dup      *plugin.DuplicateRegistrationError
		notFound *plugin.NotFoundError
		invalid  *plugin.ValidationError
		hook     *plugin.HookError
	)
	switch {
	case errors.As(err, &hook):
		return apperrors.NewHook(hook.ID, hook.Hook, hook.Err)
	case errors.As(err, &dup):
		return apperrors.NewConflict("plugin", dup.ID).WithInnerError(err)
	case errors.As(err, &notFound):
		return apperrors.NewNotFound("plugin", notFound.ID).WithInnerError(err)
	case errors.As(err, &invalid):
		return apperrors.NewValidation(invalid.Field, invalid.Error()).WithInnerError(err)
	default:
		return nil
	}
}
