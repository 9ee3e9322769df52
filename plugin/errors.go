package plugin

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateRegistration = errors.New("plugin already registered")
	ErrNotFound              = errors.New("plugin not found")
	ErrHookFailed            = errors.New("plugin hook failed")
	ErrValidation            = errors.New("invalid plugin definition")
)

// DuplicateRegistrationError is returned when an id is registered twice.
type DuplicateRegistrationError struct {
	ID string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("plugin %q is already registered", e.ID)
}

func (e *DuplicateRegistrationError) Is(target error) bool {
	return target == ErrDuplicateRegistration
}

type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("plugin %q is not registered", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// HookError wraps the error returned by a lifecycle hook.
type HookError struct {
	ID   string
	Hook string
	Err  error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("plugin %q: %s hook failed: %v", e.ID, e.Hook, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

func (e *HookError) Is(target error) bool {
	return target == ErrHookFailed
}

// ValidationError names the first invalid field of a plugin definition.
// Field is a path such as "dataModels[ForumTopic].fields.categoryId.relation.model".
type ValidationError struct {
	Plugin  string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Plugin == "" {
		return fmt.Sprintf("invalid plugin: %s %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid plugin %q: %s %s", e.Plugin, e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
