package ports

import (
	"fmt"

	"objstore-backend/internal/domain/models"
)

// NotFoundError is returned when the requested resource does not exist
type NotFoundError struct {
	Key models.ResourceKey
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource %s not found", e.Key.Key())
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(key models.ResourceKey) *NotFoundError {
	return &NotFoundError{Key: key}
}

// DuplicateError is returned when a create targets an existing identity
type DuplicateError struct {
	Key     models.ResourceKey
	Message string
}

func (e *DuplicateError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("resource %s already exists", e.Key.Key())
}

// NewDuplicateError creates a new duplicate error with an explicit message
func NewDuplicateError(key models.ResourceKey, message string) *DuplicateError {
	return &DuplicateError{Key: key, Message: message}
}

// VersionConflictError is returned when an update supplies a version other
// than the one the optimistic locking protocol requires
type VersionConflictError struct {
	Key      models.ResourceKey
	Expected int64
	Received int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict for resource %s: expected version %d, received %d",
		e.Key.Key(), e.Expected, e.Received)
}

// NewVersionConflictError creates a new version conflict error
func NewVersionConflictError(key models.ResourceKey, expected, received int64) *VersionConflictError {
	return &VersionConflictError{Key: key, Expected: expected, Received: received}
}

// InvalidConditionError reports a search condition a backend cannot execute,
// such as a query that does not constrain tenantId when tenants map to
// separate databases. It is an input defect, not a storage failure.
type InvalidConditionError struct {
	Message string
}

func (e *InvalidConditionError) Error() string {
	return e.Message
}

// NewInvalidConditionError creates a new invalid condition error
func NewInvalidConditionError(message string) *InvalidConditionError {
	return &InvalidConditionError{Message: message}
}

// BackendError surfaces an opaque storage client failure unchanged
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend error: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// NewBackendError wraps a storage client failure
func NewBackendError(backend string, err error) *BackendError {
	return &BackendError{Backend: backend, Err: err}
}
