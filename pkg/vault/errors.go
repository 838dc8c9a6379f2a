package vault

import "fmt"

// ForbiddenError is returned when the caller's policies do not allow an
// action on a resource.
type ForbiddenError struct {
	Action   string
	Resource string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s on %s", e.Action, e.Resource)
}

// NotFoundError is returned when a referenced resource doesn't exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// ConflictError is returned when a create collides with existing state,
// e.g. a duplicate indexed field value or an already-registered name.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string {
	return e.Msg
}

// ValueError is returned when a request payload fails validation.
type ValueError struct {
	Msg string
}

func (e *ValueError) Error() string {
	return e.Msg
}

// IntegrityError is returned when a structural precondition is broken,
// e.g. a missing parent collection or a parent chain that loops.
type IntegrityError struct {
	Msg string
}

func (e *IntegrityError) Error() string {
	return e.Msg
}

// NotAuthenticatedError is returned when no identity is present on the
// request context.
type NotAuthenticatedError struct{}

func (e *NotAuthenticatedError) Error() string {
	return "not authenticated"
}
