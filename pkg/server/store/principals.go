package store

import (
	"errors"

	"github.com/doodlesbykumbi/piivault/pkg/model"
)

// ErrPrincipalNotFound is returned when a principal doesn't exist
var ErrPrincipalNotFound = errors.New("principal not found")

// ErrPrincipalExists is returned when a username is already taken
var ErrPrincipalExists = errors.New("principal already exists")

// PrincipalsStore abstracts principal storage operations
type PrincipalsStore interface {
	// CreatePrincipal persists a new principal and attaches the given
	// policies. Returns ErrPrincipalExists if the username is taken and
	// ErrPolicyNotFound if an attachment references a missing policy.
	CreatePrincipal(principal *model.Principal, policyIDs []string) error

	// GetPrincipal retrieves a principal by username, with policies loaded.
	// Returns ErrPrincipalNotFound if the principal doesn't exist.
	GetPrincipal(username string) (*model.Principal, error)

	// GetPrincipalByID retrieves a principal by ID, with policies loaded.
	// Returns ErrPrincipalNotFound if the principal doesn't exist.
	GetPrincipalByID(id string) (*model.Principal, error)

	// DeletePrincipal removes a principal and its policy attachments.
	// Returns ErrPrincipalNotFound if the principal doesn't exist.
	DeletePrincipal(username string) error
}
