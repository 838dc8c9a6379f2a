package store

import (
	"errors"

	"github.com/doodlesbykumbi/piivault/pkg/model"
)

// ErrPolicyNotFound is returned when a policy doesn't exist
var ErrPolicyNotFound = errors.New("policy not found")

// PoliciesStore abstracts policy storage operations
type PoliciesStore interface {
	// CreatePolicy persists a new policy.
	CreatePolicy(policy *model.Policy) error

	// GetPolicy retrieves a policy by ID.
	// Returns ErrPolicyNotFound if the policy doesn't exist.
	GetPolicy(id string) (*model.Policy, error)

	// ListPolicies lists all policies.
	ListPolicies() ([]*model.Policy, error)

	// DeletePolicy removes a policy and its attachments.
	// Returns ErrPolicyNotFound if the policy doesn't exist.
	DeletePolicy(id string) error

	// GetPoliciesForPrincipal retrieves the policies attached to a principal.
	GetPoliciesForPrincipal(principalID string) ([]*model.Policy, error)
}
