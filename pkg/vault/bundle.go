package vault

import (
	"context"

	"github.com/doodlesbykumbi/piivault/pkg/policy"
)

// BundleResult reports what an applied bundle created.
type BundleResult struct {
	// PolicyIDs maps bundle-local policy names to stored policy IDs.
	PolicyIDs map[string]string `json:"policy_ids"`
	// Principals lists the usernames that were created.
	Principals []string `json:"principals"`
}

// ApplyBundle creates every policy and principal a bundle declares.
// Principals are attached to the policies they reference by bundle name.
// Application is not transactional: a failure partway leaves earlier
// entries in place, and the caller can correct the bundle and retry.
func (v *Vault) ApplyBundle(ctx context.Context, bundle *policy.Bundle) (*BundleResult, error) {
	result := &BundleResult{PolicyIDs: make(map[string]string, len(bundle.Policies))}

	for _, entry := range bundle.Policies {
		rule, err := entry.ToRule()
		if err != nil {
			return nil, &ValueError{Msg: err.Error()}
		}
		created, err := v.CreatePolicy(ctx, rule)
		if err != nil {
			return nil, err
		}
		result.PolicyIDs[entry.Name] = created.ID
	}

	for _, entry := range bundle.Principals {
		policyIDs := make([]string, 0, len(entry.Policies))
		for _, name := range entry.Policies {
			policyIDs = append(policyIDs, result.PolicyIDs[name])
		}
		if _, err := v.CreatePrincipal(ctx, entry.Username, entry.Password, entry.Description, policyIDs); err != nil {
			return nil, err
		}
		result.Principals = append(result.Principals, entry.Username)
	}

	return result, nil
}
