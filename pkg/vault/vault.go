package vault

import (
	"context"

	"github.com/doodlesbykumbi/piivault/pkg/audit"
	"github.com/doodlesbykumbi/piivault/pkg/identity"
	"github.com/doodlesbykumbi/piivault/pkg/policy"
	"github.com/doodlesbykumbi/piivault/pkg/seal"
	"github.com/doodlesbykumbi/piivault/pkg/server/store"
)

// Vault orchestrates authorization, validation, rendering and persistence
// for every operation.
type Vault struct {
	Collections store.CollectionsStore
	Records     store.RecordsStore
	Subjects    store.SubjectsStore
	Policies    store.PoliciesStore
	Principals  store.PrincipalsStore
	Tokens      store.TokensStore

	Indexer *seal.Indexer

	// PurgeTokensOnDelete removes tokens pointing at deleted records.
	// Off by default: issued tokens keep resolving after erasure.
	PurgeTokensOnDelete bool
}

// New creates a Vault over the given stores.
func New(
	collections store.CollectionsStore,
	records store.RecordsStore,
	subjects store.SubjectsStore,
	policies store.PoliciesStore,
	principals store.PrincipalsStore,
	tokens store.TokensStore,
	indexer *seal.Indexer,
) *Vault {
	return &Vault{
		Collections: collections,
		Records:     records,
		Subjects:    subjects,
		Policies:    policies,
		Principals:  principals,
		Tokens:      tokens,
		Indexer:     indexer,
	}
}

// ValidateAction checks that the calling identity may perform an action on
// a resource. Denials are audited.
func (v *Vault) ValidateAction(ctx context.Context, action policy.Action, resource string) error {
	id, ok := identity.Get(ctx)
	if !ok {
		return &NotAuthenticatedError{}
	}

	rows, err := v.Policies.GetPoliciesForPrincipal(id.PrincipalID)
	if err != nil {
		return err
	}

	rules := make([]*policy.Policy, 0, len(rows))
	for _, row := range rows {
		rule, err := row.ToRule()
		if err != nil {
			// a malformed stored policy must fail closed, not open
			continue
		}
		rules = append(rules, rule)
	}

	request := policy.Request{Action: action, Resource: resource}
	if !policy.Evaluate(request, rules) {
		audit.Log(audit.CheckEvent{
			Username: id.Username,
			ClientIP: clientIP(ctx),
			Action:   action.String(),
			Resource: resource,
			Allowed:  false,
		})
		return &ForbiddenError{Action: action.String(), Resource: resource}
	}

	return nil
}

// validateActions checks a batch of resources for one action. All or
// nothing: the first denial fails the whole batch.
func (v *Vault) validateActions(ctx context.Context, action policy.Action, resources []string) error {
	for _, resource := range resources {
		if err := v.ValidateAction(ctx, action, resource); err != nil {
			return err
		}
	}
	return nil
}

func clientIP(ctx context.Context) string {
	id, ok := identity.Get(ctx)
	if !ok || id.RemoteIP == nil {
		return ""
	}
	return id.RemoteIP.String()
}

func username(ctx context.Context) string {
	id, ok := identity.Get(ctx)
	if !ok {
		return ""
	}
	return id.Username
}
