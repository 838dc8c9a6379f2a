package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/doodlesbykumbi/piivault/pkg/audit"
	"github.com/doodlesbykumbi/piivault/pkg/model"
	"github.com/doodlesbykumbi/piivault/pkg/policy"
	"github.com/doodlesbykumbi/piivault/pkg/server/store"
)

// CreatePolicy validates and persists an access policy.
func (v *Vault) CreatePolicy(ctx context.Context, rule *policy.Policy) (*model.Policy, error) {
	if err := v.ValidateAction(ctx, policy.ActionWrite, PoliciesResource()); err != nil {
		return nil, err
	}

	if len(rule.Actions) == 0 {
		return nil, &ValueError{Msg: "policy must declare at least one action"}
	}
	if len(rule.Resources) == 0 {
		return nil, &ValueError{Msg: "policy must declare at least one resource"}
	}
	for _, resource := range rule.Resources {
		if _, err := policy.Compile(resource); err != nil {
			return nil, &ValueError{Msg: fmt.Sprintf("invalid resource pattern %q", resource)}
		}
	}

	rule.ID = model.NewPolicyID()
	row := model.FromRule(rule)
	if err := v.Policies.CreatePolicy(row); err != nil {
		return nil, err
	}

	audit.Log(audit.PolicyEvent{
		Username:  username(ctx),
		ClientIP:  clientIP(ctx),
		PolicyID:  row.ID,
		Operation: "create",
		Success:   true,
	})

	return row, nil
}

// GetPolicy retrieves a policy by ID.
func (v *Vault) GetPolicy(ctx context.Context, id string) (*policy.Policy, error) {
	if err := v.ValidateAction(ctx, policy.ActionRead, PolicyResource(id)); err != nil {
		return nil, err
	}

	row, err := v.Policies.GetPolicy(id)
	if err != nil {
		if errors.Is(err, store.ErrPolicyNotFound) {
			return nil, &NotFoundError{Kind: "policy", ID: id}
		}
		return nil, err
	}
	return row.ToRule()
}

// ListPolicies lists all policy IDs.
func (v *Vault) ListPolicies(ctx context.Context) ([]string, error) {
	if err := v.ValidateAction(ctx, policy.ActionRead, PoliciesResource()); err != nil {
		return nil, err
	}

	rows, err := v.Policies.ListPolicies()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// DeletePolicy removes a policy and detaches it from all principals.
func (v *Vault) DeletePolicy(ctx context.Context, id string) error {
	if err := v.ValidateAction(ctx, policy.ActionWrite, PolicyResource(id)); err != nil {
		return err
	}

	if err := v.Policies.DeletePolicy(id); err != nil {
		if errors.Is(err, store.ErrPolicyNotFound) {
			return &NotFoundError{Kind: "policy", ID: id}
		}
		return err
	}

	audit.Log(audit.PolicyEvent{
		Username:  username(ctx),
		ClientIP:  clientIP(ctx),
		PolicyID:  id,
		Operation: "delete",
		Success:   true,
	})

	return nil
}
