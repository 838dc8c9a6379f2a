package vault

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"github.com/doodlesbykumbi/piivault/pkg/audit"
	"github.com/doodlesbykumbi/piivault/pkg/model"
	"github.com/doodlesbykumbi/piivault/pkg/policy"
	"github.com/doodlesbykumbi/piivault/pkg/server/store"
)

var usernameRgx = regexp.MustCompile(`^[a-zA-Z0-9._@-]{1,64}$`)

const minPasswordLength = 8

// CreatePrincipal registers an API principal and attaches policies to it.
func (v *Vault) CreatePrincipal(ctx context.Context, name, password, description string, policyIDs []string) (*model.Principal, error) {
	if err := v.ValidateAction(ctx, policy.ActionWrite, PrincipalsResource()); err != nil {
		return nil, err
	}

	if !usernameRgx.MatchString(name) {
		return nil, &ValueError{Msg: fmt.Sprintf("invalid username %q", name)}
	}
	if len(password) < minPasswordLength {
		return nil, &ValueError{Msg: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	principal := &model.Principal{
		ID:           model.NewPrincipalID(),
		Username:     name,
		PasswordHash: hash,
		Description:  description,
	}
	if err := v.Principals.CreatePrincipal(principal, policyIDs); err != nil {
		if errors.Is(err, store.ErrPrincipalExists) {
			return nil, &ConflictError{Msg: fmt.Sprintf("principal %q already exists", name)}
		}
		if errors.Is(err, store.ErrPolicyNotFound) {
			return nil, &NotFoundError{Kind: "policy", ID: "attachment"}
		}
		return nil, err
	}

	return principal, nil
}

// GetPrincipal retrieves a principal by username.
func (v *Vault) GetPrincipal(ctx context.Context, name string) (*model.Principal, error) {
	if err := v.ValidateAction(ctx, policy.ActionRead, PrincipalResource(name)); err != nil {
		return nil, err
	}

	principal, err := v.Principals.GetPrincipal(name)
	if err != nil {
		if errors.Is(err, store.ErrPrincipalNotFound) {
			return nil, &NotFoundError{Kind: "principal", ID: name}
		}
		return nil, err
	}
	return principal, nil
}

// DeletePrincipal removes a principal.
func (v *Vault) DeletePrincipal(ctx context.Context, name string) error {
	if err := v.ValidateAction(ctx, policy.ActionWrite, PrincipalResource(name)); err != nil {
		return err
	}

	if err := v.Principals.DeletePrincipal(name); err != nil {
		if errors.Is(err, store.ErrPrincipalNotFound) {
			return &NotFoundError{Kind: "principal", ID: name}
		}
		return err
	}
	return nil
}

// Login verifies a username and password pair. Failures are audited and
// indistinguishable between unknown user and wrong password.
func (v *Vault) Login(ctx context.Context, name, password string) (*model.Principal, error) {
	principal, err := v.Principals.GetPrincipal(name)
	if err != nil {
		if errors.Is(err, store.ErrPrincipalNotFound) {
			audit.Log(audit.AuthenticateEvent{
				Username:     name,
				ClientIP:     clientIP(ctx),
				Success:      false,
				ErrorMessage: "unknown principal",
			})
			return nil, &NotAuthenticatedError{}
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(principal.PasswordHash, []byte(password)); err != nil {
		audit.Log(audit.AuthenticateEvent{
			Username:     name,
			ClientIP:     clientIP(ctx),
			Success:      false,
			ErrorMessage: "invalid password",
		})
		return nil, &NotAuthenticatedError{}
	}

	audit.Log(audit.AuthenticateEvent{
		Username: name,
		ClientIP: clientIP(ctx),
		Success:  true,
	})

	return principal, nil
}
