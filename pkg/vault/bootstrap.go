package vault

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/doodlesbykumbi/piivault/pkg/model"
	"github.com/doodlesbykumbi/piivault/pkg/server/store"
)

// RootPolicyID is the well-known ID of the bootstrap policy granting full
// access. It is deterministic so repeated bootstraps stay idempotent.
const RootPolicyID = "pol_root"

// Bootstrap ensures the root policy and the admin principal exist. It is
// conflict tolerant so restarts are safe.
func (v *Vault) Bootstrap(adminUsername, adminPassword string) error {
	if adminUsername == "" || adminPassword == "" {
		return &ValueError{Msg: "admin username and password are required for bootstrap"}
	}

	_, err := v.Policies.GetPolicy(RootPolicyID)
	if errors.Is(err, store.ErrPolicyNotFound) {
		err = v.Policies.CreatePolicy(&model.Policy{
			ID:        RootPolicyID,
			Effect:    "allow",
			Actions:   []string{"read", "write"},
			Resources: []string{"*"},
		})
	}
	if err != nil {
		return err
	}

	_, err = v.Principals.GetPrincipal(adminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrPrincipalNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	err = v.Principals.CreatePrincipal(&model.Principal{
		ID:           model.NewPrincipalID(),
		Username:     adminUsername,
		PasswordHash: hash,
		Description:  "bootstrap admin",
	}, []string{RootPolicyID})
	if errors.Is(err, store.ErrPrincipalExists) {
		// a concurrent bootstrap won the race
		return nil
	}
	return err
}
