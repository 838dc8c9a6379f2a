package gorm

import (
	"errors"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/piivault/pkg/model"
	"github.com/doodlesbykumbi/piivault/pkg/server/store"
)

// Ensure PoliciesStore implements store.PoliciesStore
var _ store.PoliciesStore = (*PoliciesStore)(nil)

// PoliciesStore implements store.PoliciesStore using GORM
type PoliciesStore struct {
	db *gorm.DB
}

// NewPoliciesStore creates a new PoliciesStore
func NewPoliciesStore(db *gorm.DB) *PoliciesStore {
	return &PoliciesStore{db: db}
}

// CreatePolicy persists a new policy.
func (s *PoliciesStore) CreatePolicy(policy *model.Policy) error {
	return s.db.Create(policy).Error
}

// GetPolicy retrieves a policy by ID.
func (s *PoliciesStore) GetPolicy(id string) (*model.Policy, error) {
	var policy model.Policy
	tx := s.db.Where("id = ?", id).First(&policy)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrPolicyNotFound
		}
		return nil, tx.Error
	}
	return &policy, nil
}

// ListPolicies lists all policies.
func (s *PoliciesStore) ListPolicies() ([]*model.Policy, error) {
	var policies []*model.Policy
	if err := s.db.Order("id").Find(&policies).Error; err != nil {
		return nil, err
	}
	return policies, nil
}

// DeletePolicy removes a policy and its attachments.
func (s *PoliciesStore) DeletePolicy(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		del := tx.Where("id = ?", id).Delete(&model.Policy{})
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected == 0 {
			return store.ErrPolicyNotFound
		}
		return tx.Exec("DELETE FROM principal_policies WHERE policy_id = ?", id).Error
	})
}

// GetPoliciesForPrincipal retrieves the policies attached to a principal.
func (s *PoliciesStore) GetPoliciesForPrincipal(principalID string) ([]*model.Policy, error) {
	var policies []*model.Policy
	err := s.db.
		Joins("JOIN principal_policies ON principal_policies.policy_id = policies.id").
		Where("principal_policies.principal_id = ?", principalID).
		Find(&policies).Error
	if err != nil {
		return nil, err
	}
	return policies, nil
}
