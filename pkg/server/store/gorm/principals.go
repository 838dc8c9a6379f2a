package gorm

import (
	"errors"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/piivault/pkg/model"
	"github.com/doodlesbykumbi/piivault/pkg/server/store"
)

// Ensure PrincipalsStore implements store.PrincipalsStore
var _ store.PrincipalsStore = (*PrincipalsStore)(nil)

// PrincipalsStore implements store.PrincipalsStore using GORM
type PrincipalsStore struct {
	db *gorm.DB
}

// NewPrincipalsStore creates a new PrincipalsStore
func NewPrincipalsStore(db *gorm.DB) *PrincipalsStore {
	return &PrincipalsStore{db: db}
}

// CreatePrincipal persists a new principal and attaches the given policies.
func (s *PrincipalsStore) CreatePrincipal(principal *model.Principal, policyIDs []string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if len(policyIDs) > 0 {
			var policies []model.Policy
			if err := tx.Where("id IN ?", policyIDs).Find(&policies).Error; err != nil {
				return err
			}
			if len(policies) != len(policyIDs) {
				return store.ErrPolicyNotFound
			}
			principal.Policies = policies
		}

		err := tx.Create(principal).Error
		if isUniqueViolation(err) {
			return store.ErrPrincipalExists
		}
		return err
	})
}

// GetPrincipal retrieves a principal by username, with policies loaded.
func (s *PrincipalsStore) GetPrincipal(username string) (*model.Principal, error) {
	var principal model.Principal
	tx := s.db.Preload("Policies").Where("username = ?", username).First(&principal)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrPrincipalNotFound
		}
		return nil, tx.Error
	}
	return &principal, nil
}

// GetPrincipalByID retrieves a principal by ID, with policies loaded.
func (s *PrincipalsStore) GetPrincipalByID(id string) (*model.Principal, error) {
	var principal model.Principal
	tx := s.db.Preload("Policies").Where("id = ?", id).First(&principal)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrPrincipalNotFound
		}
		return nil, tx.Error
	}
	return &principal, nil
}

// DeletePrincipal removes a principal and its policy attachments.
func (s *PrincipalsStore) DeletePrincipal(username string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var principal model.Principal
		if err := tx.Where("username = ?", username).First(&principal).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrPrincipalNotFound
			}
			return err
		}

		if err := tx.Exec("DELETE FROM principal_policies WHERE principal_id = ?", principal.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&principal).Error
	})
}
