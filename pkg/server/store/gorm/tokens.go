package gorm

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/piivault/pkg/model"
	"github.com/doodlesbykumbi/piivault/pkg/server/store"
)

// Ensure TokensStore implements store.TokensStore
var _ store.TokensStore = (*TokensStore)(nil)

// TokensStore implements store.TokensStore using GORM
type TokensStore struct {
	db *gorm.DB
}

// NewTokensStore creates a new TokensStore
func NewTokensStore(db *gorm.DB) *TokensStore {
	return &TokensStore{db: db}
}

// CreateTokenForRecord reads the source record and persists the captured
// token in one transaction. The share lock keeps cascade deleters out
// until the snapshot is committed.
func (s *TokensStore) CreateTokenForRecord(collectionID, recordID string, capture func(record *model.Record) (*model.Token, error)) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var record model.Record
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Where("collection_id = ? AND id = ?", collectionID, recordID).
			First(&record).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrRecordNotFound
			}
			return err
		}

		token, err := capture(&record)
		if err != nil {
			return err
		}
		return tx.Create(token).Error
	})
}

// GetToken retrieves a token by ID.
func (s *TokensStore) GetToken(id string) (*model.Token, error) {
	var token model.Token
	tx := s.db.Where("id = ?", id).First(&token)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrTokenNotFound
		}
		return nil, tx.Error
	}
	return &token, nil
}

// DeleteToken removes a token.
func (s *TokensStore) DeleteToken(id string) error {
	del := s.db.Where("id = ?", id).Delete(&model.Token{})
	if del.Error != nil {
		return del.Error
	}
	if del.RowsAffected == 0 {
		return store.ErrTokenNotFound
	}
	return nil
}
