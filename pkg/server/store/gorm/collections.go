package gorm

import (
	"errors"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/piivault/pkg/model"
	"github.com/doodlesbykumbi/piivault/pkg/server/store"
)

// Ensure CollectionsStore implements store.CollectionsStore
var _ store.CollectionsStore = (*CollectionsStore)(nil)

// CollectionsStore implements store.CollectionsStore using GORM
type CollectionsStore struct {
	db *gorm.DB
}

// NewCollectionsStore creates a new CollectionsStore
func NewCollectionsStore(db *gorm.DB) *CollectionsStore {
	return &CollectionsStore{db: db}
}

// CreateCollection creates a new collection.
func (s *CollectionsStore) CreateCollection(collection *model.Collection) error {
	err := s.db.Create(collection).Error
	if isUniqueViolation(err) {
		return store.ErrCollectionExists
	}
	return err
}

// GetCollection retrieves a collection by name.
func (s *CollectionsStore) GetCollection(name string) (*model.Collection, error) {
	var collection model.Collection
	tx := s.db.Where("name = ?", name).First(&collection)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrCollectionNotFound
		}
		return nil, tx.Error
	}
	return &collection, nil
}

// ListCollections lists all collections.
func (s *CollectionsStore) ListCollections() ([]*model.Collection, error) {
	var collections []*model.Collection
	if err := s.db.Order("name").Find(&collections).Error; err != nil {
		return nil, err
	}
	return collections, nil
}

// DeleteCollection removes a collection together with its records and
// index rows.
func (s *CollectionsStore) DeleteCollection(name string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var collection model.Collection
		if err := tx.Where("name = ?", name).First(&collection).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrCollectionNotFound
			}
			return err
		}

		if err := tx.Where("collection_id = ?", collection.ID).Delete(&model.RecordIndex{}).Error; err != nil {
			return err
		}
		if err := tx.Where("collection_id = ?", collection.ID).Delete(&model.Record{}).Error; err != nil {
			return err
		}
		return tx.Delete(&collection).Error
	})
}
