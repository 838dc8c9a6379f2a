package gorm

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/piivault/pkg/model"
	"github.com/doodlesbykumbi/piivault/pkg/server/store"
)

// Ensure RecordsStore implements store.RecordsStore
var _ store.RecordsStore = (*RecordsStore)(nil)

// RecordsStore implements store.RecordsStore using GORM
type RecordsStore struct {
	db *gorm.DB
}

// NewRecordsStore creates a new RecordsStore
func NewRecordsStore(db *gorm.DB) *RecordsStore {
	return &RecordsStore{db: db}
}

// CreateRecord persists a record together with its blind-index rows in one
// transaction.
func (s *RecordsStore) CreateRecord(record *model.Record, indexes []model.RecordIndex) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		if len(indexes) == 0 {
			return nil
		}
		if err := tx.Create(&indexes).Error; err != nil {
			if isUniqueViolation(err) {
				return store.ErrDuplicateValue
			}
			return err
		}
		return nil
	})
}

// GetRecord retrieves a record scoped to a collection.
func (s *RecordsStore) GetRecord(collectionID, recordID string) (*model.Record, error) {
	var record model.Record
	tx := s.db.Where("collection_id = ? AND id = ?", collectionID, recordID).First(&record)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrRecordNotFound
		}
		return nil, tx.Error
	}
	return &record, nil
}

// ListRecords lists all records of a collection.
func (s *RecordsStore) ListRecords(collectionID string) ([]*model.Record, error) {
	var records []*model.Record
	if err := s.db.Where("collection_id = ?", collectionID).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateRecord applies mutate to a row-locked record and replaces its
// index rows in one transaction. The lock is taken before the record is
// read, so the merge always starts from the latest committed row.
func (s *RecordsStore) UpdateRecord(collectionID, recordID string, mutate func(record *model.Record) ([]model.RecordIndex, error)) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var record model.Record
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection_id = ? AND id = ?", collectionID, recordID).
			First(&record).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrRecordNotFound
			}
			return err
		}

		indexes, err := mutate(&record)
		if err != nil {
			return err
		}

		if err := tx.Save(&record).Error; err != nil {
			return err
		}
		if err := tx.Where("record_id = ?", record.ID).Delete(&model.RecordIndex{}).Error; err != nil {
			return err
		}
		if len(indexes) == 0 {
			return nil
		}
		if err := tx.Create(&indexes).Error; err != nil {
			if isUniqueViolation(err) {
				return store.ErrDuplicateValue
			}
			return err
		}
		return nil
	})
}

// DeleteRecord removes a record, its child records and index rows.
func (s *RecordsStore) DeleteRecord(collectionID, recordID string, purgeTokens bool) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var exists int64
		err := tx.Model(&model.Record{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection_id = ? AND id = ?", collectionID, recordID).
			Count(&exists).Error
		if err != nil {
			return err
		}
		if exists == 0 {
			return store.ErrRecordNotFound
		}

		ids, err := collectDescendants(tx, []string{recordID})
		if err != nil {
			return err
		}
		return deleteRecords(tx, ids, purgeTokens)
	})
}

// SearchRecords finds records whose indexed field matches a digest.
func (s *RecordsStore) SearchRecords(collectionID, field, digest string) ([]*model.Record, error) {
	var ids []string
	err := s.db.Model(&model.RecordIndex{}).
		Where("collection_id = ? AND field = ? AND digest = ?", collectionID, field, digest).
		Pluck("record_id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var records []*model.Record
	if err := s.db.Where("id IN ?", ids).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// collectDescendants expands a set of record IDs with all records reachable
// through parent_record_id chains.
func collectDescendants(tx *gorm.DB, roots []string) ([]string, error) {
	seen := map[string]bool{}
	ids := make([]string, 0, len(roots))
	frontier := roots

	for len(frontier) > 0 {
		next := make([]string, 0, len(frontier))
		for _, id := range frontier {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
				next = append(next, id)
			}
		}
		if len(next) == 0 {
			break
		}

		var children []string
		err := tx.Model(&model.Record{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("parent_record_id IN ?", next).
			Pluck("id", &children).Error
		if err != nil {
			return nil, err
		}
		frontier = children
	}

	return ids, nil
}

// deleteRecords removes records by ID along with their index rows and,
// optionally, tokens referencing them. Returns no error when ids is empty.
func deleteRecords(tx *gorm.DB, ids []string, purgeTokens bool) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("record_id IN ?", ids).Delete(&model.RecordIndex{}).Error; err != nil {
		return err
	}
	if purgeTokens {
		if err := tx.Where("record_id IN ?", ids).Delete(&model.Token{}).Error; err != nil {
			return err
		}
	}
	return tx.Where("id IN ?", ids).Delete(&model.Record{}).Error
}
