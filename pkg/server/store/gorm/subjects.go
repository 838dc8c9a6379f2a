package gorm

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/piivault/pkg/model"
	"github.com/doodlesbykumbi/piivault/pkg/server/store"
)

// Ensure SubjectsStore implements store.SubjectsStore
var _ store.SubjectsStore = (*SubjectsStore)(nil)

// SubjectsStore implements store.SubjectsStore using GORM
type SubjectsStore struct {
	db *gorm.DB
}

// NewSubjectsStore creates a new SubjectsStore
func NewSubjectsStore(db *gorm.DB) *SubjectsStore {
	return &SubjectsStore{db: db}
}

// CreateSubject registers a new subject.
func (s *SubjectsStore) CreateSubject(subject *model.Subject) error {
	err := s.db.Create(subject).Error
	if isUniqueViolation(err) {
		return store.ErrSubjectExists
	}
	return err
}

// GetSubject retrieves a subject by EID.
func (s *SubjectsStore) GetSubject(eid string) (*model.Subject, error) {
	var subject model.Subject
	tx := s.db.Where("eid = ?", eid).First(&subject)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrSubjectNotFound
		}
		return nil, tx.Error
	}
	return &subject, nil
}

// ListSubjects lists all subjects.
func (s *SubjectsStore) ListSubjects() ([]*model.Subject, error) {
	var subjects []*model.Subject
	if err := s.db.Order("eid").Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}

// EraseSubject removes a subject together with every record pinned to it,
// the child records of those records, and all index rows, in one
// transaction.
func (s *SubjectsStore) EraseSubject(eid string, purgeTokens bool) (*store.EraseResult, error) {
	result := &store.EraseResult{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var subject model.Subject
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("eid = ?", eid).First(&subject).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrSubjectNotFound
			}
			return err
		}

		var roots []string
		err = tx.Model(&model.Record{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("subject_id = ?", subject.ID).
			Pluck("id", &roots).Error
		if err != nil {
			return err
		}

		ids, err := collectDescendants(tx, roots)
		if err != nil {
			return err
		}

		if len(ids) > 0 {
			if err := tx.Where("record_id IN ?", ids).Delete(&model.RecordIndex{}).Error; err != nil {
				return err
			}
			if purgeTokens {
				purge := tx.Where("record_id IN ?", ids).Delete(&model.Token{})
				if purge.Error != nil {
					return purge.Error
				}
				result.TokensPurged = int(purge.RowsAffected)
			}
			del := tx.Where("id IN ?", ids).Delete(&model.Record{})
			if del.Error != nil {
				return del.Error
			}
			result.RecordsDeleted = int(del.RowsAffected)
		}

		return tx.Delete(&subject).Error
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
