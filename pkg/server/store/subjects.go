package store

import (
	"errors"

	"github.com/doodlesbykumbi/piivault/pkg/model"
)

// ErrSubjectNotFound is returned when a subject doesn't exist
var ErrSubjectNotFound = errors.New("subject not found")

// ErrSubjectExists is returned when a subject EID is already registered
var ErrSubjectExists = errors.New("subject already exists")

// EraseResult summarizes a cascade erasure.
type EraseResult struct {
	RecordsDeleted int
	TokensPurged   int
}

// SubjectsStore abstracts subject storage operations
type SubjectsStore interface {
	// CreateSubject registers a new subject.
	// Returns ErrSubjectExists if the EID is already registered.
	CreateSubject(subject *model.Subject) error

	// GetSubject retrieves a subject by EID.
	// Returns ErrSubjectNotFound if the subject doesn't exist.
	GetSubject(eid string) (*model.Subject, error)

	// ListSubjects lists all subjects.
	ListSubjects() ([]*model.Subject, error)

	// EraseSubject removes a subject together with every record pinned to
	// it, the child records of those records, and all index rows, in one
	// transaction. Tokens referencing the erased records are purged when
	// purgeTokens is set. Returns ErrSubjectNotFound if it doesn't exist.
	EraseSubject(eid string, purgeTokens bool) (*EraseResult, error)
}
