package store

import (
	"errors"

	"github.com/doodlesbykumbi/piivault/pkg/model"
)

// ErrRecordNotFound is returned when a record doesn't exist
var ErrRecordNotFound = errors.New("record not found")

// ErrDuplicateValue is returned when an indexed field value is already
// present in the collection
var ErrDuplicateValue = errors.New("duplicate value for indexed field")

// RecordsStore abstracts record storage operations
type RecordsStore interface {
	// CreateRecord persists a record together with its blind-index rows in
	// one transaction. Returns ErrDuplicateValue if an indexed field value
	// is already taken in the collection.
	CreateRecord(record *model.Record, indexes []model.RecordIndex) error

	// GetRecord retrieves a record scoped to a collection.
	// Returns ErrRecordNotFound if the record doesn't exist.
	GetRecord(collectionID, recordID string) (*model.Record, error)

	// ListRecords lists all records of a collection.
	ListRecords(collectionID string) ([]*model.Record, error)

	// UpdateRecord reads a record under a row lock, applies mutate to it
	// and replaces its index rows, all in one transaction, so concurrent
	// updates to the same record serialize instead of losing writes.
	// mutate returns the record's new index rows. Returns ErrRecordNotFound
	// if the record doesn't exist and ErrDuplicateValue on index conflicts;
	// errors from mutate are passed through unchanged.
	UpdateRecord(collectionID, recordID string, mutate func(record *model.Record) ([]model.RecordIndex, error)) error

	// DeleteRecord removes a record, its child records and index rows.
	// Tokens referencing the deleted records are purged when purgeTokens
	// is set. Returns ErrRecordNotFound if the record doesn't exist.
	DeleteRecord(collectionID, recordID string, purgeTokens bool) error

	// SearchRecords finds records whose indexed field matches a digest.
	SearchRecords(collectionID, field, digest string) ([]*model.Record, error)
}
