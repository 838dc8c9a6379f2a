package store

import (
	"errors"

	"github.com/doodlesbykumbi/piivault/pkg/model"
)

// ErrCollectionNotFound is returned when a collection doesn't exist
var ErrCollectionNotFound = errors.New("collection not found")

// ErrCollectionExists is returned when a collection name is already taken
var ErrCollectionExists = errors.New("collection already exists")

// CollectionsStore abstracts collection storage operations
type CollectionsStore interface {
	// CreateCollection creates a new collection.
	// Returns ErrCollectionExists if the name is already taken.
	CreateCollection(collection *model.Collection) error

	// GetCollection retrieves a collection by name.
	// Returns ErrCollectionNotFound if the collection doesn't exist.
	GetCollection(name string) (*model.Collection, error)

	// ListCollections lists all collections.
	ListCollections() ([]*model.Collection, error)

	// DeleteCollection removes a collection together with its records and
	// index rows. Returns ErrCollectionNotFound if it doesn't exist.
	DeleteCollection(name string) error
}
