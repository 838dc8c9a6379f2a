package store

import (
	"errors"

	"github.com/doodlesbykumbi/piivault/pkg/model"
)

// ErrTokenNotFound is returned when a token doesn't exist
var ErrTokenNotFound = errors.New("token not found")

// TokensStore abstracts reference token storage operations
type TokensStore interface {
	// CreateTokenForRecord reads the source record under a share lock and
	// persists the token capture builds from it, all in one transaction, so
	// the snapshot can never interleave with a cascade deleting the record.
	// Returns ErrRecordNotFound if the record doesn't exist; errors from
	// capture are passed through unchanged.
	CreateTokenForRecord(collectionID, recordID string, capture func(record *model.Record) (*model.Token, error)) error

	// GetToken retrieves a token by ID.
	// Returns ErrTokenNotFound if the token doesn't exist.
	GetToken(id string) (*model.Token, error)

	// DeleteToken removes a token.
	// Returns ErrTokenNotFound if the token doesn't exist.
	DeleteToken(id string) error
}
