package model

import (
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/piivault/pkg/seal"
)

// getCipherForDb retrieves the field cipher stashed in the connection
// context by db.Connect. Panics if the connection was opened without one,
// since persisting PII unencrypted must never happen silently.
func getCipherForDb(tx *gorm.DB) seal.SymmetricCipher {
	cipher, ok := tx.Statement.Context.Value("cipher").(seal.SymmetricCipher)
	if !ok {
		panic("model: no cipher in database context")
	}
	return cipher
}
