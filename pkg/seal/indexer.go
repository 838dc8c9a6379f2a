package seal

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Indexer computes blind-index digests for indexed field values. Encryption
// is nondeterministic, so equality lookups and duplicate detection go
// through keyed digests instead of ciphertext comparison.
type Indexer struct {
	key []byte
}

// NewIndexer creates an Indexer from a key of at least 32 bytes.
func NewIndexer(key []byte) (*Indexer, error) {
	if len(key) < 32 {
		return nil, fmt.Errorf("index key must be at least 32 bytes, got %d", len(key))
	}
	return &Indexer{key: key}, nil
}

// Digest returns the hex digest for a field value. The collection and field
// names are bound into the digest so equal values in different fields do not
// produce equal digests.
func (i *Indexer) Digest(collectionID, field, value string) string {
	mac := hmac.New(sha256.New, i.key)
	mac.Write([]byte(collectionID))
	mac.Write([]byte{0})
	mac.Write([]byte(field))
	mac.Write([]byte{0})
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}
