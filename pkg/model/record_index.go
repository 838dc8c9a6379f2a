package model

// RecordIndex is a blind-index row for one indexed field of a record. The
// digest is an HMAC over (collection, field, value), so equality search and
// duplicate detection never touch ciphertext.
type RecordIndex struct {
	RecordID     string `gorm:"primaryKey"`
	Field        string `gorm:"primaryKey;uniqueIndex:idx_record_indexes_digest"`
	CollectionID string `gorm:"uniqueIndex:idx_record_indexes_digest"`
	Digest       string `gorm:"uniqueIndex:idx_record_indexes_digest"`
}

func (RecordIndex) TableName() string {
	return "record_indexes"
}
