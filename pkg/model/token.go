package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Token is a reference token for a single record field rendering. The
// value is snapshotted at issue time, so a token keeps resolving even
// after its source record is deleted.
type Token struct {
	ID       string `gorm:"primaryKey"`
	RecordID string `gorm:"index"`
	Field    string
	Format   string

	// Value is the field value rendered in Format, encrypted at rest with
	// the token ID as additional authenticated data.
	Value []byte `gorm:"type:bytea"`

	CreatedAt time.Time
}

func (Token) TableName() string {
	return "tokens"
}

func (t *Token) BeforeCreate(tx *gorm.DB) error {
	encrypt := getCipherForDb(tx).Encrypt

	var err error
	t.Value, err = encrypt([]byte(t.ID), t.Value)
	if err != nil {
		err = fmt.Errorf("token encryption failed for id=%q", t.ID)
	}
	return err
}

func (t *Token) AfterFind(tx *gorm.DB) (err error) {
	decrypt := getCipherForDb(tx).Decrypt

	t.Value, err = decrypt([]byte(t.ID), t.Value)
	if err != nil {
		err = fmt.Errorf("token decryption failed for id=%q", t.ID)
	}
	return
}
