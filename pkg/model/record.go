package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Record struct {
	ID             string  `gorm:"primaryKey"`
	CollectionID   string  `gorm:"index"`
	SubjectID      *string `gorm:"index"`
	ParentRecordID *string `gorm:"index"`

	// Fields holds the JSON document of canonical field values, encrypted
	// at rest with the record ID as additional authenticated data.
	Fields []byte `gorm:"type:bytea"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Record) TableName() string {
	return "records"
}

func (r *Record) BeforeSave(tx *gorm.DB) error {
	encrypt := getCipherForDb(tx).Encrypt

	var err error
	r.Fields, err = encrypt([]byte(r.ID), r.Fields)
	if err != nil {
		err = fmt.Errorf("record encryption failed for id=%q", r.ID)
	}
	return err
}

func (r *Record) AfterFind(tx *gorm.DB) (err error) {
	decrypt := getCipherForDb(tx).Decrypt

	r.Fields, err = decrypt([]byte(r.ID), r.Fields)
	if err != nil {
		err = fmt.Errorf("record decryption failed for id=%q", r.ID)
	}
	return
}

// DecodeFields decodes the plaintext field document. Only valid after
// AfterFind has run or before BeforeSave encrypts the payload.
func (r *Record) DecodeFields() (map[string]string, error) {
	fields := map[string]string{}
	if len(r.Fields) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(r.Fields, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// EncodeFields encodes a plaintext field document for storage.
func (r *Record) EncodeFields(fields map[string]string) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	r.Fields = data
	return nil
}
