package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// FieldSchema describes a single field of a collection.
type FieldSchema struct {
	// Type is the semantic PII type name, e.g. "phone_number".
	Type string `json:"type"`
	// IsIndexed enables equality lookups and duplicate detection for the
	// field through blind-index digests.
	IsIndexed bool `json:"indexed"`
}

// CollectionSchema maps field names to their schemas.
type CollectionSchema map[string]FieldSchema

type Collection struct {
	ID   string `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex"`
	// Parent names the collection whose records own records in this one.
	// Empty means the collection stands alone.
	Parent    string
	Schema    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Collection) TableName() string {
	return "collections"
}

// ParseSchema decodes the stored schema document.
func (c *Collection) ParseSchema() (CollectionSchema, error) {
	var schema CollectionSchema
	if err := json.Unmarshal(c.Schema, &schema); err != nil {
		return nil, err
	}
	return schema, nil
}

// SetSchema encodes and stores a schema document.
func (c *Collection) SetSchema(schema CollectionSchema) error {
	data, err := json.Marshal(schema)
	if err != nil {
		return err
	}
	c.Schema = datatypes.JSON(data)
	return nil
}
