package model

import "time"

type Principal struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex"`
	PasswordHash []byte `gorm:"type:bytea"`
	Description  string

	Policies []Policy `gorm:"many2many:principal_policies;"`

	CreatedAt time.Time
}

func (Principal) TableName() string {
	return "principals"
}
