package model

import "time"

// Subject is a data subject. Records pinned to a subject are erased
// together when the subject is deleted.
type Subject struct {
	ID        string `gorm:"primaryKey"`
	EID       string `gorm:"column:eid;uniqueIndex"`
	CreatedAt time.Time
}

func (Subject) TableName() string {
	return "subjects"
}
