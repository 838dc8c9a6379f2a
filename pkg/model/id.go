package model

import "github.com/segmentio/ksuid"

// ID prefixes identify the resource kind at a glance.
const (
	CollectionIDPrefix = "col"
	RecordIDPrefix     = "rec"
	SubjectIDPrefix    = "sub"
	PolicyIDPrefix     = "pol"
	PrincipalIDPrefix  = "prn"
	TokenIDPrefix      = "tok"
)

func newID(prefix string) string {
	return prefix + "_" + ksuid.New().String()
}

func NewCollectionID() string { return newID(CollectionIDPrefix) }
func NewRecordID() string     { return newID(RecordIDPrefix) }
func NewSubjectID() string    { return newID(SubjectIDPrefix) }
func NewPolicyID() string     { return newID(PolicyIDPrefix) }
func NewPrincipalID() string  { return newID(PrincipalIDPrefix) }
func NewTokenID() string      { return newID(TokenIDPrefix) }
