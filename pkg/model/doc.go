// Package model defines the database models for the vault.
//
// This package contains GORM models that map to the vault's PostgreSQL
// schema. Sensitive columns are encrypted transparently through GORM hooks
// using the cipher stashed in the connection context.
//
// # Core Models
//
//   - Collection: Named record container with a typed field schema
//   - Record: Encrypted PII field values belonging to a collection
//   - RecordIndex: Blind-index rows for indexed-field equality lookups
//   - Subject: Data subject that records can be pinned to
//   - Policy: Attribute-based access rules
//   - Principal: API identities with bcrypt credentials
//   - Token: Reference tokens holding an encrypted field snapshot
//
// # Database Schema
//
// The database uses PostgreSQL with the following key tables:
//
//   - collections: Collection definitions and schemas
//   - records: Encrypted field payloads
//   - record_indexes: HMAC digests for indexed fields
//   - subjects: Data subjects
//   - policies: Access policies
//   - principals: API principals
//   - principal_policies: Policy attachments
//   - tokens: Reference tokens
package model
