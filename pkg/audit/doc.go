// Package audit provides audit logging for vault operations.
//
// This package implements structured audit logging for security-relevant
// operations such as authentication attempts, authorization checks, field
// access, tokenization and subject erasure.
//
// # Event Types
//
// The package defines event types for various operations:
//
//   - Authentication events (success/failure)
//   - Authorization check events
//   - Record field access events
//   - Tokenize and detokenize events
//   - Subject erasure events
//
// # Usage
//
//	audit.Log(audit.AccessEvent{
//	    Username:   "alice",
//	    Collection: "customers",
//	    RecordID:   "rec_2Kq",
//	    Operation:  "read",
//	    Success:    true,
//	})
//
// Events are written as structured JSON lines suitable for security
// monitoring and compliance requirements, and optionally persisted to a
// dedicated audit database.
package audit
