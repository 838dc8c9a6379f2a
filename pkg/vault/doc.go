// Package vault implements the PII vault core.
//
// The Vault type orchestrates every operation: it authorizes the request
// against the caller's attached policies, validates payloads against the
// collection schema, renders fields in the requested formats, and delegates
// persistence to the store layer.
//
// # Authorization
//
// Every operation maps to an action (read or write) on a hierarchical
// resource path such as
//
//	/collections/customers/records/rec_2Kq/phone.masked
//
// Policies attached to the calling principal are evaluated with deny
// overriding allow and an implicit default deny. Multi-field reads are
// all or nothing: a single denied selector fails the whole request.
package vault
