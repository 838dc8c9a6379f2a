// Package identity provides authenticated identity management for vault requests.
//
// This package separates the concept of an authenticated identity from the
// raw session token parsing. An Identity combines session claims (principal,
// username, timestamps) with request-specific context (remote IP).
//
// # Basic Usage
//
//	// Create identity after validating a session token
//	id := identity.New(principalID, username, issuedAt, expiresAt)
//
//	// Add request context
//	id.WithRemoteIP(clientIP)
//
//	// Store in request context
//	ctx = identity.Set(ctx, id)
//
//	// Retrieve from context
//	id, ok := identity.Get(ctx)
//
// The middleware package handles parsing and validating the raw session
// token. The identity package builds on that to carry the authenticated
// principal through store and vault calls.
package identity
