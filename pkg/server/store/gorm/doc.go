// Package gorm provides GORM-backed implementations of the store
// interfaces defined in the parent store package: collections, records,
// subjects, policies, principals, tokens and the health probe.
package gorm
