// Package store provides storage abstractions for the vault server.
//
// This package defines interfaces for database operations, allowing the
// vault core and server endpoints to be decoupled from the specific
// database implementation. This enables easier testing with mocks and
// potential support for different storage backends.
//
// # Available Stores
//
//   - CollectionsStore: Collection definitions and schemas
//   - RecordsStore: Encrypted record operations and indexed search
//   - SubjectsStore: Data subjects and cascade erasure
//   - PoliciesStore: Access policies
//   - PrincipalsStore: API principals and policy attachments
//   - TokensStore: Reference tokens
//   - HealthStore: Connectivity checks
//
// # Usage
//
//	records := gorm.NewRecordsStore(db, indexer)
//	record, err := records.GetRecord("col_2Kq", "rec_9Zx")
//	if err != nil {
//	    if errors.Is(err, store.ErrRecordNotFound) {
//	        // Handle not found
//	    }
//	}
package store
