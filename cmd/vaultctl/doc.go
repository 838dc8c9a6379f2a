// Package main provides the vaultctl CLI for the PII vault server.
//
// The vault stores personally identifiable information in typed, encrypted
// collections, renders fields in plain or masked form under attribute-based
// access policies, issues reference tokens for individual field values and
// erases data subjects together with every record pinned to them.
//
// # Architecture
//
// The server is organized into several packages:
//
//   - pkg/server: HTTP server and routing
//   - pkg/server/endpoints: REST API endpoint handlers
//   - pkg/server/store: Persistence interfaces and their gorm implementations
//   - pkg/vault: Authorization, validation, rendering and tokenization
//   - pkg/policy: Access policy evaluation
//   - pkg/ptype: Semantic PII types and their renderings
//   - pkg/seal: Field encryption and blind-index digests
//   - pkg/model: Database models
//   - pkg/db: Database connection utilities
//   - pkg/audit: Audit logging
//   - pkg/config: Configuration management
//
// # Quick Start
//
//	# Generate the encryption and signing keys
//	vaultctl data-key generate > data_key
//	export PIIVAULT_DATA_KEY=$(cat data_key)
//	export PIIVAULT_SIGNING_KEY=$(vaultctl data-key generate)
//
//	# Run database migrations
//	vaultctl db migrate
//
//	# Start the server
//	export PIIVAULT_ADMIN_PASSWORD=changeme-now
//	vaultctl server
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - PIIVAULT_DATA_KEY: Base64-encoded 256-bit key for field encryption
//   - PIIVAULT_SIGNING_KEY: Session token signing key
//   - PIIVAULT_ADMIN_USERNAME / PIIVAULT_ADMIN_PASSWORD: Bootstrap admin
//   - PIIVAULT_CONFIG_PATH: Directory holding piivault.yml
//   - PIIVAULT_LOG_LEVEL: Log level (debug, info, warn, error)
package main
