// Package config provides configuration management for the vault server.
//
// This package handles loading and validating server configuration from
// environment variables and configuration files.
//
// # Configuration Sources
//
// Configuration is loaded from:
//
//   - Environment variables (primary)
//   - Configuration files (optional)
//
// # Key Configuration Options
//
//   - PIIVAULT_DATA_KEY: Field encryption key
//   - PIIVAULT_SIGNING_KEY: Session token signing key
//   - PIIVAULT_DATABASE_URL: Database connection
//   - PIIVAULT_PORT: Server listen port
package config
