// Package server provides the HTTP server for the vault API.
//
// It uses gorilla/mux for routing and carries the session middleware that
// authenticates every protected request.
//
// # Server Setup
//
//	srv := server.NewServer(v, sessions, healthStore, cfg.ListenAddr())
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Endpoints
//
// API endpoints are registered via the endpoints subpackage:
//
//	endpoints.RegisterAll(srv)
//
// This registers the full REST surface:
//
//   - /auth/token - session token issuance
//   - /collections - collection and schema management
//   - /collections/{collection}/records - record storage, rendering and search
//   - /subjects - data subject registration and erasure
//   - /policies, /principals - access control management
//   - /tokens - detokenization
package server
