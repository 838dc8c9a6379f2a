package endpoints

import (
	"github.com/doodlesbykumbi/piivault/pkg/server"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	RegisterAuthenticateEndpoint(srv)
	RegisterCollectionsEndpoints(srv)
	RegisterRecordsEndpoints(srv)
	RegisterSubjectsEndpoints(srv)
	RegisterPoliciesEndpoints(srv)
	RegisterPrincipalsEndpoints(srv)
	RegisterTokensEndpoints(srv)
	RegisterStatusEndpoints(srv)
}
